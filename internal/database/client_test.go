package database

import (
	"context"
	"database/sql"
	"sort"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresserrato2004/carrusel-photo-isis/internal/config"
	"github.com/andresserrato2004/carrusel-photo-isis/internal/types"
)

func newSQLiteClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(config.DriverSQLite, "file::memory:?cache=shared", `"User"`)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	// A single connection keeps the in-memory database alive across queries.
	client.db.SetMaxOpenConns(1)
	require.NoError(t, client.Ping(context.Background()))

	_, err = client.db.Exec(`create table if not exists "User" (id integer primary key, image text, name text, career text)`)
	require.NoError(t, err)
	_, err = client.db.Exec(`delete from "User"`)
	require.NoError(t, err)
	_, err = client.db.Exec(`insert into "User" (image, name, career) values
		('bob.jpg', 'Bob', 'Ingeniería de Sistemas'),
		('carl.png', 'Carl', 'Biología'),
		('alice.png', 'Alice', null),
		('dana.jpg', null, 'Ingeniería Civil')`)
	require.NoError(t, err)
	return client
}

func byImage(records []types.StudentRecord) []types.StudentRecord {
	sort.Slice(records, func(i, j int) bool { return records[i].Image < records[j].Image })
	return records
}

func TestLookupStudents(t *testing.T) {
	client := newSQLiteClient(t)

	records, err := client.LookupStudents(context.Background(), []string{"bob.jpg", "carl.png", "bob.jpg", "missing.jpg"})
	require.NoError(t, err)

	assert.Equal(t, []types.StudentRecord{
		{Image: "bob.jpg", Name: "Bob", Career: "Ingeniería de Sistemas"},
		{Image: "carl.png", Name: "Carl", Career: "Biología"},
	}, byImage(records))
}

func TestLookupStudentsNullColumns(t *testing.T) {
	client := newSQLiteClient(t)

	records, err := client.LookupStudents(context.Background(), []string{"alice.png", "dana.jpg"})
	require.NoError(t, err)

	assert.Equal(t, []types.StudentRecord{
		{Image: "alice.png", Name: "Alice", Career: ""},
		{Image: "dana.jpg", Name: "", Career: "Ingeniería Civil"},
	}, byImage(records))
}

func TestLookupStudentsEmptyInput(t *testing.T) {
	client := newSQLiteClient(t)

	records, err := client.LookupStudents(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLookupStudentsQueryError(t *testing.T) {
	db, err := sql.Open(config.DriverSQLite, "file::memory:")
	require.NoError(t, err)
	client := NewClientWithDB(db, config.DriverSQLite, "missing_table")
	defer client.Close()

	_, err = client.LookupStudents(context.Background(), []string{"bob.jpg"})
	assert.ErrorContains(t, err, "query students")
}

func TestLookupQueryPostgres(t *testing.T) {
	client := NewClientWithDB(nil, config.DriverPostgres, `"User"`)

	query, args := client.lookupQuery([]string{"a.jpg", "b.png"})
	assert.Equal(t, `select image, name, career from "User" where image = any($1)`, query)
	require.Len(t, args, 1)
	assert.Equal(t, pq.Array([]string{"a.jpg", "b.png"}), args[0])
}

func TestLookupQuerySQLite(t *testing.T) {
	client := NewClientWithDB(nil, config.DriverSQLite, "users")

	query, args := client.lookupQuery([]string{"a.jpg", "b.png", "c.png"})
	assert.Equal(t, `select image, name, career from users where image in (?,?,?)`, query)
	assert.Equal(t, []any{"a.jpg", "b.png", "c.png"}, args)
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, dedupe([]string{"a", "", "b", "a"}))
	assert.Empty(t, dedupe(nil))
}
