package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/andresserrato2004/carrusel-photo-isis/internal/config"
	"github.com/andresserrato2004/carrusel-photo-isis/internal/types"
)

// Client wraps a sql.DB holding the student records.
type Client struct {
	db     *sql.DB
	driver string
	table  string
}

// NewClient opens a handle to the student store without connecting; call Ping
// to check reachability. table is trusted: config validates it as a plain or
// schema-qualified identifier.
func NewClient(driver, databaseURL, table string) (*Client, error) {
	db, err := sql.Open(driver, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return NewClientWithDB(db, driver, table), nil
}

// NewClientWithDB wraps an already opened handle.
func NewClientWithDB(db *sql.DB, driver, table string) *Client {
	return &Client{db: db, driver: driver, table: table}
}

// Ping verifies the store is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (c *Client) Close() error {
	return c.db.Close()
}

// LookupStudents fetches every record whose image column is one of filenames
// in a single query. Duplicates in filenames are collapsed.
func (c *Client) LookupStudents(ctx context.Context, filenames []string) ([]types.StudentRecord, error) {
	unique := dedupe(filenames)
	if len(unique) == 0 {
		return nil, nil
	}

	query, args := c.lookupQuery(unique)
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer rows.Close()

	var out []types.StudentRecord
	for rows.Next() {
		var image, name, career sql.NullString
		if err := rows.Scan(&image, &name, &career); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		out = append(out, types.StudentRecord{
			Image:  image.String,
			Name:   name.String,
			Career: career.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}
	return out, nil
}

func (c *Client) lookupQuery(filenames []string) (string, []any) {
	if c.driver == config.DriverPostgres {
		query := fmt.Sprintf(`select image, name, career from %s where image = any($1)`, c.table)
		return query, []any{pq.Array(filenames)}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filenames)), ",")
	query := fmt.Sprintf(`select image, name, career from %s where image in (%s)`, c.table, placeholders)
	args := make([]any, len(filenames))
	for i, f := range filenames {
		args[i] = f
	}
	return query, args
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
