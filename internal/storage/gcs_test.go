package storage

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/url"
	"strings"
	"testing"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPrivateKeyPEM(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}

func TestSignedDownloadURL(t *testing.T) {
	// Env files hold the key on one line with escaped newlines.
	escaped := strings.ReplaceAll(testPrivateKeyPEM(t), "\n", `\n`)

	raw, err := signedDownloadURL("photos", "a/bob.jpg", "signer@project.iam.gserviceaccount.com", escaped, time.Now().Add(time.Hour))
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "storage.googleapis.com", u.Host)
	assert.Equal(t, "/photos/a/bob.jpg", u.Path)
	assert.NotEmpty(t, u.Query().Get("X-Goog-Signature"))
	assert.Contains(t, u.Query().Get("X-Goog-Credential"), "signer@project.iam.gserviceaccount.com")
}

func TestSignedDownloadURLRejectsBadKey(t *testing.T) {
	_, err := signedDownloadURL("photos", "bob.jpg", "signer@example.com", "not a key", time.Now().Add(time.Hour))
	assert.Error(t, err)
}

func TestGCSObject(t *testing.T) {
	updated := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	obj := gcsObject(&gcs.ObjectAttrs{Name: "a/bob.jpg", Updated: updated})
	assert.Equal(t, "a/bob.jpg", obj.Key)
	require.NotNil(t, obj.LastModified)
	assert.Equal(t, updated, *obj.LastModified)

	assert.Nil(t, gcsObject(&gcs.ObjectAttrs{Name: "carl.png"}).LastModified)
}
