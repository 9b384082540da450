package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/andresserrato2004/carrusel-photo-isis/internal/types"
)

type GCSOptions struct {
	Bucket          string
	CredentialsFile string
	// SigningEmail and SigningKey sign URLs with an explicit service account.
	// When empty the client's own credentials are used.
	SigningEmail string
	SigningKey   string
}

// GCSBucket lists and signs objects in a Google Cloud Storage bucket.
type GCSBucket struct {
	bucket       string
	handle       *gcs.BucketHandle
	signingEmail string
	signingKey   string
	now          func() time.Time
}

func NewGCSBucket(ctx context.Context, opts GCSOptions) (*GCSBucket, error) {
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}

	client, err := gcs.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}

	return &GCSBucket{
		bucket:       opts.Bucket,
		handle:       client.Bucket(opts.Bucket),
		signingEmail: opts.SigningEmail,
		signingKey:   opts.SigningKey,
		now:          time.Now,
	}, nil
}

func (b *GCSBucket) Name() string { return b.bucket }

func (b *GCSBucket) List(ctx context.Context) ([]types.StoredObject, error) {
	it := b.handle.Objects(ctx, nil)

	var out []types.StoredObject
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate objects: %w", err)
		}
		out = append(out, gcsObject(attrs))
	}
	return out, nil
}

func gcsObject(attrs *gcs.ObjectAttrs) types.StoredObject {
	obj := types.StoredObject{Key: attrs.Name}
	if !attrs.Updated.IsZero() {
		updated := attrs.Updated
		obj.LastModified = &updated
	}
	return obj
}

func (b *GCSBucket) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	if b.signingEmail != "" && b.signingKey != "" {
		return signedDownloadURL(b.bucket, key, b.signingEmail, b.signingKey, b.now().Add(ttl))
	}

	url, err := b.handle.SignedURL(key, &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  "GET",
		Expires: b.now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("sign %s: %w", key, err)
	}
	return url, nil
}

// signedDownloadURL generates a V4 signed URL for downloading an object.
func signedDownloadURL(bucket, objectKey, serviceAccountEmail, privateKey string, expires time.Time) (string, error) {
	// Keys pasted into env files carry literal \n sequences.
	key := strings.ReplaceAll(privateKey, `\n`, "\n")

	url, err := gcs.SignedURL(bucket, objectKey, &gcs.SignedURLOptions{
		Scheme:         gcs.SigningSchemeV4,
		Method:         "GET",
		Expires:        expires,
		GoogleAccessID: serviceAccountEmail,
		PrivateKey:     []byte(key),
	})
	if err != nil {
		return "", fmt.Errorf("sign %s: %w", objectKey, err)
	}
	return url, nil
}
