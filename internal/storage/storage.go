// Package storage lists carousel photos in an object-storage bucket and
// issues short-lived signed URLs so browsers fetch the bytes directly.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/smithy-go"
	"github.com/minio/minio-go/v7"

	"github.com/andresserrato2004/carrusel-photo-isis/internal/config"
	"github.com/andresserrato2004/carrusel-photo-isis/internal/types"
)

// Bucket is one object-storage bucket. Implementations hold no per-call state
// and are safe for concurrent use.
type Bucket interface {
	// Name returns the configured bucket name; empty means unconfigured.
	Name() string
	// List returns every object in the bucket, all pages included.
	List(ctx context.Context) ([]types.StoredObject, error)
	// SignedURL returns a GET URL for key valid for ttl.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

var imageExtensions = []string{".jpg", ".jpeg", ".png"}

// IsImage reports whether key ends in a displayable image extension,
// ignoring case.
func IsImage(key string) bool {
	lower := strings.ToLower(key)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// SortNewestFirst orders objects by descending modification time. Objects
// without a timestamp sort as oldest; ties keep listing order.
func SortNewestFirst(objects []types.StoredObject) {
	sort.SliceStable(objects, func(i, j int) bool {
		return objects[i].ModifiedOrZero().After(objects[j].ModifiedOrZero())
	})
}

// ListImages lists the bucket, keeps image keys and sorts them newest first.
func ListImages(ctx context.Context, b Bucket) ([]types.StoredObject, error) {
	objects, err := b.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bucket %s: %w", b.Name(), err)
	}

	images := make([]types.StoredObject, 0, len(objects))
	for _, o := range objects {
		if o.Key == "" || !IsImage(o.Key) {
			continue
		}
		images = append(images, o)
	}
	SortNewestFirst(images)
	return images, nil
}

// ErrorCode extracts a provider error code for log fields, or "" when the
// error did not come from a storage API.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) {
		return minioErr.Code
	}
	return ""
}

// New builds the bucket client for the configured provider.
func New(ctx context.Context, cfg config.Config) (Bucket, error) {
	var (
		b   Bucket
		err error
	)
	switch cfg.StorageProvider {
	case config.ProviderS3:
		b, err = asBucket(NewS3Bucket(ctx, S3Options{
			Bucket:          cfg.BucketName,
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			Endpoint:        cfg.S3Endpoint,
		}))
	case config.ProviderGCS:
		b, err = asBucket(NewGCSBucket(ctx, GCSOptions{
			Bucket:          cfg.BucketName,
			CredentialsFile: cfg.GCSCredentialsFile,
			SigningEmail:    cfg.GCSSigningEmail,
			SigningKey:      cfg.GCSSigningPrivateKey,
		}))
	case config.ProviderMinIO:
		b, err = asBucket(NewMinIOBucket(MinIOOptions{
			Bucket:          cfg.BucketName,
			Endpoint:        cfg.MinIOEndpoint,
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			UseSSL:          cfg.MinIOUseSSL,
		}))
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.StorageProvider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s bucket client: %w", cfg.StorageProvider, err)
	}
	return b, nil
}

// asBucket keeps a failed constructor from leaking a typed nil pointer
// inside a non-nil interface.
func asBucket[T Bucket](b T, err error) (Bucket, error) {
	if err != nil {
		return nil, err
	}
	return b, nil
}

var (
	defaultOnce   sync.Once
	defaultBucket Bucket
	defaultErr    error
)

// Default returns the process-wide bucket client, constructing it on first
// use. It is built once at startup, never torn down, and shared by every
// request; later calls ignore their arguments.
func Default(ctx context.Context, cfg config.Config) (Bucket, error) {
	defaultOnce.Do(func() {
		defaultBucket, defaultErr = New(ctx, cfg)
	})
	return defaultBucket, defaultErr
}
