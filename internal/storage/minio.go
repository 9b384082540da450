package storage

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/andresserrato2004/carrusel-photo-isis/internal/types"
)

// MinIOAPI is the subset of the MinIO client used here.
type MinIOAPI interface {
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

var _ MinIOAPI = (*minio.Client)(nil)

type MinIOOptions struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// MinIOBucket lists and signs objects on a MinIO (or other S3-compatible)
// server through the MinIO client.
type MinIOBucket struct {
	bucket string
	client MinIOAPI
}

// NewMinIOBucket builds the client. Setting the region avoids a bucket
// location lookup before presigning.
func NewMinIOBucket(opts MinIOOptions) (*MinIOBucket, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  miniocreds.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return NewMinIOBucketWithClient(opts.Bucket, client), nil
}

func NewMinIOBucketWithClient(bucket string, client MinIOAPI) *MinIOBucket {
	return &MinIOBucket{bucket: bucket, client: client}
}

func (b *MinIOBucket) Name() string { return b.bucket }

func (b *MinIOBucket) List(ctx context.Context) ([]types.StoredObject, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var out []types.StoredObject
	for info := range b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if info.Err != nil {
			return nil, fmt.Errorf("list objects: %w", info.Err)
		}
		obj := types.StoredObject{Key: info.Key}
		if !info.LastModified.IsZero() {
			modified := info.LastModified
			obj.LastModified = &modified
		}
		out = append(out, obj)
	}
	return out, nil
}

func (b *MinIOBucket) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := b.client.PresignedGetObject(ctx, b.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}
