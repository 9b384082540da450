//go:build integration

package storage

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/localstack"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startLocalStack(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := localstack.Run(ctx,
		"localstack/localstack:latest",
		testcontainers.WithWaitStrategy(
			wait.ForHTTP("/_localstack/health").
				WithPort("4566").
				WithStartupTimeout(2*time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "4566")
	require.NoError(t, err)

	return fmt.Sprintf("http://%s:%s", host, port.Port())
}

func localBucket(t *testing.T, endpoint, name string) *S3Bucket {
	t.Helper()
	b, err := NewS3Bucket(context.Background(), S3Options{
		Bucket:          name,
		Region:          "us-east-1",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		Endpoint:        endpoint,
	})
	require.NoError(t, err)
	return b
}

func TestS3BucketAgainstLocalStack(t *testing.T) {
	endpoint := startLocalStack(t)
	ctx := context.Background()
	b := localBucket(t, endpoint, "graduados")

	_, err := b.client.(*s3.Client).CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String("graduados")})
	require.NoError(t, err)

	for _, key := range []string{"bob.jpg", "notes.txt", "2025/ana.PNG"} {
		_, err := b.client.(*s3.Client).PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String("graduados"),
			Key:    aws.String(key),
			Body:   strings.NewReader("payload " + key),
		})
		require.NoError(t, err)
		// LastModified has one second resolution.
		time.Sleep(1100 * time.Millisecond)
	}

	objects, err := ListImages(ctx, b)
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "2025/ana.PNG", objects[0].Key)
	assert.Equal(t, "bob.jpg", objects[1].Key)

	signed, err := b.SignedURL(ctx, "bob.jpg", time.Minute)
	require.NoError(t, err)

	resp, err := http.Get(signed)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestS3BucketMissingAgainstLocalStack(t *testing.T) {
	endpoint := startLocalStack(t)
	b := localBucket(t, endpoint, "does-not-exist")

	_, err := ListImages(context.Background(), b)
	require.Error(t, err)
	assert.Equal(t, "NoSuchBucket", ErrorCode(err))
}
