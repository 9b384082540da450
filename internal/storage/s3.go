package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/andresserrato2004/carrusel-photo-isis/internal/types"
)

// S3API is the subset of the S3 client used for listing.
type S3API interface {
	ListObjectsV2(
		ctx context.Context,
		params *s3.ListObjectsV2Input,
		optFns ...func(*s3.Options),
	) (*s3.ListObjectsV2Output, error)
}

// S3Presigner is the subset of the S3 presign client used for signing.
type S3Presigner interface {
	PresignGetObject(
		ctx context.Context,
		params *s3.GetObjectInput,
		optFns ...func(*s3.PresignOptions),
	) (*v4.PresignedHTTPRequest, error)
}

var (
	_ S3API       = (*s3.Client)(nil)
	_ S3Presigner = (*s3.PresignClient)(nil)
)

type S3Options struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint points at an S3-compatible service; path-style addressing is
	// used when it is set.
	Endpoint string
}

// S3Bucket lists and signs objects in an Amazon S3 bucket.
type S3Bucket struct {
	bucket    string
	client    S3API
	presigner S3Presigner
}

// NewS3Bucket builds an S3 client. Static credentials are used when both key
// parts are set, otherwise the default AWS credential chain applies.
func NewS3Bucket(ctx context.Context, opts S3Options) (*S3Bucket, error) {
	region := strings.TrimSpace(opts.Region)
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3BucketWithClient(opts.Bucket, client, s3.NewPresignClient(client)), nil
}

// NewS3BucketWithClient wires prebuilt clients, mainly for tests.
func NewS3BucketWithClient(bucket string, client S3API, presigner S3Presigner) *S3Bucket {
	return &S3Bucket{bucket: bucket, client: client, presigner: presigner}
}

func (b *S3Bucket) Name() string { return b.bucket }

func (b *S3Bucket) List(ctx context.Context) ([]types.StoredObject, error) {
	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
	})

	var out []types.StoredObject
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range page.Contents {
			out = append(out, types.StoredObject{
				Key:          aws.ToString(obj.Key),
				LastModified: obj.LastModified,
			})
		}
	}
	return out, nil
}

func (b *S3Bucket) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := b.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}
