package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/twonumberfortyfives/e-commerce-shop/config"
)

// S3Sink stores files in an S3 bucket. Any S3 compatible service (R2, MinIO)
// works by setting a custom endpoint.
type S3Sink struct {
	C        *s3.Client
	Bucket   *string
	uploader *manager.Uploader
	baseURL  string
}

// NewS3Sink builds the client and makes sure the bucket exists. publicURL is
// the base objects are served from; when empty the bucket's own URL is used.
func NewS3Sink(ctx context.Context, c config.AWS, publicURL string) (*S3Sink, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKey,
			c.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config, %w", err)
	}

	region := c.Region
	if region == "" {
		// R2 ignores the region but the signer still needs one
		region = "auto"
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.Region = region
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})

	bucket := aws.String(c.Bucket)

	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: bucket,
	})
	if err != nil {
		var apiErr smithy.APIError

		if errors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "NotFound" {
				return nil, fmt.Errorf("bucket '%s' does not exist", c.Bucket)
			}
		}

		return nil, fmt.Errorf("failed to check if bucket exists, %w", err)
	}

	if publicURL == "" {
		publicURL = bucketURL(c, region)
	}

	return &S3Sink{
		C:      client,
		Bucket: bucket,
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.Concurrency = 5
			u.PartSize = 6 << 20
		}),
		baseURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

func bucketURL(c config.AWS, region string) string {
	if c.Endpoint != "" {
		return strings.TrimSuffix(c.Endpoint, "/") + "/" + c.Bucket
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.Bucket, region)
}

// Write streams body to the bucket. Bodies above one part size are sent as a
// multipart upload.
func (s *S3Sink) Write(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:       s.Bucket,
		Key:          aws.String(key),
		Body:         body,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to s3, %w", key, err)
	}

	return nil
}

// Delete removes key from the bucket. S3 reports success for missing keys.
func (s *S3Sink) Delete(ctx context.Context, key string) error {
	_, err := s.C.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: s.Bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s from s3, %w", key, err)
	}

	return nil
}

func (s *S3Sink) URL(key string) string {
	return s.baseURL + "/" + strings.TrimPrefix(key, "/")
}
