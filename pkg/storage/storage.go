// Package storage wraps the S3-compatible object store holding recipe
// images. It exposes the three operations the application needs (upload,
// public URL, remove) behind an interface so services can be tested against
// an in-memory implementation.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ObjectStorage is the contract the image pipeline depends on.
type ObjectStorage interface {
	// Upload stores bytes at path with the given content type and returns
	// the stored path.
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
	// PublicURL returns the publicly resolvable URL for a stored path.
	PublicURL(path string) string
	// Remove deletes the objects at the given paths.
	Remove(ctx context.Context, paths []string) error
}

// Config holds the connection details for the bucket.
type Config struct {
	Endpoint  string // base endpoint, e.g. a MinIO URL; empty for AWS
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// S3Storage is the aws-sdk-go-v2 implementation of ObjectStorage.
type S3Storage struct {
	client *s3.Client
	cfg    Config
}

// NewS3Storage builds an S3 client with static credentials and an optional
// custom base endpoint (MinIO-style deployments).
func NewS3Storage(ctx context.Context, cfg Config) (*S3Storage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{client: client, cfg: cfg}, nil
}

// Upload stores the object with a long-lived cache-control header; stored
// names embed a timestamp, so objects never change in place.
func (s *S3Storage) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.cfg.Bucket),
		Key:          aws.String(path),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("max-age=31536000"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", path, err)
	}
	return path, nil
}

// PublicURL builds the public object URL. With a custom endpoint the
// path-style form is used; otherwise the AWS virtual-hosted form.
func (s *S3Storage) PublicURL(path string) string {
	if s.cfg.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.cfg.Endpoint, "/"), s.cfg.Bucket, path)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, path)
}

// Remove deletes the given objects in one call.
func (s *S3Storage) Remove(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	objects := make([]types.ObjectIdentifier, 0, len(paths))
	for _, p := range paths {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(p)})
	}
	_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.cfg.Bucket),
		Delete: &types.Delete{Objects: objects},
	})
	if err != nil {
		return fmt.Errorf("failed to remove %d objects: %w", len(paths), err)
	}
	return nil
}
