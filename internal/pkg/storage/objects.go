// Package storage wraps the MinIO client used for crop images and exported
// reports.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/config"
	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/logger"
)

// ObjectStore stores binary objects in buckets and hands out download links
type ObjectStore struct {
	client *minio.Client
}

// NewObjectStore connects to MinIO and makes sure the given buckets exist
func NewObjectStore(ctx context.Context, cfg config.MinIOConfig, buckets ...string) (*ObjectStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is not configured")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	for _, bucket := range buckets {
		exists, err := client.BucketExists(ctx, bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to check bucket %s: %w", bucket, err)
		}
		if exists {
			continue
		}
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
		logger.Info("created bucket", zap.String("bucket", bucket))
	}

	return &ObjectStore{client: client}, nil
}

// Put uploads data under key
func (s *ObjectStore) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s/%s: %w", bucket, key, err)
	}
	return nil
}

// PresignedURL returns a time-limited download link for key
func (s *ObjectStore) PresignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, bucket, key, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s/%s: %w", bucket, key, err)
	}
	return u.String(), nil
}

// Ping checks that the object store answers
func (s *ObjectStore) Ping(ctx context.Context) error {
	_, err := s.client.ListBuckets(ctx)
	return err
}

// Disabled stands in for the object store when MinIO is not configured.
// Every call fails with a 503 application error.
type Disabled struct{}

func (Disabled) Put(context.Context, string, string, []byte, string) error {
	return errStorageDisabled
}

func (Disabled) PresignedURL(context.Context, string, string, time.Duration) (string, error) {
	return "", errStorageDisabled
}

func (Disabled) Ping(context.Context) error {
	return errStorageDisabled
}

var errStorageDisabled = apperrors.Unavailable("object storage is not configured")
