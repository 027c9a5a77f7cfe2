package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/pankaj085/lotuslynx/internal/config"
)

// ImageStore is the opaque image-hosting collaborator: Upload returns a
// public URL, Delete removes by object name.
type ImageStore interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, objectName string) error
	ObjectName(imageURL string) string
}

// MinioStore implements ImageStore against a MinIO (or S3-compatible)
// bucket.
type MinioStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

var _ ImageStore = (*MinioStore)(nil)

// NewMinioStore connects to the object store and ensures the bucket
// exists.
func NewMinioStore(ctx context.Context, cfg config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	scheme := "http"
	if cfg.MinioUseSSL {
		scheme = "https"
	}

	return &MinioStore{
		client:  client,
		bucket:  cfg.MinioBucket,
		baseURL: fmt.Sprintf("%s://%s/%s", scheme, cfg.MinioEndpoint, cfg.MinioBucket),
	}, nil
}

// Upload stores the object and returns its public URL.
func (s *MinioStore) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload object: %w", err)
	}
	return s.baseURL + "/" + objectName, nil
}

// Delete removes the object. Missing objects are not an error.
func (s *MinioStore) Delete(ctx context.Context, objectName string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

// ObjectName recovers the object name from a URL previously returned by
// Upload. Foreign URLs fall back to their last path segment.
func (s *MinioStore) ObjectName(imageURL string) string {
	if rest := strings.TrimPrefix(imageURL, s.baseURL+"/"); rest != imageURL {
		return rest
	}
	return path.Base(imageURL)
}
