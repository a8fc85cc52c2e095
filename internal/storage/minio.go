package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore implements Store on any S3-compatible backend through minio-go
// (MinIO, ArvanCloud, Ceph RGW, AWS S3).
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore creates a MinIO client for bucket. Call Initialize before first use.
func NewMinioStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinioStore{client: client, bucket: bucket}, nil
}

// Initialize ensures the bucket exists, creating it when missing.
func (s *MinioStore) Initialize(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("%w: check bucket %q: %v", ErrUnavailable, s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("%w: create bucket %q: %v", ErrUnavailable, s.bucket, err)
	}
	slog.Info("storage: created bucket", slog.String("store", TypeMinio), slog.String("bucket", s.bucket))
	return nil
}

// Upload puts data under <short-uuid>-<fileName>.
func (s *MinioStore) Upload(ctx context.Context, data []byte, fileName, _ string) (*Object, error) {
	key := uuid.NewString()[:8] + "-" + fileName
	mimeType := DetectMimeType(fileName, data)

	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: mimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("put object %q: %w", key, err)
	}

	return &Object{
		Key:      key,
		Name:     fileName,
		Size:     info.Size,
		MimeType: mimeType,
	}, nil
}

// Delete removes the object at key. S3 deletes are idempotent, so a missing key is not an error.
func (s *MinioStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %q: %w", key, err)
	}
	return nil
}

// Stream opens the object at key.
func (s *MinioStore) Stream(ctx context.Context, key string, _ url.Values) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapError(key, err)
	}
	// GetObject is lazy; Stat forces the request so a missing key surfaces here.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, s.mapError(key, err)
	}
	return obj, nil
}

func (s *MinioStore) mapError(key string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return fmt.Errorf("get object %q: %w", key, err)
}

var _ Store = (*MinioStore)(nil)
var _ Initializer = (*MinioStore)(nil)
