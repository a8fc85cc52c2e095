package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// GCSStore implements Store on Google Cloud Storage.
// Authentication uses the credentials file when given, otherwise
// application default credentials (GOOGLE_APPLICATION_CREDENTIALS).
type GCSStore struct {
	client    *gcs.Client
	bucket    *gcs.BucketHandle
	name      string
	projectID string
}

// NewGCSStore creates a GCS client for bucket.
func NewGCSStore(ctx context.Context, bucket, projectID, credentialsFile string) (*GCSStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSStore{
		client:    client,
		bucket:    client.Bucket(bucket),
		name:      bucket,
		projectID: projectID,
	}, nil
}

// Initialize creates the bucket when it does not exist. Creating requires a project id.
func (s *GCSStore) Initialize(ctx context.Context) error {
	_, err := s.bucket.Attrs(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gcs.ErrBucketNotExist) {
		return fmt.Errorf("%w: bucket %q: %v", ErrUnavailable, s.name, err)
	}
	if s.projectID == "" {
		return fmt.Errorf("%w: bucket %q does not exist and no project id is set", ErrUnavailable, s.name)
	}
	if err := s.bucket.Create(ctx, s.projectID, nil); err != nil {
		return fmt.Errorf("%w: create bucket %q: %v", ErrUnavailable, s.name, err)
	}
	slog.Info("storage: created bucket", slog.String("store", TypeGCS), slog.String("bucket", s.name))
	return nil
}

// Upload writes data to <path>/<uuid>-<fileName>.
func (s *GCSStore) Upload(ctx context.Context, data []byte, fileName, dir string) (*Object, error) {
	key := path.Join(dir, uuid.NewString()+"-"+fileName)
	mimeType := DetectMimeType(fileName, data)

	w := s.bucket.Object(key).NewWriter(ctx)
	w.ContentType = mimeType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("write object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close object %q: %w", key, err)
	}

	size := int64(len(data))
	if attrs := w.Attrs(); attrs != nil {
		size = attrs.Size
	}
	return &Object{Key: key, Name: fileName, Size: size, MimeType: mimeType}, nil
}

// Delete removes the object at key.
func (s *GCSStore) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Object(key).Delete(ctx); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}

// Stream opens a reader over the object at key.
func (s *GCSStore) Stream(ctx context.Context, key string, _ url.Values) (io.ReadCloser, error) {
	r, err := s.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("read object %q: %w", key, err)
	}
	return r, nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

var _ Store = (*GCSStore)(nil)
var _ Initializer = (*GCSStore)(nil)
