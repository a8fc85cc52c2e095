package storage

import (
	"context"
	"fmt"

	"github.com/stowage/service/internal/config"
)

// NewFromConfig creates the Store selected by cfg.Type and initializes it.
// Unknown types and missing required settings fail immediately; this runs once
// at startup.
func NewFromConfig(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	store, err := build(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if initializer, ok := store.(Initializer); ok {
		if err := initializer.Initialize(ctx); err != nil {
			return nil, fmt.Errorf("initialize %s store: %w", cfg.Type, err)
		}
	}
	return store, nil
}

func build(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Type {
	case TypeMemory:
		return NewMemoryStore(), nil
	case TypeLocal:
		if cfg.LocalDir == "" {
			return nil, fmt.Errorf("%w: local store requires LOCAL_DIR_PATH", ErrMissingConfig)
		}
		return NewLocalStore(cfg.LocalDir)
	case TypeS3:
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("%w: s3 store requires AWS_BUCKET", ErrMissingConfig)
		}
		return NewS3Store(ctx, S3Options{
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
		})
	case TypeMinio:
		if cfg.MinioEndpoint == "" || cfg.MinioBucket == "" {
			return nil, fmt.Errorf("%w: minio store requires MINIO_ENDPOINT and MINIO_BUCKET", ErrMissingConfig)
		}
		return NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	case TypeGCS:
		if cfg.GCSBucket == "" {
			return nil, fmt.Errorf("%w: gcs store requires GCS_BUCKET", ErrMissingConfig)
		}
		return NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSProjectID, cfg.GCSCredentialsFile)
	case TypeImageKit:
		if cfg.IKPrivateKey == "" {
			return nil, fmt.Errorf("%w: imagekit store requires IK_PRIVATE_KEY", ErrMissingConfig)
		}
		return NewImageKitStore(ImageKitOptions{
			PublicKey:   cfg.IKPublicKey,
			PrivateKey:  cfg.IKPrivateKey,
			URLEndpoint: cfg.IKEndpoint,
			APIURL:      cfg.IKAPIURL,
			UploadURL:   cfg.IKUploadURL,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, cfg.Type)
	}
}
