// Package storage defines the backing store contract and its implementations.
// Swap implementations by changing STORE_SERVICE; the concrete type is chosen
// once at startup by NewFromConfig and never at request time.
package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
)

// Store type tags.
const (
	TypeLocal    = "local"
	TypeS3       = "s3"
	TypeMinio    = "minio"
	TypeGCS      = "gcs"
	TypeImageKit = "imagekit"
	TypeMemory   = "memory"
)

var (
	// ErrNotFound is returned when a key does not resolve to an object.
	ErrNotFound = errors.New("object not found")
	// ErrUnavailable is returned when the backing bucket or directory is missing
	// and cannot be created.
	ErrUnavailable = errors.New("store unavailable")
	// ErrUnknownStore is returned by NewFromConfig for an unrecognised type tag.
	ErrUnknownStore = errors.New("unknown store type")
	// ErrMissingConfig is returned by NewFromConfig when a required setting is empty.
	ErrMissingConfig = errors.New("missing store configuration")
)

// Object describes bytes that were just written to a store. It is never
// persisted as-is; the caller turns it into a metadata record.
type Object struct {
	// Key addresses the bytes inside the store. Never exposed to API clients.
	Key      string
	Name     string
	Size     int64
	MimeType string
}

// Store is the capability set every backing store implements.
type Store interface {
	// Upload persists data under a store-generated key. fileName and path are
	// hints used to build the key and detect the content type.
	Upload(ctx context.Context, data []byte, fileName, path string) (*Object, error)
	// Delete removes the object addressed by key. Repeat deletes are not
	// guaranteed to succeed; some stores return ErrNotFound.
	Delete(ctx context.Context, key string) error
	// Stream opens a single-pass reader over the object. Caller must close it.
	// opts carries store-specific transforms and is ignored by stores without any.
	Stream(ctx context.Context, key string, opts url.Values) (io.ReadCloser, error)
}

// Initializer is implemented by stores that need provisioning (bucket creation)
// before first use. Initialize must be idempotent.
type Initializer interface {
	Initialize(ctx context.Context) error
}
