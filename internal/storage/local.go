package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore keeps objects as files under a root directory:
//
//	<root>/
//	  <path>/
//	    <uuid>-<fileName>
//
// Keys are slash-separated paths relative to root.
type LocalStore struct {
	root string
}

// NewLocalStore returns a store rooted at dir. The directory is created by Initialize.
func NewLocalStore(dir string) (*LocalStore, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve local dir %q: %w", dir, err)
	}
	return &LocalStore{root: root}, nil
}

// Initialize creates the root directory if it does not exist.
func (s *LocalStore) Initialize(_ context.Context) error {
	if err := os.MkdirAll(s.root, 0o750); err != nil {
		return fmt.Errorf("%w: create directory %s: %v", ErrUnavailable, s.root, err)
	}
	return nil
}

// Upload writes data to <root>/<path>/<uuid>-<fileName> through a temp file and rename.
func (s *LocalStore) Upload(_ context.Context, data []byte, fileName, path string) (*Object, error) {
	key := uuid.NewString() + "-" + filepath.Base(fileName)
	if path != "" {
		key = path + "/" + key
	}

	dest, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return nil, fmt.Errorf("%w: create directory: %v", ErrUnavailable, err)
	}
	if err := writeFileAtomic(dest, data); err != nil {
		return nil, err
	}

	return &Object{
		Key:      key,
		Name:     fileName,
		Size:     int64(len(data)),
		MimeType: DetectMimeType(fileName, data),
	}, nil
}

// Delete removes the file for key. Returns ErrNotFound if it is already gone.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	full, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// Stream opens the file for key.
func (s *LocalStore) Stream(_ context.Context, key string, _ url.Values) (io.ReadCloser, error) {
	full, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	return f, nil
}

// resolve maps key to an absolute path and refuses anything outside root.
func (s *LocalStore) resolve(key string) (string, error) {
	full := filepath.Join(s.root, filepath.FromSlash(key))
	if full != s.root && !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: key %q escapes store root", ErrNotFound, key)
	}
	return full, nil
}

// writeFileAtomic writes data next to dest and renames it into place.
func writeFileAtomic(dest string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write data: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	success = true
	return nil
}

var _ Store = (*LocalStore)(nil)
var _ Initializer = (*LocalStore)(nil)
