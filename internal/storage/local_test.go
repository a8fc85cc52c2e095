package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("NewLocalStore() error: %v", err)
	}
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	return s
}

func TestLocalStore_Initialize_CreatesDirectory(t *testing.T) {
	s := newTestLocalStore(t)

	info, err := os.Stat(s.root)
	if err != nil {
		t.Fatalf("root not created: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("root is not a directory")
	}

	// Second call is a no-op.
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() second call error: %v", err)
	}
}

func TestLocalStore_Initialize_Unavailable(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := NewLocalStore(filepath.Join(blocker, "uploads"))
	if err != nil {
		t.Fatalf("NewLocalStore() error: %v", err)
	}
	if err := s.Initialize(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Initialize() error = %v, want ErrUnavailable", err)
	}
}

func TestLocalStore_UploadStreamDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestLocalStore(t)

	tests := []struct {
		name     string
		fileName string
		path     string
		content  string
		wantMime string
	}{
		{name: "root text file", fileName: "test.txt", content: "test", wantMime: "text/plain"},
		{name: "nested path", fileName: "notes.txt", path: "a/b", content: "hello", wantMime: "text/plain"},
		{name: "unknown extension", fileName: "blob.zzz", content: "\x00\x01\x02", wantMime: DefaultMimeType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := s.Upload(ctx, []byte(tt.content), tt.fileName, tt.path)
			if err != nil {
				t.Fatalf("Upload() error: %v", err)
			}
			if obj.Size != int64(len(tt.content)) {
				t.Errorf("Size = %d, want %d", obj.Size, len(tt.content))
			}
			if obj.MimeType != tt.wantMime {
				t.Errorf("MimeType = %q, want %q", obj.MimeType, tt.wantMime)
			}
			if !strings.HasSuffix(obj.Key, "-"+tt.fileName) {
				t.Errorf("Key = %q, want suffix %q", obj.Key, "-"+tt.fileName)
			}
			if tt.path != "" && !strings.HasPrefix(obj.Key, tt.path+"/") {
				t.Errorf("Key = %q, want prefix %q", obj.Key, tt.path+"/")
			}

			rc, err := s.Stream(ctx, obj.Key, nil)
			if err != nil {
				t.Fatalf("Stream() error: %v", err)
			}
			got, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				t.Fatalf("read stream: %v", err)
			}
			if string(got) != tt.content {
				t.Errorf("Stream() = %q, want %q", got, tt.content)
			}

			if err := s.Delete(ctx, obj.Key); err != nil {
				t.Fatalf("Delete() error: %v", err)
			}
			if err := s.Delete(ctx, obj.Key); !errors.Is(err, ErrNotFound) {
				t.Errorf("second Delete() error = %v, want ErrNotFound", err)
			}
			if _, err := s.Stream(ctx, obj.Key, nil); !errors.Is(err, ErrNotFound) {
				t.Errorf("Stream() after delete error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestLocalStore_DistinctKeysForSameName(t *testing.T) {
	ctx := context.Background()
	s := newTestLocalStore(t)

	a, err := s.Upload(ctx, []byte("one"), "same.txt", "")
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	b, err := s.Upload(ctx, []byte("two"), "same.txt", "")
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	if a.Key == b.Key {
		t.Fatalf("keys collide: %q", a.Key)
	}
}

func TestLocalStore_RejectsEscapingKey(t *testing.T) {
	s := newTestLocalStore(t)

	if _, err := s.Stream(context.Background(), "../../etc/passwd", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("Stream() error = %v, want ErrNotFound", err)
	}
}

func TestLocalStore_NoTempFilesLeft(t *testing.T) {
	s := newTestLocalStore(t)

	if _, err := s.Upload(context.Background(), []byte("data"), "x.bin", ""); err != nil {
		t.Fatalf("Upload() error: %v", err)
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}
