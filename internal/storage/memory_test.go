package storage

import (
	"context"
	"errors"
	"io"
	"testing"
)

func TestMemoryStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	data := []byte("hello")
	obj, err := s.Upload(ctx, data, "hello.txt", "greetings")
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}

	// Mutating the caller's buffer must not change the stored object.
	data[0] = 'j'

	rc, err := s.Stream(ctx, obj.Key, nil)
	if err != nil {
		t.Fatalf("Stream() error: %v", err)
	}
	got, _ := io.ReadAll(rc)
	if string(got) != "hello" {
		t.Errorf("Stream() = %q, want %q", got, "hello")
	}

	if err := s.Delete(ctx, obj.Key); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
	if err := s.Delete(ctx, obj.Key); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_FailDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	boom := errors.New("boom")

	obj, err := s.Upload(ctx, []byte("x"), "x.bin", "")
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}

	s.FailDelete = boom
	if err := s.Delete(ctx, obj.Key); !errors.Is(err, boom) {
		t.Errorf("Delete() error = %v, want %v", err, boom)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}
