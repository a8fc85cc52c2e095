package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemory_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(10, time.Minute)

	if _, err := c.Get(ctx, "files:"); !errors.Is(err, ErrMiss) {
		t.Fatalf("Get() on empty cache error = %v, want ErrMiss", err)
	}

	if err := c.Set(ctx, "files:", []byte("[]")); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	got, err := c.Get(ctx, "files:")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if string(got) != "[]" {
		t.Errorf("Get() = %q, want %q", got, "[]")
	}

	if err := c.Delete(ctx, "files:"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := c.Get(ctx, "files:"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get() after Delete error = %v, want ErrMiss", err)
	}
}

func TestMemory_TTLExpiration(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(10, 50*time.Millisecond)

	_ = c.Set(ctx, "k", []byte("v"))
	time.Sleep(100 * time.Millisecond)

	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get() after TTL error = %v, want ErrMiss", err)
	}
}

func TestMemory_Eviction(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(2, time.Minute)

	_ = c.Set(ctx, "a", []byte("1"))
	_ = c.Set(ctx, "b", []byte("2"))
	_ = c.Set(ctx, "c", []byte("3"))

	if _, err := c.Get(ctx, "a"); !errors.Is(err, ErrMiss) {
		t.Errorf("oldest entry not evicted: err = %v", err)
	}
	if _, err := c.Get(ctx, "c"); err != nil {
		t.Errorf("newest entry missing: %v", err)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "memory", url: "memory://", want: "*cache.Memory"},
		{name: "empty defaults to memory", url: "", want: "*cache.Memory"},
		{name: "unreachable redis", url: "redis://127.0.0.1:1/0", wantErr: true},
		{name: "unsupported scheme", url: "memcached://localhost", wantErr: true},
		{name: "bad redis url", url: "redis://localhost:6379/notadb", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(context.Background(), tt.url, time.Minute, 10)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer c.Close()
			if got := typeName(c); got != tt.want {
				t.Errorf("New() = %s, want %s", got, tt.want)
			}
		})
	}
}

func typeName(c Cache) string {
	switch c.(type) {
	case *Memory:
		return "*cache.Memory"
	case *Redis:
		return "*cache.Redis"
	default:
		return "unknown"
	}
}
