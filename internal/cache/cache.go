// Package cache stores serialized query results for a bounded time.
// Two backends are available: an in-process expirable LRU and Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache is a byte-oriented key/value cache with a per-instance TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// pingTimeout bounds the startup connectivity check of remote backends.
const pingTimeout = 5 * time.Second

// New selects a backend from rawURL:
//
//	memory://          in-process LRU holding at most size entries
//	redis://host:port  Redis, keys prefixed with Namespace
//
// Remote backends are pinged before New returns.
func New(ctx context.Context, rawURL string, ttl time.Duration, size int) (Cache, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse cache url: %w", err)
	}

	switch u.Scheme {
	case "memory", "":
		return NewMemory(size, ttl), nil
	case "redis", "rediss":
		r, err := NewRedis(rawURL, ttl)
		if err != nil {
			return nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := r.Ping(pingCtx); err != nil {
			r.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unsupported cache scheme %q", u.Scheme)
	}
}
