package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stowage/service/internal/cache"
	"github.com/stowage/service/internal/db"
	"github.com/stowage/service/internal/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	sqlDB, err := db.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite() error: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.MigrateSQLite(sqlDB, discardLogger()); err != nil {
		t.Fatalf("MigrateSQLite() error: %v", err)
	}

	repo := NewSQLiteRepository(sqlDB)
	repo.now = steppingClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)
	return repo
}

// steppingClock returns a clock that advances by step on every call.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	var n atomic.Int64
	return func() time.Time {
		return start.Add(time.Duration(n.Add(1)-1) * step)
	}
}

type testEnv struct {
	svc   *Service
	repo  *SQLiteRepository
	store *storage.MemoryStore
	cache *cache.Memory
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()

	if opts.StoreType == "" {
		opts.StoreType = storage.TypeMemory
	}
	env := &testEnv{
		repo:  newTestRepo(t),
		store: storage.NewMemoryStore(),
		cache: cache.NewMemory(100, time.Minute),
	}
	env.svc = NewService(env.repo, env.store, env.cache, discardLogger(), opts)
	return env
}

// fixedSuffixes yields the given suffixes in order, then "Z00001", "Z00002", ...
func fixedSuffixes(suffixes ...string) func() string {
	var n atomic.Int64
	return func() string {
		i := n.Add(1) - 1
		if int(i) < len(suffixes) {
			return suffixes[i]
		}
		return fmt.Sprintf("Z%05d", i)
	}
}

// blindRepo hides existing names from the pre-check so that collisions
// surface at the unique index instead.
type blindRepo struct {
	Repository
}

func (blindRepo) CountByName(context.Context, string) (int, error) { return 0, nil }

// failingStore rejects uploads of one file name.
type failingStore struct {
	storage.Store
	failName string
}

var errStoreDown = errors.New("store down")

func (s failingStore) Upload(ctx context.Context, data []byte, fileName, path string) (*storage.Object, error) {
	if fileName == s.failName {
		return nil, errStoreDown
	}
	return s.Store.Upload(ctx, data, fileName, path)
}
