package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	"github.com/stowage/service/internal/cache"
	"github.com/stowage/service/internal/config"
	"github.com/stowage/service/internal/storage"
)

var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stowage_uploads_total",
		Help: "Total number of upload attempts by outcome.",
	}, []string{"outcome"})
	collisionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stowage_name_collisions_total",
		Help: "Total number of derived names that were already taken.",
	})
	orphansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stowage_orphaned_objects_total",
		Help: "Total number of stored objects left without a metadata record.",
	})
)

// Upload is one file of a batch.
type Upload struct {
	Name string
	Data []byte
}

// Options tunes a Service.
type Options struct {
	// StoreType is recorded on every new record.
	StoreType string
	// MaxAttempts bounds the upload retries on name collision. Defaults to 5.
	MaxAttempts int
	// BatchMode is config.BatchFailFast (default) or config.BatchSettle.
	BatchMode string
	// Suffix generates name disambiguators. Defaults to RandomSuffix.
	Suffix func() string
}

// Service composes a backing store, a metadata repository and a list cache.
type Service struct {
	repo   Repository
	store  storage.Store
	cache  cache.Cache
	logger *slog.Logger
	opts   Options
}

// NewService creates a new file Service.
func NewService(repo Repository, store storage.Store, c cache.Cache, logger *slog.Logger, opts Options) *Service {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 5
	}
	if opts.BatchMode == "" {
		opts.BatchMode = config.BatchFailFast
	}
	if opts.Suffix == nil {
		opts.Suffix = RandomSuffix
	}
	return &Service{repo: repo, store: store, cache: c, logger: logger, opts: opts}
}

// UploadFile stores data and records it under a fresh unique name.
//
// Bytes are written before metadata so a record never points at missing
// bytes. A taken name (seen by the pre-check or by the unique index) restarts
// the whole upload, at most MaxAttempts times, then fails with ErrConflict.
func (s *Service) UploadFile(ctx context.Context, data []byte, fileName, path string) (*Record, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	// Once started, the store write and the insert run to completion.
	ctx = context.WithoutCancel(ctx)

	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		obj, err := s.store.Upload(ctx, data, fileName, path)
		if err != nil {
			uploadsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("upload to %s store: %w", s.opts.StoreType, err)
		}

		name := deriveName(fileName, s.opts.Suffix())
		n, err := s.repo.CountByName(ctx, name)
		if err != nil {
			s.discard(ctx, obj, err)
			uploadsTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		if n > 0 {
			collisionsTotal.Inc()
			s.discard(ctx, obj, ErrConflict)
			continue
		}

		rec := &Record{
			Key:      obj.Key,
			Name:     name,
			Path:     EncodePath(path),
			MimeType: obj.MimeType,
			Size:     obj.Size,
			Store:    s.opts.StoreType,
		}
		err = s.repo.Insert(ctx, rec)
		if errors.Is(err, ErrConflict) {
			collisionsTotal.Inc()
			s.discard(ctx, obj, err)
			continue
		}
		if err != nil {
			s.discard(ctx, obj, err)
			uploadsTotal.WithLabelValues("error").Inc()
			return nil, err
		}

		uploadsTotal.WithLabelValues("ok").Inc()
		s.logger.Debug("file uploaded",
			slog.String("id", rec.ID),
			slog.String("name", rec.Name),
			slog.Int("attempt", attempt),
		)
		return rec, nil
	}

	uploadsTotal.WithLabelValues("conflict").Inc()
	return nil, fmt.Errorf("%w: %q after %d attempts", ErrConflict, fileName, s.opts.MaxAttempts)
}

// discard deletes bytes whose record was never written. Failures are logged
// for out-of-band cleanup.
func (s *Service) discard(ctx context.Context, obj *storage.Object, cause error) {
	if err := s.store.Delete(ctx, obj.Key); err != nil {
		orphansTotal.Inc()
		s.logger.Warn("orphaned object left in store",
			slog.String("store", s.opts.StoreType),
			slog.String("key", obj.Key),
			slog.String("cause", cause.Error()),
			slog.String("error", err.Error()),
		)
	}
}

// UploadFiles uploads a batch concurrently into path.
//
// In fail-fast mode every started upload finishes, then the first error is
// returned and no records. In settle mode failures are logged and the
// successful records are returned; an error is returned only when every
// upload failed.
func (s *Service) UploadFiles(ctx context.Context, uploads []Upload, path string) ([]Record, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}

	records := make([]*Record, len(uploads))
	errs := make([]error, len(uploads))

	var g errgroup.Group
	for i, u := range uploads {
		g.Go(func() error {
			rec, err := s.UploadFile(ctx, u.Data, u.Name, path)
			records[i], errs[i] = rec, err
			if err != nil {
				return fmt.Errorf("upload %q: %w", u.Name, err)
			}
			return nil
		})
	}
	firstErr := g.Wait()

	if s.opts.BatchMode != config.BatchSettle {
		if firstErr != nil {
			return nil, firstErr
		}
		return collect(records), nil
	}

	var merr *multierror.Error
	for i, err := range errs {
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("upload %q: %w", uploads[i].Name, err))
		}
	}
	out := collect(records)
	if merr != nil {
		s.logger.Warn("batch upload partially failed",
			slog.Int("failed", merr.Len()),
			slog.Int("succeeded", len(out)),
			slog.String("error", merr.Error()),
		)
		if len(out) == 0 {
			return nil, merr.ErrorOrNil()
		}
	}
	return out, nil
}

func collect(records []*Record) []Record {
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if rec != nil {
			out = append(out, *rec)
		}
	}
	return out
}

// ListFiles returns records matching q, served from the list cache when
// possible. Revalidate drops only this query's entry; other cached queries
// stay until their TTL lapses.
func (s *Service) ListFiles(ctx context.Context, q ListQuery) ([]Record, error) {
	if q.ID != "" {
		if _, err := uuid.Parse(q.ID); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidID, q.ID)
		}
	}

	key := q.Fingerprint()
	if q.Revalidate {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Warn("cache delete failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}

	cached, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		var records []Record
		if err := json.Unmarshal(cached, &records); err == nil {
			return records, nil
		}
		s.logger.Warn("discarding undecodable cache entry", slog.String("key", key))
	case !errors.Is(err, cache.ErrMiss):
		s.logger.Warn("cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	repoQuery := q
	repoQuery.Path = EncodePath(q.Path)
	records, err := s.repo.List(ctx, repoQuery)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(records); err == nil {
		if err := s.cache.Set(ctx, key, data); err != nil {
			s.logger.Warn("cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
	return records, nil
}

// GetFileInfo finds a record by exact name, and by path when path is non-empty.
func (s *Service) GetFileInfo(ctx context.Context, name, path string) (*Record, error) {
	return s.repo.FindByName(ctx, name, EncodePath(path))
}

// StreamFile opens the stored bytes of the record with the given id.
// opts are handed to the store as variant-specific transforms.
func (s *Service) StreamFile(ctx context.Context, id string, opts url.Values) (io.ReadCloser, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.owns(rec); err != nil {
		return nil, err
	}
	rc, err := s.store.Stream(ctx, rec.Key, opts)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("stream from %s store: %w", rec.Store, err)
	}
	return rc, nil
}

// DeleteFile removes the record and its bytes together. If either side fails
// the transaction rolls back and the record stays.
func (s *Service) DeleteFile(ctx context.Context, id string) (*Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	ctx = context.WithoutCancel(ctx)

	var missing bool
	rec, err := s.repo.Delete(ctx, id, func(ctx context.Context, rec *Record) error {
		if err := s.owns(rec); err != nil {
			return err
		}
		err := s.store.Delete(ctx, rec.Key)
		if errors.Is(err, storage.ErrNotFound) {
			// Bytes already gone: removing the row restores consistency.
			missing = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("delete from %s store: %w", rec.Store, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if missing {
		s.logger.Warn("deleted record whose object was already missing",
			slog.String("id", rec.ID),
			slog.String("store", rec.Store),
		)
	}
	return rec, nil
}

// owns reports an error when rec was written by a different store than the
// one this service runs on. Its bytes are out of reach, so a missing object
// in the current store says nothing about them.
func (s *Service) owns(rec *Record) error {
	if rec.Store != s.opts.StoreType {
		return fmt.Errorf("%w: record %s lives in the %q store, serving %q",
			storage.ErrUnavailable, rec.ID, rec.Store, s.opts.StoreType)
	}
	return nil
}

// Ping checks the metadata repository.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
