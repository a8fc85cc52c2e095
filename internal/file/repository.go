package file

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// RemoveFunc deletes the stored bytes of rec. Delete runs it alongside the
// row deletion inside the transaction.
type RemoveFunc func(ctx context.Context, rec *Record) error

// Repository persists file records. It holds no business rules.
type Repository interface {
	// Insert stores rec and fills ID, CreatedAt and UpdatedAt. A duplicate
	// name or key yields ErrConflict.
	Insert(ctx context.Context, rec *Record) error
	CountByName(ctx context.Context, name string) (int, error)
	List(ctx context.Context, q ListQuery) ([]Record, error)
	// FindByName matches name exactly, and path too when it is non-empty.
	FindByName(ctx context.Context, name, path string) (*Record, error)
	FindByID(ctx context.Context, id string) (*Record, error)
	// Delete reads the record and, in one transaction, deletes the row while
	// remove runs concurrently. The transaction commits only if both succeed.
	Delete(ctx context.Context, id string, remove RemoveFunc) (*Record, error)
	Ping(ctx context.Context) error
}

const recordColumns = `id, created_at, updated_at, key, name, path, mimetype, size, store`

// PostgresRepository implements Repository on PostgreSQL via pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgresRepository with the given connection pool.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, rec *Record) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO files (key, name, path, mimetype, size, store)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		rec.Key, rec.Name, rec.Path, rec.MimeType, rec.Size, rec.Store,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrConflict, rec.Name)
		}
		return fmt.Errorf("insert file: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CountByName(ctx context.Context, name string) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM files WHERE name = $1`, name).Scan(&n); err != nil {
		return 0, fmt.Errorf("count files by name: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) List(ctx context.Context, q ListQuery) ([]Record, error) {
	where, args := buildListWhere(q, postgresDialect)
	rows, err := r.db.Query(ctx,
		`SELECT `+recordColumns+` FROM files`+where+buildListTail(q, postgresDialect),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return records, nil
}

func (r *PostgresRepository) FindByName(ctx context.Context, name, path string) (*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM files WHERE name = $1`
	args := []any{name}
	if path != "" {
		query += ` AND path = $2`
		args = append(args, path)
	}
	rec, err := scanRecord(r.db.QueryRow(ctx, query+` LIMIT 1`, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get file by name: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*Record, error) {
	rec, err := scanRecord(r.db.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM files WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get file by id: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string, remove RemoveFunc) (*Record, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	rec, err := scanRecord(tx.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM files WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get file by id: %w", err)
	}

	var g errgroup.Group
	g.Go(func() error {
		if _, err := tx.Exec(ctx, `DELETE FROM files WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete file row: %w", err)
		}
		return nil
	})
	g.Go(func() error { return remove(ctx, rec) })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func scanRecord(row pgx.Row) (*Record, error) {
	rec := &Record{}
	err := row.Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt, &rec.Key, &rec.Name,
		&rec.Path, &rec.MimeType, &rec.Size, &rec.Store)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// isUniqueViolation checks whether an error is a PostgreSQL unique_violation (code 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repository = (*PostgresRepository)(nil)
