package file

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"golang.org/x/sync/errgroup"
)

// sqliteTimeLayout is fixed-width so that text comparison orders timestamps.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

// SQLiteRepository implements Repository on SQLite via database/sql.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository wraps an open, migrated SQLite database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Insert(ctx context.Context, rec *Record) error {
	id := uuid.NewString()
	now := r.now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO files (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, formatSQLiteTime(now), formatSQLiteTime(now),
		rec.Key, rec.Name, rec.Path, rec.MimeType, rec.Size, rec.Store,
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrConflict, rec.Name)
		}
		return fmt.Errorf("insert file: %w", err)
	}

	// Round-trip through the stored precision so returned and listed records agree.
	stored, _ := time.Parse(sqliteTimeLayout, formatSQLiteTime(now))
	rec.ID = id
	rec.CreatedAt = stored
	rec.UpdatedAt = stored
	return nil
}

func (r *SQLiteRepository) CountByName(ctx context.Context, name string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files WHERE name = ?`, name).Scan(&n); err != nil {
		return 0, fmt.Errorf("count files by name: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) List(ctx context.Context, q ListQuery) ([]Record, error) {
	where, args := buildListWhere(q, sqliteDialect)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM files`+where+buildListTail(q, sqliteDialect),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		rec, err := scanSQLiteRecord(rows)
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

func (r *SQLiteRepository) FindByName(ctx context.Context, name, path string) (*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM files WHERE name = ?`
	args := []any{name}
	if path != "" {
		query += ` AND path = ?`
		args = append(args, path)
	}
	rec, err := scanSQLiteRecord(r.db.QueryRowContext(ctx, query+` LIMIT 1`, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get file by name: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) FindByID(ctx context.Context, id string) (*Record, error) {
	rec, err := scanSQLiteRecord(r.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM files WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get file by id: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string, remove RemoveFunc) (*Record, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	rec, err := scanSQLiteRecord(tx.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM files WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get file by id: %w", err)
	}

	var g errgroup.Group
	g.Go(func() error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete file row: %w", err)
		}
		return nil
	})
	g.Go(func() error { return remove(ctx, rec) })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRecord(row rowScanner) (*Record, error) {
	rec := &Record{}
	var createdAt, updatedAt string
	err := row.Scan(&rec.ID, &createdAt, &updatedAt, &rec.Key, &rec.Name,
		&rec.Path, &rec.MimeType, &rec.Size, &rec.Store)
	if err != nil {
		return nil, err
	}
	if rec.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(sqliteTimeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return rec, nil
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

var _ Repository = (*SQLiteRepository)(nil)
