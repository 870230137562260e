// Package store persists conversions in SQLite using the pure-Go
// modernc.org/sqlite driver.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	md2codelab "github.com/alnah/go-md2codelab"
	"github.com/alnah/go-md2codelab/internal/fileutil"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// Store is a SQLite-backed md2codelab.Store. Safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ md2codelab.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used to refresh access times.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open connects to the database at dsn, creating the file, its parent
// directory and the schema as needed. A "sqlite://" prefix and a leading
// "~/" are accepted.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	path := strings.TrimPrefix(strings.TrimSpace(dsn), "sqlite://")
	if path == "" {
		return nil, fmt.Errorf("%w: empty dsn", md2codelab.ErrPersistence)
	}

	memory := path == MemoryDSN
	if !memory {
		if strings.HasPrefix(path, "~/") {
			if home, err := os.UserHomeDir(); err == nil {
				path = filepath.Join(home, path[2:])
			}
		}
		if err := fileutil.EnsureParentDir(path); err != nil {
			return nil, fmt.Errorf("%w: %v", md2codelab.ErrPersistence, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", md2codelab.ErrPersistence, path, err)
	}
	if memory {
		// Every pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: enabling WAL: %v", md2codelab.ErrPersistence, err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout=5000;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", md2codelab.ErrPersistence, err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: migrating: %v", md2codelab.ErrPersistence, err)
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS codelabs (
  original_url TEXT PRIMARY KEY,
  converted_id TEXT NOT NULL UNIQUE,
  title TEXT NOT NULL DEFAULT '',
  content TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL,
  accessed_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_codelabs_created ON codelabs(created_at DESC);
`)
	return err
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

const selectColumns = `SELECT original_url, converted_id, title, content, created_at, accessed_at FROM codelabs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*md2codelab.Record, error) {
	var rec md2codelab.Record
	if err := row.Scan(&rec.OriginalURL, &rec.ConvertedID, &rec.Title, &rec.HTML, &rec.CreatedAt, &rec.AccessedAt); err != nil {
		return nil, err
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.AccessedAt = rec.AccessedAt.UTC()
	return &rec, nil
}

// GetByURL returns the conversion of url without touching its access time.
func (s *Store) GetByURL(ctx context.Context, url string) (*md2codelab.Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, selectColumns+` WHERE original_url=?`, url))
	if err != nil {
		return nil, mapErr("get by url", err)
	}
	return rec, nil
}

// GetByID returns the conversion with the given id and sets its access time
// to now.
func (s *Store) GetByID(ctx context.Context, id string) (*md2codelab.Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapErr("get by id", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE codelabs SET accessed_at=? WHERE converted_id=?`, s.now().UTC(), id)
	if err != nil {
		return nil, mapErr("touch", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, md2codelab.ErrNotFound
	}

	rec, err := scanRecord(tx.QueryRowContext(ctx, selectColumns+` WHERE converted_id=?`, id))
	if err != nil {
		return nil, mapErr("get by id", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, mapErr("commit", err)
	}
	return rec, nil
}

// Put inserts rec, replacing any previous conversion of the same URL.
// Zero timestamps are set to now.
func (s *Store) Put(ctx context.Context, rec *md2codelab.Record) error {
	if rec == nil || rec.OriginalURL == "" || rec.ConvertedID == "" {
		return fmt.Errorf("%w: record needs a url and an id", md2codelab.ErrPersistence)
	}

	now := s.now().UTC()
	created, accessed := rec.CreatedAt, rec.AccessedAt
	if created.IsZero() {
		created = now
	}
	if accessed.IsZero() {
		accessed = now
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO codelabs(original_url, converted_id, title, content, created_at, accessed_at) VALUES(?,?,?,?,?,?)`,
		rec.OriginalURL, rec.ConvertedID, rec.Title, rec.HTML, created.UTC(), accessed.UTC())
	if err != nil {
		return mapErr("put", err)
	}
	return nil
}

// List returns up to limit conversions, newest first.
// A non-positive limit means md2codelab.DefaultListLimit.
func (s *Store) List(ctx context.Context, limit int) ([]*md2codelab.Record, error) {
	if limit <= 0 {
		limit = md2codelab.DefaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC, converted_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, mapErr("list", err)
	}
	defer rows.Close()

	out := make([]*md2codelab.Record, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, mapErr("list", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list", err)
	}
	return out, nil
}

// mapErr turns sql.ErrNoRows into md2codelab.ErrNotFound and wraps
// everything else in md2codelab.ErrPersistence.
func mapErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return md2codelab.ErrNotFound
	}
	return fmt.Errorf("%w: %s: %v", md2codelab.ErrPersistence, op, err)
}
