package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/louisbranch/homechain/internal/platform/errors"
	sqlitemigrate "github.com/louisbranch/homechain/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/homechain/internal/platform/timeouts"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/event"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/property"
	"github.com/louisbranch/homechain/internal/services/homechain/storage"
	"github.com/louisbranch/homechain/internal/services/homechain/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists registry state in SQLite.
type Store struct {
	registries
	sqlDB *sql.DB
}

var _ storage.Store = (*Store)(nil)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// registries implements storage.Registries over a queryer.
type registries struct {
	q queryer
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)&_txlock=immediate",
		cleanPath, timeouts.StoreBusy.Milliseconds(),
	)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{registries: registries{q: sqlDB}, sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Transact runs fn inside one immediate SQLite transaction. The write lock is
// taken when the transaction begins, so concurrent units of work queue on the
// busy timeout instead of failing on upgrade.
func (s *Store) Transact(ctx context.Context, fn func(ctx context.Context, tx storage.Registries) error) error {
	if fn == nil {
		return errors.New("transaction function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin transaction", err)
	}
	if err := fn(ctx, registries{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify("commit transaction", err)
	}
	return nil
}

// PutProperty writes the property row and its offers atomically.
func (s *Store) PutProperty(ctx context.Context, p property.Property) error {
	return s.Transact(ctx, func(ctx context.Context, tx storage.Registries) error {
		return tx.PutProperty(ctx, p)
	})
}

// AppendEvents journals a batch atomically.
func (s *Store) AppendEvents(ctx context.Context, events ...event.Event) ([]event.Event, error) {
	var out []event.Event
	err := s.Transact(ctx, func(ctx context.Context, tx storage.Registries) error {
		var err error
		out, err = tx.AppendEvents(ctx, events...)
		return err
	})
	return out, err
}

// classify marks lock contention as a retryable store outage.
func classify(op string, err error) error {
	if isBusy(err) {
		return apperrors.Wrap(apperrors.CodeStoreUnavailable, op+": database is busy", err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isBusy(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED:
			return true
		}
	}
	return false
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
