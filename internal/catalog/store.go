package catalog

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/vmunix/fafo/internal/migrations"
)

// querier abstracts *sql.DB and *sql.Tx for shared query logic.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Store provides access to catalog data.
//
// Mutations on the same item or list id are serialized by per-entity locks.
// Whole-catalog imports hold the catalog lock exclusively.
type Store struct {
	db    *sql.DB
	mu    sync.RWMutex
	locks *lockSet
	now   func() time.Time
}

// NewStore creates a new catalog store over a migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:    db,
		locks: newLockSet(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// OpenDB opens the SQLite database at path and applies migrations.
// Use ":memory:" for a throwaway database.
func OpenDB(path string) (*sql.DB, error) {
	dsn := ":memory:?_pragma=foreign_keys(1)"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, &StorageError{Op: "create db dir", Err: err}
		}
		dsn = path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &StorageError{Op: "open db", Err: err}
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, &StorageError{Op: "open db", Err: err}
	}
	if err := migrations.Apply(db); err != nil {
		_ = db.Close()
		return nil, &StorageError{Op: "migrate", Err: err}
	}
	return db, nil
}

// Ping checks that the durable store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &StorageError{Op: "ping", Err: err}
	}
	return nil
}

// withTx runs fn inside a transaction and commits it before returning.
func (s *Store) withTx(ctx context.Context, op string, fn func(q querier) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Op: op + ": begin transaction", Err: err}
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return &StorageError{Op: op + ": commit", Err: err}
	}
	return nil
}

// lockEntity serializes mutations of one entity against each other and
// against whole-catalog imports.
func (s *Store) lockEntity(key string) func() {
	s.mu.RLock()
	unlock := s.locks.lock(key)
	return func() {
		unlock()
		s.mu.RUnlock()
	}
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func itemKey(id string) string { return "item:" + id }
func listKey(id string) string { return "list:" + id }

// lockSet hands out one mutex per key and forgets it once unused.
type lockSet struct {
	mu    sync.Mutex
	locks map[string]*entityLock
}

type entityLock struct {
	sync.Mutex
	refs int
}

func newLockSet() *lockSet {
	return &lockSet{locks: make(map[string]*entityLock)}
}

func (l *lockSet) lock(key string) func() {
	l.mu.Lock()
	el, ok := l.locks[key]
	if !ok {
		el = &entityLock{}
		l.locks[key] = el
	}
	el.refs++
	l.mu.Unlock()

	el.Lock()
	return func() {
		el.Unlock()
		l.mu.Lock()
		el.refs--
		if el.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func (l *lockSet) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
