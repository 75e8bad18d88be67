// Package database opens the bot's local sqlite files and keeps their
// schemas current.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Rishi-choudhary/PARA-AI/core/storage"
)

// Options tunes one database handle.
type Options struct {
	// BusyTimeout is how long a writer waits on a locked file.
	BusyTimeout time.Duration

	// MaxConns caps open connections. sqlite serialises writers anyway.
	MaxConns int

	// WAL selects write-ahead journaling instead of a rollback journal.
	WAL bool
}

func DefaultOptions() Options {
	return Options{
		BusyTimeout: 5 * time.Second,
		MaxConns:    4,
		WAL:         true,
	}
}

// Manager hands out one DB per name. A bare name lives at
// <data dir>/<name>.db; an absolute path is used as given.
type Manager struct {
	dirs *storage.Dirs

	mu   sync.Mutex
	open map[string]*DB
}

func NewManager(dirs *storage.Dirs) *Manager {
	return &Manager{dirs: dirs, open: make(map[string]*DB)}
}

// Open returns the handle for name, opening the file on first use. Later
// calls return the same handle and ignore opts.
func (m *Manager) Open(name string, opts Options) (*DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if db, ok := m.open[name]; ok {
		return db, nil
	}

	path := name
	if !filepath.IsAbs(path) {
		path = m.dirs.DataDir(name + ".db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("database %s: %w", name, err)
	}

	handle, err := sql.Open("sqlite3", dsn(path, opts))
	if err != nil {
		return nil, fmt.Errorf("database %s: %w", name, err)
	}
	if opts.MaxConns > 0 {
		handle.SetMaxOpenConns(opts.MaxConns)
		handle.SetMaxIdleConns(opts.MaxConns)
	}
	if err := handle.Ping(); err != nil {
		handle.Close()
		return nil, fmt.Errorf("database %s: %w", name, err)
	}

	db := &DB{handle: handle, name: name, path: path}
	m.open[name] = db
	return db, nil
}

// Lookup returns an already opened handle.
func (m *Manager) Lookup(name string) (*DB, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	db, ok := m.open[name]
	return db, ok
}

// Close closes every handle the manager opened.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, db := range m.open {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
		delete(m.open, name)
	}
	return errors.Join(errs...)
}

// dsn builds a go-sqlite3 connection string. Transactions take the write
// lock up front so two writers never deadlock upgrading a read lock.
func dsn(path string, opts Options) string {
	q := url.Values{}
	q.Set("_foreign_keys", "on")
	q.Set("_txlock", "immediate")
	if opts.BusyTimeout > 0 {
		q.Set("_busy_timeout", strconv.FormatInt(opts.BusyTimeout.Milliseconds(), 10))
	}
	if opts.WAL {
		q.Set("_journal_mode", "WAL")
	}
	return "file:" + path + "?" + q.Encode()
}

// =============================================================================
// DB
// =============================================================================

// DB is an open sqlite file.
type DB struct {
	handle *sql.DB
	name   string
	path   string

	closeOnce sync.Once
	closeErr  error
}

func (d *DB) Name() string { return d.name }
func (d *DB) Path() string { return d.path }

func (d *DB) Close() error {
	d.closeOnce.Do(func() { d.closeErr = d.handle.Close() })
	return d.closeErr
}

func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.handle.ExecContext(ctx, query, args...)
}

func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.handle.QueryContext(ctx, query, args...)
}

func (d *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.handle.QueryRowContext(ctx, query, args...)
}

// WithTx runs fn inside a transaction. It commits when fn returns nil and
// rolls back on error or panic; a panic is re-raised after the rollback.
func (d *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := d.handle.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
