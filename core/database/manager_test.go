package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rishi-choudhary/PARA-AI/core/storage"
)

func openDB(t *testing.T, name string) *DB {
	t.Helper()
	mgr := NewManager(&storage.Dirs{Data: t.TempDir()})
	t.Cleanup(func() { _ = mgr.Close() })

	db, err := mgr.Open(name, DefaultOptions())
	require.NoError(t, err)
	return db
}

func TestManagerOpen(t *testing.T) {
	mgr := NewManager(&storage.Dirs{Data: t.TempDir()})
	defer mgr.Close()

	db, err := mgr.Open("subscribers", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "subscribers.db", filepath.Base(db.Path()))
	assert.Equal(t, "subscribers", db.Name())

	again, err := mgr.Open("subscribers", Options{})
	require.NoError(t, err)
	assert.Same(t, db, again)

	got, ok := mgr.Lookup("subscribers")
	assert.True(t, ok)
	assert.Same(t, db, got)

	_, ok = mgr.Lookup("missing")
	assert.False(t, ok)
}

func TestManagerAbsolutePath(t *testing.T) {
	mgr := NewManager(&storage.Dirs{Data: t.TempDir()})
	defer mgr.Close()
	path := filepath.Join(t.TempDir(), "nested", "custom.db")

	db, err := mgr.Open(path, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, path, db.Path())
}

func TestManagerCloseForgetsHandles(t *testing.T) {
	mgr := NewManager(&storage.Dirs{Data: t.TempDir()})
	db, err := mgr.Open("a", DefaultOptions())
	require.NoError(t, err)

	require.NoError(t, mgr.Close())
	_, ok := mgr.Lookup("a")
	assert.False(t, ok)
	assert.NoError(t, db.Close(), "closing twice is harmless")
}

func TestDSN(t *testing.T) {
	got := dsn("/tmp/x.db", DefaultOptions())
	assert.Contains(t, got, "file:/tmp/x.db?")
	assert.Contains(t, got, "_busy_timeout=5000")
	assert.Contains(t, got, "_journal_mode=WAL")
	assert.Contains(t, got, "_txlock=immediate")

	assert.NotContains(t, dsn("/tmp/x.db", Options{}), "_journal_mode")
}

func TestWithTxRollsBack(t *testing.T) {
	db := openDB(t, "tx")
	ctx := context.Background()

	_, err := db.ExecContext(ctx, "CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT)")
	require.NoError(t, err)

	err = db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO kv VALUES ('a', '1')"); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.EqualError(t, err, "abort")

	assert.Panics(t, func() {
		_ = db.WithTx(ctx, func(tx *sql.Tx) error {
			_, _ = tx.Exec("INSERT INTO kv VALUES ('b', '2')")
			panic("boom")
		})
	})

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM kv").Scan(&n))
	assert.Zero(t, n)
}

func TestMigratorAppliesPendingOnce(t *testing.T) {
	db := openDB(t, "migrate")
	ctx := context.Background()

	m := NewMigrator(db, "notes",
		Migration{Version: 2, Name: "index names", SQL: "CREATE INDEX idx_notes_name ON notes(name)"},
		Migration{Version: 1, Name: "create notes", SQL: "CREATE TABLE notes (id INTEGER PRIMARY KEY, name TEXT)"},
	)

	pending, err := m.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, 1, pending[0].Version)

	applied, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	applied, err = m.Up(ctx)
	require.NoError(t, err)
	assert.Zero(t, applied)

	current, err := m.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, current)
}

func TestMigratorComponentsAreIndependent(t *testing.T) {
	db := openDB(t, "shared")
	ctx := context.Background()

	_, err := NewMigrator(db, "a", Migration{Version: 1, Name: "a1", SQL: "CREATE TABLE a (x INTEGER)"}).Up(ctx)
	require.NoError(t, err)

	b := NewMigrator(db, "b",
		Migration{Version: 1, Name: "b1", SQL: "CREATE TABLE b (x INTEGER)"},
		Migration{Version: 2, Name: "b2", SQL: "ALTER TABLE b ADD COLUMN y TEXT"},
	)
	applied, err := b.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	current, err := NewMigrator(db, "a").Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, current)
}

func TestMigratorStopsOnFailure(t *testing.T) {
	db := openDB(t, "broken")
	ctx := context.Background()

	m := NewMigrator(db, "broken",
		Migration{Version: 1, Name: "ok", SQL: "CREATE TABLE t (x INTEGER)"},
		Migration{Version: 2, Name: "bad sql", SQL: "CREATE TABLE"},
	)

	applied, err := m.Up(ctx)
	require.Error(t, err)
	assert.Equal(t, 1, applied)
	assert.Contains(t, err.Error(), "migration 2 (bad sql)")

	current, err := m.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, current)
}

func TestMigratorRejectsDuplicateVersions(t *testing.T) {
	db := openDB(t, "dup")

	_, err := NewMigrator(db, "dup",
		Migration{Version: 1, Name: "one", SQL: "SELECT 1"},
		Migration{Version: 1, Name: "again", SQL: "SELECT 1"},
	).Up(context.Background())

	assert.ErrorContains(t, err, "duplicate migration version 1")
}
