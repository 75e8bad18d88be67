package database

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"
)

// Migration is one schema step of a component. SQL may hold several
// statements.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

const migrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	component  TEXT    NOT NULL,
	version    INTEGER NOT NULL,
	name       TEXT    NOT NULL,
	applied_at INTEGER NOT NULL,
	PRIMARY KEY (component, version)
)`

// Migrator keeps one component's tables current. Components sharing a file
// track their versions independently in schema_migrations.
type Migrator struct {
	db        *DB
	component string
	steps     []Migration
	now       func() time.Time
}

func NewMigrator(db *DB, component string, steps ...Migration) *Migrator {
	sorted := slices.Clone(steps)
	slices.SortFunc(sorted, func(a, b Migration) int { return a.Version - b.Version })
	return &Migrator{db: db, component: component, steps: sorted, now: time.Now}
}

// Current returns the highest applied version, 0 for a fresh component.
func (m *Migrator) Current(ctx context.Context) (int, error) {
	if _, err := m.db.ExecContext(ctx, migrationsTable); err != nil {
		return 0, fmt.Errorf("%s: migrations table: %w", m.component, err)
	}
	var version int
	err := m.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations WHERE component = ?`,
		m.component).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("%s: current version: %w", m.component, err)
	}
	return version, nil
}

// Pending lists the steps newer than Current, in order.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	current, err := m.Current(ctx)
	if err != nil {
		return nil, err
	}
	var pending []Migration
	for _, step := range m.steps {
		if step.Version > current {
			pending = append(pending, step)
		}
	}
	return pending, nil
}

// Up applies every pending step, each in its own transaction together with
// its bookkeeping row. It stops at the first failure.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	for i := 1; i < len(m.steps); i++ {
		if m.steps[i].Version == m.steps[i-1].Version {
			return 0, fmt.Errorf("%s: duplicate migration version %d", m.component, m.steps[i].Version)
		}
	}

	pending, err := m.Pending(ctx)
	if err != nil {
		return 0, err
	}
	for i, step := range pending {
		err := m.db.WithTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, step.SQL); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (component, version, name, applied_at) VALUES (?, ?, ?, ?)`,
				m.component, step.Version, step.Name, m.now().Unix())
			return err
		})
		if err != nil {
			return i, fmt.Errorf("%s: migration %d (%s): %w", m.component, step.Version, step.Name, err)
		}
	}
	return len(pending), nil
}
