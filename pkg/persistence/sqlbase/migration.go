// Package sqlbase holds the schema migration runner shared by SQL stores.
package sqlbase

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
)

// migrationLockID is the advisory lock key held while migrating, so workers
// starting together apply each version once.
const migrationLockID = 7_415_002_311

// MigrationManager applies numbered schema migrations in order.
type MigrationManager struct {
	db         *sql.DB
	logger     *slog.Logger
	migrations map[int]string
}

func NewMigrationManager(logger *slog.Logger, db *sql.DB, migrations map[int]string) *MigrationManager {
	return &MigrationManager{
		db:         db,
		logger:     logger,
		migrations: migrations,
	}
}

// RunMigrations applies every pending migration in version order,
// in one transaction under an advisory lock.
func (m *MigrationManager) RunMigrations(ctx context.Context) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLockID)
	if err != nil {
		return fmt.Errorf("failed to take migration lock: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	current, err := currentVersion(ctx, tx)
	if err != nil {
		return err
	}

	pending := m.pending(current)
	if len(pending) == 0 {
		m.logger.DebugContext(ctx, "Schema up to date", "version", current)

		return nil
	}

	for _, version := range pending {
		_, err = tx.ExecContext(ctx, m.migrations[version])
		if err != nil {
			return fmt.Errorf("failed to execute migration %d: %w", version, err)
		}

		_, err = tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version)
		if err != nil {
			return fmt.Errorf("failed to record migration %d: %w", version, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit migrations: %w", err)
	}

	m.logger.InfoContext(ctx, "Schema migrated",
		"from_version", current,
		"to_version", pending[len(pending)-1],
	)

	return nil
}

func (m *MigrationManager) pending(after int) []int {
	versions := make([]int, 0, len(m.migrations))

	for version := range m.migrations {
		if version > after {
			versions = append(versions, version)
		}
	}

	slices.Sort(versions)

	return versions
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func currentVersion(ctx context.Context, q queryer) (int, error) {
	var version int

	err := q.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to query current schema version: %w", err)
	}

	return version, nil
}
