// Package migrations provides database schema management.
//
// The migration system is additive and idempotent: every run creates missing
// tables, adds columns introduced after the initial schema, and creates
// missing indexes, all inside a single transaction on one pooled connection.
// Running it repeatedly against an up-to-date database is a no-op, which is
// why it runs unconditionally on every startup.
package migrations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/constants"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/database"
)

// Migrator applies the schema to the main database.
type Migrator struct {
	mgr *database.Manager
}

// NewMigrator creates a new migrator over the connection manager.
func NewMigrator(mgr *database.Manager) *Migrator {
	return &Migrator{mgr: mgr}
}

// Run applies the full schema inside one transaction.
func Run(ctx context.Context, mgr *database.Manager) error {
	return NewMigrator(mgr).Run(ctx)
}

// Run creates missing tables, upgrade columns and indexes on the main
// database. All steps share one explicit transaction; any hard failure rolls
// the whole run back so the schema is never left half-applied.
func (m *Migrator) Run(ctx context.Context) error {
	log.Info().Msg("Running database migrations")
	startTime := time.Now()

	err := m.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
		if err := conn.Begin(ctx); err != nil {
			return fmt.Errorf("failed to begin migration transaction: %w", err)
		}

		if err := m.applyAll(ctx, conn); err != nil {
			if rbErr := conn.Rollback(ctx); rbErr != nil {
				log.Warn().Err(rbErr).Msg("Migration rollback failed")
			}
			return err
		}

		if err := conn.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit migrations: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().
		Dur("duration", time.Since(startTime)).
		Msg("Database migrations completed")
	return nil
}

func (m *Migrator) applyAll(ctx context.Context, conn *database.Conn) error {
	for _, migration := range GetMigrations() {
		log.Debug().
			Str("migration", migration.Name).
			Str("table", migration.Table).
			Msg("Applying migration")

		if _, err := conn.ExecContext(ctx, migration.SQL); err != nil {
			return fmt.Errorf("migration %s failed: %w", migration.Name, err)
		}
	}

	// Column upgrades are best-effort: the duplicate-column error means the
	// database is already current.
	for _, stmt := range columnUpgrades() {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			if !isDuplicateColumn(err) {
				log.Warn().Err(err).Str("statement", stmt).Msg("Column upgrade skipped")
			}
		}
	}

	for _, stmt := range indexStatements() {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("index creation failed: %w", err)
		}
	}
	return nil
}

func isDuplicateColumn(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "duplicate column name")
}
