// Package scripts provides utility scripts for database and system
// management.
//
// This package implements database seeding functionality to populate demo
// data for development environments. The seeding system works similarly to
// migrations, tracking executed seeds to ensure they only run once, making
// the process idempotent and safe to run on both new and existing databases.
package scripts

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/constants"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/database"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/models"
)

// Seeder handles database seeding.
type Seeder struct {
	mgr *database.Manager
}

// NewSeeder creates a new seeder.
func NewSeeder(mgr *database.Manager) *Seeder {
	return &Seeder{mgr: mgr}
}

// seedEntry pairs a tracked seed name with its function. Seed functions run
// inside a transaction on a single pooled connection.
type seedEntry struct {
	Name     string
	SeedFunc func(ctx context.Context, conn *database.Conn) error
}

// SeedDatabase seeds the database with demo data. It creates the seeds
// tracking table if it doesn't exist, then runs all seed functions that
// haven't been executed yet.
func (s *Seeder) SeedDatabase(ctx context.Context) error {
	log.Info().Msg("Seeding database")
	startTime := time.Now()

	if err := s.createSeedsTable(ctx); err != nil {
		return fmt.Errorf("failed to create seeds table: %w", err)
	}

	executedSeeds, err := s.getExecutedSeeds(ctx)
	if err != nil {
		return fmt.Errorf("failed to get executed seeds: %w", err)
	}

	seeds := []seedEntry{
		{"demo_roster", s.seedDemoRoster},
		{"bootstrap_moderator", s.seedBootstrapModerator},
	}

	for _, seed := range seeds {
		if executedSeeds[seed.Name] {
			log.Debug().Str("seed", seed.Name).Msg("Seed already executed")
			continue
		}
		log.Info().Str("seed", seed.Name).Msg("Running seed")
		if err := s.runSeed(ctx, seed.Name, seed.SeedFunc); err != nil {
			return err
		}
	}

	log.Info().
		Dur("duration", time.Since(startTime)).
		Msg("Database seeding completed")

	return nil
}

// createSeedsTable creates the seeds tracking table if it doesn't exist.
func (s *Seeder) createSeedsTable(ctx context.Context) error {
	query := `
        CREATE TABLE IF NOT EXISTS seeds (
            name TEXT PRIMARY KEY,
            executed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `
	return s.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
		_, err := conn.ExecContext(ctx, query)
		return err
	})
}

// getExecutedSeeds returns the set of seeds already recorded.
func (s *Seeder) getExecutedSeeds(ctx context.Context) (map[string]bool, error) {
	seeds := make(map[string]bool)
	err := s.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
		rows, err := conn.QueryContext(ctx, `SELECT name FROM seeds`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return err
			}
			seeds[name] = true
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return seeds, nil
}

// runSeed runs a seed function within a transaction and records it. A failed
// seed rolls back, including its tracking row.
func (s *Seeder) runSeed(ctx context.Context, name string, seedFunc func(ctx context.Context, conn *database.Conn) error) error {
	return s.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
		if err := conn.Begin(ctx); err != nil {
			return err
		}

		if err := seedFunc(ctx, conn); err != nil {
			if rbErr := conn.Rollback(ctx); rbErr != nil {
				log.Warn().Err(rbErr).Str("seed", name).Msg("Rollback after failed seed also failed")
			}
			return fmt.Errorf("seed %s failed: %w", name, err)
		}

		if _, err := conn.ExecContext(ctx, `INSERT INTO seeds (name) VALUES (?)`, name); err != nil {
			if rbErr := conn.Rollback(ctx); rbErr != nil {
				log.Warn().Err(rbErr).Str("seed", name).Msg("Rollback after failed seed record also failed")
			}
			return fmt.Errorf("failed to record seed: %w", err)
		}

		return conn.Commit(ctx)
	})
}

// demoProfile describes one synthetic roster entry.
type demoProfile struct {
	userID   int64
	username string
	name     string
	nickname string
	rating   int
	role     string
	maps     []string
	slots    []string
}

// demoRoster is a spread of ratings and roles wide enough to exercise every
// search filter in development.
var demoRoster = []demoProfile{
	{1001, "ace_igl", "Artem", "ace", 2450, "igl", []string{"mirage", "inferno", "nuke"}, []string{"evening", "night"}},
	{1002, "rifler_max", "Max", "maxi", 2380, "entry", []string{"mirage", "dust2", "inferno"}, []string{"evening"}},
	{1003, "supp0rt", "Dana", "dan", 1850, "support", []string{"overpass", "train"}, []string{"morning", "day"}},
	{1004, "wallbang", "Igor", "wbg", 3150, "sniper", []string{"dust2", "mirage"}, []string{"night"}},
	{1005, "lurkmode", "Olga", "lrk", 2050, "lurker", []string{"inferno", "nuke", "ancient"}, []string{"day", "evening"}},
}

// seedDemoRoster inserts demo users with approved profiles, a few likes and
// one mutual match so every feature has data to show.
func (s *Seeder) seedDemoRoster(ctx context.Context, conn *database.Conn) error {
	for _, p := range demoRoster {
		if _, err := conn.ExecContext(ctx, `
            INSERT OR IGNORE INTO users (user_id, username, first_name, is_active)
            VALUES (?, ?, ?, 1)
        `, p.userID, p.username, p.name); err != nil {
			return err
		}

		maps := models.EncodeStringList(p.maps)
		slots := models.EncodeStringList(p.slots)
		categories := models.EncodeStringList([]string{"matchmaking"})

		if _, err := conn.ExecContext(ctx, `
            INSERT OR IGNORE INTO profiles
                (user_id, game_nickname, rating, role, favorite_maps,
                 playtime_slots, categories, description, moderation_status)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        `, p.userID, p.nickname, p.rating, p.role, maps, slots, categories,
			"Demo profile", constants.ModerationApproved); err != nil {
			return err
		}
	}

	likes := [][2]int64{
		{1001, 1002},
		{1002, 1001},
		{1003, 1001},
		{1004, 1005},
	}
	for _, pair := range likes {
		if _, err := conn.ExecContext(ctx, `
            INSERT OR IGNORE INTO likes (liker_id, liked_id) VALUES (?, ?)
        `, pair[0], pair[1]); err != nil {
			return err
		}
	}

	// 1001 and 1002 like each other, so they get the demo match.
	lo, hi := models.CanonicalPair(1001, 1002)
	if _, err := conn.ExecContext(ctx, `
        INSERT OR IGNORE INTO matches (user1_id, user2_id, is_active) VALUES (?, ?, 1)
    `, lo, hi); err != nil {
		return err
	}

	return nil
}

// seedBootstrapModerator installs the first super admin so the moderation
// commands are reachable on a fresh database.
func (s *Seeder) seedBootstrapModerator(ctx context.Context, conn *database.Conn) error {
	perms := models.DefaultPermissions(constants.RoleSuperAdmin)
	encoded, err := perms.Encode()
	if err != nil {
		return err
	}

	_, err = conn.ExecContext(ctx, `
        INSERT OR IGNORE INTO moderators (user_id, role, permissions, is_active)
        VALUES (?, ?, ?, 1)
    `, int64(1001), constants.RoleSuperAdmin, encoded)
	return err
}
