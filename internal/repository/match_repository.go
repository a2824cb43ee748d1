package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/constants"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/database"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/models"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/utils"
)

// MatchRepository defines methods for interacting with materialized mutual
// matches.
type MatchRepository interface {
	Create(ctx context.Context, user1ID, user2ID int64) error
	ListForUser(ctx context.Context, userID int64, activeOnly bool) ([]*models.Match, error)
	Deactivate(ctx context.Context, user1ID, user2ID int64) error
}

// SQLiteMatchRepository is a SQLite implementation of MatchRepository.
type SQLiteMatchRepository struct {
	mgr *database.Manager
}

// NewMatchRepository creates a new MatchRepository.
func NewMatchRepository(mgr *database.Manager) MatchRepository {
	return &SQLiteMatchRepository{mgr: mgr}
}

// Create materializes a mutual-like pair. The ids are stored in canonical
// (min, max) order and the insert is INSERT OR IGNORE, so creating the same
// match twice, from either side, is idempotent.
func (r *SQLiteMatchRepository) Create(ctx context.Context, user1ID, user2ID int64) error {
	if user1ID == user2ID {
		return utils.NewValidationError("user2_id", "a match needs two distinct users")
	}
	lo, hi := models.CanonicalPair(user1ID, user2ID)

	query := `
        INSERT OR IGNORE INTO matches (user1_id, user2_id, is_active)
        VALUES (?, ?, 1)
    `

	err := database.WithLockRetry(ctx, func() error {
		return r.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
			_, err := conn.ExecContext(ctx, query, lo, hi)
			return err
		})
	})
	if err != nil {
		return fmt.Errorf("failed to create match %d <-> %d: %w", lo, hi, err)
	}

	log.Info().Int64("user1_id", lo).Int64("user2_id", hi).Msg("Match created")
	return nil
}

// ListForUser returns the user's matches, newest first.
func (r *SQLiteMatchRepository) ListForUser(ctx context.Context, userID int64, activeOnly bool) ([]*models.Match, error) {
	query := `
        SELECT id, user1_id, user2_id, created_at, is_active
        FROM matches
        WHERE (user1_id = ? OR user2_id = ?)
    `
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY created_at DESC`

	var matches []*models.Match
	err := r.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
		rows, err := conn.QueryContext(ctx, query, userID, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			match := &models.Match{}
			if err := rows.Scan(&match.ID, &match.User1ID, &match.User2ID, &match.CreatedAt, &match.IsActive); err != nil {
				return err
			}
			matches = append(matches, match)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for %d: %w", userID, err)
	}

	return matches, nil
}

// Deactivate soft-deletes a match. The pair is canonicalized first, so the
// call works regardless of argument order.
func (r *SQLiteMatchRepository) Deactivate(ctx context.Context, user1ID, user2ID int64) error {
	lo, hi := models.CanonicalPair(user1ID, user2ID)

	query := `UPDATE matches SET is_active = 0 WHERE user1_id = ? AND user2_id = ?`

	err := database.WithLockRetry(ctx, func() error {
		return r.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
			result, err := conn.ExecContext(ctx, query, lo, hi)
			if err != nil {
				return err
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return err
			}
			if affected == 0 {
				return utils.NewNotFoundError("Match", fmt.Sprintf("%d <-> %d", lo, hi))
			}
			return nil
		})
	})
	if err != nil {
		if utils.IsNotFoundError(err) {
			return err
		}
		return fmt.Errorf("failed to deactivate match %d <-> %d: %w", lo, hi, err)
	}

	log.Info().Int64("user1_id", lo).Int64("user2_id", hi).Msg("Match deactivated")
	return nil
}
