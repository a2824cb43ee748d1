package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/constants"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/database"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/models"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/utils"
)

// ModerationStats summarizes the moderation workload.
type ModerationStats struct {
	ProfilesPending  int `json:"profiles_pending"`
	ProfilesApproved int `json:"profiles_approved"`
	ProfilesRejected int `json:"profiles_rejected"`
	ActiveModerators int `json:"active_moderators"`
}

// ModeratorRepository defines methods for interacting with the moderator
// registry.
type ModeratorRepository interface {
	Add(ctx context.Context, userID int64, role string, appointedBy *int64) error
	Get(ctx context.Context, userID int64) (*models.Moderator, error)
	IsModerator(ctx context.Context, userID int64) (bool, error)
	SetActive(ctx context.Context, userID int64, active bool) error
	ListAll(ctx context.Context) ([]*models.Moderator, error)
	Stats(ctx context.Context) (*ModerationStats, error)
}

// SQLiteModeratorRepository is a SQLite implementation of
// ModeratorRepository.
type SQLiteModeratorRepository struct {
	mgr *database.Manager
}

// NewModeratorRepository creates a new ModeratorRepository.
func NewModeratorRepository(mgr *database.Manager) ModeratorRepository {
	return &SQLiteModeratorRepository{mgr: mgr}
}

// Add appoints a moderator or re-appoints an existing one with a new role.
// The stored permissions are the role defaults; overrides are written by
// later updates.
func (r *SQLiteModeratorRepository) Add(ctx context.Context, userID int64, role string, appointedBy *int64) error {
	if role != constants.RoleModerator && role != constants.RoleAdmin && role != constants.RoleSuperAdmin {
		return utils.NewValidationError("role", "unknown moderator role: "+role)
	}

	perms := models.DefaultPermissions(role)
	encoded, err := perms.Encode()
	if err != nil {
		return utils.NewInternalError(err)
	}

	query := `
        INSERT OR REPLACE INTO moderators (user_id, role, permissions, appointed_by, is_active)
        VALUES (?, ?, ?, ?, 1)
    `

	err = database.WithLockRetry(ctx, func() error {
		return r.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
			_, err := conn.ExecContext(ctx, query, userID, role, encoded, appointedBy)
			return err
		})
	})
	if err != nil {
		return fmt.Errorf("failed to add moderator %d: %w", userID, err)
	}

	log.Info().Int64("user_id", userID).Str("role", role).Msg("Moderator added")
	return nil
}

const moderatorColumns = `user_id, role, permissions, appointed_by, appointed_at, is_active`

func scanModerator(row rowScanner) (*models.Moderator, error) {
	mod := &models.Moderator{}
	var permsRaw sql.NullString

	err := row.Scan(
		&mod.UserID,
		&mod.Role,
		&permsRaw,
		&mod.AppointedBy,
		&mod.AppointedAt,
		&mod.IsActive,
	)
	if err != nil {
		return nil, err
	}

	mod.Permissions = models.ParsePermissions(permsRaw.String, mod.Role)
	return mod, nil
}

// Get retrieves an active moderator. Deactivated registry rows are treated
// as absent.
func (r *SQLiteModeratorRepository) Get(ctx context.Context, userID int64) (*models.Moderator, error) {
	query := fmt.Sprintf(`SELECT %s FROM moderators WHERE user_id = ? AND is_active = 1`, moderatorColumns)

	var moderator *models.Moderator
	err := r.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
		mod, err := scanModerator(conn.QueryRowContext(ctx, query, userID))
		if err != nil {
			return err
		}
		moderator = mod
		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("Moderator", userID)
		}
		return nil, fmt.Errorf("failed to get moderator %d: %w", userID, err)
	}

	return moderator, nil
}

// IsModerator reports whether the user is an active moderator with the
// profile-review permission.
func (r *SQLiteModeratorRepository) IsModerator(ctx context.Context, userID int64) (bool, error) {
	moderator, err := r.Get(ctx, userID)
	if err != nil {
		if utils.IsNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return moderator.CanModerateProfiles(), nil
}

// SetActive activates or deactivates a registry entry.
func (r *SQLiteModeratorRepository) SetActive(ctx context.Context, userID int64, active bool) error {
	query := `UPDATE moderators SET is_active = ? WHERE user_id = ?`

	err := database.WithLockRetry(ctx, func() error {
		return r.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
			result, err := conn.ExecContext(ctx, query, active, userID)
			if err != nil {
				return err
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return err
			}
			if affected == 0 {
				return utils.NewNotFoundError("Moderator", userID)
			}
			return nil
		})
	})
	if err != nil {
		if utils.IsNotFoundError(err) {
			return err
		}
		return fmt.Errorf("failed to update moderator %d status: %w", userID, err)
	}

	log.Info().Int64("user_id", userID).Bool("is_active", active).Msg("Moderator status updated")
	return nil
}

// ListAll returns every registry entry, active or not, newest appointment
// first.
func (r *SQLiteModeratorRepository) ListAll(ctx context.Context) ([]*models.Moderator, error) {
	query := fmt.Sprintf(`SELECT %s FROM moderators ORDER BY appointed_at DESC`, moderatorColumns)

	var moderators []*models.Moderator
	err := r.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
		rows, err := conn.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			mod, err := scanModerator(rows)
			if err != nil {
				return err
			}
			moderators = append(moderators, mod)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list moderators: %w", err)
	}

	return moderators, nil
}

// Stats counts profiles per moderation state and active moderators.
func (r *SQLiteModeratorRepository) Stats(ctx context.Context) (*ModerationStats, error) {
	stats := &ModerationStats{}

	err := r.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
		rows, err := conn.QueryContext(ctx, `
            SELECT moderation_status, COUNT(*)
            FROM profiles
            GROUP BY moderation_status
        `)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var status string
			var count int
			if err := rows.Scan(&status, &count); err != nil {
				return err
			}
			switch status {
			case constants.ModerationPending:
				stats.ProfilesPending = count
			case constants.ModerationApproved:
				stats.ProfilesApproved = count
			case constants.ModerationRejected:
				stats.ProfilesRejected = count
			}
		}
		if err := rows.Err(); err != nil {
			return err
		}

		return conn.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM moderators WHERE is_active = 1`).Scan(&stats.ActiveModerators)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get moderation stats: %w", err)
	}

	return stats, nil
}
