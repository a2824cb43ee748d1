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

// ModerationEntry is a profile queued for review together with the owner's
// account fields shown on the moderation card.
type ModerationEntry struct {
	Profile   models.Profile
	Username  *string
	FirstName string
}

// ProfileRepository defines methods for interacting with matching profiles.
type ProfileRepository interface {
	Has(ctx context.Context, userID int64) (bool, error)
	HasApproved(ctx context.Context, userID int64) (bool, error)
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, userID int64) (*models.Profile, error)
	Update(ctx context.Context, userID int64, update *models.ProfileUpdate) error
	Moderate(ctx context.Context, userID int64, status string, moderatorID int64, reason *string) error
	ListForModeration(ctx context.Context, status string, limit int, excludeUserID int64) ([]ModerationEntry, error)
	ListApproved(ctx context.Context, excludeUserID int64, limit int) ([]*models.Profile, error)
}

// SQLiteProfileRepository is a SQLite implementation of ProfileRepository.
type SQLiteProfileRepository struct {
	mgr *database.Manager
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(mgr *database.Manager) ProfileRepository {
	return &SQLiteProfileRepository{mgr: mgr}
}

// profileColumns is the scan order shared by every profile query.
const profileColumns = `user_id, game_nickname, rating, profile_url, role,
	favorite_maps, playtime_slots, categories, description, media_type,
	media_file_id, moderation_status, moderation_reason, moderated_by,
	moderated_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanProfile reads one profile row, decoding the JSON list columns at the
// boundary. Malformed list data degrades to empty lists rather than failing
// the read.
func scanProfile(row rowScanner) (*models.Profile, error) {
	p := &models.Profile{}
	var maps, slots, categories string

	err := row.Scan(
		&p.UserID,
		&p.GameNickname,
		&p.Rating,
		&p.ProfileURL,
		&p.Role,
		&maps,
		&slots,
		&categories,
		&p.Description,
		&p.MediaType,
		&p.MediaFileID,
		&p.ModerationStatus,
		&p.ModerationReason,
		&p.ModeratedBy,
		&p.ModeratedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.FavoriteMaps = models.DecodeStringList(maps, "favorite_maps")
	p.PlaytimeSlots = models.DecodeStringList(slots, "playtime_slots")
	p.Categories = models.DecodeStringList(categories, "categories")
	return p, nil
}

// Has reports whether the user has a profile in any moderation state.
func (r *SQLiteProfileRepository) Has(ctx context.Context, userID int64) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM profiles WHERE user_id = ?`, userID)
}

// HasApproved reports whether the user has a profile cleared by moderation.
func (r *SQLiteProfileRepository) HasApproved(ctx context.Context, userID int64) (bool, error) {
	return r.exists(ctx,
		`SELECT 1 FROM profiles WHERE user_id = ? AND moderation_status = ?`,
		userID, constants.ModerationApproved)
}

func (r *SQLiteProfileRepository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	found := false
	err := r.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
		var one int
		err := conn.QueryRowContext(ctx, query, args...).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to check profile existence: %w", err)
	}
	return found, nil
}

// Create stores a new profile in the pending moderation state. Profile
// creation is the one write that must never be lost, so after the insert the
// write-ahead log is checkpointed in full and the row is read back; a failed
// verification is reported as an internal error.
func (r *SQLiteProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	profile.ModerationStatus = constants.ModerationPending

	query := `
        INSERT OR REPLACE INTO profiles
        (user_id, game_nickname, rating, profile_url, role, favorite_maps,
         playtime_slots, categories, description, media_type, media_file_id,
         moderation_status)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `

	err := database.WithLockRetry(ctx, func() error {
		return r.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
			_, err := conn.ExecContext(ctx, query,
				profile.UserID,
				profile.GameNickname,
				profile.Rating,
				profile.ProfileURL,
				profile.Role,
				models.EncodeStringList(profile.FavoriteMaps),
				models.EncodeStringList(profile.PlaytimeSlots),
				models.EncodeStringList(profile.Categories),
				profile.Description,
				profile.MediaType,
				profile.MediaFileID,
				constants.ModerationPending,
			)
			if err != nil {
				return err
			}

			// Durability barrier: flush the WAL before verifying.
			if _, err := conn.ExecContext(ctx, constants.PragmaWALCheckpointFull); err != nil {
				return fmt.Errorf("wal checkpoint failed: %w", err)
			}

			var one int
			err = conn.QueryRowContext(ctx, `SELECT 1 FROM profiles WHERE user_id = ?`, profile.UserID).Scan(&one)
			if errors.Is(err, sql.ErrNoRows) {
				return utils.NewInternalError(fmt.Errorf("profile %d not found after create", profile.UserID))
			}
			return err
		})
	})
	if err != nil {
		return fmt.Errorf("failed to create profile for user %d: %w", profile.UserID, err)
	}

	log.Info().
		Int64("user_id", profile.UserID).
		Str("game_nickname", profile.GameNickname).
		Str("moderation_status", constants.ModerationPending).
		Msg("Profile created and verified")
	return nil
}

// GetByID retrieves a profile by owner id.
func (r *SQLiteProfileRepository) GetByID(ctx context.Context, userID int64) (*models.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM profiles WHERE user_id = ?`, profileColumns)

	var profile *models.Profile
	err := r.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
		p, err := scanProfile(conn.QueryRowContext(ctx, query, userID))
		if err != nil {
			return err
		}
		profile = p
		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("Profile", userID)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return profile, nil
}

// Update applies a partial profile update. List fields are re-encoded as
// JSON text; an empty update is a validation error.
func (r *SQLiteProfileRepository) Update(ctx context.Context, userID int64, update *models.ProfileUpdate) error {
	if update == nil || update.IsEmpty() {
		return utils.New(utils.ErrValidation, "profile update carries no fields")
	}

	b := newUpdateBuilder(constants.TableProfiles)
	if update.GameNickname != nil {
		b.Set("game_nickname", *update.GameNickname)
	}
	if update.Rating != nil {
		b.Set("rating", *update.Rating)
	}
	if update.ProfileURL != nil {
		b.Set("profile_url", *update.ProfileURL)
	}
	if update.Role != nil {
		b.Set("role", *update.Role)
	}
	if update.FavoriteMaps != nil {
		b.Set("favorite_maps", models.EncodeStringList(*update.FavoriteMaps))
	}
	if update.PlaytimeSlots != nil {
		b.Set("playtime_slots", models.EncodeStringList(*update.PlaytimeSlots))
	}
	if update.Categories != nil {
		b.Set("categories", models.EncodeStringList(*update.Categories))
	}
	if update.Description != nil {
		b.Set("description", *update.Description)
	}
	if update.MediaType != nil {
		b.Set("media_type", *update.MediaType)
	}
	if update.MediaFileID != nil {
		b.Set("media_file_id", *update.MediaFileID)
	}

	query, args := b.Build(constants.ColumnUserID, userID)

	err := database.WithLockRetry(ctx, func() error {
		return r.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
			result, err := conn.ExecContext(ctx, query, args...)
			if err != nil {
				return err
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return err
			}
			if affected == 0 {
				return utils.NewNotFoundError("Profile", userID)
			}
			return nil
		})
	})
	if err != nil {
		if utils.IsNotFoundError(err) {
			return err
		}
		return fmt.Errorf("failed to update profile %d: %w", userID, err)
	}

	log.Info().Int64("user_id", userID).Msg("Profile updated")
	return nil
}

// Moderate records a moderation decision on a profile.
func (r *SQLiteProfileRepository) Moderate(ctx context.Context, userID int64, status string, moderatorID int64, reason *string) error {
	if status != constants.ModerationApproved && status != constants.ModerationRejected {
		return utils.NewValidationError("status", "moderation status must be approved or rejected")
	}

	query := `
        UPDATE profiles
        SET moderation_status = ?, moderation_reason = ?, moderated_by = ?,
            moderated_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
        WHERE user_id = ?
    `

	err := database.WithLockRetry(ctx, func() error {
		return r.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
			result, err := conn.ExecContext(ctx, query, status, reason, moderatorID, userID)
			if err != nil {
				return err
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return err
			}
			if affected == 0 {
				return utils.NewNotFoundError("Profile", userID)
			}
			return nil
		})
	})
	if err != nil {
		if utils.IsNotFoundError(err) {
			return err
		}
		return fmt.Errorf("failed to moderate profile %d: %w", userID, err)
	}

	log.Info().
		Int64("user_id", userID).
		Str("moderation_status", status).
		Int64("moderator_id", moderatorID).
		Msg("Profile moderated")
	return nil
}

// ListForModeration returns the oldest profiles in the given moderation
// state, joined with the owner's account fields. excludeUserID skips one
// profile, used for paging past the card currently on screen.
func (r *SQLiteProfileRepository) ListForModeration(ctx context.Context, status string, limit int, excludeUserID int64) ([]ModerationEntry, error) {
	if limit <= 0 {
		limit = constants.DefaultModerationQueueLimit
	}

	query := fmt.Sprintf(`
        SELECT %s, u.username, u.first_name
        FROM profiles p
        JOIN users u ON p.user_id = u.user_id
        WHERE p.moderation_status = ? AND p.user_id != ?
        ORDER BY p.created_at ASC
        LIMIT ?
    `, prefixColumns("p", profileColumns))

	var entries []ModerationEntry
	err := r.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
		rows, err := conn.QueryContext(ctx, query, status, excludeUserID, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var entry ModerationEntry
			var maps, slots, categories string
			p := &entry.Profile
			err := rows.Scan(
				&p.UserID, &p.GameNickname, &p.Rating, &p.ProfileURL, &p.Role,
				&maps, &slots, &categories, &p.Description, &p.MediaType,
				&p.MediaFileID, &p.ModerationStatus, &p.ModerationReason,
				&p.ModeratedBy, &p.ModeratedAt, &p.CreatedAt, &p.UpdatedAt,
				&entry.Username, &entry.FirstName,
			)
			if err != nil {
				return err
			}
			p.FavoriteMaps = models.DecodeStringList(maps, "favorite_maps")
			p.PlaytimeSlots = models.DecodeStringList(slots, "playtime_slots")
			p.Categories = models.DecodeStringList(categories, "categories")
			entries = append(entries, entry)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles for moderation: %w", err)
	}

	return entries, nil
}

// ListApproved returns approved profiles ordered by most recent update.
func (r *SQLiteProfileRepository) ListApproved(ctx context.Context, excludeUserID int64, limit int) ([]*models.Profile, error) {
	if limit <= 0 {
		limit = constants.DefaultSearchLimit
	}

	query := fmt.Sprintf(`
        SELECT %s FROM profiles
        WHERE moderation_status = ? AND user_id != ?
        ORDER BY updated_at DESC
        LIMIT ?
    `, profileColumns)

	var profiles []*models.Profile
	err := r.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
		rows, err := conn.QueryContext(ctx, query, constants.ModerationApproved, excludeUserID, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanProfile(rows)
			if err != nil {
				return err
			}
			profiles = append(profiles, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list approved profiles: %w", err)
	}

	return profiles, nil
}
