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

// SettingsRepository defines methods for interacting with per-user
// preferences.
type SettingsRepository interface {
	Get(ctx context.Context, userID int64) (*models.UserSettings, error)
	Update(ctx context.Context, userID int64, update *models.UserSettingsUpdate) error
}

// SQLiteSettingsRepository is a SQLite implementation of SettingsRepository.
type SQLiteSettingsRepository struct {
	mgr *database.Manager
}

// NewSettingsRepository creates a new SettingsRepository.
func NewSettingsRepository(mgr *database.Manager) SettingsRepository {
	return &SQLiteSettingsRepository{mgr: mgr}
}

// Get retrieves a user's settings row. The JSON sub-documents are decoded at
// the boundary; malformed documents degrade to defaults rather than failing
// the read.
func (r *SQLiteSettingsRepository) Get(ctx context.Context, userID int64) (*models.UserSettings, error) {
	query := `
        SELECT user_id, notifications_enabled, search_filters, privacy_settings,
               created_at, updated_at
        FROM user_settings
        WHERE user_id = ?
    `

	settings := &models.UserSettings{}
	err := r.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
		var filtersRaw, privacyRaw sql.NullString
		err := conn.QueryRowContext(ctx, query, userID).Scan(
			&settings.UserID,
			&settings.NotificationsEnabled,
			&filtersRaw,
			&privacyRaw,
			&settings.CreatedAt,
			&settings.UpdatedAt,
		)
		if err != nil {
			return err
		}
		settings.SearchFilters = models.ParseSearchFilters(filtersRaw.String)
		settings.PrivacySettings = models.ParsePrivacySettings(privacyRaw.String)
		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("UserSettings", userID)
		}
		return nil, fmt.Errorf("failed to get settings for %d: %w", userID, err)
	}

	return settings, nil
}

// Update applies a partial settings update, creating the row with defaults
// first when it does not exist yet.
func (r *SQLiteSettingsRepository) Update(ctx context.Context, userID int64, update *models.UserSettingsUpdate) error {
	if update == nil || update.IsEmpty() {
		return utils.New(utils.ErrValidation, "settings update carries no fields")
	}

	b := newUpdateBuilder(constants.TableUserSettings)
	if update.NotificationsEnabled != nil {
		b.Set("notifications_enabled", *update.NotificationsEnabled)
	}
	if update.SearchFilters != nil {
		encoded, err := update.SearchFilters.Encode()
		if err != nil {
			return utils.NewValidationError("search_filters", err.Error())
		}
		b.Set("search_filters", encoded)
	}
	if update.PrivacySettings != nil {
		encoded, err := update.PrivacySettings.Encode()
		if err != nil {
			return utils.NewValidationError("privacy_settings", err.Error())
		}
		b.Set("privacy_settings", encoded)
	}

	query, args := b.Build(constants.ColumnUserID, userID)

	err := database.WithLockRetry(ctx, func() error {
		return r.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
			if _, err := conn.ExecContext(ctx,
				`INSERT OR IGNORE INTO user_settings (user_id) VALUES (?)`, userID); err != nil {
				return err
			}
			_, err := conn.ExecContext(ctx, query, args...)
			return err
		})
	})
	if err != nil {
		return fmt.Errorf("failed to update settings for %d: %w", userID, err)
	}

	log.Info().Int64("user_id", userID).Msg("User settings updated")
	return nil
}
