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

// UserRepository defines methods for interacting with user accounts.
type UserRepository interface {
	Upsert(ctx context.Context, userID int64, username *string, firstName string) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

// SQLiteUserRepository is a SQLite implementation of UserRepository.
type SQLiteUserRepository struct {
	mgr *database.Manager
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(mgr *database.Manager) UserRepository {
	return &SQLiteUserRepository{mgr: mgr}
}

// Upsert creates a user or refreshes an existing one. It deliberately uses
// conflict-update rather than INSERT OR REPLACE: REPLACE deletes the old row
// first, and the cascade would silently take the user's profile with it.
func (r *SQLiteUserRepository) Upsert(ctx context.Context, userID int64, username *string, firstName string) error {
	query := `
        INSERT INTO users (user_id, username, first_name, is_active)
        VALUES (?, ?, ?, 1)
        ON CONFLICT(user_id) DO UPDATE SET
            username = excluded.username,
            first_name = excluded.first_name,
            is_active = 1
    `

	err := database.WithLockRetry(ctx, func() error {
		return r.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
			_, err := conn.ExecContext(ctx, query, userID, username, firstName)
			return err
		})
	})
	if err != nil {
		return fmt.Errorf("failed to upsert user %d: %w", userID, err)
	}

	log.Info().Int64("user_id", userID).Msg("User created or updated")
	return nil
}

// GetByID retrieves a user by id.
func (r *SQLiteUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
        SELECT user_id, username, first_name, created_at, is_active
        FROM users
        WHERE user_id = ?
    `

	user := &models.User{}
	err := r.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
		return conn.QueryRowContext(ctx, query, id).Scan(
			&user.UserID,
			&user.Username,
			&user.FirstName,
			&user.CreatedAt,
			&user.IsActive,
		)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("User", id)
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return user, nil
}

// SetActive flips the soft-deactivation flag.
func (r *SQLiteUserRepository) SetActive(ctx context.Context, id int64, active bool) error {
	query := `UPDATE users SET is_active = ? WHERE user_id = ?`

	err := database.WithLockRetry(ctx, func() error {
		return r.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
			result, err := conn.ExecContext(ctx, query, active, id)
			if err != nil {
				return err
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return err
			}
			if affected == 0 {
				return utils.NewNotFoundError("User", id)
			}
			return nil
		})
	})
	if err != nil {
		if utils.IsNotFoundError(err) {
			return err
		}
		return fmt.Errorf("failed to update user %d active flag: %w", id, err)
	}

	log.Info().Int64("user_id", id).Bool("is_active", active).Msg("User active flag updated")
	return nil
}
