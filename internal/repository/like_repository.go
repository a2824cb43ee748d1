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

// LikeRepository defines methods for interacting with directed like edges.
type LikeRepository interface {
	Add(ctx context.Context, likerID, likedID int64) error
	CheckMutual(ctx context.Context, user1ID, user2ID int64) (bool, error)
	MarkViewed(ctx context.Context, likerID, likedID int64) error
	ListReceived(ctx context.Context, userID int64, unviewedOnly bool, limit int) ([]*models.Like, error)
	ListSent(ctx context.Context, userID int64, limit int) ([]*models.Like, error)
	StatsForUser(ctx context.Context, userID int64) (*models.LikeStats, error)
}

// SQLiteLikeRepository is a SQLite implementation of LikeRepository.
type SQLiteLikeRepository struct {
	mgr *database.Manager
}

// NewLikeRepository creates a new LikeRepository.
func NewLikeRepository(mgr *database.Manager) LikeRepository {
	return &SQLiteLikeRepository{mgr: mgr}
}

// Add records a like. The (liker, liked) pair is unique and the insert is
// INSERT OR IGNORE, so liking the same profile twice is a no-op.
func (r *SQLiteLikeRepository) Add(ctx context.Context, likerID, likedID int64) error {
	if likerID == likedID {
		return utils.NewValidationError("liked_id", "users cannot like themselves")
	}

	query := `
        INSERT OR IGNORE INTO likes (liker_id, liked_id)
        VALUES (?, ?)
    `

	err := database.WithLockRetry(ctx, func() error {
		return r.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
			_, err := conn.ExecContext(ctx, query, likerID, likedID)
			return err
		})
	})
	if err != nil {
		return fmt.Errorf("failed to add like %d -> %d: %w", likerID, likedID, err)
	}

	log.Info().Int64("liker_id", likerID).Int64("liked_id", likedID).Msg("Like added")
	return nil
}

// CheckMutual reports whether both directed likes exist between two users.
func (r *SQLiteLikeRepository) CheckMutual(ctx context.Context, user1ID, user2ID int64) (bool, error) {
	query := `
        SELECT COUNT(*) FROM likes
        WHERE (liker_id = ? AND liked_id = ?)
        AND EXISTS (
            SELECT 1 FROM likes
            WHERE liker_id = ? AND liked_id = ?
        )
    `

	var count int
	err := r.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
		return conn.QueryRowContext(ctx, query, user1ID, user2ID, user2ID, user1ID).Scan(&count)
	})
	if err != nil {
		return false, fmt.Errorf("failed to check mutual like %d <-> %d: %w", user1ID, user2ID, err)
	}

	return count > 0, nil
}

// MarkViewed stamps a received like as seen. Already-viewed likes keep their
// original timestamp.
func (r *SQLiteLikeRepository) MarkViewed(ctx context.Context, likerID, likedID int64) error {
	query := `
        UPDATE likes SET viewed_at = CURRENT_TIMESTAMP
        WHERE liker_id = ? AND liked_id = ? AND viewed_at IS NULL
    `

	err := database.WithLockRetry(ctx, func() error {
		return r.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
			_, err := conn.ExecContext(ctx, query, likerID, likedID)
			return err
		})
	})
	if err != nil {
		return fmt.Errorf("failed to mark like %d -> %d viewed: %w", likerID, likedID, err)
	}

	return nil
}

const likeColumns = `id, liker_id, liked_id, created_at, viewed_at`

func scanLikes(conn *database.Conn, ctx context.Context, query string, args ...interface{}) ([]*models.Like, error) {
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var likes []*models.Like
	for rows.Next() {
		like := &models.Like{}
		if err := rows.Scan(&like.ID, &like.LikerID, &like.LikedID, &like.CreatedAt, &like.ViewedAt); err != nil {
			return nil, err
		}
		likes = append(likes, like)
	}
	return likes, rows.Err()
}

// ListReceived returns likes aimed at the user, newest first. With
// unviewedOnly set, likes already marked viewed are skipped.
func (r *SQLiteLikeRepository) ListReceived(ctx context.Context, userID int64, unviewedOnly bool, limit int) ([]*models.Like, error) {
	if limit <= 0 {
		limit = constants.DefaultSearchLimit
	}

	query := fmt.Sprintf(`SELECT %s FROM likes WHERE liked_id = ?`, likeColumns)
	if unviewedOnly {
		query += ` AND viewed_at IS NULL`
	}
	query += ` ORDER BY created_at DESC LIMIT ?`

	var likes []*models.Like
	err := r.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
		var innerErr error
		likes, innerErr = scanLikes(conn, ctx, query, userID, limit)
		return innerErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list received likes for %d: %w", userID, err)
	}

	return likes, nil
}

// ListSent returns likes the user has given, newest first.
func (r *SQLiteLikeRepository) ListSent(ctx context.Context, userID int64, limit int) ([]*models.Like, error) {
	if limit <= 0 {
		limit = constants.DefaultSearchLimit
	}

	query := fmt.Sprintf(`SELECT %s FROM likes WHERE liker_id = ? ORDER BY created_at DESC LIMIT ?`, likeColumns)

	var likes []*models.Like
	err := r.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
		var innerErr error
		likes, innerErr = scanLikes(conn, ctx, query, userID, limit)
		return innerErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sent likes for %d: %w", userID, err)
	}

	return likes, nil
}

// StatsForUser aggregates the user's like activity in one connection scope.
func (r *SQLiteLikeRepository) StatsForUser(ctx context.Context, userID int64) (*models.LikeStats, error) {
	stats := &models.LikeStats{}

	err := r.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
		if err := conn.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM likes WHERE liker_id = ?`, userID).Scan(&stats.Sent); err != nil {
			return err
		}
		if err := conn.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM likes WHERE liked_id = ?`, userID).Scan(&stats.Received); err != nil {
			return err
		}
		if err := conn.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM likes WHERE liked_id = ? AND viewed_at IS NULL`, userID).Scan(&stats.Unviewed); err != nil {
			return err
		}
		return conn.QueryRowContext(ctx, `
            SELECT COUNT(*) FROM likes l1
            JOIN likes l2 ON l1.liker_id = l2.liked_id AND l1.liked_id = l2.liker_id
            WHERE l1.liker_id = ?
        `, userID).Scan(&stats.Mutual)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get like stats for %d: %w", userID, err)
	}

	return stats, nil
}
