package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/constants"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/database"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/models"
)

// WarmupRepository provides the read-only ranking queries consumed by the
// cache-warming scheduler: which profiles are worth keeping hot and which
// cache entries are stale.
type WarmupRepository interface {
	PopularProfiles(ctx context.Context, limit int) ([]*models.Profile, error)
	UserNetworkProfiles(ctx context.Context, userID int64, limit int) ([]*models.Profile, error)
	ActiveUsers(ctx context.Context, limit int) ([]int64, error)
	TrendingProfiles(ctx context.Context, window time.Duration, limit int) ([]*models.Profile, error)
	StaleCacheCandidates(ctx context.Context, since time.Time, limit int) ([]int64, error)
}

// SQLiteWarmupRepository is a SQLite implementation of WarmupRepository.
type SQLiteWarmupRepository struct {
	mgr *database.Manager
}

// NewWarmupRepository creates a new WarmupRepository.
func NewWarmupRepository(mgr *database.Manager) WarmupRepository {
	return &SQLiteWarmupRepository{mgr: mgr}
}

// queryProfiles runs a query whose projection matches profileColumns and
// drains the rows.
func (r *SQLiteWarmupRepository) queryProfiles(ctx context.Context, query string, args ...interface{}) ([]*models.Profile, error) {
	var profiles []*models.Profile
	err := r.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
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
		return nil, err
	}
	return profiles, nil
}

// PopularProfiles returns approved profiles ranked by received likes.
func (r *SQLiteWarmupRepository) PopularProfiles(ctx context.Context, limit int) ([]*models.Profile, error) {
	if limit <= 0 {
		limit = constants.DefaultSearchLimit
	}

	query := fmt.Sprintf(`
        SELECT %s FROM profiles p
        WHERE p.moderation_status = ?
        ORDER BY (SELECT COUNT(*) FROM likes l WHERE l.liked_id = p.user_id) DESC,
                 p.updated_at DESC
        LIMIT ?
    `, prefixColumns("p", profileColumns))

	profiles, err := r.queryProfiles(ctx, query, constants.ModerationApproved, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get popular profiles: %w", err)
	}
	return profiles, nil
}

// UserNetworkProfiles returns approved profiles adjacent to the user through
// likes or matches, the profiles the user is most likely to view next.
func (r *SQLiteWarmupRepository) UserNetworkProfiles(ctx context.Context, userID int64, limit int) ([]*models.Profile, error) {
	if limit <= 0 {
		limit = constants.DefaultSearchLimit
	}

	query := fmt.Sprintf(`
        SELECT %s FROM profiles p
        WHERE p.moderation_status = ?
        AND p.user_id != ?
        AND p.user_id IN (
            SELECT liked_id FROM likes WHERE liker_id = ?
            UNION
            SELECT liker_id FROM likes WHERE liked_id = ?
            UNION
            SELECT user2_id FROM matches WHERE user1_id = ?
            UNION
            SELECT user1_id FROM matches WHERE user2_id = ?
        )
        ORDER BY p.updated_at DESC
        LIMIT ?
    `, prefixColumns("p", profileColumns))

	profiles, err := r.queryProfiles(ctx, query,
		constants.ModerationApproved, userID, userID, userID, userID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get network profiles for %d: %w", userID, err)
	}
	return profiles, nil
}

// ActiveUsers returns ids of active users ranked by recent like activity.
func (r *SQLiteWarmupRepository) ActiveUsers(ctx context.Context, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = constants.DefaultSearchLimit
	}

	query := `
        SELECT u.user_id FROM users u
        WHERE u.is_active = 1
        ORDER BY (
            SELECT COUNT(*) FROM likes l
            WHERE l.liker_id = u.user_id OR l.liked_id = u.user_id
        ) DESC, u.created_at DESC
        LIMIT ?
    `

	ids, err := r.queryIDs(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get active users: %w", err)
	}
	return ids, nil
}

// TrendingProfiles returns approved profiles ranked by likes received inside
// the window.
func (r *SQLiteWarmupRepository) TrendingProfiles(ctx context.Context, window time.Duration, limit int) ([]*models.Profile, error) {
	if limit <= 0 {
		limit = constants.DefaultSearchLimit
	}
	cutoff := time.Now().Add(-window)

	query := fmt.Sprintf(`
        SELECT %s FROM profiles p
        WHERE p.moderation_status = ?
        AND (SELECT COUNT(*) FROM likes l WHERE l.liked_id = p.user_id AND l.created_at >= ?) > 0
        ORDER BY (SELECT COUNT(*) FROM likes l WHERE l.liked_id = p.user_id AND l.created_at >= ?) DESC
        LIMIT ?
    `, prefixColumns("p", profileColumns))

	profiles, err := r.queryProfiles(ctx, query, constants.ModerationApproved, cutoff, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get trending profiles: %w", err)
	}
	return profiles, nil
}

// StaleCacheCandidates returns ids of profiles updated after the cutoff,
// whose cached copies need refreshing.
func (r *SQLiteWarmupRepository) StaleCacheCandidates(ctx context.Context, since time.Time, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = constants.DefaultSearchLimit
	}

	query := `
        SELECT user_id FROM profiles
        WHERE updated_at >= ?
        ORDER BY updated_at DESC
        LIMIT ?
    `

	ids, err := r.queryIDs(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get stale cache candidates: %w", err)
	}
	return ids, nil
}

func (r *SQLiteWarmupRepository) queryIDs(ctx context.Context, query string, args ...interface{}) ([]int64, error) {
	var ids []int64
	err := r.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
