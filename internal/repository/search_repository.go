package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/constants"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/database"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/matching"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/models"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/utils"
)

// SearchRepository finds teammate candidates for a user.
type SearchRepository interface {
	FindCandidates(ctx context.Context, userID int64, limit int) ([]*models.Profile, error)
}

// SQLiteSearchRepository implements the candidate search pipeline: load the
// searcher's profile and filters, select eligible profiles, gate each one on
// the owner's privacy settings, apply the filter predicates and order by
// compatibility.
type SQLiteSearchRepository struct {
	mgr      *database.Manager
	profiles ProfileRepository
	settings SettingsRepository
	likes    LikeRepository
}

// NewSearchRepository creates a new SearchRepository.
func NewSearchRepository(mgr *database.Manager, profiles ProfileRepository, settings SettingsRepository, likes LikeRepository) SearchRepository {
	return &SQLiteSearchRepository{
		mgr:      mgr,
		profiles: profiles,
		settings: settings,
		likes:    likes,
	}
}

// candidateRow pairs a scanned profile with the owner's raw privacy
// document. Rows are fully drained before any privacy evaluation because the
// mutual-like check needs a connection of its own.
type candidateRow struct {
	profile    *models.Profile
	privacyRaw sql.NullString
}

// FindCandidates returns up to limit candidate profiles for the user. A
// searcher without a profile gets an empty result; missing settings fall
// back to the default filters.
func (r *SQLiteSearchRepository) FindCandidates(ctx context.Context, userID int64, limit int) ([]*models.Profile, error) {
	searcher, err := r.profiles.GetByID(ctx, userID)
	if err != nil {
		if utils.IsNotFoundError(err) {
			log.Warn().Int64("user_id", userID).Msg("Search requested without a profile")
			return []*models.Profile{}, nil
		}
		return nil, err
	}

	filters := models.DefaultSearchFilters()
	if settings, err := r.settings.Get(ctx, userID); err == nil {
		filters = settings.SearchFilters
	} else if !utils.IsNotFoundError(err) {
		return nil, err
	}

	if limit <= 0 {
		limit = filters.MaxCandidates
	}
	if limit > constants.MaxSearchLimit {
		limit = constants.MaxSearchLimit
	}

	// The top-bracket mode is a distinct ranking, not a filter predicate:
	// order strictly by rating and skip the filter chain entirely.
	if filters.RatingFilter == matching.TopBracketFilterID {
		return r.findTopBracket(ctx, userID, limit)
	}

	rows, err := r.loadEligible(ctx, userID, `ORDER BY p.updated_at DESC`, -1)
	if err != nil {
		return nil, err
	}

	// Accumulation stops at the limit; the compatibility sort ranks only the
	// accepted recency-ordered set, it does not widen it.
	candidates := make([]*models.Profile, 0, limit)
	for _, row := range rows {
		if !r.visibleTo(ctx, row.privacyRaw, userID, row.profile.UserID) {
			continue
		}
		if !matching.Accept(row.profile, searcher, filters) {
			continue
		}
		candidates = append(candidates, row.profile)
		if len(candidates) >= limit {
			break
		}
	}

	if filters.MinCompatibility > 0 {
		candidates = matching.SortByCompatibility(candidates, searcher)
	}

	log.Debug().
		Int64("user_id", userID).
		Int("candidates", len(candidates)).
		Msg("Candidate search completed")
	return candidates, nil
}

// findTopBracket returns the highest-rated candidates: scan the ladder top
// down (capped at a fixed bound), apply only the privacy gate and the limit.
func (r *SQLiteSearchRepository) findTopBracket(ctx context.Context, userID int64, limit int) ([]*models.Profile, error) {
	rows, err := r.loadEligible(ctx, userID, `ORDER BY p.rating DESC`, constants.TopBracketScanLimit)
	if err != nil {
		return nil, err
	}

	candidates := make([]*models.Profile, 0, limit)
	for _, row := range rows {
		if !r.visibleTo(ctx, row.privacyRaw, userID, row.profile.UserID) {
			continue
		}
		candidates = append(candidates, row.profile)
		if len(candidates) >= limit {
			break
		}
	}

	log.Info().
		Int64("user_id", userID).
		Int("candidates", len(candidates)).
		Msg("Top-bracket search completed")
	return candidates, nil
}

// loadEligible selects profiles that are approved, owned by an active user,
// not the searcher's own and not already liked by the searcher, together
// with each owner's privacy document. All rows are drained into memory so
// the connection is free before privacy checks run.
func (r *SQLiteSearchRepository) loadEligible(ctx context.Context, userID int64, order string, scanLimit int) ([]candidateRow, error) {
	query := fmt.Sprintf(`
        SELECT %s, us.privacy_settings
        FROM profiles p
        LEFT JOIN user_settings us ON p.user_id = us.user_id
        WHERE p.user_id != ?
        AND p.user_id NOT IN (
            SELECT liked_id FROM likes WHERE liker_id = ?
        )
        AND p.moderation_status = ?
        AND EXISTS (SELECT 1 FROM users u WHERE u.user_id = p.user_id AND u.is_active = 1)
        %s
    `, prefixColumns("p", profileColumns), order)

	args := []interface{}{userID, userID, constants.ModerationApproved}
	if scanLimit > 0 {
		query += ` LIMIT ?`
		args = append(args, scanLimit)
	}

	var result []candidateRow
	err := r.mgr.With(ctx, constants.DBMain, func(conn *database.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var row candidateRow
			var maps, slots, categories string
			p := &models.Profile{}
			err := rows.Scan(
				&p.UserID, &p.GameNickname, &p.Rating, &p.ProfileURL, &p.Role,
				&maps, &slots, &categories, &p.Description, &p.MediaType,
				&p.MediaFileID, &p.ModerationStatus, &p.ModerationReason,
				&p.ModeratedBy, &p.ModeratedAt, &p.CreatedAt, &p.UpdatedAt,
				&row.privacyRaw,
			)
			if err != nil {
				return err
			}
			p.FavoriteMaps = models.DecodeStringList(maps, "favorite_maps")
			p.PlaytimeSlots = models.DecodeStringList(slots, "playtime_slots")
			p.Categories = models.DecodeStringList(categories, "categories")
			row.profile = p
			result = append(result, row)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate profiles: %w", err)
	}

	return result, nil
}

// visibleTo evaluates a candidate's privacy gate for the searcher. Absent or
// malformed privacy data fails open to visible; the matches_only setting
// requires a verified mutual like, and an error during that check keeps the
// profile hidden.
func (r *SQLiteSearchRepository) visibleTo(ctx context.Context, privacyRaw sql.NullString, searcherID, candidateID int64) bool {
	privacy := models.ParsePrivacySettings(privacyRaw.String)

	switch privacy.ProfileVisibility {
	case constants.VisibilityHidden:
		return false
	case constants.VisibilityMatchesOnly:
		mutual, err := r.likes.CheckMutual(ctx, searcherID, candidateID)
		if err != nil {
			log.Error().Err(err).
				Int64("searcher_id", searcherID).
				Int64("candidate_id", candidateID).
				Msg("Mutual-like check failed, hiding matches-only profile")
			return false
		}
		return mutual
	default:
		return true
	}
}
