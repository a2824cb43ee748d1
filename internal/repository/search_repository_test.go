package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/constants"
)

// searchRows builds a candidate result set: the shared profile projection
// plus the owner's joined privacy document.
func searchRows() *sqlmock.Rows {
	columns := append(append([]string{}, profileColumnNames...), "privacy_settings")
	return sqlmock.NewRows(columns)
}

func addSearchRow(rows *sqlmock.Rows, userID int64, rating int, maps, slots string, privacy interface{}) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(
		userID, "nick", rating, "", "igl",
		maps, slots, "[]", nil,
		nil, nil, constants.ModerationApproved, nil,
		nil, nil, now, now,
		privacy,
	)
}

func expectSearcherProfile(mock sqlmock.Sqlmock, userID int64) {
	expectProbe(mock)
	mock.ExpectQuery("SELECT (.+) FROM profiles WHERE user_id").
		WithArgs(userID).
		WillReturnRows(addProfileRow(profileRows(), userID, 2500, "igl",
			`["mirage","dust2"]`, `["evening"]`, "[]"))
}

func expectDefaultSettings(mock sqlmock.Sqlmock, userID int64) {
	expectProbe(mock)
	mock.ExpectQuery("FROM user_settings").
		WithArgs(userID).
		WillReturnError(sql.ErrNoRows)
}

func TestSearchRepository_FindCandidates_NoProfile(t *testing.T) {
	store, mock, cleanup := setupStore(t)
	defer cleanup()

	expectProbe(mock)
	mock.ExpectQuery("SELECT (.+) FROM profiles WHERE user_id").
		WithArgs(int64(1)).
		WillReturnError(sql.ErrNoRows)

	candidates, err := store.Search.FindCandidates(context.Background(), 1, 10)

	assert.NoError(t, err)
	assert.Empty(t, candidates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchRepository_FindCandidates_FiltersAndRanks(t *testing.T) {
	store, mock, cleanup := setupStore(t)
	defer cleanup()

	expectSearcherProfile(mock, 1)
	expectDefaultSettings(mock, 1)

	// The eligibility query returns candidates in recency order. The hidden
	// profile is dropped by the privacy gate, the distant one by the default
	// minimum compatibility, and the survivors come back best match first.
	rows := searchRows()
	addSearchRow(rows, 3, 2700, `["mirage"]`, `["evening"]`, nil)
	addSearchRow(rows, 2, 2520, `["mirage","dust2"]`, `["evening"]`, nil)
	addSearchRow(rows, 4, 2510, `["mirage","dust2"]`, `["evening"]`, `{"profile_visibility":"hidden"}`)
	addSearchRow(rows, 5, 900, `["train"]`, `["morning"]`, nil)

	expectProbe(mock)
	mock.ExpectQuery(`FROM profiles p\s+LEFT JOIN user_settings us`).
		WithArgs(int64(1), int64(1), constants.ModerationApproved).
		WillReturnRows(rows)

	candidates, err := store.Search.FindCandidates(context.Background(), 1, 10)

	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, int64(2), candidates[0].UserID)
	assert.Equal(t, int64(3), candidates[1].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchRepository_FindCandidates_MatchesOnlyNeedsMutualLike(t *testing.T) {
	store, mock, cleanup := setupStore(t)
	defer cleanup()

	expectSearcherProfile(mock, 1)
	expectDefaultSettings(mock, 1)

	rows := searchRows()
	addSearchRow(rows, 2, 2520, `["mirage","dust2"]`, `["evening"]`, `{"profile_visibility":"matches_only"}`)
	addSearchRow(rows, 3, 2520, `["mirage","dust2"]`, `["evening"]`, `{"profile_visibility":"matches_only"}`)

	expectProbe(mock)
	mock.ExpectQuery(`FROM profiles p\s+LEFT JOIN user_settings us`).
		WithArgs(int64(1), int64(1), constants.ModerationApproved).
		WillReturnRows(rows)

	// Each matches-only candidate triggers a mutual-like verification on its
	// own connection checkout.
	expectProbe(mock)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM likes`).
		WithArgs(int64(1), int64(2), int64(2), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	expectProbe(mock)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM likes`).
		WithArgs(int64(1), int64(3), int64(3), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	candidates, err := store.Search.FindCandidates(context.Background(), 1, 10)

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, int64(2), candidates[0].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchRepository_FindCandidates_TopBracket(t *testing.T) {
	store, mock, cleanup := setupStore(t)
	defer cleanup()

	expectSearcherProfile(mock, 1)

	now := time.Now()
	settingsRows := sqlmock.NewRows([]string{
		"user_id", "notifications_enabled", "search_filters", "privacy_settings",
		"created_at", "updated_at",
	}).AddRow(int64(1), true, `{"rating_filter":"top"}`, nil, now, now)

	expectProbe(mock)
	mock.ExpectQuery("FROM user_settings").
		WithArgs(int64(1)).
		WillReturnRows(settingsRows)

	// Top mode orders strictly by rating and skips the filter predicates, so
	// even a distant candidate comes back, highest rating first.
	rows := searchRows()
	addSearchRow(rows, 9, 3400, `["train"]`, `["morning"]`, nil)
	addSearchRow(rows, 7, 3100, `["mirage"]`, `["evening"]`, nil)

	expectProbe(mock)
	mock.ExpectQuery(`ORDER BY p\.rating DESC`).
		WithArgs(int64(1), int64(1), constants.ModerationApproved, constants.TopBracketScanLimit).
		WillReturnRows(rows)

	candidates, err := store.Search.FindCandidates(context.Background(), 1, 10)

	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, int64(9), candidates[0].UserID)
	assert.Equal(t, int64(7), candidates[1].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchRepository_FindCandidates_StopsAccumulatingAtLimit(t *testing.T) {
	store, mock, cleanup := setupStore(t)
	defer cleanup()

	expectSearcherProfile(mock, 1)
	expectDefaultSettings(mock, 1)

	// Candidates are gathered in recency order until the limit fills, then
	// ranked. The older twin never makes the set even though it scores
	// higher, and its matches-only gate is never evaluated: no mutual-like
	// query is expected for it.
	rows := searchRows()
	addSearchRow(rows, 2, 2700, `["mirage"]`, `["evening"]`, nil)
	addSearchRow(rows, 3, 2500, `["mirage","dust2"]`, `["evening"]`, `{"profile_visibility":"matches_only"}`)

	expectProbe(mock)
	mock.ExpectQuery(`FROM profiles p\s+LEFT JOIN user_settings us`).
		WithArgs(int64(1), int64(1), constants.ModerationApproved).
		WillReturnRows(rows)

	candidates, err := store.Search.FindCandidates(context.Background(), 1, 1)

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, int64(2), candidates[0].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchRepository_FindCandidates_LimitTruncates(t *testing.T) {
	store, mock, cleanup := setupStore(t)
	defer cleanup()

	expectSearcherProfile(mock, 1)
	expectDefaultSettings(mock, 1)

	rows := searchRows()
	addSearchRow(rows, 2, 2520, `["mirage","dust2"]`, `["evening"]`, nil)
	addSearchRow(rows, 3, 2510, `["mirage","dust2"]`, `["evening"]`, nil)
	addSearchRow(rows, 4, 2530, `["mirage","dust2"]`, `["evening"]`, nil)

	expectProbe(mock)
	mock.ExpectQuery(`FROM profiles p\s+LEFT JOIN user_settings us`).
		WithArgs(int64(1), int64(1), constants.ModerationApproved).
		WillReturnRows(rows)

	candidates, err := store.Search.FindCandidates(context.Background(), 1, 2)

	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}
