package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/utils"
)

func TestModeratorRepository_Add(t *testing.T) {
	store, mock, cleanup := setupStore(t)
	defer cleanup()

	appointedBy := int64(1)

	expectProbe(mock)
	mock.ExpectExec("INSERT OR REPLACE INTO moderators").
		WithArgs(int64(42), "admin", sqlmock.AnyArg(), appointedBy).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.Moderators.Add(context.Background(), 42, "admin", &appointedBy)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModeratorRepository_Add_UnknownRole(t *testing.T) {
	store, _, cleanup := setupStore(t)
	defer cleanup()

	err := store.Moderators.Add(context.Background(), 42, "overlord", nil)
	assert.True(t, utils.IsValidationError(err))
}

func TestModeratorRepository_Get_ParsesPermissions(t *testing.T) {
	store, mock, cleanup := setupStore(t)
	defer cleanup()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"user_id", "role", "permissions", "appointed_by", "appointed_at", "is_active",
	}).AddRow(int64(42), "moderator", `{"view_stats":true}`, nil, now, true)

	expectProbe(mock)
	mock.ExpectQuery("FROM moderators WHERE user_id = (.+) AND is_active = 1").
		WithArgs(int64(42)).
		WillReturnRows(rows)

	mod, err := store.Moderators.Get(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, "moderator", mod.Role)
	// Stored overrides win over the role defaults.
	assert.True(t, mod.Permissions.ViewStats)
	assert.True(t, mod.Permissions.ModerateProfiles)
	assert.False(t, mod.Permissions.ManageModerators)
}

func TestModeratorRepository_IsModerator_AbsentIsFalse(t *testing.T) {
	store, mock, cleanup := setupStore(t)
	defer cleanup()

	expectProbe(mock)
	mock.ExpectQuery("FROM moderators").
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	ok, err := store.Moderators.IsModerator(context.Background(), 404)

	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestModeratorRepository_SetActive_NotFound(t *testing.T) {
	store, mock, cleanup := setupStore(t)
	defer cleanup()

	expectProbe(mock)
	mock.ExpectExec("UPDATE moderators SET is_active").
		WithArgs(false, int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Moderators.SetActive(context.Background(), 404, false)

	assert.True(t, utils.IsNotFoundError(err))
}

func TestModeratorRepository_Stats(t *testing.T) {
	store, mock, cleanup := setupStore(t)
	defer cleanup()

	statusRows := sqlmock.NewRows([]string{"moderation_status", "count"}).
		AddRow("pending", 4).
		AddRow("approved", 11).
		AddRow("rejected", 2)

	expectProbe(mock)
	mock.ExpectQuery("SELECT moderation_status, (.+) GROUP BY moderation_status").
		WillReturnRows(statusRows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM moderators WHERE is_active = 1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	stats, err := store.Moderators.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, stats.ProfilesPending)
	assert.Equal(t, 11, stats.ProfilesApproved)
	assert.Equal(t, 2, stats.ProfilesRejected)
	assert.Equal(t, 3, stats.ActiveModerators)
}
