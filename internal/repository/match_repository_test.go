package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/utils"
)

func TestMatchRepository_Create_CanonicalOrder(t *testing.T) {
	store, mock, cleanup := setupStore(t)
	defer cleanup()

	// The pair is stored as (min, max) regardless of argument order.
	expectProbe(mock)
	mock.ExpectExec("INSERT OR IGNORE INTO matches").
		WithArgs(int64(3), int64(9)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.Matches.Create(context.Background(), 9, 3)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepository_Create_SameUser(t *testing.T) {
	store, _, cleanup := setupStore(t)
	defer cleanup()

	err := store.Matches.Create(context.Background(), 5, 5)
	assert.True(t, utils.IsValidationError(err))
}

func TestMatchRepository_ListForUser_ActiveOnly(t *testing.T) {
	store, mock, cleanup := setupStore(t)
	defer cleanup()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user1_id", "user2_id", "created_at", "is_active"}).
		AddRow(int64(2), int64(1), int64(7), now, true).
		AddRow(int64(1), int64(1), int64(4), now.Add(-time.Hour), true)

	expectProbe(mock)
	mock.ExpectQuery(`FROM matches WHERE \(user1_id = \? OR user2_id = \?\) AND is_active = 1`).
		WithArgs(int64(1), int64(1)).
		WillReturnRows(rows)

	matches, err := store.Matches.ListForUser(context.Background(), 1, true)

	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, int64(7), matches[0].Partner(1))
	assert.Equal(t, int64(4), matches[1].Partner(1))
}

func TestMatchRepository_Deactivate(t *testing.T) {
	store, mock, cleanup := setupStore(t)
	defer cleanup()

	expectProbe(mock)
	mock.ExpectExec("UPDATE matches SET is_active = 0").
		WithArgs(int64(3), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Matches.Deactivate(context.Background(), 9, 3)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRepository_Deactivate_NotFound(t *testing.T) {
	store, mock, cleanup := setupStore(t)
	defer cleanup()

	expectProbe(mock)
	mock.ExpectExec("UPDATE matches SET is_active = 0").
		WithArgs(int64(3), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Matches.Deactivate(context.Background(), 3, 9)

	assert.True(t, utils.IsNotFoundError(err))
}
