package repository_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/config"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/constants"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/database"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/repository"
)

// setupStore wires the full repository set over a sqlmock handle. Every
// connection checkout runs a SELECT 1 health probe first, so tests queue one
// probe expectation per repository call via expectProbe.
func setupStore(t *testing.T) (*repository.Store, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	cfg := &config.DatabaseSettings{
		PoolSize:       1,
		PoolTimeout:    time.Second,
		ConnectTimeout: time.Second,
	}
	mgr, err := database.NewManagerWithHandles(cfg, map[string]*sql.DB{
		constants.DBMain: db,
	})
	require.NoError(t, err)

	return repository.NewStore(mgr), mock, func() {
		mgr.Close()
		db.Close()
	}
}

func expectProbe(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT 1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
}

// profileColumnNames matches the shared profile projection order.
var profileColumnNames = []string{
	"user_id", "game_nickname", "rating", "profile_url", "role",
	"favorite_maps", "playtime_slots", "categories", "description",
	"media_type", "media_file_id", "moderation_status", "moderation_reason",
	"moderated_by", "moderated_at", "created_at", "updated_at",
}

// profileRows builds a result set in the shared profile projection order.
// Use addProfileRow to append candidates.
func profileRows() *sqlmock.Rows {
	return sqlmock.NewRows(profileColumnNames)
}

// addProfileRow appends one approved profile with the given matching fields.
// The list columns take JSON text, the way they are stored.
func addProfileRow(rows *sqlmock.Rows, userID int64, rating int, role, maps, slots, categories string) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(
		userID, "nick", rating, "", role,
		maps, slots, categories, nil,
		nil, nil, constants.ModerationApproved, nil,
		nil, nil, now, now,
	)
}
