package migrations_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/config"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/constants"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/database"
	"github.com/Tw1zzzzz/CisBot2-sub001/migrations"
)

func setupMigrationTest(t *testing.T) (*database.Manager, sqlmock.Sqlmock, func()) {
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

	return mgr, mock, func() {
		mgr.Close()
		db.Close()
	}
}

var tableOrder = []string{
	"CREATE TABLE IF NOT EXISTS users",
	"CREATE TABLE IF NOT EXISTS profiles",
	"CREATE TABLE IF NOT EXISTS likes",
	"CREATE TABLE IF NOT EXISTS matches",
	"CREATE TABLE IF NOT EXISTS user_settings",
	"CREATE TABLE IF NOT EXISTS moderators",
}

func TestMigrator_Run_FreshDatabase(t *testing.T) {
	mgr, mock, cleanup := setupMigrationTest(t)
	defer cleanup()

	// Checkout probe, then everything inside one transaction.
	mock.ExpectQuery("SELECT 1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("BEGIN").WillReturnResult(sqlmock.NewResult(0, 0))

	for _, stmt := range tableOrder {
		mock.ExpectExec(stmt).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	// Fresh tables already carry every column, so each upgrade reports a
	// duplicate column and is swallowed.
	for i := 0; i < 9; i++ {
		mock.ExpectExec("ALTER TABLE").
			WillReturnError(errors.New("duplicate column name"))
	}

	for i := 0; i < 9; i++ {
		mock.ExpectExec("CREATE INDEX IF NOT EXISTS").
			WillReturnResult(sqlmock.NewResult(0, 0))
	}

	mock.ExpectExec("COMMIT").WillReturnResult(sqlmock.NewResult(0, 0))

	err := migrations.Run(context.Background(), mgr)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrator_Run_TableFailureRollsBack(t *testing.T) {
	mgr, mock, cleanup := setupMigrationTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT 1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("BEGIN").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectExec("ROLLBACK").WillReturnResult(sqlmock.NewResult(0, 0))

	err := migrations.Run(context.Background(), mgr)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create_users_table")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrator_Run_IndexFailureRollsBack(t *testing.T) {
	mgr, mock, cleanup := setupMigrationTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT 1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("BEGIN").WillReturnResult(sqlmock.NewResult(0, 0))

	for _, stmt := range tableOrder {
		mock.ExpectExec(stmt).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	for i := 0; i < 9; i++ {
		mock.ExpectExec("ALTER TABLE").
			WillReturnError(errors.New("duplicate column name"))
	}
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS").
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectExec("ROLLBACK").WillReturnResult(sqlmock.NewResult(0, 0))

	err := migrations.Run(context.Background(), mgr)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "index creation failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMigrations_UsersFirst(t *testing.T) {
	all := migrations.GetMigrations()

	require.NotEmpty(t, all)
	// Every other table references users, so it must be created first.
	assert.Equal(t, "users", all[0].Table)

	seen := make(map[string]bool)
	for _, m := range all {
		assert.False(t, seen[m.Name], "duplicate migration name %s", m.Name)
		seen[m.Name] = true
		assert.NotEmpty(t, m.SQL)
	}
}
