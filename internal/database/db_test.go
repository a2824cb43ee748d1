package database_test

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
)

// newMockManager builds a connected manager over a sqlmock handle for the
// main logical database. Every checkout runs a SELECT 1 health probe, so
// tests must queue a probe expectation per acquisition.
func newMockManager(t *testing.T, poolSize int) (*database.Manager, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	cfg := &config.DatabaseSettings{
		PoolSize:               poolSize,
		PoolTimeout:            100 * time.Millisecond,
		ConnectTimeout:         time.Second,
		RequireExplicitConnect: true,
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

func expectProbe(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT 1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
}

func TestManager_With_RunsQueryAndReturnsConnection(t *testing.T) {
	mgr, mock, cleanup := newMockManager(t, 1)
	defer cleanup()

	expectProbe(mock)
	mock.ExpectExec("UPDATE users").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := mgr.With(context.Background(), constants.DBMain, func(conn *database.Conn) error {
		_, err := conn.ExecContext(context.Background(), "UPDATE users SET is_active = 1")
		return err
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	// The connection must be back in the pool after the scope exits.
	stats := mgr.Stats()[constants.DBMain]
	assert.Equal(t, 1, stats.Available)
	assert.Equal(t, 0, stats.InUse)
}

func TestManager_With_PropagatesCallbackError(t *testing.T) {
	mgr, mock, cleanup := newMockManager(t, 1)
	defer cleanup()

	expectProbe(mock)
	wantErr := errors.New("no such table: nope")

	err := mgr.With(context.Background(), constants.DBMain, func(conn *database.Conn) error {
		return wantErr
	})

	assert.ErrorIs(t, err, wantErr)

	// An ordinary query error must not cost the pool its connection.
	assert.Equal(t, 1, mgr.Stats()[constants.DBMain].Available)
}

func TestManager_With_UnknownDatabase(t *testing.T) {
	mgr, _, cleanup := newMockManager(t, 1)
	defer cleanup()

	err := mgr.With(context.Background(), "analytics", func(conn *database.Conn) error {
		return nil
	})

	assert.ErrorIs(t, err, database.ErrUnknownDatabase)
}

func TestManager_With_CheckoutTimeout(t *testing.T) {
	mgr, mock, cleanup := newMockManager(t, 1)
	defer cleanup()

	expectProbe(mock)

	// Hold the only connection and try to check out a second one; the
	// nested acquisition must time out with occupancy diagnostics.
	err := mgr.With(context.Background(), constants.DBMain, func(conn *database.Conn) error {
		return mgr.With(context.Background(), constants.DBMain, func(inner *database.Conn) error {
			t.Fatal("nested checkout must not succeed on an exhausted pool")
			return nil
		})
	})

	var timeoutErr *database.CheckoutTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, constants.DBMain, timeoutErr.Database)
	assert.Equal(t, 1, timeoutErr.InUse)
	assert.Equal(t, 0, timeoutErr.Available)
	assert.Equal(t, 1, timeoutErr.Size)
}

func TestManager_With_ContextCanceled(t *testing.T) {
	mgr, mock, cleanup := newMockManager(t, 1)
	defer cleanup()

	expectProbe(mock)

	err := mgr.With(context.Background(), constants.DBMain, func(conn *database.Conn) error {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return mgr.With(ctx, constants.DBMain, func(inner *database.Conn) error {
			return nil
		})
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestManager_With_ProbeFailureGetsFreshConnection(t *testing.T) {
	mgr, mock, cleanup := newMockManager(t, 1)
	defer cleanup()

	// The probe fails; the gateway must discard the connection, create a
	// fresh one and still run the callback.
	mock.ExpectQuery("SELECT 1").
		WillReturnError(errors.New("database is closed"))
	mock.ExpectQuery("SELECT user_id FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(7)))

	var got int64
	err := mgr.With(context.Background(), constants.DBMain, func(conn *database.Conn) error {
		return conn.QueryRowContext(context.Background(), "SELECT user_id FROM users LIMIT 1").Scan(&got)
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(7), got)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 1, mgr.Stats()[constants.DBMain].Available)
}

func TestManager_With_RollsBackOpenTransactionOnRelease(t *testing.T) {
	mgr, mock, cleanup := newMockManager(t, 1)
	defer cleanup()

	expectProbe(mock)
	mock.ExpectExec("BEGIN").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ROLLBACK").WillReturnResult(sqlmock.NewResult(0, 0))

	err := mgr.With(context.Background(), constants.DBMain, func(conn *database.Conn) error {
		// Exit without committing; the gateway owns the rollback.
		return conn.Begin(context.Background())
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManager_Close_RejectsFurtherCheckouts(t *testing.T) {
	mgr, _, cleanup := newMockManager(t, 1)
	defer cleanup()

	mgr.Close()

	err := mgr.With(context.Background(), constants.DBMain, func(conn *database.Conn) error {
		return nil
	})

	assert.ErrorIs(t, err, database.ErrNotConnected)
}

func TestManager_RequireExplicitConnect(t *testing.T) {
	cfg := &config.DatabaseSettings{
		PoolSize:               1,
		PoolTimeout:            100 * time.Millisecond,
		ConnectTimeout:         time.Second,
		RequireExplicitConnect: true,
	}
	mgr := database.NewManager(cfg, nil)

	err := mgr.With(context.Background(), constants.DBMain, func(conn *database.Conn) error {
		return nil
	})

	assert.ErrorIs(t, err, database.ErrNotConnected)
}

func TestManager_HealthCheck(t *testing.T) {
	mgr, mock, cleanup := newMockManager(t, 1)
	defer cleanup()

	// One probe on checkout plus the health query itself.
	expectProbe(mock)
	expectProbe(mock)

	assert.NoError(t, mgr.HealthCheck(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManager_HealthCheck_NotConnected(t *testing.T) {
	cfg := &config.DatabaseSettings{PoolSize: 1, PoolTimeout: time.Second, ConnectTimeout: time.Second}
	mgr := database.NewManager(cfg, nil)

	assert.ErrorIs(t, mgr.HealthCheck(context.Background()), database.ErrNotConnected)
}

func TestManager_Stats(t *testing.T) {
	mgr, _, cleanup := newMockManager(t, 3)
	defer cleanup()

	stats := mgr.Stats()
	require.Contains(t, stats, constants.DBMain)
	assert.Equal(t, 3, stats[constants.DBMain].Size)
	assert.Equal(t, 3, stats[constants.DBMain].Available)
	assert.Equal(t, 0, stats[constants.DBMain].InUse)
}

func TestIsConnectionFault(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"locked", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"closed", errors.New("database is closed"), true},
		{"conn closed", errors.New("sql: connection is already closed"), true},
		{"bad conn", errors.New("driver: bad connection"), true},
		{"constraint", errors.New("UNIQUE constraint failed: users.user_id"), false},
		{"no rows", errors.New("sql: no rows in result set"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, database.IsConnectionFault(tt.err))
		})
	}
}

func TestManager_With_BlockedAcquisitionProceedsAfterRelease(t *testing.T) {
	mgr, mock, cleanup := newMockManager(t, 2)
	defer cleanup()

	expectProbe(mock)
	expectProbe(mock)
	expectProbe(mock)

	ctx := context.Background()
	third := make(chan error, 1)

	err := mgr.With(ctx, constants.DBMain, func(*database.Conn) error {
		return mgr.With(ctx, constants.DBMain, func(*database.Conn) error {
			// Both connections are held; a third acquisition must wait.
			go func() {
				third <- mgr.With(ctx, constants.DBMain, func(*database.Conn) error {
					return nil
				})
			}()

			select {
			case err := <-third:
				t.Errorf("acquisition completed while the pool was exhausted: %v", err)
			case <-time.After(20 * time.Millisecond):
			}
			return nil
		})
	})
	require.NoError(t, err)

	// Releasing a connection unblocks the waiter.
	select {
	case err := <-third:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("blocked acquisition never proceeded after release")
	}

	stats := mgr.Stats()[constants.DBMain]
	assert.Equal(t, 2, stats.Available)
	assert.Equal(t, 0, stats.InUse)
}
