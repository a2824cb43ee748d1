package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/database"
)

func TestIsLockError(t *testing.T) {
	assert.True(t, database.IsLockError(errors.New("database is locked (5) (SQLITE_BUSY)")))
	assert.True(t, database.IsLockError(errors.New("database table is locked: likes")))
	assert.False(t, database.IsLockError(errors.New("UNIQUE constraint failed")))
	assert.False(t, database.IsLockError(nil))
}

func TestWithLockRetry_SucceedsAfterTransientLock(t *testing.T) {
	attempts := 0
	err := database.WithLockRetry(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("database is locked")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithLockRetry_DoesNotRetryOtherErrors(t *testing.T) {
	attempts := 0
	wantErr := errors.New("UNIQUE constraint failed: likes.liker_id")

	err := database.WithLockRetry(context.Background(), func() error {
		attempts++
		return wantErr
	})

	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 1, attempts)
}

func TestWithLockRetry_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := database.WithLockRetry(context.Background(), func() error {
		attempts++
		return errors.New("database is locked")
	})

	assert.Error(t, err)
	// LastErrorOnly keeps the final lock error rather than an aggregate.
	assert.Contains(t, err.Error(), "database is locked")
	assert.Equal(t, 3, attempts)
}

func TestWithLockRetry_StopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := database.WithLockRetry(ctx, func() error {
		attempts++
		cancel()
		return errors.New("database is locked")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}
