package database

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/rs/zerolog/log"

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/constants"
)

// IsLockError reports whether an error is SQLite lock contention, the only
// error class worth retrying. Constraint violations and missing rows are
// deterministic and retrying them just burns time.
func IsLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// lockRetryDelay doubles the base delay per attempt and applies symmetric
// jitter so concurrent writers back off at different times.
func lockRetryDelay(n uint, _ error, _ *retry.Config) time.Duration {
	base := constants.LockRetryBaseDelay << n
	jitter := 1 - constants.LockRetryJitter + 2*constants.LockRetryJitter*rand.Float64()
	return time.Duration(float64(base) * jitter)
}

// WithLockRetry runs op, retrying on lock contention with jittered
// exponential backoff. Non-lock errors and success return immediately; the
// last lock error is returned when attempts run out.
func WithLockRetry(ctx context.Context, op func() error) error {
	return retry.Do(
		op,
		retry.Context(ctx),
		retry.Attempts(constants.LockRetryAttempts),
		retry.RetryIf(IsLockError),
		retry.DelayType(lockRetryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().
				Err(err).
				Uint("attempt", n+1).
				Msg("Database locked, retrying")
		}),
	)
}
