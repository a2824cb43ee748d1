package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/constants"
)

// The pre-jitter delay doubles per attempt, and with 20% jitter the delay
// windows of consecutive attempts never overlap: every sampled delay for
// attempt n+1 exceeds every possible delay for attempt n.
func TestLockRetryDelay_WindowsIncreasePerAttempt(t *testing.T) {
	for n := uint(0); n < constants.LockRetryAttempts-1; n++ {
		base := constants.LockRetryBaseDelay << n
		lo := time.Duration(float64(base) * (1 - constants.LockRetryJitter))
		hi := time.Duration(float64(base) * (1 + constants.LockRetryJitter))
		nextLo := time.Duration(float64(base<<1) * (1 - constants.LockRetryJitter))

		for i := 0; i < 200; i++ {
			d := lockRetryDelay(n, nil, nil)
			assert.GreaterOrEqual(t, d, lo)
			assert.LessOrEqual(t, d, hi)

			next := lockRetryDelay(n+1, nil, nil)
			assert.GreaterOrEqual(t, next, nextLo)
			assert.Greater(t, next, d)
		}
	}
}
