package constants

import "time"

// Server Timeouts
const (
	DefaultReadTimeout     = 5 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
)

// Database Timeouts
const (
	// DBConnectTimeout bounds the initial creation of a pooled connection.
	DBConnectTimeout = 30 * time.Second

	// DBPoolCheckoutTimeout bounds the wait for a free pooled connection.
	// Checkout is the sole timeout-bound database operation.
	DBPoolCheckoutTimeout = 30 * time.Second

	// DBQueryTimeout bounds individual repository queries.
	DBQueryTimeout = 15 * time.Second

	// DBHealthCheckTimeout bounds the trivial probe run before a connection
	// is handed to a caller.
	DBHealthCheckTimeout = 5 * time.Second
)

// Lock Retry Parameters govern the bounded-backoff executor wrapped around
// write paths that can hit transient "database is locked" contention.
const (
	// LockRetryAttempts is the total attempt ceiling, first try included.
	LockRetryAttempts = 3

	// LockRetryBaseDelay is the delay before the first retry; it doubles on
	// each subsequent attempt (50ms, 100ms, 200ms).
	LockRetryBaseDelay = 50 * time.Millisecond

	// LockRetryJitter is the fraction of random jitter applied around each
	// backoff delay to avoid thundering-herd re-contention.
	LockRetryJitter = 0.2
)

// Cache Durations
const (
	// CacheProfileTTL is how long a warmed profile stays in the read cache.
	CacheProfileTTL = 1 * time.Hour

	// CacheLikeCountTTL is how long a like counter stays in the read cache.
	// The TTL is refreshed on every access.
	CacheLikeCountTTL = 1 * time.Hour
)
