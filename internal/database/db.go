// Package database provides the pooled SQLite access layer.
//
// The manager owns one fixed-size pool of connections per logical database
// ("main" for the transactional schema, "cache" for read-heavy warmup data).
// All access goes through the scoped acquisition gateway With, which checks
// out a connection with a bounded wait, probes its health, and guarantees
// that the connection is returned, replaced or closed on exit. SQLite
// connections can silently go stale after a crash or a long idle period; the
// probe-then-replace-on-release design keeps broken connections from leaking
// back into the pool.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/config"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/constants"
)

// Sentinel errors reported by the acquisition gateway.
var (
	// ErrManagerClosed is returned when a connection is requested while a
	// shutdown is in progress.
	ErrManagerClosed = fmt.Errorf("database manager is closing")

	// ErrNotConnected is returned when the pools were never opened and the
	// implicit-connect fallback is disabled.
	ErrNotConnected = fmt.Errorf("database manager is not connected")

	// ErrUnknownDatabase is returned for a logical database name that has no
	// configured pool.
	ErrUnknownDatabase = fmt.Errorf("unknown logical database")
)

// CheckoutTimeoutError reports a pool checkout that exceeded the bounded
// wait, including the pool occupancy at the time of failure to aid diagnosis.
type CheckoutTimeoutError struct {
	Database  string
	InUse     int
	Available int
	Size      int
	Wait      time.Duration
}

func (e *CheckoutTimeoutError) Error() string {
	return fmt.Sprintf(
		"connection checkout for %q timed out after %s: %d/%d in use, %d available; pool may be exhausted or connections are not being released",
		e.Database, e.Wait, e.InUse, e.Size, e.Available,
	)
}

// Manager maintains the per-logical-database connection pools and is the only
// component that creates, health-checks, replaces and drains connections.
type Manager struct {
	cfg     *config.DatabaseSettings
	metrics *Metrics

	mu        sync.Mutex
	pools     map[string]*pool
	connected bool
	closing   bool
}

// pool is a bounded queue of ready-to-use connections for one logical
// database. The channel capacity equals the configured pool size, which is
// what enforces the at-most-N-outstanding invariant: checkout blocks on the
// channel rather than allocating.
type pool struct {
	logical     string
	path        string
	handle      *sql.DB
	conns       chan *Conn
	size        int
	skipPragmas bool
}

// NewManager creates a manager for the configured logical databases. Metrics
// are registered with reg; passing nil isolates them in a private registry,
// which tests rely on.
func NewManager(cfg *config.DatabaseSettings, reg prometheusRegisterer) *Manager {
	return &Manager{
		cfg:     cfg,
		metrics: newMetrics(reg),
		pools:   make(map[string]*pool),
	}
}

// NewManagerWithHandles creates a connected manager over already-open
// database handles, one per logical name, bypassing pragma setup. It exists
// so repository tests can drive the full acquisition path against sqlmock.
func NewManagerWithHandles(cfg *config.DatabaseSettings, handles map[string]*sql.DB) (*Manager, error) {
	m := NewManager(cfg, nil)
	m.mu.Lock()
	defer m.mu.Unlock()

	for logical, handle := range handles {
		p := &pool{
			logical:     logical,
			handle:      handle,
			conns:       make(chan *Conn, cfg.PoolSize),
			size:        cfg.PoolSize,
			skipPragmas: true,
		}
		for i := 0; i < p.size; i++ {
			conn, err := p.newConn(context.Background(), m.cfg.ConnectTimeout)
			if err != nil {
				m.drainLocked()
				return nil, fmt.Errorf("failed to create connection for %q: %w", logical, err)
			}
			p.conns <- conn
		}
		m.pools[logical] = p
	}
	m.connected = true
	return m, nil
}

// Connect creates the connection pools for every configured logical database.
// Each pool is warmed to its full size up front; a failure during warm-up
// drains whatever was created and returns the error.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectLocked(ctx)
}

func (m *Manager) connectLocked(ctx context.Context) error {
	if m.connected {
		return nil
	}

	// Reset the closing flag so a manager can be reconnected after Close.
	m.closing = false
	m.pools = make(map[string]*pool)

	for logical, path := range map[string]string{
		constants.DBMain:  m.cfg.MainPath,
		constants.DBCache: m.cfg.CachePath,
	} {
		handle, err := sql.Open("sqlite", path)
		if err != nil {
			m.drainLocked()
			return fmt.Errorf("failed to open %q database at %s: %w", logical, path, err)
		}

		p := &pool{
			logical: logical,
			path:    path,
			handle:  handle,
			conns:   make(chan *Conn, m.cfg.PoolSize),
			size:    m.cfg.PoolSize,
		}
		m.pools[logical] = p

		for i := 0; i < p.size; i++ {
			conn, err := p.newConn(ctx, m.cfg.ConnectTimeout)
			if err != nil {
				m.drainLocked()
				return fmt.Errorf("failed to warm up %q pool: %w", logical, err)
			}
			p.conns <- conn
		}
		m.metrics.setAvailable(logical, len(p.conns))
	}

	m.connected = true
	log.Info().
		Int("pool_size", m.cfg.PoolSize).
		Int("databases", len(m.pools)).
		Msg("Connection pools created")
	return nil
}

// Close flips the closing flag first so no new checkouts are accepted, then
// drains every pool non-blockingly, closing each ready connection. Close
// failures on individual connections are logged and tolerated.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pools) == 0 {
		return
	}
	m.drainLocked()
	log.Info().Msg("Connection pools closed")
}

func (m *Manager) drainLocked() {
	m.closing = true
	for logical, p := range m.pools {
	drain:
		for {
			select {
			case conn := <-p.conns:
				conn.close()
			default:
				break drain
			}
		}
		if p.handle != nil && !p.skipPragmas {
			if err := p.handle.Close(); err != nil {
				log.Warn().Err(err).Str("database", logical).Msg("Failed to close database handle")
			}
		}
		m.metrics.setAvailable(logical, 0)
	}
	m.pools = make(map[string]*pool)
	m.connected = false
	m.closing = false
}

// With acquires a connection for the named logical database, runs fn with it
// and guarantees release. It is the only path through which callers obtain a
// connection. On exit an open transaction is rolled back, and the connection
// is returned to the pool, closed (during shutdown) or replaced (when marked
// unhealthy).
func (m *Manager) With(ctx context.Context, logical string, fn func(conn *Conn) error) error {
	conn, p, err := m.acquire(ctx, logical)
	if err != nil {
		return err
	}

	ferr := fn(conn)
	if ferr != nil {
		conn.noteErr(ferr)
	}
	m.release(p, conn)
	return ferr
}

func (m *Manager) acquire(ctx context.Context, logical string) (*Conn, *pool, error) {
	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		return nil, nil, ErrManagerClosed
	}
	if !m.connected {
		if m.cfg.RequireExplicitConnect {
			m.mu.Unlock()
			return nil, nil, ErrNotConnected
		}
		log.Warn().Msg("Pool not initialized; connecting implicitly. Consider explicit Connect() in startup.")
		if err := m.connectLocked(ctx); err != nil {
			m.mu.Unlock()
			return nil, nil, err
		}
	}
	p, ok := m.pools[logical]
	m.mu.Unlock()

	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownDatabase, logical)
	}

	wait := time.NewTimer(m.cfg.PoolTimeout)
	defer wait.Stop()

	var conn *Conn
	select {
	case conn = <-p.conns:
	case <-wait.C:
		available := len(p.conns)
		m.metrics.checkoutTimeout(logical)
		err := &CheckoutTimeoutError{
			Database:  logical,
			InUse:     p.size - available,
			Available: available,
			Size:      p.size,
			Wait:      m.cfg.PoolTimeout,
		}
		log.Error().
			Str("database", logical).
			Int("in_use", err.InUse).
			Int("available", err.Available).
			Int("pool_size", err.Size).
			Msg("Pool checkout timed out")
		return nil, nil, err
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
	m.metrics.checkout(logical)
	m.metrics.setAvailable(logical, len(p.conns))

	// Health-probe the checked-out connection before handing it to the
	// caller; a stale connection is closed and replaced for this use.
	if err := conn.probe(ctx); err != nil {
		log.Warn().Err(err).Str("database", logical).Msg("Connection health check failed, creating fresh connection")
		m.metrics.probeFailure(logical)
		conn.close()

		fresh, createErr := p.newConn(ctx, m.cfg.ConnectTimeout)
		if createErr != nil {
			// Nothing is released for this checkout, so the pool runs one
			// connection short from here on.
			log.Error().Err(createErr).Str("database", logical).Msg("Failed to create fresh connection after failed probe")
			return nil, nil, fmt.Errorf("failed to replace unhealthy connection for %q: %w", logical, createErr)
		}
		conn = fresh
	}

	return conn, p, nil
}

// release implements the return-or-replace contract. A rollback failure is
// logged but does not itself mark the connection unhealthy.
func (m *Manager) release(p *pool, conn *Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.DBHealthCheckTimeout)
	defer cancel()

	if conn.inTx {
		if _, err := conn.raw.ExecContext(ctx, "ROLLBACK"); err != nil {
			log.Debug().Err(err).Str("database", conn.logical).Msg("Rollback on release failed")
		}
		conn.inTx = false
	}

	m.mu.Lock()
	closing := m.closing
	current := m.pools[conn.logical]
	m.mu.Unlock()

	if closing || current != p {
		conn.close()
		return
	}

	if conn.healthy {
		select {
		case p.conns <- conn:
		default:
			// Pool already at capacity; should not happen, close defensively.
			conn.close()
		}
		m.metrics.setAvailable(conn.logical, len(p.conns))
		return
	}

	// Unhealthy connection: close it and create one replacement to keep the
	// pool at capacity. A creation failure here is logged and the pool is
	// allowed to run one connection short.
	log.Info().Str("database", conn.logical).Msg("Replacing unhealthy connection in pool")
	m.metrics.replacement(conn.logical)
	conn.close()

	fresh, err := p.newConn(ctx, m.cfg.ConnectTimeout)
	if err != nil {
		log.Error().Err(err).Str("database", conn.logical).Msg("Failed to create replacement connection")
		return
	}
	select {
	case p.conns <- fresh:
	default:
		fresh.close()
	}
	m.metrics.setAvailable(conn.logical, len(p.conns))
}

// newConn creates a single session connection and applies the pragma profile
// for the pool's logical database.
func (p *pool) newConn(ctx context.Context, timeout time.Duration) (*Conn, error) {
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := p.handle.Conn(connectCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	conn := &Conn{logical: p.logical, raw: raw, healthy: true}
	if p.skipPragmas {
		return conn, nil
	}

	pragmas := []string{
		constants.PragmaJournalModeWAL,
		constants.PragmaSynchronousNormal,
		constants.PragmaTempStoreMemory,
	}
	switch p.logical {
	case constants.DBMain:
		pragmas = append(pragmas, constants.PragmaForeignKeysOn, constants.PragmaCacheSizeMain)
	case constants.DBCache:
		pragmas = append(pragmas, constants.PragmaCacheSizeCache, constants.PragmaBusyTimeoutCache)
	}

	for _, pragma := range pragmas {
		if _, err := raw.ExecContext(connectCtx, pragma); err != nil {
			conn.close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	return conn, nil
}

// PoolStats reports the occupancy of one logical database pool.
type PoolStats struct {
	Size      int `json:"size"`
	Available int `json:"available"`
	InUse     int `json:"in_use"`
}

// Stats returns the current occupancy of every pool.
func (m *Manager) Stats() map[string]PoolStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := make(map[string]PoolStats, len(m.pools))
	for logical, p := range m.pools {
		available := len(p.conns)
		stats[logical] = PoolStats{
			Size:      p.size,
			Available: available,
			InUse:     p.size - available,
		}
	}
	return stats
}

// HealthCheck probes every logical database with a trivial round-trip query.
func (m *Manager) HealthCheck(ctx context.Context) error {
	m.mu.Lock()
	names := make([]string, 0, len(m.pools))
	for logical := range m.pools {
		names = append(names, logical)
	}
	m.mu.Unlock()

	if len(names) == 0 {
		return ErrNotConnected
	}

	for _, logical := range names {
		err := m.With(ctx, logical, func(conn *Conn) error {
			var result int
			if err := conn.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
				return err
			}
			if result != 1 {
				return fmt.Errorf("database returned unexpected result: %d", result)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("health check failed for %q: %w", logical, err)
		}
	}
	return nil
}

// IsConnectionFault reports whether an error indicates a broken connection
// (closed database, or lock contention propagating up as a connection-level
// fault). Only these errors mark a pooled connection unhealthy; ordinary
// query errors do not.
func IsConnectionFault(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database is closed") ||
		strings.Contains(msg, "connection is already closed") ||
		strings.Contains(msg, "bad connection")
}
