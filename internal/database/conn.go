package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/constants"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/utils"
)

// Querier is the query surface repositories depend on. Both *Conn and
// *sql.DB satisfy it, which keeps repository code independent of the pool.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Conn is a pooled session connection for one logical database. It tracks an
// open explicit transaction so the gateway can roll it back on release, and
// a health flag that decides whether the connection is returned to the pool
// or replaced.
type Conn struct {
	logical string
	raw     *sql.Conn
	inTx    bool
	healthy bool
}

var _ Querier = (*Conn)(nil)

// Database returns the logical database name this connection belongs to.
func (c *Conn) Database() string {
	return c.logical
}

// ExecContext runs a statement, logging its timing and classifying
// connection faults.
func (c *Conn) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	result, err := c.raw.ExecContext(ctx, query, args...)
	utils.LogDBQuery(query, args, time.Since(start), err)
	c.noteErr(err)
	return result, err
}

// QueryContext runs a query returning rows.
func (c *Conn) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := c.raw.QueryContext(ctx, query, args...)
	utils.LogDBQuery(query, args, time.Since(start), err)
	c.noteErr(err)
	return rows, err
}

// QueryRowContext runs a query expected to return at most one row. Errors
// surface at Scan time; callers running inside With have them classified by
// the gateway when they propagate out.
func (c *Conn) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	start := time.Now()
	row := c.raw.QueryRowContext(ctx, query, args...)
	utils.LogDBQuery(query, args, time.Since(start), nil)
	return row
}

// Begin opens an explicit transaction on this connection. The gateway rolls
// it back automatically if the caller exits without Commit.
func (c *Conn) Begin(ctx context.Context) error {
	if c.inTx {
		return utils.New(utils.ErrInternal, "transaction already open on this connection")
	}
	_, err := c.raw.ExecContext(ctx, "BEGIN")
	if err != nil {
		c.noteErr(err)
		return err
	}
	c.inTx = true
	return nil
}

// Commit commits the open transaction.
func (c *Conn) Commit(ctx context.Context) error {
	_, err := c.raw.ExecContext(ctx, "COMMIT")
	if err != nil {
		c.noteErr(err)
		return err
	}
	c.inTx = false
	return nil
}

// Rollback rolls back the open transaction. Safe to call when no
// transaction is open.
func (c *Conn) Rollback(ctx context.Context) error {
	if !c.inTx {
		return nil
	}
	_, err := c.raw.ExecContext(ctx, "ROLLBACK")
	if err != nil {
		log.Debug().Err(err).Str("database", c.logical).Msg("Rollback failed")
		return err
	}
	c.inTx = false
	return nil
}

// probe verifies the connection still answers a trivial query.
func (c *Conn) probe(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, constants.DBHealthCheckTimeout)
	defer cancel()

	var result int
	return c.raw.QueryRowContext(probeCtx, "SELECT 1").Scan(&result)
}

// noteErr marks the connection unhealthy on connection faults. Ordinary
// query errors (constraint violations, no rows) leave it healthy.
func (c *Conn) noteErr(err error) {
	if err == nil || !IsConnectionFault(err) {
		return
	}
	if c.healthy {
		log.Warn().Err(err).Str("database", c.logical).Msg("Connection marked unhealthy")
	}
	c.healthy = false
}

func (c *Conn) close() {
	if err := c.raw.Close(); err != nil {
		log.Debug().Err(err).Str("database", c.logical).Msg("Failed to close connection")
	}
}
