package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"
)

const (
	retryAttempts = 2
	retryBackoff  = time.Second
)

// WithRetry runs fn, retrying transient connectivity failures up to two
// extra times with a fixed 1 second backoff. Non-transient errors (constraint
// violations, bad SQL) propagate immediately.
func WithRetry(ctx context.Context, fn func() error) error {
	backoff := retry.WithMaxRetries(retryAttempts, retry.NewConstant(retryBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := fn(); err != nil {
			if IsTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
}

// IsTransient reports whether err is a connectivity-class failure worth
// retrying: refused/reset connections, timeouts, a poisoned pooled
// connection, or the Postgres operator-intervention class (57xxx, which
// includes admin shutdown).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "57P01", "57P02", "57P03": // admin_shutdown, crash_shutdown, cannot_connect_now
			return true
		}
		// Class 08: connection exceptions
		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08" {
			return true
		}
	}

	return false
}
