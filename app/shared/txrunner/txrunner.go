package txrunner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// SQLSTATE codes that signal a conflicting concurrent write.
const (
	SerializationFailure = "40001"
	DeadlockDetected     = "40P01"
	UniqueViolation      = "23505"
	QueryCanceled        = "57014"
)

// Limits bounds a transaction: MaxWait for acquiring a connection and Timeout
// for the transaction body (context deadline and statement_timeout).
// Zero values disable the bound.
type Limits struct {
	MaxWait time.Duration
	Timeout time.Duration
}

// SubmissionLimits are the bounds used for wager submission.
var SubmissionLimits = Limits{MaxWait: 5 * time.Second, Timeout: 10 * time.Second}

// ErrAcquireTimeout is returned when no connection became available within MaxWait.
var ErrAcquireTimeout = errors.New("timed out waiting for a database connection")

// RunSerializable runs fn inside a SERIALIZABLE transaction on a dedicated
// connection. Serialization failures are returned to the caller, never retried.
func RunSerializable(ctx context.Context, db *bun.DB, limits Limits, fn func(ctx context.Context, tx bun.Tx) error) error {
	acquireCtx, cancelAcquire := withOptionalTimeout(ctx, limits.MaxWait)
	conn, err := db.Conn(acquireCtx)
	cancelAcquire()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("%w: %w", ErrAcquireTimeout, err)
		}
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	runCtx, cancelRun := withOptionalTimeout(ctx, limits.Timeout)
	defer cancelRun()

	return conn.RunInTx(runCtx, &sql.TxOptions{Isolation: sql.LevelSerializable}, func(ctx context.Context, tx bun.Tx) error {
		if limits.Timeout > 0 {
			stmt := fmt.Sprintf("SET LOCAL statement_timeout = %d", limits.Timeout.Milliseconds())
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to set statement timeout: %w", err)
			}
		}
		return fn(ctx, tx)
	})
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// SQLState returns the Postgres error code carried by err, if any. Both the
// pgx driver (application pool) and bun's pgdriver (migration CLI) are understood.
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var drvErr pgdriver.Error
	if errors.As(err, &drvErr) {
		return drvErr.Field('C')
	}
	return ""
}

// IsConflict reports whether err is a serialization failure, deadlock or
// unique violation raised by a concurrent writer.
func IsConflict(err error) bool {
	switch SQLState(err) {
	case SerializationFailure, DeadlockDetected, UniqueViolation:
		return true
	}
	return false
}

// IsTimeout reports whether err came from one of the transaction bounds.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrAcquireTimeout) ||
		errors.Is(err, context.DeadlineExceeded) ||
		SQLState(err) == QueryCanceled
}
