package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WithTx executes fn inside a READ COMMITTED transaction. Writers serialise on
// rows they lock with SELECT ... FOR UPDATE. Errors are classified before returning.
//
// When ctx carries a deadline the transaction's lock_timeout is set to the time
// remaining, so a blocked row lock fails as a conflict instead of a cancelled query.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return Classify(err, "platform/db: begin tx")
	}

	defer func() {
		_ = tx.Rollback(context.WithoutCancel(ctx))
	}()

	if ms, ok := lockTimeoutMillis(ctx); ok {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", ms)); err != nil {
			return Classify(err, "platform/db: set lock_timeout")
		}
	}

	if err := fn(tx); err != nil {
		return Classify(err, "platform/db: tx")
	}

	if err := tx.Commit(ctx); err != nil {
		return Classify(err, "platform/db: commit tx")
	}

	return nil
}

// lockTimeoutMillis leaves a small margin under the context deadline.
func lockTimeoutMillis(ctx context.Context) (int64, bool) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0, false
	}
	remaining := time.Until(deadline) - 100*time.Millisecond
	if remaining < 50*time.Millisecond {
		remaining = 50 * time.Millisecond
	}
	return remaining.Milliseconds(), true
}
