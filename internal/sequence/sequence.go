// Package sequence allocates gap-free, strictly increasing numbers per named counter.
//
// Numbers are allocated with a single atomic upsert. When the allocation runs
// inside a caller's transaction, a rollback of that transaction also rolls the
// counter back, so no number is ever skipped.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jms-erp/jms/internal/shared"
)

// Known counter names.
const (
	InvoiceNumber = "invoiceNumber"
	// GahanRecord is reserved for pledge records.
	GahanRecord = "gahanRecord"
)

// Querier is satisfied by pgx.Tx, *pgx.Conn and *pgxpool.Pool.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const nextSQL = `INSERT INTO counters (name, value) VALUES ($1, 1)
ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
RETURNING value`

const currentSQL = `SELECT value FROM counters WHERE name = $1`

// Next increments counter name and returns the new value. The first call for
// an unseen name returns 1.
func Next(ctx context.Context, q Querier, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, shared.Validation("Counter name is required.")
	}
	var value int64
	if err := q.QueryRow(ctx, nextSQL, name).Scan(&value); err != nil {
		return 0, fmt.Errorf("sequence: next %s: %w", name, err)
	}
	return value, nil
}

// Current returns the last allocated value, zero when nothing was allocated yet.
func Current(ctx context.Context, q Querier, name string) (int64, error) {
	var value int64
	err := q.QueryRow(ctx, currentSQL, name).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("sequence: current %s: %w", name, err)
	}
	return value, nil
}
