package sequence

import (
	"context"

	"github.com/jms-erp/jms/internal/platform/db"
)

// Generator allocates numbers outside any caller transaction. Each Allocate
// commits on its own, so a number handed out here is consumed even if the
// caller later fails.
type Generator struct {
	q Querier
}

// NewGenerator wraps a pool or connection.
func NewGenerator(q Querier) *Generator {
	return &Generator{q: q}
}

// Allocate returns the next value for name.
func (g *Generator) Allocate(ctx context.Context, name string) (int64, error) {
	value, err := Next(ctx, g.q, name)
	if err != nil {
		return 0, db.Classify(err, "sequence: allocate")
	}
	return value, nil
}

// Peek returns the last allocated value for name.
func (g *Generator) Peek(ctx context.Context, name string) (int64, error) {
	value, err := Current(ctx, g.q, name)
	if err != nil {
		return 0, db.Classify(err, "sequence: peek")
	}
	return value, nil
}
