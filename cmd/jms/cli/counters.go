package cli

import (
	"context"
	"fmt"

	"github.com/jms-erp/jms/internal/sequence"
)

// CounterReader reads the last allocated value of a named counter.
type CounterReader interface {
	Peek(ctx context.Context, name string) (int64, error)
}

// Counter is one row of the counters report.
type Counter struct {
	Name  string
	Value int64
}

// String renders the counter as name=value.
func (c Counter) String() string {
	return fmt.Sprintf("%s=%d", c.Name, c.Value)
}

// ReadCounters reports the named counters, or every known counter when names
// is empty. Reading never allocates.
func ReadCounters(ctx context.Context, r CounterReader, names ...string) ([]Counter, error) {
	if len(names) == 0 {
		names = []string{sequence.InvoiceNumber, sequence.GahanRecord}
	}
	out := make([]Counter, 0, len(names))
	for _, name := range names {
		value, err := r.Peek(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("counters: %s: %w", name, err)
		}
		out = append(out, Counter{Name: name, Value: value})
	}
	return out, nil
}
