package sequence

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jms-erp/jms/internal/shared"
)

// fakeCounters mimics the counters table with row-level atomicity.
type fakeCounters struct {
	mu     sync.Mutex
	values map[string]int64
	fail   error
}

func newFakeCounters() *fakeCounters {
	return &fakeCounters{values: make(map[string]int64)}
}

type fakeRow struct {
	value int64
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.value
	return nil
}

func (f *fakeCounters) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return fakeRow{err: f.fail}
	}
	name := args[0].(string)
	if strings.HasPrefix(sql, "INSERT") {
		f.values[name]++
		return fakeRow{value: f.values[name]}
	}
	v, ok := f.values[name]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{value: v}
}

func TestNextStartsAtOneAndIncrements(t *testing.T) {
	ctx := context.Background()
	q := newFakeCounters()

	for want := int64(1); want <= 3; want++ {
		got, err := Next(ctx, q, InvoiceNumber)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	other, err := Next(ctx, q, GahanRecord)
	require.NoError(t, err)
	assert.Equal(t, int64(1), other)
}

func TestNextRejectsEmptyName(t *testing.T) {
	_, err := Next(context.Background(), newFakeCounters(), "  ")
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestCurrentWithoutAllocations(t *testing.T) {
	got, err := Current(context.Background(), newFakeCounters(), InvoiceNumber)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestConcurrentAllocationsAreDistinctAndContiguous(t *testing.T) {
	ctx := context.Background()
	gen := NewGenerator(newFakeCounters())

	const n = 50
	results := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := gen.Allocate(ctx, InvoiceNumber)
			if err == nil {
				results <- v
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool, n)
	for v := range results {
		assert.False(t, seen[v], "duplicate %d", v)
		seen[v] = true
	}
	require.Len(t, seen, n)
	for i := int64(1); i <= n; i++ {
		assert.True(t, seen[i], "missing %d", i)
	}

	peek, err := gen.Peek(ctx, InvoiceNumber)
	require.NoError(t, err)
	assert.Equal(t, int64(n), peek)
}

func TestAllocateClassifiesStoreFailure(t *testing.T) {
	q := newFakeCounters()
	q.fail = errors.New("connection reset")
	_, err := NewGenerator(q).Allocate(context.Background(), InvoiceNumber)
	require.Error(t, err)
	assert.Equal(t, shared.KindInfrastructure, shared.KindOf(err))
}
