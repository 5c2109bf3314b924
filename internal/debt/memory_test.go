package debt

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepo struct {
	mu    sync.Mutex
	debts map[uuid.UUID]Debt
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{debts: make(map[uuid.UUID]Debt)}
}

func clone(d Debt) Debt {
	d.Payments = append([]Payment{}, d.Payments...)
	return d
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := make(map[uuid.UUID]Debt, len(r.debts))
	for id, d := range r.debts {
		snapshot[id] = clone(d)
	}
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.debts = snapshot
		return err
	}
	return nil
}

func (r *memoryRepo) Get(_ context.Context, id uuid.UUID) (Debt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.debts[id]
	if !ok {
		return Debt{}, ErrDebtNotFound
	}
	return clone(d), nil
}

func (r *memoryRepo) ListPending(context.Context) ([]Debt, error) {
	return r.filter(func(d Debt) bool { return d.Status == StatusPending }), nil
}

func (r *memoryRepo) ListDueBefore(_ context.Context, t time.Time) ([]Debt, error) {
	return r.filter(func(d Debt) bool {
		return d.Status == StatusPending && d.DueDate != nil && d.DueDate.Before(t)
	}), nil
}

func (r *memoryRepo) filter(keep func(Debt) bool) []Debt {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Debt, 0)
	for _, d := range r.debts {
		if keep(d) {
			out = append(out, clone(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (tx *memoryTx) GetForUpdate(_ context.Context, id uuid.UUID) (Debt, error) {
	d, ok := tx.repo.debts[id]
	if !ok {
		return Debt{}, ErrDebtNotFound
	}
	return clone(d), nil
}

func (tx *memoryTx) InsertDebt(_ context.Context, d Debt) error {
	if d.SaleID != nil {
		for _, existing := range tx.repo.debts {
			if existing.SaleID != nil && *existing.SaleID == *d.SaleID {
				return ErrDebtExists
			}
		}
	}
	tx.repo.debts[d.ID] = clone(d)
	return nil
}

func (tx *memoryTx) AppendPayment(_ context.Context, d Debt) error {
	tx.repo.debts[d.ID] = clone(d)
	return nil
}

type fakeSales struct {
	sales map[int64]SaleSummary
}

func (f fakeSales) LookupSale(_ context.Context, invoiceNumber int64) (SaleSummary, error) {
	s, ok := f.sales[invoiceNumber]
	if !ok {
		return SaleSummary{}, errSaleMissing
	}
	return s, nil
}
