package sales

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jms-erp/jms/internal/inventory"
)

// memoryRepo runs each transaction under one mutex and restores the snapshot on
// failure, which models both the row locks and the rollback of a real store.
type memoryRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]inventory.Product
	sales    []Sale
	counter  int64
	failOn   string
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo(products ...inventory.Product) *memoryRepo {
	r := &memoryRepo{products: make(map[uuid.UUID]inventory.Product)}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	products := make(map[uuid.UUID]inventory.Product, len(r.products))
	for id, p := range r.products {
		products[id] = p
	}
	sales := append([]Sale(nil), r.sales...)
	counter := r.counter

	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.products, r.sales, r.counter = products, sales, counter
		return err
	}
	return nil
}

func (r *memoryRepo) GetSale(_ context.Context, invoiceNumber int64) (Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sales {
		if s.InvoiceNumber == invoiceNumber {
			return s, nil
		}
	}
	return Sale{}, ErrSaleNotFound
}

func (r *memoryRepo) ListSales(_ context.Context, filter ListFilter) ([]Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]Sale(nil), r.sales...)
	sort.Slice(out, func(i, j int) bool { return out[i].InvoiceNumber > out[j].InvoiceNumber })
	if filter.Offset >= len(out) {
		return []Sale{}, nil
	}
	out = out[filter.Offset:]
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *memoryRepo) product(id uuid.UUID) inventory.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.products[id]
}

func (tx *memoryTx) LockProducts(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]inventory.Product, error) {
	out := make(map[uuid.UUID]inventory.Product, len(ids))
	for _, id := range ids {
		if p, ok := tx.repo.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (tx *memoryTx) SaveStock(_ context.Context, p inventory.Product) error {
	tx.repo.products[p.ID] = p
	return nil
}

func (tx *memoryTx) NextInvoiceNumber(context.Context) (int64, error) {
	tx.repo.counter++
	return tx.repo.counter, nil
}

func (tx *memoryTx) InsertSale(_ context.Context, sale Sale) error {
	if tx.repo.failOn == "insert" {
		return errInsert
	}
	tx.repo.sales = append(tx.repo.sales, sale)
	return nil
}

// memoryIdempotency mirrors the unique (key, module) constraint.
type memoryIdempotency struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{keys: make(map[string]bool)}
}

func (m *memoryIdempotency) CheckAndInsert(_ context.Context, key, module string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[module+":"+key] {
		return errDuplicateKey
	}
	m.keys[module+":"+key] = true
	return nil
}

func (m *memoryIdempotency) Delete(_ context.Context, key, module string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, module+":"+key)
	return nil
}
