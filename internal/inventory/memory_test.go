package inventory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// memoryRepo serialises transactions with a mutex and restores a snapshot when
// the callback fails, mirroring row locks and rollback.
type memoryRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]Product
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo(products ...Product) *memoryRepo {
	r := &memoryRepo{products: make(map[uuid.UUID]Product)}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := make(map[uuid.UUID]Product, len(r.products))
	for id, p := range r.products {
		snapshot[id] = p
	}
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.products = snapshot
		return err
	}
	return nil
}

func (r *memoryRepo) GetProduct(_ context.Context, id uuid.UUID) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (r *memoryRepo) ListActive(context.Context) ([]Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Product, 0, len(r.products))
	for _, p := range r.products {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (tx *memoryTx) GetProductForUpdate(_ context.Context, id uuid.UUID) (Product, error) {
	p, ok := tx.repo.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (tx *memoryTx) FindActiveByNameForUpdate(_ context.Context, name string) (Product, bool, error) {
	for _, p := range tx.repo.products {
		if p.IsActive && strings.EqualFold(p.Name, name) {
			return p, true, nil
		}
	}
	return Product{}, false, nil
}

func (tx *memoryTx) InsertProduct(_ context.Context, p Product) error {
	tx.repo.products[p.ID] = p
	return nil
}

func (tx *memoryTx) UpdateProduct(_ context.Context, p Product) error {
	tx.repo.products[p.ID] = p
	return nil
}

func (tx *memoryTx) SaveStock(_ context.Context, p Product) error {
	current := tx.repo.products[p.ID]
	current.Stock = p.Stock
	current.Weight = p.Weight
	tx.repo.products[p.ID] = current
	return nil
}
