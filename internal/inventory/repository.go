package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jms-erp/jms/internal/platform/db"
	"github.com/jms-erp/jms/internal/shared"
)

const productColumns = `id, name, category, product_type, stock, weight, purity, price_per_gram, unit_price, is_active, created_at, updated_at`

// Repository persists products in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	GetProductForUpdate(ctx context.Context, id uuid.UUID) (Product, error)
	FindActiveByNameForUpdate(ctx context.Context, name string) (Product, bool, error)
	InsertProduct(ctx context.Context, p Product) error
	UpdateProduct(ctx context.Context, p Product) error
	SaveStock(ctx context.Context, p Product) error
}

// WithTx executes the callback inside a READ COMMITTED transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, NewTxStore(tx))
	})
}

// GetProduct loads a product regardless of its active flag.
func (r *Repository) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id.String())
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, db.Classify(err, "inventory: get product")
	}
	return p, nil
}

// ListActive returns active products ordered by name.
func (r *Repository) ListActive(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, db.Classify(err, "inventory: list products")
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, db.Classify(err, "inventory: scan product")
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err, "inventory: list products")
	}
	return products, nil
}

// ErrProductNotFound indicates a missing product row.
var ErrProductNotFound = shared.NotFound("Product not found.")

// TxStore runs product statements on a caller's transaction. The sale engine
// embeds it so product locks and the invoice write share one atomic scope.
type TxStore struct {
	tx pgx.Tx
}

// NewTxStore wraps tx.
func NewTxStore(tx pgx.Tx) *TxStore {
	return &TxStore{tx: tx}
}

// Tx returns the wrapped transaction.
func (s *TxStore) Tx() pgx.Tx { return s.tx }

// LockProducts locks the given rows FOR UPDATE in ascending id order and returns
// them keyed by id. Missing ids are absent from the map.
func (s *TxStore) LockProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Product, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	rows, err := s.tx.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1::uuid[]) ORDER BY id FOR UPDATE`, keys)
	if err != nil {
		return nil, fmt.Errorf("inventory: lock products: %w", err)
	}
	defer rows.Close()

	locked := make(map[uuid.UUID]Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("inventory: scan locked product: %w", err)
		}
		locked[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("inventory: lock products: %w", err)
	}
	return locked, nil
}

// GetProductForUpdate locks and loads one product.
func (s *TxStore) GetProductForUpdate(ctx context.Context, id uuid.UUID) (Product, error) {
	row := s.tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id.String())
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("inventory: get product for update: %w", err)
	}
	return p, nil
}

// FindActiveByNameForUpdate locks the active product with a case-insensitive name match.
func (s *TxStore) FindActiveByNameForUpdate(ctx context.Context, name string) (Product, bool, error) {
	row := s.tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE is_active AND lower(name) = lower($1) FOR UPDATE`, name)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, fmt.Errorf("inventory: find product by name: %w", err)
	}
	return p, true, nil
}

// InsertProduct writes a new product row.
func (s *TxStore) InsertProduct(ctx context.Context, p Product) error {
	_, err := s.tx.Exec(ctx, `INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID.String(), p.Name, p.Category, string(p.Type), p.Stock, p.Weight,
		p.Purity, p.PricePerGram, p.UnitPrice, p.IsActive, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inventory: insert product: %w", err)
	}
	return nil
}

// UpdateProduct writes the descriptive fields and the active flag.
func (s *TxStore) UpdateProduct(ctx context.Context, p Product) error {
	_, err := s.tx.Exec(ctx, `UPDATE products SET name = $2, category = $3, purity = $4,
		price_per_gram = $5, unit_price = $6, is_active = $7, updated_at = $8 WHERE id = $1`,
		p.ID.String(), p.Name, p.Category, p.Purity, p.PricePerGram, p.UnitPrice, p.IsActive, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inventory: update product: %w", err)
	}
	return nil
}

// SaveStock writes stock and weight of a locked product.
func (s *TxStore) SaveStock(ctx context.Context, p Product) error {
	_, err := s.tx.Exec(ctx, `UPDATE products SET stock = $2, weight = $3, updated_at = NOW() WHERE id = $1`,
		p.ID.String(), p.Stock, p.Weight)
	if err != nil {
		return fmt.Errorf("inventory: save stock: %w", err)
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p   Product
		id  string
		typ string
	)
	if err := row.Scan(&id, &p.Name, &p.Category, &typ, &p.Stock, &p.Weight,
		&p.Purity, &p.PricePerGram, &p.UnitPrice, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Product{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Product{}, fmt.Errorf("inventory: parse product id: %w", err)
	}
	p.ID = parsed
	p.Type = ProductType(typ)
	return p, nil
}
