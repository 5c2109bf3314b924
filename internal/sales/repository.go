package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jms-erp/jms/internal/inventory"
	"github.com/jms-erp/jms/internal/platform/db"
	"github.com/jms-erp/jms/internal/sequence"
)

const saleColumns = `id, invoice_number, customer_name, customer_address, customer_mobile, subtotal,
	total_making_charges, discount, old_gold_weight, total_amount, advance_payment, balance_due,
	COALESCE(created_by, ''), created_at`

// Repository persists sales in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// txRepo shares the transaction with the inventory store so the product locks,
// stock writes, counter increment and invoice insert commit together.
type txRepo struct {
	*inventory.TxStore
}

// WithTx executes the callback inside a READ COMMITTED transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{TxStore: inventory.NewTxStore(tx)})
	})
}

func (r *txRepo) NextInvoiceNumber(ctx context.Context) (int64, error) {
	return sequence.Next(ctx, r.Tx(), sequence.InvoiceNumber)
}

func (r *txRepo) InsertSale(ctx context.Context, sale Sale) error {
	batch := &pgx.Batch{}
	batch.Queue(`INSERT INTO sales (id, invoice_number, customer_name, customer_address, customer_mobile,
		subtotal, total_making_charges, discount, old_gold_weight, total_amount, advance_payment, balance_due,
		created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13, ''), $14)`,
		sale.ID.String(), sale.InvoiceNumber, sale.CustomerName, sale.CustomerAddress, sale.CustomerMobile,
		sale.Subtotal, sale.TotalMakingCharges, sale.Discount, sale.OldGoldWeight, sale.TotalAmount,
		sale.AdvancePayment, sale.BalanceDue, sale.CreatedBy, sale.CreatedAt)
	for i, item := range sale.Items {
		batch.Queue(`INSERT INTO sale_items (sale_id, line_no, product_id, name, quantity, selling_weight,
			selling_price_per_gram, selling_purity, making_charge_per_gram)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			sale.ID.String(), i+1, item.ProductID.String(), item.Name, item.Quantity, item.SellingWeight,
			item.SellingPricePerGram, item.SellingPurity, item.MakingChargePerGram)
	}

	results := r.Tx().SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("sales: insert sale: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("sales: insert sale: %w", err)
	}
	return nil
}

// GetSale loads a sale and its items.
func (r *Repository) GetSale(ctx context.Context, invoiceNumber int64) (Sale, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE invoice_number = $1`, invoiceNumber)
	sale, err := scanSale(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Sale{}, ErrSaleNotFound
	}
	if err != nil {
		return Sale{}, db.Classify(err, "sales: get sale")
	}
	items, err := r.loadItems(ctx, []uuid.UUID{sale.ID})
	if err != nil {
		return Sale{}, err
	}
	sale.Items = items[sale.ID]
	return sale, nil
}

// ListSales returns a page of sales newest first.
func (r *Repository) ListSales(ctx context.Context, filter ListFilter) ([]Sale, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+saleColumns+` FROM sales ORDER BY invoice_number DESC LIMIT $1 OFFSET $2`,
		filter.Limit, filter.Offset)
	if err != nil {
		return nil, db.Classify(err, "sales: list sales")
	}
	defer rows.Close()

	sales := make([]Sale, 0)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, db.Classify(err, "sales: scan sale")
		}
		sales = append(sales, sale)
		ids = append(ids, sale.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err, "sales: list sales")
	}
	if len(ids) == 0 {
		return sales, nil
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range sales {
		sales[i].Items = items[sales[i].ID]
	}
	return sales, nil
}

func (r *Repository) loadItems(ctx context.Context, saleIDs []uuid.UUID) (map[uuid.UUID][]SoldItem, error) {
	keys := make([]string, len(saleIDs))
	for i, id := range saleIDs {
		keys[i] = id.String()
	}
	rows, err := r.pool.Query(ctx, `SELECT sale_id, product_id, name, quantity, selling_weight,
		selling_price_per_gram, selling_purity, making_charge_per_gram
		FROM sale_items WHERE sale_id = ANY($1::uuid[]) ORDER BY sale_id, line_no`, keys)
	if err != nil {
		return nil, db.Classify(err, "sales: load items")
	}
	defer rows.Close()

	items := make(map[uuid.UUID][]SoldItem, len(saleIDs))
	for rows.Next() {
		var (
			saleID, productID string
			item              SoldItem
		)
		if err := rows.Scan(&saleID, &productID, &item.Name, &item.Quantity, &item.SellingWeight,
			&item.SellingPricePerGram, &item.SellingPurity, &item.MakingChargePerGram); err != nil {
			return nil, db.Classify(err, "sales: scan item")
		}
		sid, err := uuid.Parse(saleID)
		if err != nil {
			return nil, fmt.Errorf("sales: parse sale id: %w", err)
		}
		if item.ProductID, err = uuid.Parse(productID); err != nil {
			return nil, fmt.Errorf("sales: parse product id: %w", err)
		}
		items[sid] = append(items[sid], item)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(err, "sales: load items")
	}
	return items, nil
}

func scanSale(row pgx.Row) (Sale, error) {
	var (
		sale Sale
		id   string
	)
	if err := row.Scan(&id, &sale.InvoiceNumber, &sale.CustomerName, &sale.CustomerAddress, &sale.CustomerMobile,
		&sale.Subtotal, &sale.TotalMakingCharges, &sale.Discount, &sale.OldGoldWeight, &sale.TotalAmount,
		&sale.AdvancePayment, &sale.BalanceDue, &sale.CreatedBy, &sale.CreatedAt); err != nil {
		return Sale{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Sale{}, fmt.Errorf("sales: parse sale id: %w", err)
	}
	sale.ID = parsed
	sale.Items = []SoldItem{}
	return sale, nil
}
