package debt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jms-erp/jms/internal/platform/db"
)

const debtColumns = `id, customer_name, customer_mobile, sale_id, initial_amount, amount_paid, amount_remaining,
	status, due_date, last_payment_date, created_at, updated_at`

// querier is satisfied by pgx.Tx and *pgxpool.Pool.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository persists debts in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a READ COMMITTED transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// Get loads a debt with payments.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Debt, error) {
	d, err := getDebt(ctx, r.pool, id, false)
	if err != nil {
		return Debt{}, db.Classify(err, "debt: get")
	}
	return d, nil
}

// ListPending returns Pending debts newest first.
func (r *Repository) ListPending(ctx context.Context) ([]Debt, error) {
	debts, err := listDebts(ctx, r.pool, `SELECT `+debtColumns+` FROM debts WHERE status = 'Pending' ORDER BY created_at DESC`)
	if err != nil {
		return nil, db.Classify(err, "debt: list pending")
	}
	return debts, nil
}

// ListDueBefore returns Pending debts with a due date earlier than t, oldest due first.
func (r *Repository) ListDueBefore(ctx context.Context, t time.Time) ([]Debt, error) {
	debts, err := listDebts(ctx, r.pool, `SELECT `+debtColumns+` FROM debts
		WHERE status = 'Pending' AND due_date IS NOT NULL AND due_date < $1 ORDER BY due_date`, t)
	if err != nil {
		return nil, db.Classify(err, "debt: list due")
	}
	return debts, nil
}

func (r *txRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (Debt, error) {
	return getDebt(ctx, r.tx, id, true)
}

func (r *txRepo) InsertDebt(ctx context.Context, d Debt) error {
	var saleID *string
	if d.SaleID != nil {
		s := d.SaleID.String()
		saleID = &s
	}
	_, err := r.tx.Exec(ctx, `INSERT INTO debts (`+debtColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		d.ID.String(), d.CustomerName, d.CustomerMobile, saleID, d.InitialAmount, d.AmountPaid,
		d.AmountRemaining, string(d.Status), d.DueDate, d.LastPaymentDate, d.CreatedAt, d.UpdatedAt)
	if db.IsUniqueViolation(err, "debts_sale_id_key") {
		return ErrDebtExists
	}
	if err != nil {
		return fmt.Errorf("debt: insert: %w", err)
	}
	return nil
}

func (r *txRepo) AppendPayment(ctx context.Context, d Debt) error {
	if len(d.Payments) == 0 {
		return errors.New("debt: no payment to append")
	}
	p := d.Payments[len(d.Payments)-1]
	batch := &pgx.Batch{}
	batch.Queue(`INSERT INTO debt_payments (debt_id, seq, amount, paid_at, method) VALUES ($1, $2, $3, $4, $5)`,
		d.ID.String(), len(d.Payments), p.Amount, p.Date, string(p.Method))
	batch.Queue(`UPDATE debts SET amount_paid = $2, amount_remaining = $3, status = $4,
		last_payment_date = $5, updated_at = $6 WHERE id = $1`,
		d.ID.String(), d.AmountPaid, d.AmountRemaining, string(d.Status), d.LastPaymentDate, d.UpdatedAt)

	results := r.tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("debt: append payment: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("debt: append payment: %w", err)
	}
	return nil
}

func getDebt(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (Debt, error) {
	sql := `SELECT ` + debtColumns + ` FROM debts WHERE id = $1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	d, err := scanDebt(q.QueryRow(ctx, sql, id.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return Debt{}, ErrDebtNotFound
	}
	if err != nil {
		return Debt{}, fmt.Errorf("debt: load: %w", err)
	}
	payments, err := loadPayments(ctx, q, []uuid.UUID{d.ID})
	if err != nil {
		return Debt{}, err
	}
	if p, ok := payments[d.ID]; ok {
		d.Payments = p
	}
	return d, nil
}

func listDebts(ctx context.Context, q querier, sql string, args ...any) ([]Debt, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	debts := make([]Debt, 0)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, err
		}
		debts = append(debts, d)
		ids = append(ids, d.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return debts, nil
	}
	payments, err := loadPayments(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range debts {
		if p, ok := payments[debts[i].ID]; ok {
			debts[i].Payments = p
		}
	}
	return debts, nil
}

func loadPayments(ctx context.Context, q querier, ids []uuid.UUID) (map[uuid.UUID][]Payment, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	rows, err := q.Query(ctx, `SELECT debt_id, amount, paid_at, method FROM debt_payments
		WHERE debt_id = ANY($1::uuid[]) ORDER BY debt_id, seq`, keys)
	if err != nil {
		return nil, fmt.Errorf("debt: load payments: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]Payment, len(ids))
	for rows.Next() {
		var (
			debtID string
			method string
			p      Payment
		)
		if err := rows.Scan(&debtID, &p.Amount, &p.Date, &method); err != nil {
			return nil, fmt.Errorf("debt: scan payment: %w", err)
		}
		id, err := uuid.Parse(debtID)
		if err != nil {
			return nil, fmt.Errorf("debt: parse debt id: %w", err)
		}
		p.Method = Method(method)
		out[id] = append(out[id], p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("debt: load payments: %w", err)
	}
	return out, nil
}

func scanDebt(row pgx.Row) (Debt, error) {
	var (
		d      Debt
		id     string
		saleID *string
		status string
	)
	if err := row.Scan(&id, &d.CustomerName, &d.CustomerMobile, &saleID, &d.InitialAmount, &d.AmountPaid,
		&d.AmountRemaining, &status, &d.DueDate, &d.LastPaymentDate, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return Debt{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Debt{}, fmt.Errorf("debt: parse id: %w", err)
	}
	d.ID = parsed
	if saleID != nil {
		sid, err := uuid.Parse(*saleID)
		if err != nil {
			return Debt{}, fmt.Errorf("debt: parse sale id: %w", err)
		}
		d.SaleID = &sid
	}
	d.Status = Status(status)
	d.Payments = []Payment{}
	return d, nil
}
