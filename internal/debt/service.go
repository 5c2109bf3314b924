package debt

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jms-erp/jms/internal/shared"
)

// RepositoryPort abstracts persistence for the ledger.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id uuid.UUID) (Debt, error)
	ListPending(ctx context.Context) ([]Debt, error)
	ListDueBefore(ctx context.Context, t time.Time) ([]Debt, error)
}

// TxRepository holds the statements of one ledger transaction.
type TxRepository interface {
	// GetForUpdate locks the debt row until the transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (Debt, error)
	InsertDebt(ctx context.Context, d Debt) error
	// AppendPayment stores the last entry of d.Payments and the derived header fields.
	AppendPayment(ctx context.Context, d Debt) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort receives payment outcomes.
type MetricsPort interface {
	PaymentApplied(amount decimal.Decimal, settled bool)
}

// ServiceConfig groups optional settings and collaborators.
type ServiceConfig struct {
	PhoneRegion string
	TxTimeout   time.Duration
	Metrics     MetricsPort
	Logger      *slog.Logger
}

// Service maintains the debt ledger.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	sales  SaleLookup
	cfg    ServiceConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service. audit and sales may be nil; without sales the
// debt-from-sale flow is unavailable.
func NewService(repo RepositoryPort, audit AuditPort, sales SaleLookup, cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, sales: sales, cfg: cfg, logger: logger, now: time.Now}
}

// CreateDebt records a standalone debt in the Pending state.
func (s *Service) CreateDebt(ctx context.Context, input CreateDebtInput) (Debt, error) {
	name := shared.NormalizeName(input.CustomerName)
	mobile := strings.TrimSpace(input.CustomerMobile)
	if name == "" || mobile == "" || input.InitialAmount.IsZero() {
		return Debt{}, shared.Validation("Customer name, mobile, and amount are required.")
	}
	if !input.InitialAmount.IsPositive() || !shared.FitsMoney(input.InitialAmount) {
		return Debt{}, shared.Validation("Invalid initial amount.")
	}
	if err := shared.ValidateMobile(mobile, s.cfg.PhoneRegion); err != nil {
		return Debt{}, err
	}
	d := s.newDebt(name, mobile, input.InitialAmount, input.DueDate)

	err := s.withTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.InsertDebt(ctx, d)
	})
	if err != nil {
		return Debt{}, err
	}
	s.record(ctx, "debt:create", d, map[string]any{"initial_amount": d.InitialAmount.String()})
	return d, nil
}

// CreateFromSale opens a debt for the unpaid balance of an invoice. Each sale
// carries at most one debt.
func (s *Service) CreateFromSale(ctx context.Context, invoiceNumber int64, dueDate *time.Time) (Debt, error) {
	if s.sales == nil {
		return Debt{}, errors.New("debt: sale lookup not configured")
	}
	sale, err := s.sales.LookupSale(ctx, invoiceNumber)
	if err != nil {
		return Debt{}, err
	}
	if !sale.HasBalance {
		return Debt{}, shared.Validation("This sale has no balance due.")
	}
	d := s.newDebt(sale.CustomerName, sale.CustomerMobile, sale.BalanceDue, dueDate)
	saleID := sale.ID
	d.SaleID = &saleID

	err = s.withTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.InsertDebt(ctx, d)
	})
	if err != nil {
		return Debt{}, err
	}
	s.record(ctx, "debt:create_from_sale", d, map[string]any{
		"invoice_number": sale.InvoiceNumber,
		"initial_amount": d.InitialAmount.String(),
	})
	return d, nil
}

// ApplyPayment records a payment against a Pending debt. The debt row stays
// locked from the balance check until the write commits.
func (s *Service) ApplyPayment(ctx context.Context, id uuid.UUID, input PaymentInput) (Debt, error) {
	if !input.Amount.IsPositive() || !shared.FitsMoney(input.Amount) {
		return Debt{}, ErrInvalidPayment
	}
	method := input.Method
	if method == "" {
		method = MethodCash
	}
	if !method.Valid() {
		return Debt{}, shared.Validation("Invalid payment method.")
	}

	var updated Debt
	err := s.withTx(ctx, func(ctx context.Context, tx TxRepository) error {
		d, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if d.Status == StatusPaid {
			return ErrAlreadyPaid
		}
		if input.Amount.GreaterThan(d.AmountRemaining) {
			return overpayment(d, input.Amount)
		}

		now := s.now().UTC()
		d.Payments = append(d.Payments, Payment{Amount: input.Amount, Date: now, Method: method})
		d.AmountPaid = d.AmountPaid.Add(input.Amount)
		d.AmountRemaining, d.Status = DeriveFields(d.InitialAmount, d.AmountPaid)
		d.LastPaymentDate = now
		d.UpdatedAt = now
		if err := tx.AppendPayment(ctx, d); err != nil {
			return err
		}
		updated = d
		return nil
	})
	if err != nil {
		if IsOverpayment(err) {
			s.logger.Info("payment rejected: exceeds balance",
				slog.String("debt_id", id.String()),
				slog.String("amount", input.Amount.String()))
		}
		return Debt{}, err
	}

	settled := updated.Status == StatusPaid
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.PaymentApplied(input.Amount, settled)
	}
	s.record(ctx, "debt:payment", updated, map[string]any{
		"amount":    input.Amount.String(),
		"method":    string(method),
		"remaining": updated.AmountRemaining.String(),
	})
	if settled {
		s.logger.Info("debt settled", slog.String("debt_id", updated.ID.String()))
	}
	return updated, nil
}

// Get returns one debt with its payment history.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Debt, error) {
	return s.repo.Get(ctx, id)
}

// ListPending returns unpaid debts newest first.
func (s *Service) ListPending(ctx context.Context) ([]Debt, error) {
	return s.repo.ListPending(ctx)
}

// ListDueBefore returns pending debts whose due date is before t.
func (s *Service) ListDueBefore(ctx context.Context, t time.Time) ([]Debt, error) {
	return s.repo.ListDueBefore(ctx, t)
}

func (s *Service) newDebt(name, mobile string, amount decimal.Decimal, dueDate *time.Time) Debt {
	now := s.now().UTC()
	remaining, status := DeriveFields(amount, decimal.Zero)
	return Debt{
		ID:              uuid.New(),
		CustomerName:    name,
		CustomerMobile:  mobile,
		InitialAmount:   amount,
		AmountPaid:      decimal.Zero,
		AmountRemaining: remaining,
		Status:          status,
		DueDate:         dueDate,
		LastPaymentDate: now,
		Payments:        []Payment{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (s *Service) withTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if s.cfg.TxTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.TxTimeout)
		defer cancel()
	}
	return s.repo.WithTx(ctx, fn)
}

func (s *Service) record(ctx context.Context, action string, d Debt, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  shared.ActorFromContext(ctx),
		Action:   action,
		Entity:   "debt",
		EntityID: d.ID.String(),
		Meta:     meta,
	}); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
