package sales

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jms-erp/jms/internal/inventory"
	"github.com/jms-erp/jms/internal/shared"
)

const idempotencyModule = "sales"

// RepositoryPort abstracts persistence for the sale engine.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetSale(ctx context.Context, invoiceNumber int64) (Sale, error)
	ListSales(ctx context.Context, filter ListFilter) ([]Sale, error)
}

// TxRepository is the set of statements a sale runs inside one transaction.
type TxRepository interface {
	// LockProducts locks rows in ascending id order.
	LockProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]inventory.Product, error)
	SaveStock(ctx context.Context, p inventory.Product) error
	NextInvoiceNumber(ctx context.Context) (int64, error)
	InsertSale(ctx context.Context, sale Sale) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort reserves request keys.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// MetricsPort receives sale outcomes.
type MetricsPort interface {
	SaleCreated(totalAmount decimal.Decimal)
	SaleRejected(kind string)
}

// CatalogueInvalidator drops cached catalogue reads.
type CatalogueInvalidator interface {
	Bump(ctx context.Context) error
}

// ServiceConfig groups optional settings and collaborators.
type ServiceConfig struct {
	PhoneRegion string
	TxTimeout   time.Duration
	Metrics     MetricsPort
	Catalogue   CatalogueInvalidator
	Logger      *slog.Logger
}

// Service creates and reads sales.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency IdempotencyPort
	cfg         ServiceConfig
	logger      *slog.Logger
	now         func() time.Time
}

// NewService builds Service. audit and idem may be nil.
func NewService(repo RepositoryPort, audit AuditPort, idem IdempotencyPort, cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, idempotency: idem, cfg: cfg, logger: logger, now: time.Now}
}

// line aggregates cart lines that name the same product.
type line struct {
	productID uuid.UUID
	name      string
	quantity  int
	weight    decimal.Decimal
}

// CreateSale validates the cart, deducts inventory and writes the invoice as one
// atomic unit. Nothing is persisted when any step fails.
func (s *Service) CreateSale(ctx context.Context, input CreateSaleInput) (Sale, error) {
	sale, err := s.createSale(ctx, input)
	if err != nil {
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.SaleRejected(string(shared.KindOf(err)))
		}
		return Sale{}, err
	}
	return sale, nil
}

func (s *Service) createSale(ctx context.Context, input CreateSaleInput) (Sale, error) {
	customer, err := s.validate(input)
	if err != nil {
		return Sale{}, err
	}
	totals, err := ComputeTotals(input.Items, input.Payment)
	if err != nil {
		return Sale{}, err
	}

	key := strings.TrimSpace(input.IdempotencyKey)
	if key != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, idempotencyModule); err != nil {
			return Sale{}, err
		}
	}

	txCtx := ctx
	if s.cfg.TxTimeout > 0 {
		var cancel context.CancelFunc
		txCtx, cancel = context.WithTimeout(ctx, s.cfg.TxTimeout)
		defer cancel()
	}

	lines := aggregate(input.Items)
	ids := make([]uuid.UUID, len(lines))
	for i, l := range lines {
		ids[i] = l.productID
	}

	var sale Sale
	err = s.repo.WithTx(txCtx, func(ctx context.Context, tx TxRepository) error {
		locked, err := tx.LockProducts(ctx, ids)
		if err != nil {
			return err
		}
		names := make(map[uuid.UUID]string, len(lines))
		for _, l := range lines {
			p, ok := locked[l.productID]
			if !ok || !p.IsActive {
				return shared.NotFound(fmt.Sprintf("Product not found: %s", l.name))
			}
			policy, err := inventory.PolicyFor(p.Type)
			if err != nil {
				return err
			}
			if err := policy.Reserve(&p, l.quantity, l.weight); err != nil {
				return err
			}
			if err := tx.SaveStock(ctx, p); err != nil {
				return err
			}
			names[p.ID] = p.Name
		}

		invoiceNumber, err := tx.NextInvoiceNumber(ctx)
		if err != nil {
			return err
		}

		sale = Sale{
			ID:                 uuid.New(),
			InvoiceNumber:      invoiceNumber,
			CustomerName:       customer.Name,
			CustomerAddress:    customer.Address,
			CustomerMobile:     customer.Mobile,
			Items:              snapshot(input.Items, names),
			Subtotal:           totals.Subtotal,
			TotalMakingCharges: totals.TotalMakingCharges,
			Discount:           input.Payment.Discount,
			OldGoldWeight:      input.Payment.OldGoldWeight,
			TotalAmount:        totals.TotalAmount,
			AdvancePayment:     input.Payment.AdvancePayment,
			BalanceDue:         totals.BalanceDue,
			CreatedBy:          shared.ActorFromContext(ctx),
			CreatedAt:          s.now().UTC(),
		}
		return tx.InsertSale(ctx, sale)
	})
	if err != nil {
		if key != "" && s.idempotency != nil {
			if delErr := s.idempotency.Delete(context.WithoutCancel(ctx), key, idempotencyModule); delErr != nil {
				s.logger.Warn("release idempotency key", slog.String("key", key), slog.Any("error", delErr))
			}
		}
		if shared.KindOf(err) == shared.KindInfrastructure {
			s.logger.Error("sale transaction failed", slog.Any("error", err))
		}
		return Sale{}, err
	}

	s.afterCommit(ctx, sale)
	return sale, nil
}

func (s *Service) validate(input CreateSaleInput) (Customer, error) {
	customer := Customer{
		Name:    shared.NormalizeName(input.Customer.Name),
		Address: strings.TrimSpace(input.Customer.Address),
		Mobile:  strings.TrimSpace(input.Customer.Mobile),
	}
	if len(input.Items) == 0 || customer.Mobile == "" {
		return Customer{}, shared.Validation("Invalid sale data. Customer mobile is required.")
	}
	if err := shared.ValidateMobile(customer.Mobile, s.cfg.PhoneRegion); err != nil {
		return Customer{}, shared.Validation("Invalid sale data. " + err.Error())
	}
	if customer.Name == "" {
		customer.Name = DefaultCustomerName
	}
	for _, item := range input.Items {
		label := item.Name
		if label == "" {
			label = item.ProductID.String()
		}
		switch {
		case item.ProductID == uuid.Nil:
			return Customer{}, shared.Validation(fmt.Sprintf("Invalid sale data. Item %s has no product.", label))
		case item.Quantity < 0:
			return Customer{}, shared.Validation(fmt.Sprintf("Invalid quantity for %s.", label))
		case item.SellingWeight.IsNegative():
			return Customer{}, shared.Validation(fmt.Sprintf("Invalid weight for %s.", label))
		case !shared.FitsWeight(item.SellingWeight):
			return Customer{}, shared.Validation(fmt.Sprintf("Invalid weight for %s. At most 3 decimal places are allowed.", label))
		case item.SellingPricePerGram.IsNegative() || item.MakingChargePerGram.IsNegative():
			return Customer{}, shared.Validation(fmt.Sprintf("Invalid price for %s.", label))
		case !shared.FitsMoney(item.SellingPricePerGram) || !shared.FitsMoney(item.MakingChargePerGram):
			return Customer{}, shared.Validation(fmt.Sprintf("Invalid price for %s. At most 2 decimal places are allowed.", label))
		}
	}
	if !shared.FitsMoney(input.Payment.AdvancePayment) || !shared.FitsMoney(input.Payment.Discount) || !shared.FitsWeight(input.Payment.OldGoldWeight) {
		return Customer{}, shared.Validation("Invalid sale data. Amounts allow at most 2 decimal places and weights at most 3.")
	}
	return customer, nil
}

func (s *Service) afterCommit(ctx context.Context, sale Sale) {
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  sale.CreatedBy,
			Action:   "sales:create",
			Entity:   "sale",
			EntityID: sale.ID.String(),
			Meta: map[string]any{
				"invoice_number": sale.InvoiceNumber,
				"total_amount":   sale.TotalAmount.String(),
				"items":          len(sale.Items),
			},
		}); err != nil {
			s.logger.Warn("audit record failed", slog.Int64("invoice_number", sale.InvoiceNumber), slog.Any("error", err))
		}
	}
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.SaleCreated(sale.TotalAmount)
	}
	if s.cfg.Catalogue != nil {
		if err := s.cfg.Catalogue.Bump(ctx); err != nil {
			s.logger.Warn("catalogue cache bump failed", slog.Any("error", err))
		}
	}
	s.logger.Info("sale created",
		slog.Int64("invoice_number", sale.InvoiceNumber),
		slog.String("total_amount", sale.TotalAmount.String()),
		slog.Int("items", len(sale.Items)))
}

// GetSale returns the sale with invoiceNumber.
func (s *Service) GetSale(ctx context.Context, invoiceNumber int64) (Sale, error) {
	if invoiceNumber <= 0 {
		return Sale{}, shared.Validation("Invalid invoice number.")
	}
	return s.repo.GetSale(ctx, invoiceNumber)
}

// ListSales returns sales newest first.
func (s *Service) ListSales(ctx context.Context, filter ListFilter) ([]Sale, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.ListSales(ctx, filter)
}

// ErrSaleNotFound indicates a missing invoice.
var ErrSaleNotFound = shared.NotFound("Sale not found.")

func aggregate(items []ItemInput) []line {
	index := make(map[uuid.UUID]int, len(items))
	lines := make([]line, 0, len(items))
	for _, item := range items {
		if i, ok := index[item.ProductID]; ok {
			lines[i].quantity += item.Quantity
			lines[i].weight = lines[i].weight.Add(item.SellingWeight)
			continue
		}
		name := item.Name
		if name == "" {
			name = item.ProductID.String()
		}
		index[item.ProductID] = len(lines)
		lines = append(lines, line{productID: item.ProductID, name: name, quantity: item.Quantity, weight: item.SellingWeight})
	}
	return lines
}

func snapshot(items []ItemInput, names map[uuid.UUID]string) []SoldItem {
	sold := make([]SoldItem, len(items))
	for i, item := range items {
		sold[i] = SoldItem{
			ProductID:           item.ProductID,
			Name:                names[item.ProductID],
			Quantity:            item.Quantity,
			SellingWeight:       item.SellingWeight,
			SellingPricePerGram: item.SellingPricePerGram,
			SellingPurity:       item.SellingPurity,
			MakingChargePerGram: item.MakingChargePerGram,
		}
	}
	return sold
}

