package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jms-erp/jms/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetProduct(ctx context.Context, id uuid.UUID) (Product, error)
	ListActive(ctx context.Context) ([]Product, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CataloguePort caches the active product list.
type CataloguePort interface {
	BuildKey(ctx context.Context, parts ...string) (string, error)
	FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error
	Bump(ctx context.Context) error
}

// Service coordinates catalogue maintenance.
type Service struct {
	repo      RepositoryPort
	audit     AuditPort
	catalogue CataloguePort
	logger    *slog.Logger
	now       func() time.Time
}

// NewService builds Service. audit and catalogue may be nil.
func NewService(repo RepositoryPort, audit AuditPort, catalogue CataloguePort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, catalogue: catalogue, logger: logger, now: time.Now}
}

// CreateProduct validates and stores a new product.
func (s *Service) CreateProduct(ctx context.Context, input CreateProductInput) (Product, error) {
	name := shared.NormalizeName(input.Name)
	category := strings.TrimSpace(input.Category)
	if name == "" || category == "" {
		return Product{}, shared.Validation("Product name and category are required.")
	}
	if input.Type == "" {
		input.Type = TypeStandard
	}
	if _, err := PolicyFor(input.Type); err != nil {
		return Product{}, err
	}
	if input.Stock < 0 || input.Weight.IsNegative() {
		return Product{}, shared.Validation("Stock and weight must not be negative.")
	}
	if !shared.FitsWeight(input.Weight) {
		return Product{}, errWeightScale
	}
	if err := nonNegative(input.Purity, input.PricePerGram, input.UnitPrice); err != nil {
		return Product{}, err
	}

	now := s.now().UTC()
	product := Product{
		ID:           uuid.New(),
		Name:         name,
		Category:     category,
		Type:         input.Type,
		Stock:        input.Stock,
		Weight:       input.Weight,
		Purity:       input.Purity,
		PricePerGram: input.PricePerGram,
		UnitPrice:    input.UnitPrice,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if product.Type == TypeBulkWeight {
		product.Stock = 0
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, exists, err := tx.FindActiveByNameForUpdate(ctx, name); err != nil {
			return err
		} else if exists {
			return shared.Conflict(fmt.Sprintf("A product named %s already exists.", name), nil)
		}
		return tx.InsertProduct(ctx, product)
	})
	if err != nil {
		return Product{}, err
	}
	s.afterWrite(ctx, "inventory:create", product)
	return product, nil
}

// UpdateProduct edits descriptive fields of an active product.
func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (Product, error) {
	var product Product
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := s.lockActive(ctx, tx, id)
		if err != nil {
			return err
		}
		if input.Name != nil {
			name := shared.NormalizeName(*input.Name)
			if name == "" {
				return shared.Validation("Product name is required.")
			}
			if !strings.EqualFold(name, p.Name) {
				if _, exists, err := tx.FindActiveByNameForUpdate(ctx, name); err != nil {
					return err
				} else if exists {
					return shared.Conflict(fmt.Sprintf("A product named %s already exists.", name), nil)
				}
			}
			p.Name = name
		}
		if input.Category != nil {
			category := strings.TrimSpace(*input.Category)
			if category == "" {
				return shared.Validation("Product category is required.")
			}
			p.Category = category
		}
		if err := nonNegative(input.Purity, input.PricePerGram, input.UnitPrice); err != nil {
			return err
		}
		if input.Purity.Valid {
			p.Purity = input.Purity
		}
		if input.PricePerGram.Valid {
			p.PricePerGram = input.PricePerGram
		}
		if input.UnitPrice.Valid {
			p.UnitPrice = input.UnitPrice
		}
		p.UpdatedAt = s.now().UTC()
		if err := tx.UpdateProduct(ctx, p); err != nil {
			return err
		}
		product = p
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	s.afterWrite(ctx, "inventory:update", product)
	return product, nil
}

// Restock adds quantity and weight through the product type's policy.
func (s *Service) Restock(ctx context.Context, id uuid.UUID, input RestockInput) (Product, error) {
	var product Product
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := s.lockActive(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := replenish(&p, input.Quantity, input.Weight); err != nil {
			return err
		}
		if err := tx.SaveStock(ctx, p); err != nil {
			return err
		}
		product = p
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	s.afterWrite(ctx, "inventory:restock", product)
	return product, nil
}

// Deactivate soft-deletes a product. Past sales keep their snapshots.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	var product Product
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := s.lockActive(ctx, tx, id)
		if err != nil {
			return err
		}
		p.IsActive = false
		p.UpdatedAt = s.now().UTC()
		product = p
		return tx.UpdateProduct(ctx, p)
	})
	if err != nil {
		return err
	}
	s.afterWrite(ctx, "inventory:deactivate", product)
	return nil
}

// GetProduct returns an active product.
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if !p.IsActive {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

// ListActive returns the active catalogue, served from cache when available.
func (s *Service) ListActive(ctx context.Context) ([]Product, error) {
	if s.catalogue == nil {
		return s.repo.ListActive(ctx)
	}
	key, err := s.catalogue.BuildKey(ctx, "products", "active")
	if err != nil {
		s.logger.Warn("catalogue cache unavailable", slog.Any("error", err))
		return s.repo.ListActive(ctx)
	}
	var products []Product
	err = s.catalogue.FetchJSON(ctx, key, &products, func(ctx context.Context) (any, error) {
		return s.repo.ListActive(ctx)
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

// Import creates unknown names and restocks known ones, one transaction per row.
// Per-row failures are collected; infrastructure failures abort the run.
func (s *Service) Import(ctx context.Context, rows []ImportRow) (ImportSummary, error) {
	summary := ImportSummary{Failed: []ImportFailure{}}
	for _, row := range rows {
		created, err := s.importRow(ctx, row)
		if err != nil {
			if shared.KindOf(err) == shared.KindInfrastructure {
				return summary, fmt.Errorf("inventory: import row %d: %w", row.Row, err)
			}
			summary.Failed = append(summary.Failed, ImportFailure{Row: row.Row, Name: row.Name, Message: shared.Message(err)})
			continue
		}
		if created {
			summary.Created++
		} else {
			summary.Restocked++
		}
	}
	if summary.Created+summary.Restocked > 0 {
		s.bump(ctx)
	}
	return summary, nil
}

func (s *Service) importRow(ctx context.Context, row ImportRow) (bool, error) {
	name := shared.NormalizeName(row.Name)
	var existing *Product
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, found, err := tx.FindActiveByNameForUpdate(ctx, name)
		if err != nil || !found {
			return err
		}
		if err := replenish(&p, row.Stock, row.Weight); err != nil {
			return err
		}
		existing = &p
		return tx.SaveStock(ctx, p)
	})
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	_, err = s.CreateProduct(ctx, CreateProductInput{
		Name:         row.Name,
		Category:     row.Category,
		Type:         row.Type,
		Stock:        row.Stock,
		Weight:       row.Weight,
		Purity:       row.Purity,
		PricePerGram: row.PricePerGram,
		UnitPrice:    row.UnitPrice,
	})
	return err == nil, err
}

// InvalidateCatalogue drops cached catalogue reads after quantities change elsewhere.
func (s *Service) InvalidateCatalogue(ctx context.Context) {
	s.bump(ctx)
}

func (s *Service) lockActive(ctx context.Context, tx TxRepository, id uuid.UUID) (Product, error) {
	p, err := tx.GetProductForUpdate(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if !p.IsActive {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (s *Service) afterWrite(ctx context.Context, action string, p Product) {
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  shared.ActorFromContext(ctx),
			Action:   action,
			Entity:   "product",
			EntityID: p.ID.String(),
			Meta: map[string]any{
				"name":   p.Name,
				"stock":  p.Stock,
				"weight": p.Weight.String(),
			},
		}); err != nil {
			s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
		}
	}
	s.bump(ctx)
}

func (s *Service) bump(ctx context.Context) {
	if s.catalogue == nil {
		return
	}
	if err := s.catalogue.Bump(ctx); err != nil {
		s.logger.Warn("catalogue cache bump failed", slog.Any("error", err))
	}
}

var errWeightScale = shared.Validation("Weight allows at most 3 decimal places.")

func replenish(p *Product, quantity int, weight decimal.Decimal) error {
	if !shared.FitsWeight(weight) {
		return errWeightScale
	}
	policy, err := PolicyFor(p.Type)
	if err != nil {
		return err
	}
	return policy.Replenish(p, quantity, weight)
}

func nonNegative(values ...decimal.NullDecimal) error {
	for _, v := range values {
		if v.Valid && v.Decimal.IsNegative() {
			return shared.Validation("Purity and prices must not be negative.")
		}
		if v.Valid && !shared.FitsMoney(v.Decimal) {
			return shared.Validation("Purity and prices allow at most 2 decimal places.")
		}
	}
	return nil
}
