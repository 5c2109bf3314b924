package inventory

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jms-erp/jms/internal/shared"
)

// StockPolicy applies quantity changes for one product type. Implementations
// mutate the product in place and leave it untouched on error.
type StockPolicy interface {
	// Reserve deducts a sold quantity and weight.
	Reserve(p *Product, quantity int, weight decimal.Decimal) error
	// Replenish adds restocked quantity and weight.
	Replenish(p *Product, quantity int, weight decimal.Decimal) error
}

// PolicyFor returns the policy for t.
func PolicyFor(t ProductType) (StockPolicy, error) {
	switch t {
	case TypeStandard:
		return standardPolicy{}, nil
	case TypeBulkWeight:
		return bulkWeightPolicy{}, nil
	default:
		return nil, shared.Validation(fmt.Sprintf("Unknown product type: %s", t))
	}
}

type standardPolicy struct{}

func (standardPolicy) Reserve(p *Product, quantity int, weight decimal.Decimal) error {
	if quantity < 1 {
		return shared.Validation(fmt.Sprintf("Invalid quantity for %s.", p.Name))
	}
	if p.Stock < quantity {
		return insufficientStock(p, quantity)
	}
	if p.Weight.LessThan(weight) {
		return insufficientWeight(p, weight)
	}
	p.Stock -= quantity
	p.Weight = p.Weight.Sub(weight)
	return nil
}

func (standardPolicy) Replenish(p *Product, quantity int, weight decimal.Decimal) error {
	if quantity < 0 || weight.IsNegative() {
		return shared.Validation("Restock quantity and weight must not be negative.")
	}
	if quantity == 0 && weight.IsZero() {
		return shared.Validation("Restock quantity or weight is required.")
	}
	p.Stock += quantity
	p.Weight = p.Weight.Add(weight)
	return nil
}

// bulkWeightPolicy ignores piece counts entirely.
type bulkWeightPolicy struct{}

func (bulkWeightPolicy) Reserve(p *Product, _ int, weight decimal.Decimal) error {
	if p.Weight.LessThan(weight) {
		return insufficientWeight(p, weight)
	}
	p.Weight = p.Weight.Sub(weight)
	return nil
}

func (bulkWeightPolicy) Replenish(p *Product, _ int, weight decimal.Decimal) error {
	if !weight.IsPositive() {
		return shared.Validation("Restock weight must be greater than zero.")
	}
	p.Weight = p.Weight.Add(weight)
	return nil
}

func insufficientStock(p *Product, requested int) error {
	return &shared.InsufficientError{
		Resource:  "stock",
		Entity:    p.Name,
		Available: decimal.NewFromInt(int64(p.Stock)),
		Requested: decimal.NewFromInt(int64(requested)),
		Message:   fmt.Sprintf("Insufficient stock for: %s. Available: %d", p.Name, p.Stock),
	}
}

func insufficientWeight(p *Product, requested decimal.Decimal) error {
	return &shared.InsufficientError{
		Resource:  "weight",
		Entity:    p.Name,
		Available: p.Weight,
		Requested: requested,
		Message:   fmt.Sprintf("Insufficient weight for %s. Only %sg left.", p.Name, p.Weight.String()),
	}
}
