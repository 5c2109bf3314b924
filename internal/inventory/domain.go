package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductType selects the stock policy applied when a product is sold or restocked.
type ProductType string

const (
	// TypeStandard tracks discrete pieces and their combined weight.
	TypeStandard ProductType = "standard"
	// TypeBulkWeight tracks weight only, for loose gold or silver sold by the gram.
	TypeBulkWeight ProductType = "bulk_weight"
)

// Valid reports whether t is a known product type.
func (t ProductType) Valid() bool {
	return t == TypeStandard || t == TypeBulkWeight
}

// Product is a catalogue entry with its on-hand quantities. Weight is in grams.
type Product struct {
	ID           uuid.UUID           `json:"id"`
	Name         string              `json:"name"`
	Category     string              `json:"category"`
	Type         ProductType         `json:"type"`
	Stock        int                 `json:"stock"`
	Weight       decimal.Decimal     `json:"weight"`
	Purity       decimal.NullDecimal `json:"purity"`
	PricePerGram decimal.NullDecimal `json:"pricePerGram"`
	UnitPrice    decimal.NullDecimal `json:"unitPrice"`
	IsActive     bool                `json:"isActive"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// CreateProductInput describes a new catalogue entry.
type CreateProductInput struct {
	Name         string
	Category     string
	Type         ProductType
	Stock        int
	Weight       decimal.Decimal
	Purity       decimal.NullDecimal
	PricePerGram decimal.NullDecimal
	UnitPrice    decimal.NullDecimal
}

// UpdateProductInput carries the editable descriptive fields. Quantities change
// only through Restock and sales.
type UpdateProductInput struct {
	Name         *string
	Category     *string
	Purity       decimal.NullDecimal
	PricePerGram decimal.NullDecimal
	UnitPrice    decimal.NullDecimal
}

// RestockInput adds pieces and grams to an existing product.
type RestockInput struct {
	Quantity int
	Weight   decimal.Decimal
}

// ImportRow is one parsed line of a product sheet.
type ImportRow struct {
	Row          int
	Name         string
	Category     string
	Type         ProductType
	Stock        int
	Weight       decimal.Decimal
	Purity       decimal.NullDecimal
	PricePerGram decimal.NullDecimal
	UnitPrice    decimal.NullDecimal
}

// ImportFailure records a row that could not be applied.
type ImportFailure struct {
	Row     int    `json:"row"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// ImportSummary reports the outcome of an import run.
type ImportSummary struct {
	Created   int             `json:"created"`
	Restocked int             `json:"restocked"`
	Failed    []ImportFailure `json:"failed"`
}
