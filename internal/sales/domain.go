package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCustomerName is stored when a sale carries no customer name.
const DefaultCustomerName = "Walk-in Customer"

// Customer identifies the buyer. Mobile is mandatory.
type Customer struct {
	Name    string
	Address string
	Mobile  string
}

// ItemInput is one requested cart line. SellingWeight is the total grams of
// the line, not grams per piece.
type ItemInput struct {
	ProductID           uuid.UUID
	Name                string
	Quantity            int
	SellingWeight       decimal.Decimal
	SellingPricePerGram decimal.Decimal
	SellingPurity       string
	MakingChargePerGram decimal.Decimal
}

// PaymentInput carries the money side of a cart. Client totals are optional and
// only cross-checked against the server computation.
type PaymentInput struct {
	AdvancePayment     decimal.Decimal
	Discount           decimal.Decimal
	OldGoldWeight      decimal.Decimal
	Subtotal           decimal.NullDecimal
	TotalMakingCharges decimal.NullDecimal
	TotalAmount        decimal.NullDecimal
	BalanceDue         decimal.NullDecimal
}

// CreateSaleInput is the full createSale request.
type CreateSaleInput struct {
	Customer       Customer
	Items          []ItemInput
	Payment        PaymentInput
	IdempotencyKey string
}

// SoldItem snapshots the product and pricing at sale time.
type SoldItem struct {
	ProductID           uuid.UUID       `json:"productId"`
	Name                string          `json:"name"`
	Quantity            int             `json:"quantity"`
	SellingWeight       decimal.Decimal `json:"sellingWeight"`
	SellingPricePerGram decimal.Decimal `json:"sellingPricePerGram"`
	SellingPurity       string          `json:"sellingPurity"`
	MakingChargePerGram decimal.Decimal `json:"makingChargePerGram"`
}

// Sale is an issued invoice. Sales are never mutated after creation.
type Sale struct {
	ID                 uuid.UUID       `json:"id"`
	InvoiceNumber      int64           `json:"invoiceNumber"`
	CustomerName       string          `json:"customerName"`
	CustomerAddress    string          `json:"customerAddress"`
	CustomerMobile     string          `json:"customerMobile"`
	Items              []SoldItem      `json:"items"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	TotalMakingCharges decimal.Decimal `json:"totalMakingCharges"`
	Discount           decimal.Decimal `json:"discount"`
	OldGoldWeight      decimal.Decimal `json:"oldGoldWeight"`
	TotalAmount        decimal.Decimal `json:"totalAmount"`
	AdvancePayment     decimal.Decimal `json:"advancePayment"`
	BalanceDue         decimal.Decimal `json:"balanceDue"`
	CreatedBy          string          `json:"createdBy,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
}

// HasBalance reports whether the customer still owes money on the invoice.
func (s Sale) HasBalance() bool {
	return s.BalanceDue.IsPositive()
}

// ListFilter pages through sales newest first.
type ListFilter struct {
	Limit  int
	Offset int
}
