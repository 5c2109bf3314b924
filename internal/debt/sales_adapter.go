package debt

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jms-erp/jms/internal/sales"
)

// SaleSummary is the part of a sale a debt is derived from.
type SaleSummary struct {
	ID             uuid.UUID
	InvoiceNumber  int64
	CustomerName   string
	CustomerMobile string
	BalanceDue     decimal.Decimal
	HasBalance     bool
}

// SaleLookup resolves invoices for the debt-from-sale flow.
type SaleLookup interface {
	LookupSale(ctx context.Context, invoiceNumber int64) (SaleSummary, error)
}

// SalesAdapter exposes the sale ledger as a SaleLookup.
type SalesAdapter struct {
	sales *sales.Service
}

// NewSalesAdapter wraps the sales service.
func NewSalesAdapter(svc *sales.Service) *SalesAdapter {
	return &SalesAdapter{sales: svc}
}

// LookupSale loads the invoice and keeps only what a debt needs.
func (a *SalesAdapter) LookupSale(ctx context.Context, invoiceNumber int64) (SaleSummary, error) {
	sale, err := a.sales.GetSale(ctx, invoiceNumber)
	if err != nil {
		return SaleSummary{}, err
	}
	return SaleSummary{
		ID:             sale.ID,
		InvoiceNumber:  sale.InvoiceNumber,
		CustomerName:   sale.CustomerName,
		CustomerMobile: sale.CustomerMobile,
		BalanceDue:     sale.BalanceDue,
		HasBalance:     sale.HasBalance(),
	}, nil
}
