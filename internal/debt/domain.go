package debt

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jms-erp/jms/internal/shared"
)

// Status is derived from the balance on every write.
type Status string

const (
	StatusPending Status = "Pending"
	StatusPaid    Status = "Paid"
)

// Method is how a payment was received.
type Method string

const (
	MethodCash         Method = "Cash"
	MethodUPI          Method = "UPI"
	MethodCard         Method = "Card"
	MethodBankTransfer Method = "BankTransfer"
)

// Valid reports whether m is an accepted payment method.
func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodUPI, MethodCard, MethodBankTransfer:
		return true
	}
	return false
}

// Payment is one received instalment. Payments are append-only.
type Payment struct {
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
	Method Method          `json:"method"`
}

// Debt tracks money owed by a customer.
type Debt struct {
	ID              uuid.UUID       `json:"id"`
	CustomerName    string          `json:"customerName"`
	CustomerMobile  string          `json:"customerMobile"`
	SaleID          *uuid.UUID      `json:"saleId,omitempty"`
	InitialAmount   decimal.Decimal `json:"initialAmount"`
	AmountPaid      decimal.Decimal `json:"amountPaid"`
	AmountRemaining decimal.Decimal `json:"amountRemaining"`
	Status          Status          `json:"status"`
	DueDate         *time.Time      `json:"dueDate"`
	LastPaymentDate time.Time       `json:"lastPaymentDate"`
	Payments        []Payment       `json:"payments"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// CreateDebtInput describes a manually recorded debt.
type CreateDebtInput struct {
	CustomerName   string
	CustomerMobile string
	InitialAmount  decimal.Decimal
	DueDate        *time.Time
}

// PaymentInput is a payment request. An empty method means cash.
type PaymentInput struct {
	Amount decimal.Decimal
	Method Method
}

// DeriveFields computes the remaining balance and status from the initial amount
// and the total paid. The balance never goes below zero.
func DeriveFields(initial, paid decimal.Decimal) (decimal.Decimal, Status) {
	remaining := initial.Sub(paid)
	if !remaining.IsPositive() {
		return decimal.Zero, StatusPaid
	}
	return remaining, StatusPending
}

var (
	// ErrDebtNotFound indicates a missing debt record.
	ErrDebtNotFound = shared.NotFound("Debt record not found.")
	// ErrAlreadyPaid rejects payments against a settled debt.
	ErrAlreadyPaid = shared.Validation("This debt is already fully paid.")
	// ErrInvalidPayment rejects zero, negative or missing payment amounts.
	ErrInvalidPayment = shared.Validation("Invalid payment amount.")
	// ErrDebtExists rejects a second debt for the same sale.
	ErrDebtExists = shared.Conflict("A debt record already exists for this sale.", nil)
)

const overpaymentResource = "balance"

func overpayment(d Debt, amount decimal.Decimal) error {
	return &shared.InsufficientError{
		Resource:  overpaymentResource,
		Entity:    d.ID.String(),
		Available: d.AmountRemaining,
		Requested: amount,
		Message:   fmt.Sprintf("Payment (₹%s) exceeds remaining balance (₹%s).", amount.String(), d.AmountRemaining.String()),
	}
}

// IsOverpayment reports whether err rejected a payment larger than the balance.
func IsOverpayment(err error) bool {
	var insufficient *shared.InsufficientError
	return errors.As(err, &insufficient) && insufficient.Resource == overpaymentResource
}
