package sales

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jms-erp/jms/internal/shared"
)

// totalsTolerance is the largest accepted gap between client and server totals.
var totalsTolerance = decimal.RequireFromString("0.01")

// Totals are the server computed money fields of a sale.
type Totals struct {
	Subtotal           decimal.Decimal
	TotalMakingCharges decimal.Decimal
	TotalAmount        decimal.Decimal
	BalanceDue         decimal.Decimal
}

// ComputeTotals prices every line as weight times rate and checks the payment
// against the result. Amounts are rounded to paise.
func ComputeTotals(items []ItemInput, payment PaymentInput) (Totals, error) {
	subtotal := decimal.Zero
	making := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.SellingWeight.Mul(item.SellingPricePerGram))
		making = making.Add(item.SellingWeight.Mul(item.MakingChargePerGram))
	}
	t := Totals{
		Subtotal:           subtotal.Round(2),
		TotalMakingCharges: making.Round(2),
	}
	t.TotalAmount = t.Subtotal.Add(t.TotalMakingCharges)

	if !t.TotalAmount.IsPositive() {
		return Totals{}, shared.Validation("Invalid sale data. Total amount must be greater than zero.")
	}
	if payment.AdvancePayment.IsNegative() || payment.Discount.IsNegative() || payment.OldGoldWeight.IsNegative() {
		return Totals{}, shared.Validation("Invalid sale data. Payment amounts must not be negative.")
	}
	if !shared.FitsMoney(payment.AdvancePayment) || !shared.FitsMoney(payment.Discount) || !shared.FitsWeight(payment.OldGoldWeight) {
		return Totals{}, shared.Validation("Invalid sale data. Amounts allow at most 2 decimal places and weights at most 3.")
	}
	t.BalanceDue = t.TotalAmount.Sub(payment.AdvancePayment).Sub(payment.Discount)
	if t.BalanceDue.IsNegative() {
		return Totals{}, shared.Validation("Invalid sale data. Advance payment and discount exceed the total amount.")
	}

	checks := []struct {
		field  string
		client decimal.NullDecimal
		server decimal.Decimal
	}{
		{"subtotal", payment.Subtotal, t.Subtotal},
		{"totalMakingCharges", payment.TotalMakingCharges, t.TotalMakingCharges},
		{"totalAmount", payment.TotalAmount, t.TotalAmount},
		{"balanceDue", payment.BalanceDue, t.BalanceDue},
	}
	for _, c := range checks {
		if c.client.Valid && c.client.Decimal.Sub(c.server).Abs().GreaterThan(totalsTolerance) {
			return Totals{}, shared.Validation(fmt.Sprintf("Invalid sale data. %s does not match the items (expected %s).", c.field, c.server.StringFixed(2)))
		}
	}
	return t, nil
}
