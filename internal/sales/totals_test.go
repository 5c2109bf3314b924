package sales

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jms-erp/jms/internal/shared"
)

func TestComputeTotals(t *testing.T) {
	items := []ItemInput{
		{Quantity: 1, SellingWeight: d("10.5"), SellingPricePerGram: d("6000"), MakingChargePerGram: d("450")},
		{Quantity: 2, SellingWeight: d("4.25"), SellingPricePerGram: d("5800"), MakingChargePerGram: d("0")},
	}

	cases := []struct {
		name    string
		payment PaymentInput
		wantErr bool
		balance string
	}{
		{name: "no payment", payment: PaymentInput{}, balance: "92375"},
		{name: "advance and discount", payment: PaymentInput{AdvancePayment: d("50000"), Discount: d("375")}, balance: "42000"},
		{name: "client totals within tolerance", payment: PaymentInput{TotalAmount: decimal.NewNullDecimal(d("92375.01"))}, balance: "92375"},
		{name: "client subtotal mismatch", payment: PaymentInput{Subtotal: decimal.NewNullDecimal(d("80000"))}, wantErr: true},
		{name: "overpaid", payment: PaymentInput{AdvancePayment: d("92000"), Discount: d("400")}, wantErr: true},
		{name: "negative discount", payment: PaymentInput{Discount: d("-1")}, wantErr: true},
		{name: "advance below a paisa", payment: PaymentInput{AdvancePayment: d("0.005")}, wantErr: true},
		{name: "discount with three places", payment: PaymentInput{Discount: d("10.125")}, wantErr: true},
		{name: "old gold weight below a milligram", payment: PaymentInput{OldGoldWeight: d("1.0001")}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputeTotals(items, tc.payment)
			if tc.wantErr {
				require.Error(t, err)
				assert.Equal(t, shared.KindValidation, shared.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Subtotal.Equal(d("87650")), got.Subtotal.String())
			assert.True(t, got.TotalMakingCharges.Equal(d("4725")))
			assert.True(t, got.TotalAmount.Equal(got.Subtotal.Add(got.TotalMakingCharges)))
			assert.True(t, got.BalanceDue.Equal(d(tc.balance)), got.BalanceDue.String())
		})
	}
}

func TestComputeTotalsRequiresPositiveTotal(t *testing.T) {
	_, err := ComputeTotals([]ItemInput{{Quantity: 1, SellingWeight: d("0")}}, PaymentInput{})
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
}
