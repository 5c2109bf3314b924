package inventory

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jms-erp/jms/internal/shared"
)

func grams(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func ring() Product {
	return Product{ID: uuid.New(), Name: "Gold Ring", Type: TypeStandard, Stock: 5, Weight: grams("50"), IsActive: true}
}

func TestStandardReserveDeductsBoth(t *testing.T) {
	p := ring()
	policy, err := PolicyFor(TypeStandard)
	require.NoError(t, err)

	require.NoError(t, policy.Reserve(&p, 2, grams("18")))
	assert.Equal(t, 3, p.Stock)
	assert.True(t, p.Weight.Equal(grams("32")))
}

func TestStandardReserveInsufficientStock(t *testing.T) {
	p := ring()
	p.Stock = 3
	policy, _ := PolicyFor(TypeStandard)

	err := policy.Reserve(&p, 4, grams("1"))
	var insufficient *shared.InsufficientError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, "stock", insufficient.Resource)
	assert.True(t, insufficient.Available.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, "Insufficient stock for: Gold Ring. Available: 3", err.Error())
	assert.Equal(t, 3, p.Stock)
}

func TestStandardReserveInsufficientWeight(t *testing.T) {
	p := ring()
	policy, _ := PolicyFor(TypeStandard)

	err := policy.Reserve(&p, 1, grams("50.5"))
	require.Error(t, err)
	assert.Equal(t, "Insufficient weight for Gold Ring. Only 50g left.", err.Error())
	assert.Equal(t, 5, p.Stock)
	assert.True(t, p.Weight.Equal(grams("50")))
}

func TestBulkWeightIgnoresStock(t *testing.T) {
	p := Product{ID: uuid.New(), Name: "Loose Gold", Type: TypeBulkWeight, Weight: grams("120.250"), IsActive: true}
	policy, err := PolicyFor(TypeBulkWeight)
	require.NoError(t, err)

	require.NoError(t, policy.Reserve(&p, 0, grams("20.25")))
	assert.True(t, p.Weight.Equal(grams("100")))
	assert.Zero(t, p.Stock)

	err = policy.Reserve(&p, 1, grams("100.001"))
	require.Error(t, err)
	assert.Equal(t, shared.KindInsufficient, shared.KindOf(err))
	assert.Equal(t, "Insufficient weight for Loose Gold. Only 100g left.", err.Error())

	require.NoError(t, policy.Replenish(&p, 0, grams("5")))
	assert.True(t, p.Weight.Equal(grams("105")))
	require.Error(t, policy.Replenish(&p, 3, decimal.Zero))
}

func TestPolicyForUnknownType(t *testing.T) {
	_, err := PolicyFor("gemstone")
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
}
