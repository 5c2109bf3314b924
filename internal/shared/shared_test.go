package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	insufficient := &InsufficientError{Resource: "stock", Entity: "Ring", Available: decimal.NewFromInt(3), Message: "Insufficient stock for: Ring. Available: 3"}

	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"validation", Validation("bad"), KindValidation},
		{"wrapped not found", fmt.Errorf("load: %w", NotFound("missing")), KindNotFound},
		{"insufficient", fmt.Errorf("sale: %w", insufficient), KindInsufficient},
		{"conflict", Conflict("retry", errors.New("40001")), KindConflict},
		{"plain", errors.New("boom"), KindInfrastructure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestMessageHidesInfrastructureDetail(t *testing.T) {
	err := Infrastructure("dial tcp 10.0.0.1:5432", errors.New("connection refused"))
	assert.Equal(t, "Server error. Please try again.", Message(err))

	err2 := fmt.Errorf("sales: %w", Validation("Invalid sale data. Customer mobile is required."))
	assert.Equal(t, "Invalid sale data. Customer mobile is required.", Message(err2))
}

func TestIsTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.True(t, IsTimeout(fmt.Errorf("commit: %w", ctx.Err())))
	require.False(t, IsTimeout(errors.New("other")))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "Ramesh Patil", NormalizeName("  Ramesh   Patil "))
	// "é" written as e + combining acute composes to a single rune.
	assert.Equal(t, "Caf\u00e9", NormalizeName("Cafe\u0301"))
}

func TestValidateMobile(t *testing.T) {
	require.NoError(t, ValidateMobile("9876543210", "IN"))
	require.NoError(t, ValidateMobile("+91 98765 43210", ""))

	err := ValidateMobile("   ", "IN")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	err = ValidateMobile("12", "IN")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestActorContext(t *testing.T) {
	ctx := ContextWithActor(context.Background(), "user-7")
	assert.Equal(t, "user-7", ActorFromContext(ctx))
	assert.Empty(t, ActorFromContext(context.Background()))
}

func TestAuditPrepareDefaults(t *testing.T) {
	fixed := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	l := &AuditLogger{now: func() time.Time { return fixed }}
	ctx := ContextWithActor(context.Background(), "clerk-1")

	entry, err := l.prepare(ctx, AuditLog{Action: "sales:create", Entity: "sale", EntityID: "s-1"})
	require.NoError(t, err)
	assert.Equal(t, "clerk-1", entry.ActorID)
	assert.Equal(t, fixed, entry.At)
	assert.NotNil(t, entry.Meta)

	entry, err = l.prepare(ctx, AuditLog{ActorID: "owner", Action: "a", Entity: "e", EntityID: "1"})
	require.NoError(t, err)
	assert.Equal(t, "owner", entry.ActorID)

	_, err = l.prepare(ctx, AuditLog{Action: "a"})
	require.Error(t, err)
}

func TestNilStoresAreSafe(t *testing.T) {
	var audit *AuditLogger
	require.Error(t, audit.Record(context.Background(), AuditLog{}))

	var store *IdempotencyStore
	require.Error(t, store.CheckAndInsert(context.Background(), "k", "sales"))
	require.NoError(t, store.Delete(context.Background(), "k", "sales"))
	n, err := store.Cleanup(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFitsScale(t *testing.T) {
	cases := []struct {
		value  string
		money  bool
		weight bool
	}{
		{"1000", true, true},
		{"999.99", true, true},
		{"999.996", false, true},
		{"0.004", false, true},
		{"12.3450", false, true},
		{"1.0001", false, false},
		{"-2.50", true, true},
	}
	for _, tc := range cases {
		t.Run(tc.value, func(t *testing.T) {
			v := decimal.RequireFromString(tc.value)
			assert.Equal(t, tc.money, FitsMoney(v))
			assert.Equal(t, tc.weight, FitsWeight(v))
		})
	}
}
