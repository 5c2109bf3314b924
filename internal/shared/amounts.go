package shared

import "github.com/shopspring/decimal"

// Stored scales of NUMERIC columns: rupees to paise, grams to milligrams.
const (
	MoneyPlaces  int32 = 2
	WeightPlaces int32 = 3
)

// FitsScale reports whether v has no more than places decimal digits, so the
// database stores it unrounded.
func FitsScale(v decimal.Decimal, places int32) bool {
	return v.Equal(v.Truncate(places))
}

// FitsMoney reports whether v is representable in paise.
func FitsMoney(v decimal.Decimal) bool { return FitsScale(v, MoneyPlaces) }

// FitsWeight reports whether v is representable in milligrams.
func FitsWeight(v decimal.Decimal) bool { return FitsScale(v, WeightPlaces) }
