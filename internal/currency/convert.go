// Package currency converts dataset prices (USD) into a secondary currency.
// Conversion is a pure post-processing step; the rate is always passed in.
package currency

import (
	"math"

	"github.com/shopspring/decimal"
)

// Convert returns usd*rate rounded to two fraction digits. A missing (NaN)
// price or a non-positive rate yields NaN.
func Convert(usd, rate float64) float64 {
	if math.IsNaN(usd) || math.IsInf(usd, 0) || !(rate > 0) || math.IsInf(rate, 0) {
		return math.NaN()
	}
	v, _ := decimal.NewFromFloat(usd).Mul(decimal.NewFromFloat(rate)).Round(2).Float64()
	return v
}

// Round2 rounds a display amount to two fraction digits, keeping NaN.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN()
	}
	out, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return out
}

// Ptr returns nil for NaN so JSON encodes missing amounts as null.
func Ptr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
