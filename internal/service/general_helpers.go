package service

import (
	"math"

	"github.com/shopspring/decimal"
)

// round rounds a float64 value to the given number of decimal places.
// Rounding is half away from zero, done in decimal so that values such as 1.005
// round the way they read. NaN and infinities are returned unchanged.
//
// Example:
//
//	round(123.456789, 2)  // returns 123.46
//	round(1.005, 2)       // returns 1.01
//	round(-2.345, 2)      // returns -2.35
func round(value float64, places int32) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return value
	}
	return decimal.NewFromFloat(value).Round(places).InexactFloat64()
}

func round2(value float64) float64 { return round(value, 2) }

func round4(value float64) float64 { return round(value, 4) }

func floatPtr(f float64) *float64 { return &f }
