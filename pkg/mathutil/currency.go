// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"fmt"
	"math"

	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"github.com/shopspring/decimal"
)

// RoundingMode selects the direction a computed quantity is rounded in.
type RoundingMode string

const (
	// RoundNearest rounds half away from zero.
	RoundNearest RoundingMode = "nearest"
	// RoundUp rounds toward positive infinity.
	RoundUp RoundingMode = "up"
	// RoundDown rounds toward negative infinity.
	RoundDown RoundingMode = "down"
)

// ParseRoundingMode validates a configured rounding mode. An empty string
// selects RoundNearest.
func ParseRoundingMode(s string) (RoundingMode, error) {
	switch RoundingMode(s) {
	case "":
		return RoundNearest, nil
	case RoundNearest, RoundUp, RoundDown:
		return RoundingMode(s), nil
	}
	return "", fmt.Errorf("unknown rounding mode %q (expected nearest, up or down)", s)
}

// Round rounds a value to two decimals, i.e. to represent real currency.
// Used for making logical comparisons and for every amount that leaves the
// calculator.
func Round(val float64) float64 {
	return RoundTo(val, constants.CentPlaces, RoundNearest)
}

// RoundTo rounds val to the given number of decimal places in the given
// direction. The float is converted through its shortest decimal
// representation so 0.1+0.2 style noise does not push a value across a
// boundary.
func RoundTo(val float64, places int32, mode RoundingMode) float64 {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return val
	}
	return roundDecimal(decimal.NewFromFloat(val), places, mode).InexactFloat64()
}

// Ratio returns numerator/denominator*100 computed in decimal arithmetic and
// rounded per mode. The second return is false when denominator is not
// positive.
func Ratio(numerator, denominator float64, places int32, mode RoundingMode) (float64, bool) {
	if denominator <= 0 {
		return 0, false
	}
	d := decimal.NewFromFloat(numerator).
		Div(decimal.NewFromFloat(denominator)).
		Mul(decimal.NewFromInt(100))
	return roundDecimal(d, places, mode).InexactFloat64(), true
}

// DivideByPercent returns amount/(percent/100), the value at which amount is
// percent of it, computed in decimal arithmetic and rounded per mode. The
// second return is false when percent is not positive.
func DivideByPercent(amount, percent float64, places int32, mode RoundingMode) (float64, bool) {
	if percent <= 0 {
		return 0, false
	}
	d := decimal.NewFromFloat(amount).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromFloat(percent))
	return roundDecimal(d, places, mode).InexactFloat64(), true
}

func roundDecimal(d decimal.Decimal, places int32, mode RoundingMode) decimal.Decimal {
	switch mode {
	case RoundUp:
		return d.RoundCeil(places)
	case RoundDown:
		return d.RoundFloor(places)
	default:
		return d.Round(places)
	}
}

// Sum adds currency amounts in decimal so the total of rounded components is
// itself an exact cent value.
func Sum(vals ...float64) float64 {
	total := decimal.Zero
	for _, v := range vals {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.Round(constants.CentPlaces).InexactFloat64()
}

// CeilInt rounds up to the next whole number, ignoring float noise below a
// millionth.
func CeilInt(val float64) int {
	return int(decimal.NewFromFloat(val).Round(6).Ceil().IntPart())
}

// CalculatePercentage calculates what percentage value is of total
func CalculatePercentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * 100
}

// ApplyPercentage applies a percentage to a value
func ApplyPercentage(value, percentage float64) float64 {
	return value * (percentage / constants.PercentageMultiplier)
}
