package validation

import (
	"fmt"

	"github.com/iwvelando/mortgage-calculator/pkg/format"
)

// Bounds is an inclusive numeric range. A zero Max means no upper bound.
type Bounds struct {
	Min float64 `mapstructure:"min" json:"min" yaml:"min"`
	Max float64 `mapstructure:"max" json:"max" yaml:"max"`
}

// Contains reports whether v lies within the bounds.
func (b Bounds) Contains(v float64) bool {
	if v < b.Min {
		return false
	}
	return b.Max == 0 || v <= b.Max
}

// Check returns a human readable message when v is outside the bounds, or
// the empty string when it is inside. unit is "$", "%" or "years" and only
// affects the message.
func (b Bounds) Check(v float64, unit string) string {
	if b.Contains(v) {
		return ""
	}
	render := func(x float64) string {
		switch unit {
		case "$":
			return format.Currency(x)
		case "%":
			return format.Percent(x) + "%"
		default:
			return format.Percent(x) + " " + unit
		}
	}
	if b.Max == 0 {
		return fmt.Sprintf("must be at least %s", render(b.Min))
	}
	return fmt.Sprintf("must be between %s and %s", render(b.Min), render(b.Max))
}

// Validate reports inverted or negative bounds.
func (b Bounds) Validate() error {
	if b.Min < 0 || b.Max < 0 {
		return fmt.Errorf("bounds must not be negative (min %v, max %v)", b.Min, b.Max)
	}
	if b.Max != 0 && b.Max < b.Min {
		return fmt.Errorf("max %v is below min %v", b.Max, b.Min)
	}
	return nil
}
