package format

import "testing"

func TestCurrency(t *testing.T) {
	tests := map[float64]string{
		0:          "$0.00",
		12.5:       "$12.50",
		1234.567:   "$1,234.57",
		-1234.56:   "-$1,234.56",
		5066.25:    "$5,066.25",
		1000000:    "$1,000,000.00",
		-0.001:     "$0.00",
		294566.249: "$294,566.25",
	}
	for input, expected := range tests {
		if got := Currency(input); got != expected {
			t.Errorf("Currency(%v) = %q, expected %q", input, got, expected)
		}
	}
}

func TestNumericCurrency(t *testing.T) {
	if got := NumericCurrency(-98765.4); got != "-98,765.40" {
		t.Errorf("NumericCurrency() = %q, expected -98,765.40", got)
	}
}

func TestPercent(t *testing.T) {
	tests := map[float64]string{
		3.5:    "3.5",
		80:     "80",
		0.55:   "0.55",
		1.125:  "1.125",
		96.504: "96.504",
	}
	for input, expected := range tests {
		if got := Percent(input); got != expected {
			t.Errorf("Percent(%v) = %q, expected %q", input, got, expected)
		}
	}
}
