package datetime

import (
	"testing"
)

func TestMustParseTimePanic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected MustParseTime to panic with invalid date")
		}
	}()

	MustParseTime(DateLayout, "invalid-date")
}

func TestPerDiemDays(t *testing.T) {
	tests := []struct {
		name     string
		closing  string
		maxDays  int
		expected int
	}{
		{
			name:     "Mid month closing",
			closing:  "2026-10-15",
			expected: 17,
		},
		{
			name:     "First of month closing",
			closing:  "2026-10-01",
			expected: 31,
		},
		{
			name:     "Last day of month closing",
			closing:  "2026-10-31",
			expected: 1,
		},
		{
			name:     "February leap year",
			closing:  "2028-02-10",
			expected: 20,
		},
		{
			name:     "December rolls into next year",
			closing:  "2026-12-20",
			expected: 12,
		},
		{
			name:     "Cap applied",
			closing:  "2026-10-01",
			maxDays:  30,
			expected: 30,
		},
		{
			name:     "Cap above actual days",
			closing:  "2026-10-15",
			maxDays:  30,
			expected: 17,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			closing := MustParseTime(DateLayout, tt.closing)
			if got := PerDiemDays(closing, tt.maxDays); got != tt.expected {
				t.Errorf("PerDiemDays(%s, %d) = %d, expected %d", tt.closing, tt.maxDays, got, tt.expected)
			}
		})
	}
}

func TestFirstPaymentDate(t *testing.T) {
	tests := map[string]string{
		"2026-10-15": "2026-12-01",
		"2026-11-30": "2027-01-01",
		"2026-12-01": "2027-02-01",
	}
	for closing, expected := range tests {
		got := FirstPaymentDate(MustParseTime(DateLayout, closing)).Format(DateLayout)
		if got != expected {
			t.Errorf("FirstPaymentDate(%s) = %s, expected %s", closing, got, expected)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	a := MustParseTime(DateLayout, "2026-01-01")
	b := MustParseTime(DateLayout, "2026-03-01")
	if got := DaysBetween(a, b); got != 59 {
		t.Errorf("DaysBetween() = %d, expected 59", got)
	}
	if got := DaysBetween(b, a); got != -59 {
		t.Errorf("DaysBetween() reversed = %d, expected -59", got)
	}
}
