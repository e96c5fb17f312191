// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/mortgage-calculator/internal/mortgage"
)

// PurchaseRequest returns a flat conventional purchase request: $400,000
// with 20% down at 6.5% over 30 years.
func PurchaseRequest() map[string]interface{} {
	return map[string]interface{}{
		"purchase_price":          400000,
		"down_payment_percentage": 20,
		"annual_rate":             6.5,
		"loan_term":               30,
		"loan_type":               "conventional",
	}
}

// RefinanceRequest returns a flat rate and term refinance of a $250,000
// balance on a $400,000 home from 7% to 5.5%.
func RefinanceRequest() map[string]interface{} {
	return map[string]interface{}{
		"current_balance":       250000,
		"property_value":        400000,
		"annual_rate":           5.5,
		"loan_term":             30,
		"loan_type":             "conventional",
		"original_rate":         7,
		"remaining_term_months": 360,
	}
}

// FindWarning finds a warning by kind.
// Returns a pointer to the warning if found, nil otherwise.
func FindWarning(warnings []mortgage.Warning, kind mortgage.WarningKind) *mortgage.Warning {
	for i := range warnings {
		if warnings[i].Kind == kind {
			return &warnings[i]
		}
	}
	return nil
}
