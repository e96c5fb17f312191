// Package loans provides common loan processing utilities.
package loans

import (
	"fmt"
	"math"

	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"github.com/iwvelando/mortgage-calculator/pkg/mathutil"
	"go.uber.org/zap"
)

// Payment holds the values for a given payment.
type Payment struct {
	Month              int     `json:"month"`
	Payment            float64 `json:"payment"`
	Principal          float64 `json:"principal"`
	Interest           float64 `json:"interest"`
	MortgageInsurance  float64 `json:"mortgage_insurance"`
	RemainingPrincipal float64 `json:"remaining_principal"`
}

// CalculateMonthlyPayment calculates the monthly payment for a loan using the standard amortization formula.
func CalculateMonthlyPayment(principal, annualInterestRate float64, termMonths int) float64 {
	if termMonths <= 0 || principal <= 0 {
		return 0
	}
	if annualInterestRate == 0 {
		// For zero interest, simply divide the principal by term
		return principal / float64(termMonths)
	}

	periodicInterestRate := annualInterestRate / (constants.PercentageMultiplier * constants.MonthsPerYear)
	power := math.Pow(1.00+periodicInterestRate, float64(termMonths))
	return principal * periodicInterestRate * power / (power - 1.00)
}

// CalculateInterestPayment calculates the interest portion of a payment.
func CalculateInterestPayment(remainingPrincipal, annualInterestRate float64) float64 {
	return remainingPrincipal * annualInterestRate / (constants.PercentageMultiplier * constants.MonthsPerYear)
}

// CalculateDailyInterest returns one day of interest on principal using a
// 365-day year.
func CalculateDailyInterest(principal, annualInterestRate float64) float64 {
	return principal * annualInterestRate / (constants.PercentageMultiplier * constants.DaysPerYear)
}

// ScheduleConfig describes a fixed-rate loan for schedule generation.
type ScheduleConfig struct {
	Name         string
	Principal    float64
	InterestRate float64
	TermMonths   int
	// MonthlyMortgageInsurance is charged while the balance at the start of
	// a month is above MortgageInsuranceCutoff.
	MonthlyMortgageInsurance float64
	// MortgageInsuranceCutoff is the balance at or below which insurance
	// stops; zero keeps insurance for the whole duration.
	MortgageInsuranceCutoff float64
	// MortgageInsuranceMonths limits insurance to a fixed number of
	// payments; zero means the life of the loan.
	MortgageInsuranceMonths int
}

// Summary aggregates a schedule.
type Summary struct {
	TotalInterest          float64 `json:"total_interest"`
	TotalMortgageInsurance float64 `json:"total_mortgage_insurance"`
	TotalPaid              float64 `json:"total_paid"`
	PayoffMonths           int     `json:"payoff_months"`
	// MortgageInsuranceMonths is the number of payments that include
	// mortgage insurance.
	MortgageInsuranceMonths int `json:"mortgage_insurance_months"`
}

// AmortizationScheduleGenerator provides utilities for generating loan amortization schedules
type AmortizationScheduleGenerator struct {
	logger *zap.Logger
}

// NewAmortizationScheduleGenerator creates a new generator instance
func NewAmortizationScheduleGenerator(logger *zap.Logger) *AmortizationScheduleGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AmortizationScheduleGenerator{logger: logger}
}

// GenerateSchedule creates a complete amortization schedule for a loan
func (g *AmortizationScheduleGenerator) GenerateSchedule(loan ScheduleConfig) ([]Payment, error) {
	if loan.TermMonths <= 0 {
		return nil, fmt.Errorf("loan %s: term must be positive, got %d months", loan.Name, loan.TermMonths)
	}
	if loan.Principal < 0 {
		return nil, fmt.Errorf("loan %s: principal must not be negative, got %.2f", loan.Name, loan.Principal)
	}

	monthlyPayment := CalculateMonthlyPayment(loan.Principal, loan.InterestRate, loan.TermMonths)
	schedule := make([]Payment, 0, loan.TermMonths)
	balance := loan.Principal
	insuranceEnded := false

	for month := 1; month <= loan.TermMonths; month++ {
		if mathutil.Round(balance) == 0 {
			break
		}

		var current Payment
		current.Month = month
		current.Interest = CalculateInterestPayment(balance, loan.InterestRate)
		current.Principal = monthlyPayment - current.Interest

		if month == loan.TermMonths || mathutil.Round(balance-current.Principal) <= 0 {
			// We will get machine error otherwise so just settle the balance.
			current.Principal = balance
			current.RemainingPrincipal = 0.00
		} else {
			current.RemainingPrincipal = balance - current.Principal
		}

		if loan.MonthlyMortgageInsurance > 0 && !insuranceEnded {
			withinDuration := loan.MortgageInsuranceMonths == 0 || month <= loan.MortgageInsuranceMonths
			aboveCutoff := loan.MortgageInsuranceCutoff <= 0 || balance > loan.MortgageInsuranceCutoff
			if withinDuration && aboveCutoff {
				current.MortgageInsurance = loan.MonthlyMortgageInsurance
			} else {
				insuranceEnded = true
				g.logger.Debug(fmt.Sprintf("loan %s: mortgage insurance ends before payment %d at balance %.2f",
					loan.Name, month, balance),
					zap.String("op", "loans.GenerateSchedule"),
				)
			}
		}

		current.Payment = current.Principal + current.Interest + current.MortgageInsurance
		schedule = append(schedule, current)
		balance = current.RemainingPrincipal
	}

	return schedule, nil
}

// Summarize totals a schedule produced by GenerateSchedule.
func Summarize(schedule []Payment) Summary {
	var s Summary
	for _, p := range schedule {
		s.TotalInterest += p.Interest
		s.TotalMortgageInsurance += p.MortgageInsurance
		s.TotalPaid += p.Payment
		if p.MortgageInsurance > 0 {
			s.MortgageInsuranceMonths++
		}
	}
	s.PayoffMonths = len(schedule)
	s.TotalInterest = mathutil.Round(s.TotalInterest)
	s.TotalMortgageInsurance = mathutil.Round(s.TotalMortgageInsurance)
	s.TotalPaid = mathutil.Round(s.TotalPaid)
	return s
}
