// Package output renders calculation results for the command line.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iwvelando/mortgage-calculator/internal/mortgage"
	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"github.com/iwvelando/mortgage-calculator/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Write renders result in the named output format. result must be a
// *mortgage.Result or *mortgage.RefinanceResult for the pretty format.
func Write(w io.Writer, outputFormat string, result interface{}) error {
	switch outputFormat {
	case constants.OutputFormatJSON:
		return JSONFormat(w, result)
	case constants.OutputFormatPretty, "":
		switch r := result.(type) {
		case *mortgage.Result:
			return PrettyFormat(w, r)
		case *mortgage.RefinanceResult:
			return PrettyRefinanceFormat(w, r)
		}
		return fmt.Errorf("cannot render %T in pretty format", result)
	}
	return fmt.Errorf("unknown output format %q", outputFormat)
}

// JSONFormat writes result as indented JSON.
func JSONFormat(w io.Writer, result interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// PrettyFormat outputs a human-readable summary of a purchase calculation.
func PrettyFormat(w io.Writer, res *mortgage.Result) error {
	pw := newPrettyWriter(w)
	d := res.LoanDetails

	pw.heading("Loan")
	pw.row("Loan type", d.LoanType)
	pw.row("Purchase price", format.Currency(d.PurchasePrice))
	pw.row("Down payment", fmt.Sprintf("%s (%s%%)", format.Currency(d.DownPayment), format.Percent(d.DownPaymentPercentage)))
	pw.row("Base loan amount", format.Currency(d.BaseLoanAmount))
	pw.upfront(d.UpfrontPremium)
	pw.row("Loan amount", format.Currency(d.LoanAmount))
	pw.row("Rate / term", fmt.Sprintf("%s%% / %d years", format.Percent(d.InterestRate), d.LoanTerm))
	pw.row("LTV", format.Percent(d.LTV)+"%")
	if d.CreditScoreBand != "" {
		pw.row("Credit score band", d.CreditScoreBand)
	}
	if d.FirstPaymentDate != "" {
		pw.row("First payment", d.FirstPaymentDate)
	}

	pw.monthly(res.MonthlyBreakdown)
	pw.itemized("Closing costs", res.ClosingCosts)
	pw.itemized("Prepaid items", res.PrepaidItems)

	pw.heading("Cash to close")
	pw.row("Seller credit", format.Currency(res.Credits.SellerCredit))
	pw.row("Lender credit", format.Currency(res.Credits.LenderCredit))
	pw.row("Total cash needed", format.Currency(res.TotalCashNeeded))
	if res.CreditToBorrower > 0 {
		pw.row("Credit to borrower", format.Currency(res.CreditToBorrower))
	}

	pw.amortization(res.Amortization)
	pw.warnings(res.Warnings)
	pw.footer(res.TablesVersion)
	return pw.err
}

// PrettyRefinanceFormat outputs a human-readable summary of a refinance.
func PrettyRefinanceFormat(w io.Writer, res *mortgage.RefinanceResult) error {
	pw := newPrettyWriter(w)
	d := res.LoanDetails

	pw.heading("Refinance")
	pw.row("Loan type", d.LoanType)
	pw.row("Purpose", d.Purpose)
	pw.row("Current balance", format.Currency(d.CurrentBalance))
	pw.row("Property value", format.Currency(d.PropertyValue))
	if d.CashOut > 0 {
		pw.row("Cash out", format.Currency(d.CashOut))
	}
	if d.CashIn > 0 {
		pw.row("Cash in", format.Currency(d.CashIn))
	}
	pw.row("Base loan amount", format.Currency(d.BaseLoanAmount))
	pw.upfront(d.UpfrontPremium)
	pw.row("Loan amount", format.Currency(d.LoanAmount))
	pw.row("Rate / term", fmt.Sprintf("%s%% / %d years", format.Percent(d.InterestRate), d.LoanTerm))
	pw.row("LTV", format.Percent(d.LTV)+"%")

	pw.monthly(res.MonthlyBreakdown)
	pw.itemized("Closing costs", res.ClosingCosts)
	pw.itemized("Prepaid items", res.PrepaidItems)

	if res.Financing.Mode != mortgage.ZeroCashNone && res.Financing.Mode != "" {
		pw.heading("Financing")
		pw.row("Mode", res.Financing.Mode)
		pw.row("Financed closing costs", format.Currency(res.Financing.FinancedClosingCosts))
		pw.row("Financed prepaids", format.Currency(res.Financing.FinancedPrepaids))
		pw.row("Out of pocket", format.Currency(res.Financing.OutOfPocket))
	}

	c := res.Comparison
	pw.heading("Comparison")
	pw.row("Current payment", format.Currency(c.CurrentPayment))
	pw.row("New payment", format.Currency(c.NewPayment))
	pw.row("Monthly savings", format.Currency(c.TotalMonthlySavings))
	pw.row("Break-even", c.BreakEven)

	if len(res.LTVGuidance) > 0 {
		pw.heading("Appraisal needed")
		for _, g := range res.LTVGuidance {
			status := ""
			if g.MeetsTarget {
				status = " (met)"
			}
			pw.row(format.Percent(g.TargetLTV)+"% LTV", format.Currency(g.MinAppraisedValue)+status)
		}
	}

	pw.heading("Cash to close")
	pw.row("Lender credit", format.Currency(res.Credits.LenderCredit))
	pw.row("Total cash needed", format.Currency(res.TotalCashNeeded))
	if res.CashToBorrower > 0 {
		pw.row("Cash to borrower", format.Currency(res.CashToBorrower))
	}

	pw.amortization(res.Amortization)
	pw.warnings(res.Warnings)
	pw.footer(res.TablesVersion)
	return pw.err
}

// prettyWriter keeps the first write error so renderers can write freely.
type prettyWriter struct {
	w   io.Writer
	p   *message.Printer
	err error
}

func newPrettyWriter(w io.Writer) *prettyWriter {
	return &prettyWriter{w: w, p: message.NewPrinter(language.English)}
}

func (pw *prettyWriter) printf(layout string, args ...interface{}) {
	if pw.err != nil {
		return
	}
	_, pw.err = pw.p.Fprintf(pw.w, layout, args...)
}

func (pw *prettyWriter) heading(title string) {
	pw.printf("--- %s ---\n", title)
}

func (pw *prettyWriter) row(label, value string) {
	pw.printf("%-24s | %s\n", label, value)
}

func (pw *prettyWriter) upfront(u *mortgage.UpfrontPremium) {
	if u == nil {
		return
	}
	label := u.Name
	if u.Financed {
		label += " (financed)"
	}
	pw.row(label, fmt.Sprintf("%s (%s%%)", format.Currency(u.Amount), format.Percent(u.Percent)))
}

func (pw *prettyWriter) monthly(m mortgage.MonthlyBreakdown) {
	pw.heading("Monthly payment")
	pw.row("Principal & interest", format.Currency(m.PrincipalInterest))
	pw.row("Property tax", format.Currency(m.PropertyTax))
	pw.row("Home insurance", format.Currency(m.HomeInsurance))
	mi := format.Currency(m.MortgageInsurance)
	if m.MortgageInsuranceRate > 0 {
		mi += fmt.Sprintf(" (%s%%)", format.Percent(m.MortgageInsuranceRate))
	}
	pw.row("Mortgage insurance", mi)
	if m.HOAFee > 0 {
		pw.row("HOA", format.Currency(m.HOAFee))
	}
	pw.row("Total", format.Currency(m.Total))
}

func (pw *prettyWriter) itemized(title string, items mortgage.Itemized) {
	pw.heading(title)
	for _, item := range items.Items {
		label := item.Name
		switch {
		case item.Days > 0:
			label = fmt.Sprintf("%s (%d days)", item.Name, item.Days)
		case item.Months > 0:
			label = fmt.Sprintf("%s (%d months)", item.Name, item.Months)
		}
		value := format.Currency(item.Amount)
		if item.Financed {
			value += " financed"
		}
		pw.row(label, value)
	}
	pw.row("Total", format.Currency(items.Total))
}

func (pw *prettyWriter) amortization(a mortgage.Amortization) {
	pw.heading("Amortization")
	pw.row("Payoff", fmt.Sprintf("%d months", a.PayoffMonths))
	pw.row("Total interest", format.Currency(a.TotalInterest))
	if a.MortgageInsuranceMonths > 0 {
		pw.row("Mortgage insurance", fmt.Sprintf("%s over %d months", format.Currency(a.TotalMortgageInsurance), a.MortgageInsuranceMonths))
	}
}

func (pw *prettyWriter) warnings(ws []mortgage.Warning) {
	if len(ws) == 0 {
		return
	}
	pw.heading("Warnings")
	for _, w := range ws {
		pw.printf("* %s\n", w.Message)
	}
}

func (pw *prettyWriter) footer(version string) {
	pw.printf("\nRate tables: %s\n", version)
}
