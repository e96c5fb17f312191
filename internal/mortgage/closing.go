package mortgage

import (
	"time"

	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"github.com/iwvelando/mortgage-calculator/pkg/datetime"
	"github.com/iwvelando/mortgage-calculator/pkg/loans"
	"github.com/iwvelando/mortgage-calculator/pkg/mathutil"
	"github.com/iwvelando/mortgage-calculator/pkg/ratetables"
)

// Prepaid item names.
const (
	ItemPrepaidInterest  = "Prepaid Interest"
	ItemPrepaidInsurance = "Homeowners Insurance Premium"
	ItemTaxReserve       = "Property Tax Escrow Reserve"
	ItemInsuranceReserve = "Homeowners Insurance Escrow Reserve"
	ItemDiscountPoints   = "Discount Points"
)

// costBases are the amounts a percentage fee or credit limit can be taken
// of.
type costBases struct {
	loanAmount     float64
	baseLoanAmount float64
	propertyValue  float64
}

func (b costBases) of(base string) float64 {
	switch base {
	case ratetables.BasePurchasePrice:
		return b.propertyValue
	case ratetables.BaseBaseLoanAmount:
		return b.baseLoanAmount
	default:
		return b.loanAmount
	}
}

func basesFor(q loanQuote, value float64) costBases {
	return costBases{loanAmount: q.loanAmount, baseLoanAmount: q.baseLoan, propertyValue: value}
}

// closingCosts applies the fee schedule. Discount points and an upfront
// premium that is not financed are due at closing and appear as items.
func closingCosts(t *ratetables.Tables, q loanQuote, transaction string, value, points float64) []LineItem {
	bases := basesFor(q, value)
	var items []LineItem
	for _, fee := range t.Fees(q.loanType, transaction) {
		amount := fee.Amount
		if fee.Kind == ratetables.FeePercentage {
			amount = mathutil.ApplyPercentage(bases.of(fee.Base), fee.Percent)
		}
		items = append(items, LineItem{Name: fee.Name, Amount: amount})
	}
	if points > 0 {
		items = append(items, LineItem{Name: ItemDiscountPoints, Amount: mathutil.ApplyPercentage(q.loanAmount, points)})
	}
	if q.premium > 0 && !q.financed {
		items = append(items, LineItem{Name: q.premiumName, Amount: q.premium})
	}
	return items
}

// monthlyEscrow returns the unrounded monthly tax and insurance.
func monthlyEscrow(e Escrow, value float64) (tax, insurance float64) {
	tax = mathutil.ApplyPercentage(value, e.AnnualTaxRate) / constants.MonthsPerYear
	insurance = mathutil.ApplyPercentage(value, e.AnnualInsuranceRate) / constants.MonthsPerYear
	return tax, insurance
}

// perDiemDays counts prepaid interest days from closing to the first of the
// next month, or the configured default when no closing date is known.
func perDiemDays(p ratetables.PrepaidSchedule, closing *time.Time) int {
	if closing == nil {
		return p.DefaultPerDiemDays
	}
	return datetime.PerDiemDays(*closing, p.PerDiemDaysCap)
}

// prepaidItems builds per-diem interest, the first year of homeowners
// insurance (purchases only) and the escrow reserves. Items with no amount
// are omitted.
func prepaidItems(t *ratetables.Tables, q loanQuote, escrow Escrow, value float64, closing *time.Time, purchase bool) []LineItem {
	p := t.Prepaids
	tax, insurance := monthlyEscrow(escrow, value)
	var items []LineItem

	if days := perDiemDays(p, closing); days > 0 && q.rate > 0 {
		daily := loans.CalculateDailyInterest(q.loanAmount, q.rate)
		items = append(items, LineItem{Name: ItemPrepaidInterest, Amount: daily * float64(days), Days: days})
	}
	if purchase && insurance > 0 && p.PrepaidInsuranceMonths > 0 {
		items = append(items, LineItem{
			Name:   ItemPrepaidInsurance,
			Amount: insurance * float64(p.PrepaidInsuranceMonths),
			Months: p.PrepaidInsuranceMonths,
		})
	}
	if tax > 0 && p.TaxEscrowMonths > 0 {
		items = append(items, LineItem{Name: ItemTaxReserve, Amount: tax * float64(p.TaxEscrowMonths), Months: p.TaxEscrowMonths})
	}
	if insurance > 0 && p.InsuranceEscrowMonths > 0 {
		items = append(items, LineItem{
			Name:   ItemInsuranceReserve,
			Amount: insurance * float64(p.InsuranceEscrowMonths),
			Months: p.InsuranceEscrowMonths,
		})
	}
	return items
}

// itemize rounds every item to cents and totals the rounded amounts.
func itemize(items []LineItem) Itemized {
	out := Itemized{Items: make([]LineItem, 0, len(items))}
	amounts := make([]float64, 0, len(items))
	for _, item := range items {
		item.Amount = mathutil.Round(item.Amount)
		out.Items = append(out.Items, item)
		amounts = append(amounts, item.Amount)
	}
	out.Total = mathutil.Sum(amounts...)
	return out
}

// monthlyBreakdown rounds each component and totals the rounded values.
func monthlyBreakdown(q loanQuote, escrow Escrow, value float64) MonthlyBreakdown {
	tax, insurance := monthlyEscrow(escrow, value)
	m := MonthlyBreakdown{
		PrincipalInterest:     mathutil.Round(q.monthlyPI),
		PropertyTax:           mathutil.Round(tax),
		HomeInsurance:         mathutil.Round(insurance),
		MortgageInsurance:     mathutil.Round(q.monthlyMI),
		HOAFee:                mathutil.Round(escrow.MonthlyHOAFee),
		MortgageInsuranceRate: q.insurance.annualPercent,
	}
	m.Total = mathutil.Sum(m.PrincipalInterest, m.PropertyTax, m.HomeInsurance, m.MortgageInsurance, m.HOAFee)
	return m
}
