package mortgage

import (
	"strconv"

	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"github.com/iwvelando/mortgage-calculator/pkg/loans"
	"github.com/iwvelando/mortgage-calculator/pkg/mathutil"
	"github.com/iwvelando/mortgage-calculator/pkg/ratetables"
)

// loanQuote holds the unrounded terms of a loan. Amounts are rounded once,
// when a result is assembled.
type loanQuote struct {
	loanType       ratetables.LoanType
	baseLoan       float64
	premiumName    string
	premiumPercent float64
	premium        float64
	financed       bool
	loanAmount     float64
	ltv            float64
	rate           float64
	termMonths     int
	insurance      insuranceQuote
	monthlyPI      float64
	monthlyMI      float64
}

type quoteRequest struct {
	tables     *ratetables.Tables
	entry      *ratetables.LoanTypeTable
	premium    premiumQuery
	band       string
	baseLoan   float64
	value      float64
	rate       float64
	termMonths int
}

func quoteLoan(r quoteRequest) (loanQuote, error) {
	lt := r.premium.loanType
	policy, err := policyFor(lt)
	if err != nil {
		return loanQuote{}, err
	}

	q := loanQuote{
		loanType:    lt,
		baseLoan:    r.baseLoan,
		premiumName: r.entry.UpfrontPremium.Name,
		financed:    r.entry.UpfrontPremium.Financed,
		rate:        r.rate,
		termMonths:  r.termMonths,
	}
	if q.premiumName == "" {
		q.premiumName = lt.Label() + " Upfront Premium"
	}

	if q.premiumPercent, err = policy.upfront(r.entry, r.premium); err != nil {
		return loanQuote{}, err
	}
	q.premium = mathutil.ApplyPercentage(r.baseLoan, q.premiumPercent)
	q.loanAmount = r.baseLoan
	if q.financed {
		q.loanAmount += q.premium
	}

	mode, places := r.tables.LTVRounding()
	ltv, ok := mathutil.Ratio(r.baseLoan, r.value, places, mode)
	if !ok {
		return loanQuote{}, &ValidationError{Field: "property_value", Message: "must be greater than zero"}
	}
	q.ltv = ltv

	q.insurance, err = policy.insurance(r.entry, insuranceQuery{loanType: lt, band: r.band, ltv: ltv})
	if err != nil {
		return loanQuote{}, err
	}

	q.monthlyPI = loans.CalculateMonthlyPayment(q.loanAmount, r.rate, r.termMonths)
	q.monthlyMI = mathutil.ApplyPercentage(q.loanAmount, q.insurance.annualPercent) / constants.MonthsPerYear
	return q, nil
}

// upfrontPremium renders the premium for a result, or nil when none applies.
func (q loanQuote) upfrontPremium() *UpfrontPremium {
	if q.premiumPercent == 0 {
		return nil
	}
	return &UpfrontPremium{
		Name:     q.premiumName,
		Percent:  q.premiumPercent,
		Amount:   mathutil.Round(q.premium),
		Financed: q.financed,
	}
}

// resolveBand picks the credit band by explicit name, then by score, then
// the configured default.
func resolveBand(t *ratetables.Tables, lt ratetables.LoanType, name string, score int) (string, error) {
	switch {
	case name != "":
		b, ok := t.BandByName(name)
		if !ok {
			return "", configError(lt, name, "no credit score band with this name")
		}
		return b.Name, nil
	case score > 0:
		b, ok := t.BandForScore(score)
		if !ok {
			return "", configError(lt, strconv.Itoa(score), "no credit score band covers this score")
		}
		return b.Name, nil
	}
	if b, ok := t.DefaultBand(); ok {
		return b.Name, nil
	}
	return "", nil
}

// amortize summarizes the schedule of the quoted loan.
func amortize(g *loans.AmortizationScheduleGenerator, name string, q loanQuote, value float64) (Amortization, error) {
	cfg := loans.ScheduleConfig{
		Name:                     name,
		Principal:                q.loanAmount,
		InterestRate:             q.rate,
		TermMonths:               q.termMonths,
		MonthlyMortgageInsurance: mathutil.Round(q.monthlyMI),
		MortgageInsuranceMonths:  q.insurance.months,
	}
	if q.insurance.cancelLTV > 0 {
		cfg.MortgageInsuranceCutoff = mathutil.ApplyPercentage(value, q.insurance.cancelLTV)
	}
	schedule, err := g.GenerateSchedule(cfg)
	if err != nil {
		return Amortization{}, err
	}
	a := Amortization{Summary: loans.Summarize(schedule)}
	if a.MortgageInsuranceMonths > 0 && a.MortgageInsuranceMonths < a.PayoffMonths {
		a.MortgageInsuranceCancelMonth = a.MortgageInsuranceMonths + 1
	}
	return a, nil
}

func (q loanQuote) limitWarnings(t *ratetables.Tables, e *ratetables.LoanTypeTable) []Warning {
	var out []Warning
	loan := mathutil.Round(q.loanAmount)
	if e.MaxLoanAmount > 0 && loan > e.MaxLoanAmount {
		excess := mathutil.Sum(loan, -e.MaxLoanAmount)
		out = append(out, Warning{
			Kind: WarnLoanAmountAboveLimit,
			Message: FormatMessage(t.Message(q.loanType, ratetables.MsgLoanAmountAboveLimit), q.loanType,
				Arg{LoanAmount, loan}, Arg{LimitAmount, e.MaxLoanAmount}, Arg{ExcessAmount, excess}),
			Amount: excess,
		})
	}
	if e.MinLoanAmount > 0 && loan < e.MinLoanAmount {
		shortfall := mathutil.Sum(e.MinLoanAmount, -loan)
		out = append(out, Warning{
			Kind: WarnLoanAmountBelowLimit,
			Message: FormatMessage(t.Message(q.loanType, ratetables.MsgLoanAmountBelowLimit), q.loanType,
				Arg{LoanAmount, loan}, Arg{LimitAmount, e.MinLoanAmount}, Arg{ShortfallAmount, shortfall}),
			Amount: shortfall,
		})
	}
	if capped := q.insurance.cappedLTV; capped > 0 {
		out = append(out, Warning{
			Kind: WarnInsuranceTierCapped,
			Message: FormatMessage(t.Message(q.loanType, ratetables.MsgInsuranceTierCapped), q.loanType,
				Arg{CurrentPercentage, q.ltv}, Arg{MaxPercentage, capped}),
		})
	}
	return out
}
