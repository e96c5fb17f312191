package mortgage

import (
	"fmt"
	"math"
	"sort"

	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"github.com/iwvelando/mortgage-calculator/pkg/format"
	"github.com/iwvelando/mortgage-calculator/pkg/loans"
	"github.com/iwvelando/mortgage-calculator/pkg/mathutil"
	"github.com/iwvelando/mortgage-calculator/pkg/ratetables"
	"go.uber.org/zap"
)

// BreakEvenNotApplicable is reported when monthly savings are not positive.
const BreakEvenNotApplicable = "N/A"

// refinancePricing is one pass of the zero cash to close solve.
type refinancePricing struct {
	quote   loanQuote
	closing Itemized
	prepaid Itemized
	lender  float64
	warning *Warning
}

// Refinance prices a refinance of an existing loan and compares it with the
// current payment.
func (c *Calculator) Refinance(in RefinanceInput) (*RefinanceResult, error) {
	snap, err := c.snapshot()
	if err != nil {
		return nil, err
	}
	t := snap.Tables

	entry, ok := t.Entry(in.LoanType)
	if !ok {
		return nil, configError(in.LoanType, "", "no rate table entry for loan type")
	}
	mode, err := validateRefinance(t, entry, &in)
	if err != nil {
		return nil, err
	}
	band, err := resolveBand(t, in.LoanType, in.CreditBand, in.CreditScore)
	if err != nil {
		return nil, err
	}
	maxLTV, _ := entry.RefinanceMaxLTV(in.Purpose)
	value := in.PropertyValue
	startingBase := in.CurrentBalance + in.CashOut - in.CashIn

	price := func(financed float64) (refinancePricing, error) {
		base := startingBase + financed
		q, err := quoteLoan(quoteRequest{
			tables: t,
			entry:  entry,
			premium: premiumQuery{
				loanType: in.LoanType,
				purpose:  in.Purpose,
				va:       in.VA,
			},
			band:       band,
			baseLoan:   base,
			value:      value,
			rate:       in.AnnualRate,
			termMonths: in.LoanTermYears * constants.MonthsPerYear,
		})
		if err != nil {
			return refinancePricing{}, err
		}
		p := refinancePricing{
			quote:   q,
			closing: itemize(closingCosts(t, q, ratetables.TransactionRefinance, value, in.DiscountPoints)),
			prepaid: itemize(prepaidItems(t, q, in.Escrow, value, in.ClosingDate, false)),
		}
		equity := math.Max(0, 100-q.ltv)
		p.lender, p.warning = lenderLimit(entry).apply(t, in.LoanType, in.LenderCredit, basesFor(q, value), equity)
		return p, nil
	}

	// Percentage fees depend on the loan amount that finances them, so the
	// financed amount is solved by fixed point iteration to the cent.
	var (
		p          refinancePricing
		financed   float64
		iterations int
		converged  bool
	)
	for iterations = 1; iterations <= constants.MaxFinancingIterations; iterations++ {
		if p, err = price(financed); err != nil {
			return nil, err
		}
		if mode == ZeroCashNone {
			converged = true
			break
		}
		target := mathutil.Round(math.Max(0, financeable(mode, p)-p.lender))
		if target == financed {
			converged = true
			break
		}
		financed = target
	}
	if !converged {
		iterations = constants.MaxFinancingIterations
		c.logger.Warn("zero cash to close did not converge, using last estimate",
			zap.String("op", "mortgage.Refinance"),
			zap.Float64("financed", financed),
		)
	}

	q := p.quote
	var warnings []Warning
	if p.warning != nil {
		warnings = append(warnings, *p.warning)
	}
	warnings = append(warnings, q.limitWarnings(t, entry)...)
	if q.ltv > maxLTV+constants.PercentEpsilon {
		needed := mathutil.Round(q.baseLoan - mathutil.ApplyPercentage(value, maxLTV))
		warnings = append(warnings, Warning{
			Kind: WarnMaxLTVExceeded,
			Message: FormatMessage(t.Message(in.LoanType, ratetables.MsgMaxLTVExceeded), in.LoanType,
				Arg{CurrentPercentage, q.ltv}, Arg{MaxPercentage, maxLTV}, Arg{ShortfallAmount, needed}),
			Amount: needed,
		})
	}

	fin := financing(mode, p, financed, iterations)
	closing, prepaid := p.closing, p.prepaid
	markFinanced(closing.Items, mode != ZeroCashNone)
	markFinanced(prepaid.Items, mode == ZeroCashClosingCostsAndPrepaid)

	remainingCredit := mathutil.Sum(p.lender, -fin.LenderCreditApplied)
	cash, toBorrower := cashToClose(
		[]float64{fin.OutOfPocket, mathutil.Round(in.CashIn)},
		[]float64{remainingCredit, mathutil.Round(in.CashOut)},
	)
	if toBorrower > 0 && in.Purpose != ratetables.PurposeCashOut {
		warnings = append(warnings, creditToBorrowerWarning(t, in.LoanType, toBorrower))
	}

	breakdown := monthlyBreakdown(q, in.Escrow, value)
	comparison := compare(in, breakdown, mathutil.Sum(closing.Total, -p.lender))

	amort, err := amortize(c.schedules, in.LoanType.String()+" refinance", q, value)
	if err != nil {
		return nil, fmt.Errorf("amortizing loan: %w", err)
	}

	c.logger.Debug("priced refinance",
		zap.String("op", "mortgage.Refinance"),
		zap.String("snapshot", snap.ID.String()),
		zap.String("loanType", in.LoanType.String()),
		zap.String("purpose", in.Purpose),
		zap.String("zeroCashMode", mode),
		zap.Int("iterations", iterations),
		zap.Float64("ltv", q.ltv),
		zap.Float64("financed", financed),
	)

	return &RefinanceResult{
		MonthlyBreakdown: breakdown,
		LoanDetails: RefinanceDetails{
			LoanType:         in.LoanType.String(),
			Purpose:          in.Purpose,
			CurrentBalance:   mathutil.Round(in.CurrentBalance),
			PropertyValue:    mathutil.Round(value),
			CashOut:          mathutil.Round(in.CashOut),
			CashIn:           mathutil.Round(in.CashIn),
			BaseLoanAmount:   mathutil.Round(q.baseLoan),
			LoanAmount:       mathutil.Round(q.loanAmount),
			InterestRate:     in.AnnualRate,
			LoanTerm:         in.LoanTermYears,
			LTV:              q.ltv,
			CreditScoreBand:  band,
			UpfrontPremium:   q.upfrontPremium(),
			FirstPaymentDate: firstPayment(in.ClosingDate),
		},
		ClosingCosts:    closing,
		PrepaidItems:    prepaid,
		Credits:         Credits{LenderCredit: p.lender, Total: p.lender, RequestedLenderCredit: mathutil.Round(in.LenderCredit)},
		Financing:       fin,
		Comparison:      comparison,
		LTVGuidance:     guidance(t, q, value, maxLTV),
		TotalCashNeeded: cash,
		CashToBorrower:  toBorrower,
		Amortization:    amort,
		Warnings:        nonNil(warnings),
		TablesVersion:   snap.Version,
	}, nil
}

// financeable is what the mode allows rolling into the loan before lender
// credit.
func financeable(mode string, p refinancePricing) float64 {
	switch mode {
	case ZeroCashClosingCosts:
		return p.closing.Total
	case ZeroCashClosingCostsAndPrepaid:
		return mathutil.Sum(p.closing.Total, p.prepaid.Total)
	}
	return 0
}

// financing splits costs into financed and out of pocket. Lender credit
// offsets closing costs first, then prepaids.
func financing(mode string, p refinancePricing, financed float64, iterations int) Financing {
	f := Financing{Mode: mode, Iterations: iterations}
	closingTotal, prepaidTotal := p.closing.Total, p.prepaid.Total
	f.OutOfPocket = mathutil.Sum(closingTotal, prepaidTotal)
	if mode == ZeroCashNone {
		return f
	}

	f.FinancedClosingCosts = math.Max(0, mathutil.Sum(closingTotal, -p.lender))
	if mode == ZeroCashClosingCostsAndPrepaid {
		leftover := math.Max(0, mathutil.Sum(p.lender, -closingTotal))
		f.FinancedPrepaids = math.Max(0, mathutil.Sum(prepaidTotal, -leftover))
	}
	// The loan was sized for the last estimate; report what it actually
	// carries.
	if total := mathutil.Sum(f.FinancedClosingCosts, f.FinancedPrepaids); total != financed {
		f.FinancedClosingCosts = mathutil.Sum(f.FinancedClosingCosts, financed-total)
	}
	available := financeable(mode, p)
	f.LenderCreditApplied = math.Min(p.lender, available)
	f.OutOfPocket = mathutil.Sum(f.OutOfPocket, -available)
	return f
}

func markFinanced(items []LineItem, financed bool) {
	for i := range items {
		items[i].Financed = financed
	}
}

// compare sets the new payment against the current one. Savings compare
// principal, interest and mortgage insurance; escrow and HOA are unchanged
// by a refinance.
func compare(in RefinanceInput, m MonthlyBreakdown, cost float64) Comparison {
	current := in.CurrentPayment
	if current == 0 {
		current = loans.CalculateMonthlyPayment(in.CurrentBalance, in.OriginalRate, in.RemainingTermMonths)
	}
	c := Comparison{
		CurrentPayment: mathutil.Round(current),
		NewPayment:     mathutil.Sum(m.PrincipalInterest, m.MortgageInsurance),
		ExtraSavings:   mathutil.Round(in.CurrentExtraPayment),
		BreakEvenCost:  math.Max(0, cost),
	}
	c.BaseSavings = mathutil.Sum(c.CurrentPayment, -c.NewPayment)
	c.MonthlySavings = c.BaseSavings
	c.TotalMonthlySavings = mathutil.Sum(c.BaseSavings, c.ExtraSavings)

	if c.BaseSavings <= 0 {
		c.BreakEven = BreakEvenNotApplicable
		return c
	}
	months := mathutil.CeilInt(c.BreakEvenCost / c.BaseSavings)
	c.BreakEvenMonths = &months
	c.BreakEven = fmt.Sprintf("%d months", months)
	return c
}

// guidance lists the smallest appraisal reaching each common LTV target and
// the purpose maximum, rounded up to whole dollars.
func guidance(t *ratetables.Tables, q loanQuote, value, maxLTV float64) []LTVGuidance {
	targets := append([]float64(nil), constants.GuidanceLTVTargets...)
	seen := false
	for _, target := range targets {
		if target == maxLTV {
			seen = true
		}
	}
	if !seen && maxLTV > 0 {
		targets = append(targets, maxLTV)
	}
	sort.Float64s(targets)

	mode := t.AppraisalRounding()
	loan := mathutil.Round(q.loanAmount)
	out := make([]LTVGuidance, 0, len(targets))
	for _, target := range targets {
		minValue, _ := mathutil.DivideByPercent(loan, target, 0, mode)
		out = append(out, LTVGuidance{
			TargetLTV:         target,
			MinAppraisedValue: minValue,
			MeetsTarget:       value >= minValue,
			PurposeMaximum:    target == maxLTV,
		})
	}
	return out
}

// validateRefinance checks the request and normalizes the zero cash mode.
func validateRefinance(t *ratetables.Tables, e *ratetables.LoanTypeTable, in *RefinanceInput) (string, error) {
	var errs fieldErrors

	if in.CurrentBalance <= 0 {
		errs.add("current_balance", "must be greater than zero")
	} else {
		errs.check("current_balance", t.Limits.CurrentBalance.Check(in.CurrentBalance, "$"))
	}
	if in.PropertyValue <= 0 {
		errs.add("property_value", "must be greater than zero")
	}
	validateLoanTerms(&errs, t, in.AnnualRate, in.LoanTermYears)
	validateCommon(&errs, in.LoanType, in.CreditScore, in.DiscountPoints, in.Escrow, in.VA)

	if in.Purpose == "" {
		in.Purpose = ratetables.PurposeRateTerm
	}
	switch in.Purpose {
	case ratetables.PurposeRateTerm:
		if in.CashOut != 0 {
			errs.add("cash_out_amount", "requires the %s refinance purpose", ratetables.PurposeCashOut)
		}
	case ratetables.PurposeCashOut:
		if in.CashOut <= 0 {
			errs.add("cash_out_amount", "must be greater than zero for a cash-out refinance")
		}
	default:
		errs.add("refinance_purpose", "must be %s or %s", ratetables.PurposeRateTerm, ratetables.PurposeCashOut)
	}
	if _, ok := e.RefinanceMaxLTV(in.Purpose); !ok && (in.Purpose == ratetables.PurposeRateTerm || in.Purpose == ratetables.PurposeCashOut) {
		errs.add("refinance_purpose", "%s refinances are not offered for %s loans", in.Purpose, in.LoanType.Label())
	}
	if in.CashIn < 0 {
		errs.add("cash_in_amount", "must not be negative")
	} else if in.CurrentBalance > 0 && in.CashIn >= in.CurrentBalance+in.CashOut {
		errs.add("cash_in_amount", "must be less than the current balance of %s", format.Currency(in.CurrentBalance))
	}
	if in.LenderCredit < 0 {
		errs.add("lender_credit", "must not be negative")
	}
	if in.CurrentExtraPayment < 0 {
		errs.add("current_extra_payment", "must not be negative")
	}

	switch {
	case in.CurrentPayment < 0:
		errs.add("current_payment", "must not be negative")
	case in.CurrentPayment == 0 && in.RemainingTermMonths <= 0:
		errs.add("current_payment", "is required unless original_rate and remaining_term_months are given")
	case in.CurrentPayment == 0 && in.OriginalRate < 0:
		errs.add("original_rate", "must not be negative")
	}

	mode := in.ZeroCashMode
	switch mode {
	case "":
		mode = ZeroCashNone
	case ZeroCashNone, ZeroCashClosingCosts, ZeroCashClosingCostsAndPrepaid:
	default:
		errs.add("zero_cash_mode", "must be %s, %s or %s", ZeroCashNone, ZeroCashClosingCosts, ZeroCashClosingCostsAndPrepaid)
	}
	return mode, errs.result()
}
