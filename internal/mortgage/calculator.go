// Package mortgage prices purchase and refinance loans from the published
// rate tables.
package mortgage

import (
	"fmt"
	"time"

	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"github.com/iwvelando/mortgage-calculator/pkg/datetime"
	"github.com/iwvelando/mortgage-calculator/pkg/format"
	"github.com/iwvelando/mortgage-calculator/pkg/loans"
	"github.com/iwvelando/mortgage-calculator/pkg/mathutil"
	"github.com/iwvelando/mortgage-calculator/pkg/ratetables"
	"github.com/iwvelando/mortgage-calculator/pkg/validation"
	"go.uber.org/zap"
)

const clampNote = " The down payment was raised to the minimum."

var (
	pointsBounds = validation.Bounds{Min: 0, Max: 10}
	scoreBounds  = validation.Bounds{Min: 300, Max: 850}
)

// Calculator prices requests against the current rate table snapshot. It
// holds no per-request state and is safe for concurrent use.
type Calculator struct {
	store     *ratetables.Store
	logger    *zap.Logger
	schedules *loans.AmortizationScheduleGenerator
}

// NewCalculator returns a calculator reading from store.
func NewCalculator(store *ratetables.Store, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{
		store:     store,
		logger:    logger,
		schedules: loans.NewAmortizationScheduleGenerator(logger),
	}
}

func (c *Calculator) snapshot() (*ratetables.Snapshot, error) {
	snap, err := c.store.Current()
	if err != nil {
		return nil, &ConfigurationError{Message: err.Error()}
	}
	return snap, nil
}

// Calculate prices a purchase.
func (c *Calculator) Calculate(in PurchaseInput) (*Result, error) {
	snap, err := c.snapshot()
	if err != nil {
		return nil, err
	}
	t := snap.Tables

	entry, ok := t.Entry(in.LoanType)
	if !ok {
		return nil, configError(in.LoanType, "", "no rate table entry for loan type")
	}
	if err := validatePurchase(t, in); err != nil {
		return nil, err
	}
	band, err := resolveBand(t, in.LoanType, in.CreditBand, in.CreditScore)
	if err != nil {
		return nil, err
	}

	var warnings []Warning
	price := in.PurchasePrice
	down, downPct := in.DownPaymentAmount, in.DownPaymentPercent
	if in.DownPaymentIsAmount {
		downPct = mathutil.CalculatePercentage(down, price)
	} else {
		down = mathutil.ApplyPercentage(price, downPct)
	}

	if downPct+constants.PercentEpsilon < entry.MinDownPaymentPercent {
		required := mathutil.ApplyPercentage(price, entry.MinDownPaymentPercent)
		shortfall := mathutil.Round(required - down)
		message := FormatMessage(t.Message(in.LoanType, ratetables.MsgMinDownPayment), in.LoanType,
			Arg{CurrentPercentage, mathutil.RoundTo(downPct, 3, mathutil.RoundNearest)},
			Arg{MinPercentage, entry.MinDownPaymentPercent},
			Arg{ShortfallAmount, shortfall})
		switch entry.MinDownPaymentPolicy {
		case ratetables.PolicyReject:
			return nil, &ValidationError{
				Field: downPaymentField(in),
				Message: fmt.Sprintf("must be at least %s%% for %s loans",
					format.Percent(entry.MinDownPaymentPercent), in.LoanType.Label()),
			}
		case ratetables.PolicyClamp:
			down, downPct = required, entry.MinDownPaymentPercent
			message += clampNote
		}
		warnings = append(warnings, Warning{Kind: WarnMinDownPayment, Message: message, Amount: shortfall})
	}

	baseLoan := price - down
	if baseLoan < 0 {
		return nil, &ValidationError{Field: downPaymentField(in), Message: "exceeds the purchase price"}
	}

	q, err := quoteLoan(quoteRequest{
		tables: t,
		entry:  entry,
		premium: premiumQuery{
			loanType:           in.LoanType,
			downPaymentPercent: downPct,
			va:                 in.VA,
		},
		band:       band,
		baseLoan:   baseLoan,
		value:      price,
		rate:       in.AnnualRate,
		termMonths: in.LoanTermYears * constants.MonthsPerYear,
	})
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, q.limitWarnings(t, entry)...)

	closing := itemize(closingCosts(t, q, ratetables.TransactionPurchase, price, in.DiscountPoints))
	prepaid := itemize(prepaidItems(t, q, in.Escrow, price, in.ClosingDate, true))

	bases := basesFor(q, price)
	seller, warn := sellerLimit(entry).apply(t, in.LoanType, in.SellerCredit, bases, downPct)
	if warn != nil {
		warnings = append(warnings, *warn)
	}
	lender, warn := lenderLimit(entry).apply(t, in.LoanType, in.LenderCredit, bases, downPct)
	if warn != nil {
		warnings = append(warnings, *warn)
	}
	credits := Credits{
		SellerCredit:          seller,
		LenderCredit:          lender,
		Total:                 mathutil.Sum(seller, lender),
		RequestedSellerCredit: mathutil.Round(in.SellerCredit),
		RequestedLenderCredit: mathutil.Round(in.LenderCredit),
	}

	downRounded := mathutil.Round(down)
	cash, toBorrower := cashToClose([]float64{downRounded, closing.Total, prepaid.Total}, []float64{credits.Total})
	if toBorrower > 0 {
		warnings = append(warnings, creditToBorrowerWarning(t, in.LoanType, toBorrower))
	}

	amort, err := amortize(c.schedules, in.LoanType.String()+" purchase", q, price)
	if err != nil {
		return nil, fmt.Errorf("amortizing loan: %w", err)
	}

	c.logger.Debug("priced purchase",
		zap.String("op", "mortgage.Calculate"),
		zap.String("snapshot", snap.ID.String()),
		zap.String("loanType", in.LoanType.String()),
		zap.String("creditBand", band),
		zap.Float64("ltv", q.ltv),
		zap.Float64("upfrontPercent", q.premiumPercent),
		zap.Float64("insurancePercent", q.insurance.annualPercent),
		zap.Int("warnings", len(warnings)),
	)

	return &Result{
		MonthlyBreakdown: monthlyBreakdown(q, in.Escrow, price),
		LoanDetails: LoanDetails{
			LoanType:              in.LoanType.String(),
			PurchasePrice:         mathutil.Round(price),
			BaseLoanAmount:        mathutil.Round(q.baseLoan),
			LoanAmount:            mathutil.Round(q.loanAmount),
			DownPayment:           downRounded,
			DownPaymentPercentage: mathutil.RoundTo(downPct, 3, mathutil.RoundNearest),
			InterestRate:          in.AnnualRate,
			LoanTerm:              in.LoanTermYears,
			LTV:                   q.ltv,
			CreditScoreBand:       band,
			UpfrontPremium:        q.upfrontPremium(),
			FirstPaymentDate:      firstPayment(in.ClosingDate),
		},
		ClosingCosts:     closing,
		PrepaidItems:     prepaid,
		Credits:          credits,
		TotalCashNeeded:  cash,
		CreditToBorrower: toBorrower,
		Amortization:     amort,
		Warnings:         nonNil(warnings),
		TablesVersion:    snap.Version,
	}, nil
}

func downPaymentField(in PurchaseInput) string {
	if in.DownPaymentIsAmount {
		return "down_payment"
	}
	return "down_payment_percentage"
}

func firstPayment(closing *time.Time) string {
	if closing == nil {
		return ""
	}
	return datetime.FirstPaymentDate(*closing).Format(constants.DateLayout)
}

func nonNil(w []Warning) []Warning {
	if w == nil {
		return []Warning{}
	}
	return w
}

// validatePurchase checks the request against the configured bounds and
// reports every problem found.
func validatePurchase(t *ratetables.Tables, in PurchaseInput) error {
	var errs fieldErrors

	if in.PurchasePrice <= 0 {
		errs.add("purchase_price", "must be greater than zero")
	} else {
		errs.check("purchase_price", t.Limits.PurchasePrice.Check(in.PurchasePrice, "$"))
	}
	if in.DownPaymentIsAmount {
		if in.DownPaymentAmount < 0 {
			errs.add("down_payment", "must not be negative")
		} else if in.PurchasePrice > 0 && in.DownPaymentAmount > in.PurchasePrice {
			errs.add("down_payment", "must not exceed the purchase price")
		}
	} else if in.DownPaymentPercent < 0 || in.DownPaymentPercent > 100 {
		errs.add("down_payment_percentage", "must be between 0%% and 100%%")
	}
	validateLoanTerms(&errs, t, in.AnnualRate, in.LoanTermYears)
	validateCommon(&errs, in.LoanType, in.CreditScore, in.DiscountPoints, in.Escrow, in.VA)
	if in.SellerCredit < 0 {
		errs.add("seller_credit", "must not be negative")
	}
	if in.LenderCredit < 0 {
		errs.add("lender_credit", "must not be negative")
	}
	return errs.result()
}

func validateLoanTerms(errs *fieldErrors, t *ratetables.Tables, rate float64, termYears int) {
	if rate < 0 {
		errs.add("annual_rate", "must not be negative")
	} else {
		errs.check("annual_rate", t.Limits.InterestRate.Check(rate, "%"))
	}
	if termYears <= 0 {
		errs.add("loan_term", "must be a positive number of years")
	} else {
		errs.check("loan_term", t.Limits.LoanTermYears.Check(float64(termYears), "years"))
	}
}

func validateCommon(errs *fieldErrors, lt ratetables.LoanType, score int, points float64, escrow Escrow, va VAOptions) {
	if score != 0 {
		errs.check("credit_score", scoreBounds.Check(float64(score), "points"))
	}
	errs.check("discount_points", pointsBounds.Check(points, "%"))
	if escrow.AnnualTaxRate < 0 {
		errs.add("annual_tax_rate", "must not be negative")
	}
	if escrow.AnnualInsuranceRate < 0 {
		errs.add("annual_insurance_rate", "must not be negative")
	}
	if escrow.MonthlyHOAFee < 0 {
		errs.add("monthly_hoa_fee", "must not be negative")
	}

	if lt != ratetables.VA || va.DisabilityExempt {
		return
	}
	switch va.ServiceType {
	case "":
		errs.add("va_service_type", "is required for VA loans")
	case ratetables.VAServiceRegular, ratetables.VAServiceReserves:
	default:
		errs.add("va_service_type", "must be %s or %s", ratetables.VAServiceRegular, ratetables.VAServiceReserves)
	}
	switch va.Usage {
	case "":
		errs.add("va_usage", "is required for VA loans")
	case ratetables.VAUsageFirst, ratetables.VAUsageSubsequent:
	default:
		errs.add("va_usage", "must be %s or %s", ratetables.VAUsageFirst, ratetables.VAUsageSubsequent)
	}
}
