package ratetables

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iwvelando/mortgage-calculator/pkg/mathutil"
	"go.uber.org/multierr"
)

const defaultLTVPlaces = 2

// Compile validates the tables, fills defaults and builds the lookup
// indexes. Every problem found is reported, not just the first.
func (t *Tables) Compile() error {
	var errs error
	add := func(format string, args ...interface{}) {
		errs = multierr.Append(errs, fmt.Errorf(format, args...))
	}

	if strings.TrimSpace(t.Version) == "" {
		add("version is required")
	}

	errs = multierr.Append(errs, t.compileBands())

	for name, b := range map[string]interface{ Validate() error }{
		"limits.purchasePrice":  t.Limits.PurchasePrice,
		"limits.currentBalance": t.Limits.CurrentBalance,
		"limits.interestRate":   t.Limits.InterestRate,
		"limits.loanTermYears":  t.Limits.LoanTermYears,
	} {
		if err := b.Validate(); err != nil {
			add("%s: %v", name, err)
		}
	}
	if t.Limits.LoanTermYears.Min < 1 {
		add("limits.loanTermYears.min must be at least 1")
	}

	var err error
	if t.ltvMode, err = mathutil.ParseRoundingMode(t.Rounding.LTV); err != nil {
		add("rounding.ltv: %v", err)
	}
	if t.apprMode, err = mathutil.ParseRoundingMode(t.Rounding.AppraisedValue); err != nil {
		add("rounding.appraisedValue: %v", err)
	}
	if t.Rounding.LTVPlaces < 0 || t.Rounding.LTVPlaces > 6 {
		add("rounding.ltvPlaces must be between 0 and 6, got %d", t.Rounding.LTVPlaces)
	}
	if t.Rounding.LTVPlaces == 0 {
		t.Rounding.LTVPlaces = defaultLTVPlaces
	}

	t.Messages = t.Messages.withFallback(DefaultMessages())

	if len(t.LoanTypes) == 0 {
		add("at least one loan type is required")
	}
	t.byType = make(map[LoanType]*LoanTypeTable, len(t.LoanTypes))
	for name, entry := range t.LoanTypes {
		lt, err := ParseLoanType(name)
		if err != nil {
			add("loanTypes: %v", err)
			continue
		}
		compiled := entry
		if err := compiled.compile(lt, t.Messages); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("loanTypes.%s: %w", lt, err))
			continue
		}
		t.byType[lt] = &compiled
	}

	for i := range t.ClosingCosts {
		if err := t.ClosingCosts[i].compile(); err != nil {
			add("closingCosts[%d]: %v", i, err)
		}
	}

	p := t.Prepaids
	if p.TaxEscrowMonths < 0 || p.InsuranceEscrowMonths < 0 || p.PrepaidInsuranceMonths < 0 ||
		p.PerDiemDaysCap < 0 || p.DefaultPerDiemDays < 0 {
		add("prepaids: durations must not be negative")
	}
	if p.DefaultPerDiemDays > 31 {
		add("prepaids.defaultPerDiemDays must not exceed 31, got %d", p.DefaultPerDiemDays)
	}

	if errs != nil {
		return fmt.Errorf("invalid rate tables: %w", errs)
	}
	t.compiled = true
	return nil
}

// Compiled reports whether Compile succeeded on t.
func (t *Tables) Compiled() bool {
	return t.compiled
}

func (t *Tables) compileBands() error {
	var errs error
	bands := append([]CreditScoreBand(nil), t.CreditScoreBands...)
	sort.Slice(bands, func(i, j int) bool { return bands[i].Min < bands[j].Min })
	seen := make(map[string]bool, len(bands))
	for i, b := range bands {
		key := strings.ToLower(b.Name)
		if key == "" {
			errs = multierr.Append(errs, fmt.Errorf("creditScoreBands: band with range %d-%d has no name", b.Min, b.Max))
		}
		if seen[key] {
			errs = multierr.Append(errs, fmt.Errorf("creditScoreBands: duplicate band %q", b.Name))
		}
		seen[key] = true
		if b.Min > b.Max {
			errs = multierr.Append(errs, fmt.Errorf("creditScoreBands: band %q has min %d above max %d", b.Name, b.Min, b.Max))
		}
		if i > 0 && b.Min <= bands[i-1].Max {
			errs = multierr.Append(errs, fmt.Errorf("creditScoreBands: band %q overlaps %q", b.Name, bands[i-1].Name))
		}
	}
	if t.DefaultCreditScoreBand != "" && !seen[strings.ToLower(t.DefaultCreditScoreBand)] {
		errs = multierr.Append(errs, fmt.Errorf("defaultCreditScoreBand %q is not a configured band", t.DefaultCreditScoreBand))
	}
	t.CreditScoreBands = bands
	return errs
}

func (e *LoanTypeTable) compile(lt LoanType, messages Messages) error {
	var errs error
	add := func(format string, args ...interface{}) {
		errs = multierr.Append(errs, fmt.Errorf(format, args...))
	}

	if e.MinDownPaymentPercent < 0 || e.MinDownPaymentPercent >= 100 {
		add("minDownPaymentPercent must be in [0, 100), got %v", e.MinDownPaymentPercent)
	}
	switch e.MinDownPaymentPolicy {
	case "":
		e.MinDownPaymentPolicy = PolicyWarn
	case PolicyWarn, PolicyReject, PolicyClamp:
	default:
		add("unknown minDownPaymentPolicy %q", e.MinDownPaymentPolicy)
	}
	if e.MaxLTV <= 0 || e.MaxLTV > 105 {
		add("maxLtv must be in (0, 105], got %v", e.MaxLTV)
	}
	if e.MinLoanAmount < 0 || e.MaxLoanAmount < 0 {
		add("loan amount limits must not be negative")
	}
	if e.MaxLoanAmount > 0 && e.MaxLoanAmount < e.MinLoanAmount {
		add("maxLoanAmount %v is below minLoanAmount %v", e.MaxLoanAmount, e.MinLoanAmount)
	}
	if e.UpfrontPremium.Percent < 0 || e.UpfrontPremium.Percent >= 100 {
		add("upfrontPremium.percent must be in [0, 100), got %v", e.UpfrontPremium.Percent)
	}

	mi := e.MortgageInsurance
	if mi.LTVThreshold < 0 || mi.CancelLTV < 0 {
		add("mortgageInsurance thresholds must not be negative")
	}
	for band, tiers := range mi.Bands {
		if err := checkLTVRates(tiers); err != nil {
			add("mortgageInsurance.bands.%s: %v", band, err)
		}
	}
	if err := checkLTVRates(mi.Default); err != nil {
		add("mortgageInsurance.default: %v", err)
	}
	for i, d := range mi.Duration {
		if d.Years <= 0 {
			add("mortgageInsurance.duration[%d]: years must be positive", i)
		}
		if i > 0 && d.MaxLTV <= mi.Duration[i-1].MaxLTV {
			add("mortgageInsurance.duration must be sorted by ascending maxLtv")
		}
	}

	if lt == VA && len(e.VAFundingFee) == 0 {
		add("vaFundingFee matrix is required for va")
	}
	for i, row := range e.VAFundingFee {
		if row.ServiceType != VAServiceRegular && row.ServiceType != VAServiceReserves {
			add("vaFundingFee[%d]: unknown serviceType %q", i, row.ServiceType)
		}
		if row.Usage != VAUsageFirst && row.Usage != VAUsageSubsequent {
			add("vaFundingFee[%d]: unknown usage %q", i, row.Usage)
		}
		if len(row.Tiers) == 0 || row.Tiers[0].MinDownPaymentPercent != 0 {
			add("vaFundingFee[%d]: tiers must start at a 0%% down payment", i)
		}
		for j, tier := range row.Tiers {
			if tier.FeePercent < 0 {
				add("vaFundingFee[%d].tiers[%d]: feePercent must not be negative", i, j)
			}
			if j > 0 && tier.MinDownPaymentPercent <= row.Tiers[j-1].MinDownPaymentPercent {
				add("vaFundingFee[%d]: tiers must be sorted by ascending minDownPaymentPercent", i)
			}
		}
	}

	if err := e.SellerCredit.compile(BasePurchasePrice); err != nil {
		add("sellerCredit: %v", err)
	}
	if err := e.LenderCredit.compile(BaseLoanAmount); err != nil {
		add("lenderCredit: %v", err)
	}

	for purpose, ltv := range e.Refinance.MaxLTV {
		if purpose != PurposeRateTerm && purpose != PurposeCashOut {
			add("refinance.maxLtv: unknown purpose %q", purpose)
		}
		if ltv <= 0 {
			add("refinance.maxLtv.%s must be positive", purpose)
		}
	}
	for purpose, pct := range e.Refinance.UpfrontPremiumPercent {
		if purpose != PurposeRateTerm && purpose != PurposeCashOut {
			add("refinance.upfrontPremiumPercent: unknown purpose %q", purpose)
		}
		if pct < 0 {
			add("refinance.upfrontPremiumPercent.%s must not be negative", purpose)
		}
	}

	e.Messages = e.Messages.withFallback(messages)
	return errs
}

func checkLTVRates(tiers []LTVRate) error {
	for i, tier := range tiers {
		if tier.AnnualPercent < 0 {
			return fmt.Errorf("annualPercent must not be negative")
		}
		if i > 0 && tier.MaxLTV <= tiers[i-1].MaxLTV {
			return fmt.Errorf("tiers must be sorted by ascending maxLtv")
		}
	}
	return nil
}

func (c *ContributionLimit) compile(defaultBase string) error {
	switch c.Base {
	case "":
		c.Base = defaultBase
	case BasePurchasePrice, BaseLoanAmount:
	default:
		return fmt.Errorf("unknown base %q", c.Base)
	}
	if c.MaxPercent < 0 {
		return fmt.Errorf("maxPercent must not be negative")
	}
	for i, tier := range c.Tiers {
		if tier.MaxPercent < 0 {
			return fmt.Errorf("tiers[%d]: maxPercent must not be negative", i)
		}
		if i > 0 && tier.MinDownPaymentPercent <= c.Tiers[i-1].MinDownPaymentPercent {
			return fmt.Errorf("tiers must be sorted by ascending minDownPaymentPercent")
		}
	}
	return nil
}

func (f *FeeItem) compile() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("name is required")
	}
	switch f.Kind {
	case FeeFixed:
		if f.Amount < 0 {
			return fmt.Errorf("%s: amount must not be negative", f.Name)
		}
	case FeePercentage:
		if f.Percent < 0 {
			return fmt.Errorf("%s: percent must not be negative", f.Name)
		}
		switch f.Base {
		case "":
			f.Base = BaseLoanAmount
		case BaseLoanAmount, BaseBaseLoanAmount, BasePurchasePrice:
		default:
			return fmt.Errorf("%s: unknown base %q", f.Name, f.Base)
		}
	default:
		return fmt.Errorf("%s: unknown kind %q (expected fixed or percentage)", f.Name, f.Kind)
	}
	for _, name := range f.LoanTypes {
		if _, err := ParseLoanType(name); err != nil {
			return fmt.Errorf("%s: %v", f.Name, err)
		}
	}
	for _, tx := range f.Transactions {
		if tx != TransactionPurchase && tx != TransactionRefinance {
			return fmt.Errorf("%s: unknown transaction %q", f.Name, tx)
		}
	}
	return nil
}
