package ratetables

import (
	"strings"

	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"github.com/iwvelando/mortgage-calculator/pkg/mathutil"
)

// Entry returns the compiled entry for a loan type.
func (t *Tables) Entry(lt LoanType) (*LoanTypeTable, bool) {
	e, ok := t.byType[lt]
	return e, ok
}

// LoanTypesConfigured lists the loan types present in the tables, in
// declaration order.
func (t *Tables) LoanTypesConfigured() []LoanType {
	var out []LoanType
	for _, lt := range AllLoanTypes() {
		if _, ok := t.byType[lt]; ok {
			out = append(out, lt)
		}
	}
	return out
}

// BandForScore returns the band containing score.
func (t *Tables) BandForScore(score int) (CreditScoreBand, bool) {
	for _, b := range t.CreditScoreBands {
		if score >= b.Min && score <= b.Max {
			return b, true
		}
	}
	return CreditScoreBand{}, false
}

// BandByName looks a band up by name, ignoring case.
func (t *Tables) BandByName(name string) (CreditScoreBand, bool) {
	for _, b := range t.CreditScoreBands {
		if strings.EqualFold(b.Name, name) {
			return b, true
		}
	}
	return CreditScoreBand{}, false
}

// DefaultBand is the band used when a request carries no credit score.
func (t *Tables) DefaultBand() (CreditScoreBand, bool) {
	if t.DefaultCreditScoreBand == "" {
		return CreditScoreBand{}, false
	}
	return t.BandByName(t.DefaultCreditScoreBand)
}

// LTVRounding returns the direction and precision LTV is rounded to.
func (t *Tables) LTVRounding() (mathutil.RoundingMode, int32) {
	mode := t.ltvMode
	if mode == "" {
		mode = mathutil.RoundUp
	}
	places := t.Rounding.LTVPlaces
	if places == 0 {
		places = defaultLTVPlaces
	}
	return mode, places
}

// AppraisalRounding returns the direction minimum appraised values are
// rounded to whole dollars in.
func (t *Tables) AppraisalRounding() mathutil.RoundingMode {
	if t.apprMode == "" {
		return mathutil.RoundUp
	}
	return t.apprMode
}

// Fees returns the closing cost items applying to a loan type and
// transaction, in configured order.
func (t *Tables) Fees(lt LoanType, transaction string) []FeeItem {
	var out []FeeItem
	for _, f := range t.ClosingCosts {
		if !matchesAny(f.LoanTypes, lt.String()) || !matchesAny(f.Transactions, transaction) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Message returns the warning template for kind, with per-type overrides
// applied.
func (t *Tables) Message(lt LoanType, kind MessageKind) string {
	if e, ok := t.byType[lt]; ok {
		if msg := e.Messages.Get(kind); msg != "" {
			return msg
		}
	}
	if msg := t.Messages.Get(kind); msg != "" {
		return msg
	}
	return DefaultMessages().Get(kind)
}

func matchesAny(list []string, v string) bool {
	if len(list) == 0 {
		return true
	}
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

// insuranceCurve returns the tiers for a credit band. A band without its
// own curve uses the default curve.
func (e *LoanTypeTable) insuranceCurve(band string) []LTVRate {
	for name, bandTiers := range e.MortgageInsurance.Bands {
		if strings.EqualFold(name, band) {
			return bandTiers
		}
	}
	return e.MortgageInsurance.Default
}

// MortgageInsuranceRate returns the tier applying to ltv for a credit band.
// ok is false when no tier covers ltv.
func (e *LoanTypeTable) MortgageInsuranceRate(band string, ltv float64) (LTVRate, bool) {
	for _, tier := range e.insuranceCurve(band) {
		if ltv <= tier.MaxLTV+constants.PercentEpsilon {
			return tier, true
		}
	}
	return LTVRate{}, false
}

// TopMortgageInsuranceRate returns the highest LTV tier of the band's curve.
// ok is false when the curve is empty.
func (e *LoanTypeTable) TopMortgageInsuranceRate(band string) (LTVRate, bool) {
	tiers := e.insuranceCurve(band)
	if len(tiers) == 0 {
		return LTVRate{}, false
	}
	top := tiers[0]
	for _, tier := range tiers[1:] {
		if tier.MaxLTV > top.MaxLTV {
			top = tier
		}
	}
	return top, true
}

// HasMortgageInsurance reports whether any recurring insurance curve is
// configured.
func (e *LoanTypeTable) HasMortgageInsurance() bool {
	return len(e.MortgageInsurance.Default) > 0 || len(e.MortgageInsurance.Bands) > 0
}

// MortgageInsuranceMonths returns how many months recurring insurance is
// charged for a loan with the given LTV. Zero means for the life of the loan
// (or until cancellation by balance).
func (e *LoanTypeTable) MortgageInsuranceMonths(ltv float64) int {
	for _, d := range e.MortgageInsurance.Duration {
		if ltv <= d.MaxLTV+constants.PercentEpsilon {
			return d.Years * constants.MonthsPerYear
		}
	}
	return 0
}

// VAFundingFeePercent returns the fee for the highest tier whose minimum
// down payment is met.
func (e *LoanTypeTable) VAFundingFeePercent(serviceType, usage string, downPaymentPercent float64) (float64, bool) {
	for _, row := range e.VAFundingFee {
		if !strings.EqualFold(row.ServiceType, serviceType) || !strings.EqualFold(row.Usage, usage) {
			continue
		}
		fee, found := 0.0, false
		for _, tier := range row.Tiers {
			if downPaymentPercent+constants.PercentEpsilon >= tier.MinDownPaymentPercent {
				fee, found = tier.FeePercent, true
			}
		}
		return fee, found
	}
	return 0, false
}

// MaxPercentFor returns the contribution cap for a down payment.
func (c ContributionLimit) MaxPercentFor(downPaymentPercent float64) float64 {
	pct := c.MaxPercent
	for _, tier := range c.Tiers {
		if downPaymentPercent+constants.PercentEpsilon >= tier.MinDownPaymentPercent {
			pct = tier.MaxPercent
		}
	}
	return pct
}

// RefinanceMaxLTV returns the maximum LTV for a refinance purpose. ok is
// false when the loan type does not offer that purpose.
func (e *LoanTypeTable) RefinanceMaxLTV(purpose string) (float64, bool) {
	v, ok := e.Refinance.MaxLTV[purpose]
	return v, ok
}

// RefinanceUpfrontPercent returns the upfront premium charged on a
// refinance. Purposes without an override fall back to the purchase premium.
func (e *LoanTypeTable) RefinanceUpfrontPercent(purpose string) float64 {
	if v, ok := e.Refinance.UpfrontPremiumPercent[purpose]; ok {
		return v
	}
	return e.UpfrontPremium.Percent
}
