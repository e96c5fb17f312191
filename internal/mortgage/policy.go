package mortgage

import (
	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"github.com/iwvelando/mortgage-calculator/pkg/format"
	"github.com/iwvelando/mortgage-calculator/pkg/ratetables"
)

// premiumQuery selects an upfront premium. Purpose is empty for purchases.
type premiumQuery struct {
	loanType           ratetables.LoanType
	purpose            string
	downPaymentPercent float64
	va                 VAOptions
}

type insuranceQuery struct {
	loanType ratetables.LoanType
	band     string
	ltv      float64
}

// insuranceQuote is the recurring insurance for a loan. Months of zero
// means no fixed duration; CancelLTV of zero means no balance based
// cancellation. CappedLTV is the top tier used when the LTV is above the
// curve, zero otherwise.
type insuranceQuote struct {
	annualPercent float64
	months        int
	cancelLTV     float64
	cappedLTV     float64
}

// loanPolicy is the behavior that differs by loan type. Every declared
// LoanType must have an entry in policies.
type loanPolicy struct {
	upfront   func(e *ratetables.LoanTypeTable, q premiumQuery) (float64, error)
	insurance func(e *ratetables.LoanTypeTable, q insuranceQuery) (insuranceQuote, error)
}

var policies = map[ratetables.LoanType]loanPolicy{
	ratetables.Conventional: {upfront: tablePremium, insurance: insuranceAboveThreshold},
	ratetables.Jumbo:        {upfront: tablePremium, insurance: insuranceAboveThreshold},
	ratetables.FHA:          {upfront: tablePremium, insurance: insuranceForTerm},
	ratetables.USDA:         {upfront: tablePremium, insurance: insuranceForTerm},
	ratetables.VA:           {upfront: vaFundingFee, insurance: noInsurance},
}

func tablePremium(e *ratetables.LoanTypeTable, q premiumQuery) (float64, error) {
	if q.purpose != "" {
		return e.RefinanceUpfrontPercent(q.purpose), nil
	}
	return e.UpfrontPremium.Percent, nil
}

func vaFundingFee(e *ratetables.LoanTypeTable, q premiumQuery) (float64, error) {
	if q.va.DisabilityExempt {
		return 0, nil
	}
	if q.purpose != "" {
		if pct, ok := e.Refinance.UpfrontPremiumPercent[q.purpose]; ok {
			return pct, nil
		}
	}
	pct, ok := e.VAFundingFeePercent(q.va.ServiceType, q.va.Usage, q.downPaymentPercent)
	if !ok {
		return 0, configError(q.loanType, "", "no funding fee for service type %q and usage %q",
			q.va.ServiceType, q.va.Usage)
	}
	return pct, nil
}

// insuranceAboveThreshold charges the band and LTV tier rate only while LTV
// is above the configured threshold, and cancels by balance.
func insuranceAboveThreshold(e *ratetables.LoanTypeTable, q insuranceQuery) (insuranceQuote, error) {
	mi := e.MortgageInsurance
	if q.ltv <= mi.LTVThreshold+constants.PercentEpsilon {
		return insuranceQuote{}, nil
	}
	rate, capped, err := insuranceRate(e, q)
	if err != nil {
		return insuranceQuote{}, err
	}
	return insuranceQuote{annualPercent: rate.AnnualPercent, cancelLTV: mi.CancelLTV, cappedLTV: capped}, nil
}

// insuranceForTerm charges the program rate regardless of the current LTV
// for the configured duration, or the life of the loan.
func insuranceForTerm(e *ratetables.LoanTypeTable, q insuranceQuery) (insuranceQuote, error) {
	if !e.HasMortgageInsurance() {
		return insuranceQuote{}, nil
	}
	rate, capped, err := insuranceRate(e, q)
	if err != nil {
		return insuranceQuote{}, err
	}
	return insuranceQuote{
		annualPercent: rate.AnnualPercent,
		months:        e.MortgageInsuranceMonths(q.ltv),
		cappedLTV:     capped,
	}, nil
}

// insuranceRate finds the tier covering q.ltv. Above the top of the curve
// the highest tier applies and its MaxLTV is returned as capped.
func insuranceRate(e *ratetables.LoanTypeTable, q insuranceQuery) (ratetables.LTVRate, float64, error) {
	if rate, ok := e.MortgageInsuranceRate(q.band, q.ltv); ok {
		return rate, 0, nil
	}
	top, ok := e.TopMortgageInsuranceRate(q.band)
	if !ok {
		return ratetables.LTVRate{}, 0, configError(q.loanType, q.band,
			"no mortgage insurance rate for an LTV of %s%%", format.Percent(q.ltv))
	}
	return top, top.MaxLTV, nil
}

func noInsurance(*ratetables.LoanTypeTable, insuranceQuery) (insuranceQuote, error) {
	return insuranceQuote{}, nil
}

func policyFor(lt ratetables.LoanType) (loanPolicy, error) {
	p, ok := policies[lt]
	if !ok {
		return loanPolicy{}, configError(lt, "", "loan type is not supported")
	}
	return p, nil
}
