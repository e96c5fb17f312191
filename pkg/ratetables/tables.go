// Package ratetables defines the rate, fee and limit tables that drive every
// calculation, and the immutable snapshot store the calculator reads them from.
package ratetables

import (
	"github.com/iwvelando/mortgage-calculator/pkg/mathutil"
	"github.com/iwvelando/mortgage-calculator/pkg/validation"
)

// Contribution bases.
const (
	BasePurchasePrice  = "purchase_price"
	BaseLoanAmount     = "loan_amount"
	BaseBaseLoanAmount = "base_loan_amount"
)

// Fee kinds.
const (
	FeeFixed      = "fixed"
	FeePercentage = "percentage"
)

// Transactions a fee applies to.
const (
	TransactionPurchase  = "purchase"
	TransactionRefinance = "refinance"
)

// Minimum down payment policies.
const (
	PolicyWarn   = "warn"
	PolicyReject = "reject"
	PolicyClamp  = "clamp"
)

// Refinance purposes.
const (
	PurposeRateTerm = "rate_term"
	PurposeCashOut  = "cash_out"
)

// VA funding fee dimensions.
const (
	VAServiceRegular  = "regular"
	VAServiceReserves = "reserves"
	VAUsageFirst      = "first"
	VAUsageSubsequent = "subsequent"
)

// Tables is the full configuration document. A Tables value must be
// compiled (see Compile) before lookups are used. Store.Replace publishes a
// copy, so the caller's value stays free to change.
type Tables struct {
	Version                string                   `mapstructure:"version" json:"version" yaml:"version"`
	DefaultCreditScoreBand string                   `mapstructure:"defaultCreditScoreBand" json:"defaultCreditScoreBand" yaml:"defaultCreditScoreBand"`
	CreditScoreBands       []CreditScoreBand        `mapstructure:"creditScoreBands" json:"creditScoreBands" yaml:"creditScoreBands"`
	Limits                 Limits                   `mapstructure:"limits" json:"limits" yaml:"limits"`
	Rounding               Rounding                 `mapstructure:"rounding" json:"rounding" yaml:"rounding"`
	Messages               Messages                 `mapstructure:"messages" json:"messages" yaml:"messages"`
	LoanTypes              map[string]LoanTypeTable `mapstructure:"loanTypes" json:"loanTypes" yaml:"loanTypes"`
	ClosingCosts           []FeeItem                `mapstructure:"closingCosts" json:"closingCosts" yaml:"closingCosts"`
	Prepaids               PrepaidSchedule          `mapstructure:"prepaids" json:"prepaids" yaml:"prepaids"`

	byType   map[LoanType]*LoanTypeTable
	ltvMode  mathutil.RoundingMode
	apprMode mathutil.RoundingMode
	compiled bool
}

// CreditScoreBand is an inclusive score range with a name used as the key
// into mortgage insurance tables.
type CreditScoreBand struct {
	Name string `mapstructure:"name" json:"name" yaml:"name"`
	Min  int    `mapstructure:"min" json:"min" yaml:"min"`
	Max  int    `mapstructure:"max" json:"max" yaml:"max"`
}

// Limits bounds user input.
type Limits struct {
	PurchasePrice  validation.Bounds `mapstructure:"purchasePrice" json:"purchasePrice" yaml:"purchasePrice"`
	CurrentBalance validation.Bounds `mapstructure:"currentBalance" json:"currentBalance" yaml:"currentBalance"`
	InterestRate   validation.Bounds `mapstructure:"interestRate" json:"interestRate" yaml:"interestRate"`
	LoanTermYears  validation.Bounds `mapstructure:"loanTermYears" json:"loanTermYears" yaml:"loanTermYears"`
}

// Rounding selects the direction LTV and appraisal guidance are rounded.
type Rounding struct {
	LTV            string `mapstructure:"ltv" json:"ltv" yaml:"ltv"`
	LTVPlaces      int32  `mapstructure:"ltvPlaces" json:"ltvPlaces" yaml:"ltvPlaces"`
	AppraisedValue string `mapstructure:"appraisedValue" json:"appraisedValue" yaml:"appraisedValue"`
}

// LoanTypeTable holds everything configured for one loan type.
type LoanTypeTable struct {
	MinDownPaymentPercent float64           `mapstructure:"minDownPaymentPercent" json:"minDownPaymentPercent" yaml:"minDownPaymentPercent"`
	MinDownPaymentPolicy  string            `mapstructure:"minDownPaymentPolicy" json:"minDownPaymentPolicy" yaml:"minDownPaymentPolicy"`
	MaxLTV                float64           `mapstructure:"maxLtv" json:"maxLtv" yaml:"maxLtv"`
	MinLoanAmount         float64           `mapstructure:"minLoanAmount" json:"minLoanAmount,omitempty" yaml:"minLoanAmount,omitempty"`
	MaxLoanAmount         float64           `mapstructure:"maxLoanAmount" json:"maxLoanAmount,omitempty" yaml:"maxLoanAmount,omitempty"`
	UpfrontPremium        UpfrontPremium    `mapstructure:"upfrontPremium" json:"upfrontPremium" yaml:"upfrontPremium"`
	MortgageInsurance     MortgageInsurance `mapstructure:"mortgageInsurance" json:"mortgageInsurance" yaml:"mortgageInsurance"`
	VAFundingFee          []VAFundingFeeRow `mapstructure:"vaFundingFee" json:"vaFundingFee,omitempty" yaml:"vaFundingFee,omitempty"`
	SellerCredit          ContributionLimit `mapstructure:"sellerCredit" json:"sellerCredit" yaml:"sellerCredit"`
	LenderCredit          ContributionLimit `mapstructure:"lenderCredit" json:"lenderCredit" yaml:"lenderCredit"`
	Refinance             RefinanceRules    `mapstructure:"refinance" json:"refinance" yaml:"refinance"`
	Messages              Messages          `mapstructure:"messages" json:"messages,omitempty" yaml:"messages,omitempty"`
}

// UpfrontPremium is the one-time insurance or guarantee charge (FHA UFMIP,
// VA funding fee, USDA guarantee fee).
type UpfrontPremium struct {
	Name     string  `mapstructure:"name" json:"name" yaml:"name"`
	Percent  float64 `mapstructure:"percent" json:"percent" yaml:"percent"`
	Financed bool    `mapstructure:"financed" json:"financed" yaml:"financed"`
}

// MortgageInsurance configures recurring insurance. When LTVThreshold is
// positive insurance only applies above it.
type MortgageInsurance struct {
	LTVThreshold float64              `mapstructure:"ltvThreshold" json:"ltvThreshold" yaml:"ltvThreshold"`
	CancelLTV    float64              `mapstructure:"cancelLtv" json:"cancelLtv" yaml:"cancelLtv"`
	Bands        map[string][]LTVRate `mapstructure:"bands" json:"bands,omitempty" yaml:"bands,omitempty"`
	Default      []LTVRate            `mapstructure:"default" json:"default,omitempty" yaml:"default,omitempty"`
	Duration     []DurationTier       `mapstructure:"duration" json:"duration,omitempty" yaml:"duration,omitempty"`
}

// LTVRate applies AnnualPercent to loans with LTV at or below MaxLTV.
type LTVRate struct {
	MaxLTV        float64 `mapstructure:"maxLtv" json:"maxLtv" yaml:"maxLtv"`
	AnnualPercent float64 `mapstructure:"annualPercent" json:"annualPercent" yaml:"annualPercent"`
}

// DurationTier limits insurance to Years when LTV is at or below MaxLTV.
type DurationTier struct {
	MaxLTV float64 `mapstructure:"maxLtv" json:"maxLtv" yaml:"maxLtv"`
	Years  int     `mapstructure:"years" json:"years" yaml:"years"`
}

// VAFundingFeeRow is one (service type, usage) row of the funding fee matrix.
type VAFundingFeeRow struct {
	ServiceType string    `mapstructure:"serviceType" json:"serviceType" yaml:"serviceType"`
	Usage       string    `mapstructure:"usage" json:"usage" yaml:"usage"`
	Tiers       []FeeTier `mapstructure:"tiers" json:"tiers" yaml:"tiers"`
}

// FeeTier applies FeePercent when the down payment is at least
// MinDownPaymentPercent.
type FeeTier struct {
	MinDownPaymentPercent float64 `mapstructure:"minDownPaymentPercent" json:"minDownPaymentPercent" yaml:"minDownPaymentPercent"`
	FeePercent            float64 `mapstructure:"feePercent" json:"feePercent" yaml:"feePercent"`
}

// ContributionLimit caps seller or lender contributions at MaxPercent of Base.
type ContributionLimit struct {
	Base       string             `mapstructure:"base" json:"base" yaml:"base"`
	MaxPercent float64            `mapstructure:"maxPercent" json:"maxPercent" yaml:"maxPercent"`
	Tiers      []ContributionTier `mapstructure:"tiers" json:"tiers,omitempty" yaml:"tiers,omitempty"`
}

// ContributionTier raises the cap to MaxPercent once the down payment
// reaches MinDownPaymentPercent.
type ContributionTier struct {
	MinDownPaymentPercent float64 `mapstructure:"minDownPaymentPercent" json:"minDownPaymentPercent" yaml:"minDownPaymentPercent"`
	MaxPercent            float64 `mapstructure:"maxPercent" json:"maxPercent" yaml:"maxPercent"`
}

// RefinanceRules are keyed by refinance purpose. A purpose missing from
// MaxLTV is not offered for the loan type.
type RefinanceRules struct {
	MaxLTV                map[string]float64 `mapstructure:"maxLtv" json:"maxLtv" yaml:"maxLtv"`
	UpfrontPremiumPercent map[string]float64 `mapstructure:"upfrontPremiumPercent" json:"upfrontPremiumPercent,omitempty" yaml:"upfrontPremiumPercent,omitempty"`
}

// FeeItem is one line of the closing cost schedule.
type FeeItem struct {
	Name         string   `mapstructure:"name" json:"name" yaml:"name"`
	Kind         string   `mapstructure:"kind" json:"kind" yaml:"kind"`
	Amount       float64  `mapstructure:"amount" json:"amount,omitempty" yaml:"amount,omitempty"`
	Percent      float64  `mapstructure:"percent" json:"percent,omitempty" yaml:"percent,omitempty"`
	Base         string   `mapstructure:"base" json:"base,omitempty" yaml:"base,omitempty"`
	LoanTypes    []string `mapstructure:"loanTypes" json:"loanTypes,omitempty" yaml:"loanTypes,omitempty"`
	Transactions []string `mapstructure:"transactions" json:"transactions,omitempty" yaml:"transactions,omitempty"`
}

// PrepaidSchedule holds the durations used for prepaid items and escrow.
type PrepaidSchedule struct {
	TaxEscrowMonths        int `mapstructure:"taxEscrowMonths" json:"taxEscrowMonths" yaml:"taxEscrowMonths"`
	InsuranceEscrowMonths  int `mapstructure:"insuranceEscrowMonths" json:"insuranceEscrowMonths" yaml:"insuranceEscrowMonths"`
	PrepaidInsuranceMonths int `mapstructure:"prepaidInsuranceMonths" json:"prepaidInsuranceMonths" yaml:"prepaidInsuranceMonths"`
	PerDiemDaysCap         int `mapstructure:"perDiemDaysCap" json:"perDiemDaysCap" yaml:"perDiemDaysCap"`
	DefaultPerDiemDays     int `mapstructure:"defaultPerDiemDays" json:"defaultPerDiemDays" yaml:"defaultPerDiemDays"`
}
