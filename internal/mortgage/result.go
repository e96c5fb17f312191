package mortgage

import "github.com/iwvelando/mortgage-calculator/pkg/loans"

// WarningKind identifies a non-fatal limit warning.
type WarningKind string

// Warning kinds.
const (
	WarnSellerCreditExceeded WarningKind = "seller_credit_exceeded"
	WarnLenderCreditExceeded WarningKind = "lender_credit_exceeded"
	WarnMinDownPayment       WarningKind = "min_down_payment"
	WarnLoanAmountAboveLimit WarningKind = "loan_amount_above_limit"
	WarnLoanAmountBelowLimit WarningKind = "loan_amount_below_limit"
	WarnCreditToBorrower     WarningKind = "credit_to_borrower"
	WarnMaxLTVExceeded       WarningKind = "max_ltv_exceeded"
	WarnInsuranceTierCapped  WarningKind = "insurance_tier_capped"
)

// Warning is a limit violation the calculation worked around. Amount is the
// dollar excess or shortfall the message describes.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
	Amount  float64     `json:"amount"`
}

// MonthlyBreakdown is the monthly housing payment.
type MonthlyBreakdown struct {
	PrincipalInterest     float64 `json:"principal_interest"`
	PropertyTax           float64 `json:"property_tax"`
	HomeInsurance         float64 `json:"home_insurance"`
	MortgageInsurance     float64 `json:"mortgage_insurance"`
	HOAFee                float64 `json:"hoa_fee"`
	Total                 float64 `json:"total"`
	MortgageInsuranceRate float64 `json:"mortgage_insurance_rate"`
}

// UpfrontPremium is the one-time FHA, VA or USDA charge.
type UpfrontPremium struct {
	Name     string  `json:"name"`
	Percent  float64 `json:"percent"`
	Amount   float64 `json:"amount"`
	Financed bool    `json:"financed"`
}

// LoanDetails describes the purchase loan.
type LoanDetails struct {
	LoanType              string          `json:"loan_type"`
	PurchasePrice         float64         `json:"purchase_price"`
	BaseLoanAmount        float64         `json:"base_loan_amount"`
	LoanAmount            float64         `json:"loan_amount"`
	DownPayment           float64         `json:"down_payment"`
	DownPaymentPercentage float64         `json:"down_payment_percentage"`
	InterestRate          float64         `json:"interest_rate"`
	LoanTerm              int             `json:"loan_term"`
	LTV                   float64         `json:"ltv"`
	CreditScoreBand       string          `json:"credit_score_band,omitempty"`
	UpfrontPremium        *UpfrontPremium `json:"upfront_premium,omitempty"`
	FirstPaymentDate      string          `json:"first_payment_date,omitempty"`
}

// LineItem is one itemized cost. Months or Days carry the duration a
// prepaid item covers.
type LineItem struct {
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	Months   int     `json:"months,omitempty"`
	Days     int     `json:"days,omitempty"`
	Financed bool    `json:"financed,omitempty"`
}

// Itemized is a list of line items with their total.
type Itemized struct {
	Items []LineItem `json:"items"`
	Total float64    `json:"total"`
}

// Credits are the contributions applied at closing, after limits.
type Credits struct {
	SellerCredit          float64 `json:"seller_credit"`
	LenderCredit          float64 `json:"lender_credit"`
	Total                 float64 `json:"total"`
	RequestedSellerCredit float64 `json:"requested_seller_credit"`
	RequestedLenderCredit float64 `json:"requested_lender_credit"`
}

// Amortization summarizes the full schedule of the new loan.
type Amortization struct {
	loans.Summary
	// MortgageInsuranceCancelMonth is the first payment without insurance,
	// or zero when insurance is never charged or never cancels.
	MortgageInsuranceCancelMonth int `json:"mortgage_insurance_cancel_month,omitempty"`
}

// Result is the response for a purchase calculation.
type Result struct {
	MonthlyBreakdown MonthlyBreakdown `json:"monthly_breakdown"`
	LoanDetails      LoanDetails      `json:"loan_details"`
	ClosingCosts     Itemized         `json:"closing_costs"`
	PrepaidItems     Itemized         `json:"prepaid_items"`
	Credits          Credits          `json:"credits"`
	TotalCashNeeded  float64          `json:"total_cash_needed"`
	CreditToBorrower float64          `json:"credit_to_borrower"`
	Amortization     Amortization     `json:"amortization"`
	Warnings         []Warning        `json:"warnings"`
	TablesVersion    string           `json:"tables_version"`
}

// RefinanceDetails describes the new loan of a refinance.
type RefinanceDetails struct {
	LoanType         string          `json:"loan_type"`
	Purpose          string          `json:"refinance_purpose"`
	CurrentBalance   float64         `json:"current_balance"`
	PropertyValue    float64         `json:"property_value"`
	CashOut          float64         `json:"cash_out"`
	CashIn           float64         `json:"cash_in"`
	BaseLoanAmount   float64         `json:"base_loan_amount"`
	LoanAmount       float64         `json:"loan_amount"`
	InterestRate     float64         `json:"interest_rate"`
	LoanTerm         int             `json:"loan_term"`
	LTV              float64         `json:"ltv"`
	CreditScoreBand  string          `json:"credit_score_band,omitempty"`
	UpfrontPremium   *UpfrontPremium `json:"upfront_premium,omitempty"`
	FirstPaymentDate string          `json:"first_payment_date,omitempty"`
}

// Financing reports what a zero cash to close mode rolled into the loan.
type Financing struct {
	Mode                 string  `json:"mode"`
	FinancedClosingCosts float64 `json:"financed_closing_costs"`
	FinancedPrepaids     float64 `json:"financed_prepaids"`
	LenderCreditApplied  float64 `json:"lender_credit_applied"`
	OutOfPocket          float64 `json:"out_of_pocket"`
	Iterations           int     `json:"iterations"`
}

// Comparison sets the current loan against the new one. BreakEvenMonths is
// nil when the refinance never pays for itself.
type Comparison struct {
	CurrentPayment      float64 `json:"current_payment"`
	NewPayment          float64 `json:"new_payment"`
	MonthlySavings      float64 `json:"monthly_savings"`
	BaseSavings         float64 `json:"base_savings"`
	ExtraSavings        float64 `json:"extra_savings"`
	TotalMonthlySavings float64 `json:"total_monthly_savings"`
	BreakEvenCost       float64 `json:"break_even_cost"`
	BreakEvenMonths     *int    `json:"break_even_months"`
	BreakEven           string  `json:"break_even"`
}

// LTVGuidance is the smallest appraisal that reaches TargetLTV.
type LTVGuidance struct {
	TargetLTV         float64 `json:"target_ltv"`
	MinAppraisedValue float64 `json:"min_appraised_value"`
	MeetsTarget       bool    `json:"meets_target"`
	PurposeMaximum    bool    `json:"purpose_maximum,omitempty"`
}

// RefinanceResult is the response for a refinance calculation.
type RefinanceResult struct {
	MonthlyBreakdown MonthlyBreakdown `json:"monthly_breakdown"`
	LoanDetails      RefinanceDetails `json:"loan_details"`
	ClosingCosts     Itemized         `json:"closing_costs"`
	PrepaidItems     Itemized         `json:"prepaid_items"`
	Credits          Credits          `json:"credits"`
	Financing        Financing        `json:"financing"`
	Comparison       Comparison       `json:"comparison"`
	LTVGuidance      []LTVGuidance    `json:"ltv_guidance"`
	TotalCashNeeded  float64          `json:"total_cash_needed"`
	CashToBorrower   float64          `json:"cash_to_borrower"`
	Amortization     Amortization     `json:"amortization"`
	Warnings         []Warning        `json:"warnings"`
	TablesVersion    string           `json:"tables_version"`
}
