package mortgage

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"github.com/iwvelando/mortgage-calculator/pkg/ratetables"
	"github.com/spf13/cast"
)

// Zero cash to close modes for refinances.
const (
	ZeroCashNone                   = "none"
	ZeroCashClosingCosts           = "closing_costs"
	ZeroCashClosingCostsAndPrepaid = "closing_costs_and_prepaids"
)

// VAOptions carries the VA specific request fields.
type VAOptions struct {
	ServiceType      string `json:"va_service_type,omitempty"`
	Usage            string `json:"va_usage,omitempty"`
	DisabilityExempt bool   `json:"va_disability_exempt,omitempty"`
}

// Escrow carries the recurring housing costs that are not part of the loan.
type Escrow struct {
	// AnnualTaxRate and AnnualInsuranceRate are yearly percentages of the
	// property value.
	AnnualTaxRate       float64 `json:"annual_tax_rate"`
	AnnualInsuranceRate float64 `json:"annual_insurance_rate"`
	MonthlyHOAFee       float64 `json:"monthly_hoa_fee"`
}

// PurchaseInput is a validated-shape purchase request. Bounds are checked
// against the rate tables by the Calculator.
type PurchaseInput struct {
	PurchasePrice      float64
	DownPaymentPercent float64
	// DownPaymentAmount is used instead of DownPaymentPercent when
	// DownPaymentIsAmount is set.
	DownPaymentAmount   float64
	DownPaymentIsAmount bool
	AnnualRate          float64
	LoanTermYears       int
	LoanType            ratetables.LoanType
	CreditScore         int
	CreditBand          string
	DiscountPoints      float64
	SellerCredit        float64
	LenderCredit        float64
	ClosingDate         *time.Time
	Escrow              Escrow
	VA                  VAOptions
}

// RefinanceInput is a refinance request.
type RefinanceInput struct {
	CurrentBalance float64
	PropertyValue  float64
	Purpose        string
	CashOut        float64
	CashIn         float64
	AnnualRate     float64
	LoanTermYears  int
	LoanType       ratetables.LoanType
	CreditScore    int
	CreditBand     string
	DiscountPoints float64
	LenderCredit   float64
	ClosingDate    *time.Time
	Escrow         Escrow
	VA             VAOptions
	ZeroCashMode   string

	// CurrentPayment is the monthly principal, interest and mortgage
	// insurance paid on the existing loan. When zero it is derived from
	// OriginalRate over RemainingTermMonths.
	CurrentPayment      float64
	OriginalRate        float64
	RemainingTermMonths int
	// CurrentExtraPayment is voluntary principal paid on top of the
	// current payment.
	CurrentExtraPayment float64
}

// request wraps a flat request map with coercion helpers that record
// failures instead of returning them.
type request struct {
	values map[string]interface{}
	errs   fieldErrors
}

func (r *request) lookup(keys ...string) (interface{}, string, bool) {
	for _, k := range keys {
		v, ok := r.values[k]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v, k, true
	}
	return nil, keys[0], false
}

func (r *request) has(keys ...string) bool {
	_, _, ok := r.lookup(keys...)
	return ok
}

// number accepts numbers and strings such as "$400,000" or "6.5%".
func (r *request) number(required bool, keys ...string) float64 {
	v, key, ok := r.lookup(keys...)
	if !ok {
		if required {
			r.errs.add(key, "is required")
		}
		return 0
	}
	f, err := toNumber(v)
	if err != nil {
		r.errs.add(key, "must be a number, got %q", cast.ToString(v))
		return 0
	}
	return f
}

func (r *request) integer(required bool, keys ...string) int {
	v, key, ok := r.lookup(keys...)
	if !ok {
		if required {
			r.errs.add(key, "is required")
		}
		return 0
	}
	f, err := toNumber(v)
	if err != nil || f != math.Trunc(f) {
		r.errs.add(key, "must be a whole number, got %q", cast.ToString(v))
		return 0
	}
	return int(f)
}

func (r *request) text(keys ...string) string {
	v, _, ok := r.lookup(keys...)
	if !ok {
		return ""
	}
	return strings.TrimSpace(cast.ToString(v))
}

func (r *request) boolean(keys ...string) bool {
	v, key, ok := r.lookup(keys...)
	if !ok {
		return false
	}
	if s, isString := v.(string); isString {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "on", "yes", "y":
			return true
		case "off", "no", "n":
			return false
		}
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		r.errs.add(key, "must be true or false, got %q", cast.ToString(v))
	}
	return b
}

func (r *request) date(keys ...string) *time.Time {
	v, key, ok := r.lookup(keys...)
	if !ok {
		return nil
	}
	if t, isTime := v.(time.Time); isTime {
		return &t
	}
	t, err := time.Parse(constants.DateLayout, strings.TrimSpace(cast.ToString(v)))
	if err != nil {
		r.errs.add(key, "must be a date formatted as %s", constants.DateLayout)
		return nil
	}
	return &t
}

var numberNoise = strings.NewReplacer("$", "", ",", "", "%", "", " ", "")

func toNumber(v interface{}) (float64, error) {
	if s, ok := v.(string); ok {
		v = numberNoise.Replace(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	return f, nil
}

// loanType parses loan_type. An unknown name is a configuration error: the
// tables have no entry for it.
func (r *request) loanType() (ratetables.LoanType, error) {
	name := r.text("loan_type")
	if name == "" {
		r.errs.add("loan_type", "is required")
		return 0, nil
	}
	lt, err := ratetables.ParseLoanType(name)
	if err != nil {
		return 0, &ConfigurationError{LoanType: name, Message: "no rate table entry for loan type"}
	}
	return lt, nil
}

func (r *request) escrow() Escrow {
	return Escrow{
		AnnualTaxRate:       r.number(false, "annual_tax_rate"),
		AnnualInsuranceRate: r.number(false, "annual_insurance_rate"),
		MonthlyHOAFee:       r.number(false, "monthly_hoa_fee", "hoa_fee"),
	}
}

func (r *request) va() VAOptions {
	return VAOptions{
		ServiceType:      strings.ToLower(r.text("va_service_type")),
		Usage:            strings.ToLower(r.text("va_usage")),
		DisabilityExempt: r.boolean("va_disability_exempt"),
	}
}

// ParsePurchaseRequest coerces a flat purchase request. Every field problem
// is reported; use ValidationErrors to list them.
func ParsePurchaseRequest(values map[string]interface{}) (PurchaseInput, error) {
	r := &request{values: values}
	lt, err := r.loanType()
	if err != nil {
		return PurchaseInput{}, err
	}

	in := PurchaseInput{
		PurchasePrice:  r.number(true, "purchase_price"),
		AnnualRate:     r.number(true, "annual_rate", "interest_rate"),
		LoanTermYears:  r.integer(true, "loan_term", "loan_term_years"),
		LoanType:       lt,
		CreditScore:    r.integer(false, "credit_score"),
		CreditBand:     r.text("credit_score_band", "credit_band"),
		DiscountPoints: r.number(false, "discount_points"),
		SellerCredit:   r.number(false, "seller_credit"),
		LenderCredit:   r.number(false, "lender_credit"),
		ClosingDate:    r.date("closing_date"),
		Escrow:         r.escrow(),
		VA:             r.va(),
	}

	pctKeys := []string{"down_payment_percentage", "down_payment_percent"}
	amountKeys := []string{"down_payment", "down_payment_amount"}
	switch {
	case r.has(pctKeys...):
		in.DownPaymentPercent = r.number(true, pctKeys...)
	case r.has(amountKeys...):
		in.DownPaymentAmount = r.number(true, amountKeys...)
		in.DownPaymentIsAmount = true
	default:
		r.errs.add(pctKeys[0], "is required unless down_payment is given")
	}

	return in, r.errs.result()
}

// ParseRefinanceRequest coerces a flat refinance request.
func ParseRefinanceRequest(values map[string]interface{}) (RefinanceInput, error) {
	r := &request{values: values}
	lt, err := r.loanType()
	if err != nil {
		return RefinanceInput{}, err
	}

	in := RefinanceInput{
		CurrentBalance:      r.number(true, "current_balance"),
		PropertyValue:       r.number(true, "property_value", "appraised_value", "home_value"),
		Purpose:             strings.ToLower(r.text("refinance_purpose", "purpose")),
		CashOut:             r.number(false, "cash_out_amount", "cash_out"),
		CashIn:              r.number(false, "cash_in_amount", "cash_in"),
		AnnualRate:          r.number(true, "annual_rate", "new_rate", "interest_rate"),
		LoanTermYears:       r.integer(true, "loan_term", "new_loan_term", "loan_term_years"),
		LoanType:            lt,
		CreditScore:         r.integer(false, "credit_score"),
		CreditBand:          r.text("credit_score_band", "credit_band"),
		DiscountPoints:      r.number(false, "discount_points"),
		LenderCredit:        r.number(false, "lender_credit"),
		ClosingDate:         r.date("closing_date"),
		Escrow:              r.escrow(),
		VA:                  r.va(),
		ZeroCashMode:        strings.ToLower(r.text("zero_cash_mode")),
		CurrentPayment:      r.number(false, "current_payment", "original_payment"),
		OriginalRate:        r.number(false, "original_rate", "current_rate"),
		RemainingTermMonths: r.integer(false, "remaining_term_months"),
		CurrentExtraPayment: r.number(false, "current_extra_payment", "extra_payment"),
	}

	if in.ZeroCashMode == "" && r.boolean("zero_cash_to_close") {
		in.ZeroCashMode = ZeroCashClosingCosts
		if r.boolean("finance_prepaids") {
			in.ZeroCashMode = ZeroCashClosingCostsAndPrepaid
		}
	}
	if in.Purpose == "" {
		in.Purpose = ratetables.PurposeRateTerm
		if in.CashOut > 0 {
			in.Purpose = ratetables.PurposeCashOut
		}
	}

	return in, r.errs.result()
}
