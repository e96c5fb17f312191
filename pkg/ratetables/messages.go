package ratetables

// MessageKind names a warning template.
type MessageKind int

// Warning templates carried by the tables.
const (
	MsgSellerCreditExceeded MessageKind = iota
	MsgLenderCreditExceeded
	MsgMinDownPayment
	MsgLoanAmountAboveLimit
	MsgLoanAmountBelowLimit
	MsgCreditToBorrower
	MsgMaxLTVExceeded
	MsgInsuranceTierCapped
)

// Messages holds the warning templates. Placeholders are written in braces,
// e.g. {max_amount}; see the mortgage package for the supported names.
type Messages struct {
	SellerCreditExceeded string `mapstructure:"sellerCreditExceeded" json:"sellerCreditExceeded,omitempty" yaml:"sellerCreditExceeded,omitempty"`
	LenderCreditExceeded string `mapstructure:"lenderCreditExceeded" json:"lenderCreditExceeded,omitempty" yaml:"lenderCreditExceeded,omitempty"`
	MinDownPayment       string `mapstructure:"minDownPayment" json:"minDownPayment,omitempty" yaml:"minDownPayment,omitempty"`
	LoanAmountAboveLimit string `mapstructure:"loanAmountAboveLimit" json:"loanAmountAboveLimit,omitempty" yaml:"loanAmountAboveLimit,omitempty"`
	LoanAmountBelowLimit string `mapstructure:"loanAmountBelowLimit" json:"loanAmountBelowLimit,omitempty" yaml:"loanAmountBelowLimit,omitempty"`
	CreditToBorrower     string `mapstructure:"creditToBorrower" json:"creditToBorrower,omitempty" yaml:"creditToBorrower,omitempty"`
	MaxLTVExceeded       string `mapstructure:"maxLtvExceeded" json:"maxLtvExceeded,omitempty" yaml:"maxLtvExceeded,omitempty"`
	InsuranceTierCapped  string `mapstructure:"insuranceTierCapped" json:"insuranceTierCapped,omitempty" yaml:"insuranceTierCapped,omitempty"`
}

// DefaultMessages are used for any template the tables leave empty.
func DefaultMessages() Messages {
	return Messages{
		SellerCreditExceeded: "Seller credit exceeds the {max_percentage}% limit for {loan_type} loans. " +
			"The maximum allowed is {max_amount}; the excess of {excess_amount} was not applied.",
		LenderCreditExceeded: "Lender credit exceeds the {max_percentage}% limit for {loan_type} loans. " +
			"The maximum allowed is {max_amount}; the excess of {excess_amount} was not applied.",
		MinDownPayment: "Down payment of {current_percentage}% is below the {min_percentage}% minimum " +
			"for {loan_type} loans; {shortfall_amount} more is required.",
		LoanAmountAboveLimit: "Loan amount of {loan_amount} exceeds the {limit_amount} limit for {loan_type} loans " +
			"by {excess_amount}.",
		LoanAmountBelowLimit: "Loan amount of {loan_amount} is below the {limit_amount} minimum for {loan_type} loans " +
			"by {shortfall_amount}.",
		CreditToBorrower: "Credits exceed the funds required at closing by {excess_amount}; " +
			"this amount is due back to the borrower.",
		MaxLTVExceeded: "LTV of {current_percentage}% exceeds the {max_percentage}% maximum for {loan_type} loans; " +
			"{shortfall_amount} more equity is needed.",
		InsuranceTierCapped: "LTV of {current_percentage}% is above the highest mortgage insurance tier for " +
			"{loan_type} loans; the {max_percentage}% tier rate was used.",
	}
}

// Get returns the template for kind.
func (m Messages) Get(kind MessageKind) string {
	switch kind {
	case MsgSellerCreditExceeded:
		return m.SellerCreditExceeded
	case MsgLenderCreditExceeded:
		return m.LenderCreditExceeded
	case MsgMinDownPayment:
		return m.MinDownPayment
	case MsgLoanAmountAboveLimit:
		return m.LoanAmountAboveLimit
	case MsgLoanAmountBelowLimit:
		return m.LoanAmountBelowLimit
	case MsgCreditToBorrower:
		return m.CreditToBorrower
	case MsgMaxLTVExceeded:
		return m.MaxLTVExceeded
	case MsgInsuranceTierCapped:
		return m.InsuranceTierCapped
	}
	return ""
}

// withFallback fills every empty template from fallback.
func (m Messages) withFallback(fallback Messages) Messages {
	pick := func(a, b string) string {
		if a != "" {
			return a
		}
		return b
	}
	return Messages{
		SellerCreditExceeded: pick(m.SellerCreditExceeded, fallback.SellerCreditExceeded),
		LenderCreditExceeded: pick(m.LenderCreditExceeded, fallback.LenderCreditExceeded),
		MinDownPayment:       pick(m.MinDownPayment, fallback.MinDownPayment),
		LoanAmountAboveLimit: pick(m.LoanAmountAboveLimit, fallback.LoanAmountAboveLimit),
		LoanAmountBelowLimit: pick(m.LoanAmountBelowLimit, fallback.LoanAmountBelowLimit),
		CreditToBorrower:     pick(m.CreditToBorrower, fallback.CreditToBorrower),
		MaxLTVExceeded:       pick(m.MaxLTVExceeded, fallback.MaxLTVExceeded),
		InsuranceTierCapped:  pick(m.InsuranceTierCapped, fallback.InsuranceTierCapped),
	}
}
