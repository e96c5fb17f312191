package mortgage

import (
	"strings"

	"github.com/iwvelando/mortgage-calculator/pkg/format"
	"github.com/iwvelando/mortgage-calculator/pkg/ratetables"
)

// Placeholder names a value a warning template can reference.
type Placeholder int

// Supported placeholders. Amounts render as currency, percentages without a
// percent sign so templates can write "{max_percentage}%".
const (
	MaxAmount Placeholder = iota + 1
	ExcessAmount
	ShortfallAmount
	LoanAmount
	LimitAmount
	CurrentPercentage
	MaxPercentage
	MinPercentage
)

var placeholderTokens = map[Placeholder]string{
	MaxAmount:         "{max_amount}",
	ExcessAmount:      "{excess_amount}",
	ShortfallAmount:   "{shortfall_amount}",
	LoanAmount:        "{loan_amount}",
	LimitAmount:       "{limit_amount}",
	CurrentPercentage: "{current_percentage}",
	MaxPercentage:     "{max_percentage}",
	MinPercentage:     "{min_percentage}",
}

const loanTypeToken = "{loan_type}"

// Arg binds a value to a placeholder.
type Arg struct {
	Placeholder Placeholder
	Value       float64
}

func (a Arg) render() string {
	switch a.Placeholder {
	case CurrentPercentage, MaxPercentage, MinPercentage:
		return format.Percent(a.Value)
	}
	return format.Currency(a.Value)
}

// FormatMessage fills a warning template. {loan_type} is always available.
// Placeholders with no argument are left as written.
func FormatMessage(template string, lt ratetables.LoanType, args ...Arg) string {
	pairs := []string{loanTypeToken, lt.Label()}
	for _, a := range args {
		token, ok := placeholderTokens[a.Placeholder]
		if !ok {
			continue
		}
		pairs = append(pairs, token, a.render())
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
