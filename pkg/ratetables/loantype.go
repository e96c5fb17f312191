package ratetables

import (
	"fmt"
	"strings"
)

// LoanType is the closed set of loan programs the calculator prices.
type LoanType int

// Supported loan types. Adding one requires a name below, an entry in the
// calculator's policy table and a section in the rate tables.
const (
	Conventional LoanType = iota + 1
	FHA
	VA
	USDA
	Jumbo
)

var loanTypeNames = map[LoanType]string{
	Conventional: "conventional",
	FHA:          "fha",
	VA:           "va",
	USDA:         "usda",
	Jumbo:        "jumbo",
}

// AllLoanTypes lists every loan type in declaration order.
func AllLoanTypes() []LoanType {
	return []LoanType{Conventional, FHA, VA, USDA, Jumbo}
}

// ParseLoanType accepts the canonical lowercase name in any case.
func ParseLoanType(s string) (LoanType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for t, n := range loanTypeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown loan type %q", s)
}

func (t LoanType) String() string {
	if name, ok := loanTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("LoanType(%d)", int(t))
}

// Label is the display name used in messages.
func (t LoanType) Label() string {
	switch t {
	case Conventional, Jumbo:
		name := t.String()
		return strings.ToUpper(name[:1]) + name[1:]
	default:
		return strings.ToUpper(t.String())
	}
}

// Valid reports whether t is one of the declared loan types.
func (t LoanType) Valid() bool {
	_, ok := loanTypeNames[t]
	return ok
}

// MarshalText implements encoding.TextMarshaler.
func (t LoanType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid loan type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *LoanType) UnmarshalText(b []byte) error {
	parsed, err := ParseLoanType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
