package mortgage

import (
	"errors"
	"fmt"

	"github.com/iwvelando/mortgage-calculator/pkg/ratetables"
	"go.uber.org/multierr"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrConfiguration matches every *ConfigurationError.
	ErrConfiguration = errors.New("configuration error")
)

// ValidationError reports one input that is missing or out of bounds.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ConfigurationError reports a request the rate tables cannot serve, such as
// a loan type or credit band with no entry.
type ConfigurationError struct {
	LoanType   string `json:"loan_type,omitempty"`
	CreditBand string `json:"credit_band,omitempty"`
	Message    string `json:"message"`
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.LoanType != "" && e.CreditBand != "":
		return fmt.Sprintf("%s (loan type %s, credit band %s)", e.Message, e.LoanType, e.CreditBand)
	case e.LoanType != "":
		return fmt.Sprintf("%s (loan type %s)", e.Message, e.LoanType)
	case e.CreditBand != "":
		return fmt.Sprintf("%s (credit band %s)", e.Message, e.CreditBand)
	}
	return e.Message
}

// Is lets errors.Is(err, ErrConfiguration) match.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func configError(lt ratetables.LoanType, band, format string, args ...interface{}) *ConfigurationError {
	e := &ConfigurationError{CreditBand: band, Message: fmt.Sprintf(format, args...)}
	if lt.Valid() {
		e.LoanType = lt.String()
	}
	return e
}

// ValidationErrors flattens err into its field errors. Errors that are not
// validation errors are dropped.
func ValidationErrors(err error) []*ValidationError {
	var out []*ValidationError
	for _, e := range multierr.Errors(err) {
		var ve *ValidationError
		if errors.As(e, &ve) {
			out = append(out, ve)
		}
	}
	return out
}

// fieldErrors collects validation errors for one request.
type fieldErrors struct {
	err error
}

func (f *fieldErrors) add(field, format string, args ...interface{}) {
	f.err = multierr.Append(f.err, &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// check records msg against field when it is not empty, matching the
// return of validation.Bounds.Check.
func (f *fieldErrors) check(field, msg string) {
	if msg != "" {
		f.add(field, "%s", msg)
	}
}

func (f *fieldErrors) append(err error) {
	f.err = multierr.Append(f.err, err)
}

func (f *fieldErrors) result() error {
	return f.err
}
