package mortgage

import (
	"github.com/iwvelando/mortgage-calculator/pkg/mathutil"
	"github.com/iwvelando/mortgage-calculator/pkg/ratetables"
)

// creditLimit caps one kind of contribution.
type creditLimit struct {
	kind    WarningKind
	message ratetables.MessageKind
	limit   ratetables.ContributionLimit
}

func sellerLimit(e *ratetables.LoanTypeTable) creditLimit {
	return creditLimit{WarnSellerCreditExceeded, ratetables.MsgSellerCreditExceeded, e.SellerCredit}
}

func lenderLimit(e *ratetables.LoanTypeTable) creditLimit {
	return creditLimit{WarnLenderCreditExceeded, ratetables.MsgLenderCreditExceeded, e.LenderCredit}
}

// apply returns the credit that may be used and, when the request exceeds
// the cap, a warning naming the excess in dollars.
func (c creditLimit) apply(t *ratetables.Tables, lt ratetables.LoanType, requested float64, bases costBases, downPaymentPercent float64) (float64, *Warning) {
	requested = mathutil.Round(requested)
	if requested <= 0 {
		return 0, nil
	}
	maxPercent := c.limit.MaxPercentFor(downPaymentPercent)
	maxAmount := mathutil.Round(mathutil.ApplyPercentage(bases.of(c.limit.Base), maxPercent))
	if requested <= maxAmount {
		return requested, nil
	}
	excess := mathutil.Sum(requested, -maxAmount)
	return maxAmount, &Warning{
		Kind: c.kind,
		Message: FormatMessage(t.Message(lt, c.message), lt,
			Arg{MaxAmount, maxAmount}, Arg{ExcessAmount, excess}, Arg{MaxPercentage, maxPercent}),
		Amount: excess,
	}
}

// cashToClose nets credits against what is due. A negative balance is
// reported as zero cash needed with the remainder returned to the borrower.
func cashToClose(due []float64, credits []float64) (cash, toBorrower float64) {
	vals := append([]float64(nil), due...)
	for _, c := range credits {
		vals = append(vals, -c)
	}
	net := mathutil.Sum(vals...)
	if net < 0 {
		return 0, -net
	}
	return net, 0
}

func creditToBorrowerWarning(t *ratetables.Tables, lt ratetables.LoanType, amount float64) Warning {
	return Warning{
		Kind:    WarnCreditToBorrower,
		Message: FormatMessage(t.Message(lt, ratetables.MsgCreditToBorrower), lt, Arg{ExcessAmount, amount}),
		Amount:  amount,
	}
}
