package mortgage

import (
	"errors"
	"testing"

	"github.com/iwvelando/mortgage-calculator/pkg/mathutil"
	"github.com/iwvelando/mortgage-calculator/pkg/ratetables"
)

func rateTermRefinance() RefinanceInput {
	return RefinanceInput{
		CurrentBalance:      250000,
		PropertyValue:       400000,
		AnnualRate:          5.5,
		LoanTermYears:       30,
		LoanType:            ratetables.Conventional,
		OriginalRate:        7,
		RemainingTermMonths: 360,
	}
}

func TestRefinanceRateTerm(t *testing.T) {
	res, err := newTestCalculator(t, nil).Refinance(rateTermRefinance())
	if err != nil {
		t.Fatalf("Refinance() error = %v", err)
	}

	if res.LoanDetails.Purpose != ratetables.PurposeRateTerm {
		t.Errorf("purpose = %q, want rate_term", res.LoanDetails.Purpose)
	}
	if res.LoanDetails.LoanAmount != 250000 || res.LoanDetails.LTV != 62.5 {
		t.Errorf("loan = %v at LTV %v", res.LoanDetails.LoanAmount, res.LoanDetails.LTV)
	}
	c := res.Comparison
	if c.CurrentPayment != 1663.26 || c.NewPayment != 1419.47 || c.BaseSavings != 243.79 {
		t.Errorf("comparison = %+v", c)
	}
	if c.BreakEvenMonths == nil || *c.BreakEvenMonths != 26 || c.BreakEven != "26 months" {
		t.Errorf("break even = %v %q, want 26", c.BreakEvenMonths, c.BreakEven)
	}
	if res.ClosingCosts.Total != 6335 {
		t.Errorf("closing costs = %v, want 6335", res.ClosingCosts.Total)
	}
	if res.PrepaidItems.Total != 565.07 {
		t.Errorf("prepaids = %v, want 565.07", res.PrepaidItems.Total)
	}
	if res.TotalCashNeeded != 6900.07 || res.CashToBorrower != 0 {
		t.Errorf("cash = %v / %v, want 6900.07", res.TotalCashNeeded, res.CashToBorrower)
	}
	if res.Financing.Mode != ZeroCashNone || res.Financing.OutOfPocket != 6900.07 {
		t.Errorf("financing = %+v", res.Financing)
	}
	for _, item := range res.ClosingCosts.Items {
		if item.Name == "Survey" || item.Name == "Owner's Title Insurance" {
			t.Errorf("purchase-only fee %q charged on a refinance", item.Name)
		}
	}
}

func TestRefinanceLTVGuidance(t *testing.T) {
	res, err := newTestCalculator(t, nil).Refinance(rateTermRefinance())
	if err != nil {
		t.Fatal(err)
	}
	want := []LTVGuidance{
		{TargetLTV: 80, MinAppraisedValue: 312500, MeetsTarget: true},
		{TargetLTV: 90, MinAppraisedValue: 277778, MeetsTarget: true},
		{TargetLTV: 95, MinAppraisedValue: 263158, MeetsTarget: true},
		{TargetLTV: 97, MinAppraisedValue: 257732, MeetsTarget: true, PurposeMaximum: true},
	}
	if len(res.LTVGuidance) != len(want) {
		t.Fatalf("guidance = %+v", res.LTVGuidance)
	}
	for i, g := range res.LTVGuidance {
		if g != want[i] {
			t.Errorf("guidance[%d] = %+v, want %+v", i, g, want[i])
		}
	}
}

func TestRefinanceZeroCashToClose(t *testing.T) {
	calc := newTestCalculator(t, nil)

	t.Run("closing costs", func(t *testing.T) {
		in := rateTermRefinance()
		in.ZeroCashMode = ZeroCashClosingCosts
		res, err := calc.Refinance(in)
		if err != nil {
			t.Fatal(err)
		}
		f := res.Financing
		if f.FinancedClosingCosts != 6431.47 || f.FinancedPrepaids != 0 {
			t.Errorf("financing = %+v, want 6431.47 of closing costs", f)
		}
		if res.LoanDetails.LoanAmount != 256431.47 {
			t.Errorf("loan amount = %v", res.LoanDetails.LoanAmount)
		}
		if res.ClosingCosts.Total != 6431.47 {
			t.Errorf("financed amount should equal the closing costs of the final loan, got %v", res.ClosingCosts.Total)
		}
		if res.TotalCashNeeded != res.PrepaidItems.Total || res.TotalCashNeeded != 579.61 {
			t.Errorf("cash = %v, want the prepaids of 579.61", res.TotalCashNeeded)
		}
		if f.Iterations < 2 || f.Iterations > 25 {
			t.Errorf("iterations = %d", f.Iterations)
		}
		for _, item := range res.ClosingCosts.Items {
			if !item.Financed {
				t.Errorf("closing cost %q not marked financed", item.Name)
			}
		}
		for _, item := range res.PrepaidItems.Items {
			if item.Financed {
				t.Errorf("prepaid %q marked financed", item.Name)
			}
		}
	})

	t.Run("closing costs and prepaids", func(t *testing.T) {
		in := rateTermRefinance()
		in.ZeroCashMode = ZeroCashClosingCostsAndPrepaid
		res, err := calc.Refinance(in)
		if err != nil {
			t.Fatal(err)
		}
		f := res.Financing
		if f.FinancedClosingCosts != 6440.32 || f.FinancedPrepaids != 580.94 {
			t.Errorf("financing = %+v", f)
		}
		if res.LoanDetails.LoanAmount != 257021.26 {
			t.Errorf("loan amount = %v, want 257021.26", res.LoanDetails.LoanAmount)
		}
		if res.TotalCashNeeded != 0 || f.OutOfPocket != 0 {
			t.Errorf("cash = %v (out of pocket %v), want 0", res.TotalCashNeeded, f.OutOfPocket)
		}
	})
}

func TestRefinanceLenderCredit(t *testing.T) {
	in := rateTermRefinance()
	in.LenderCredit = 2000
	res, err := newTestCalculator(t, nil).Refinance(in)
	if err != nil {
		t.Fatal(err)
	}
	if res.Credits.LenderCredit != 2000 {
		t.Errorf("lender credit = %v", res.Credits.LenderCredit)
	}
	if res.Comparison.BreakEvenCost != 4335 || *res.Comparison.BreakEvenMonths != 18 {
		t.Errorf("break even = %v over %v months, want 4335 over 18",
			res.Comparison.BreakEvenCost, *res.Comparison.BreakEvenMonths)
	}
	if res.TotalCashNeeded != 4900.07 {
		t.Errorf("cash = %v, want 4900.07", res.TotalCashNeeded)
	}
}

func TestRefinanceCashOut(t *testing.T) {
	calc := newTestCalculator(t, nil)

	in := rateTermRefinance()
	in.Purpose = ratetables.PurposeCashOut
	in.CashOut = 50000
	res, err := calc.Refinance(in)
	if err != nil {
		t.Fatal(err)
	}
	if res.LoanDetails.BaseLoanAmount != 300000 || res.LoanDetails.LTV != 75 {
		t.Errorf("loan = %v at LTV %v", res.LoanDetails.BaseLoanAmount, res.LoanDetails.LTV)
	}
	if res.ClosingCosts.Total != 7085 || res.PrepaidItems.Total != 678.08 {
		t.Errorf("closing %v / prepaids %v", res.ClosingCosts.Total, res.PrepaidItems.Total)
	}
	if res.TotalCashNeeded != 0 || res.CashToBorrower != 42236.92 {
		t.Errorf("cash = %v, to borrower = %v, want 0 and 42236.92", res.TotalCashNeeded, res.CashToBorrower)
	}
	if findWarning(res.Warnings, WarnCreditToBorrower) != nil {
		t.Error("cash-out proceeds are not a credit warning")
	}

	in.CashOut = 100000
	res, err = calc.Refinance(in)
	if err != nil {
		t.Fatal(err)
	}
	w := findWarning(res.Warnings, WarnMaxLTVExceeded)
	if w == nil || w.Amount != 30000 {
		t.Errorf("max LTV warning = %+v, want 30000 short", w)
	}
	if res.MonthlyBreakdown.MortgageInsuranceRate != 0.55 {
		t.Errorf("insurance rate at LTV 87.5 = %v, want 0.55", res.MonthlyBreakdown.MortgageInsuranceRate)
	}
}

func TestRefinanceNoSavings(t *testing.T) {
	in := rateTermRefinance()
	in.AnnualRate = 7.5
	in.CurrentPayment = 1500
	in.CurrentExtraPayment = 100
	res, err := newTestCalculator(t, nil).Refinance(in)
	if err != nil {
		t.Fatal(err)
	}
	c := res.Comparison
	if c.BaseSavings >= 0 {
		t.Fatalf("base savings = %v, want negative", c.BaseSavings)
	}
	if c.BreakEvenMonths != nil || c.BreakEven != BreakEvenNotApplicable {
		t.Errorf("break even = %v %q, want N/A", c.BreakEvenMonths, c.BreakEven)
	}
	if c.ExtraSavings != 100 || c.TotalMonthlySavings != mathutil.Sum(c.BaseSavings, 100) {
		t.Errorf("extra savings = %+v", c)
	}
}

func TestRefinanceExtraPaymentDoesNotMoveBreakEven(t *testing.T) {
	calc := newTestCalculator(t, nil)
	base, err := calc.Refinance(rateTermRefinance())
	if err != nil {
		t.Fatal(err)
	}
	in := rateTermRefinance()
	in.CurrentExtraPayment = 250
	extra, err := calc.Refinance(in)
	if err != nil {
		t.Fatal(err)
	}
	if *extra.Comparison.BreakEvenMonths != *base.Comparison.BreakEvenMonths {
		t.Errorf("break even moved from %d to %d", *base.Comparison.BreakEvenMonths, *extra.Comparison.BreakEvenMonths)
	}
	if extra.Comparison.TotalMonthlySavings != 493.79 {
		t.Errorf("total savings = %v, want 493.79", extra.Comparison.TotalMonthlySavings)
	}
}

func TestRefinanceFHAFinancesPremium(t *testing.T) {
	in := rateTermRefinance()
	in.LoanType = ratetables.FHA
	res, err := newTestCalculator(t, nil).Refinance(in)
	if err != nil {
		t.Fatal(err)
	}
	p := res.LoanDetails.UpfrontPremium
	if p == nil || p.Amount != 4375 || !p.Financed {
		t.Fatalf("premium = %+v, want 4375 financed", p)
	}
	if res.LoanDetails.LoanAmount != 254375 || res.LoanDetails.LTV != 62.5 {
		t.Errorf("loan = %v at LTV %v; LTV is taken on the base loan", res.LoanDetails.LoanAmount, res.LoanDetails.LTV)
	}
}

func TestRefinanceVAUsesPurposeFee(t *testing.T) {
	in := rateTermRefinance()
	in.LoanType = ratetables.VA
	in.VA = VAOptions{ServiceType: ratetables.VAServiceRegular, Usage: ratetables.VAUsageSubsequent}
	res, err := newTestCalculator(t, nil).Refinance(in)
	if err != nil {
		t.Fatal(err)
	}
	if p := res.LoanDetails.UpfrontPremium; p == nil || p.Percent != 0.5 || p.Amount != 1250 {
		t.Errorf("VA rate-term fee = %+v, want 0.5%%", p)
	}

	in.Purpose = ratetables.PurposeCashOut
	in.CashOut = 20000
	res, err = newTestCalculator(t, nil).Refinance(in)
	if err != nil {
		t.Fatal(err)
	}
	if p := res.LoanDetails.UpfrontPremium; p == nil || p.Percent != 3.3 {
		t.Errorf("VA cash-out fee = %+v, want the 3.3%% matrix rate", p)
	}
}

func TestRefinanceValidation(t *testing.T) {
	calc := newTestCalculator(t, nil)
	tests := []struct {
		name  string
		edit  func(*RefinanceInput)
		field string
	}{
		{"missing value", func(in *RefinanceInput) { in.PropertyValue = 0 }, "property_value"},
		{"missing balance", func(in *RefinanceInput) { in.CurrentBalance = 0 }, "current_balance"},
		{"cash out without purpose", func(in *RefinanceInput) { in.CashOut = 1000 }, "cash_out_amount"},
		{"cash out purpose without amount", func(in *RefinanceInput) { in.Purpose = ratetables.PurposeCashOut }, "cash_out_amount"},
		{"unknown purpose", func(in *RefinanceInput) { in.Purpose = "streamline" }, "refinance_purpose"},
		{"purpose not offered", func(in *RefinanceInput) {
			in.LoanType = ratetables.USDA
			in.Purpose = ratetables.PurposeCashOut
			in.CashOut = 1000
		}, "refinance_purpose"},
		{"cash in too large", func(in *RefinanceInput) { in.CashIn = 250000 }, "cash_in_amount"},
		{"no current payment", func(in *RefinanceInput) { in.RemainingTermMonths = 0 }, "current_payment"},
		{"bad zero cash mode", func(in *RefinanceInput) { in.ZeroCashMode = "everything" }, "zero_cash_mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := rateTermRefinance()
			tt.edit(&in)
			_, err := calc.Refinance(in)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("error = %v, want validation error", err)
			}
			found := false
			for _, ve := range ValidationErrors(err) {
				if ve.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("no error for %s in %v", tt.field, err)
			}
		})
	}
}
