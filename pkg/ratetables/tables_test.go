package ratetables

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/multierr"
)

func TestDefaultTablesCompile(t *testing.T) {
	tables := Default()
	if !tables.Compiled() {
		t.Fatal("Default() returned uncompiled tables")
	}
	for _, lt := range AllLoanTypes() {
		if _, ok := tables.Entry(lt); !ok {
			t.Errorf("Default() is missing loan type %s", lt)
		}
	}
	if got := tables.LoanTypesConfigured(); len(got) != len(AllLoanTypes()) {
		t.Errorf("LoanTypesConfigured() = %v", got)
	}
}

func TestLoadFileMatchesDefault(t *testing.T) {
	loaded, err := LoadFile("testdata/tables.yaml")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	builtin := Default()

	for _, lt := range AllLoanTypes() {
		got, ok := loaded.Entry(lt)
		if !ok {
			t.Fatalf("loaded tables missing %s", lt)
		}
		want, _ := builtin.Entry(lt)
		if got.MaxLTV != want.MaxLTV || got.MinDownPaymentPercent != want.MinDownPaymentPercent {
			t.Errorf("%s limits = (%v, %v), want (%v, %v)", lt,
				got.MaxLTV, got.MinDownPaymentPercent, want.MaxLTV, want.MinDownPaymentPercent)
		}
		if got.UpfrontPremium != want.UpfrontPremium {
			t.Errorf("%s upfront = %+v, want %+v", lt, got.UpfrontPremium, want.UpfrontPremium)
		}
		if got.SellerCredit.Base != want.SellerCredit.Base || got.SellerCredit.MaxPercent != want.SellerCredit.MaxPercent {
			t.Errorf("%s seller credit = %+v, want %+v", lt, got.SellerCredit, want.SellerCredit)
		}
	}

	conv, _ := loaded.Entry(Conventional)
	rate, ok := conv.MortgageInsuranceRate("760+", 96)
	if !ok || rate.AnnualPercent != 0.55 {
		t.Errorf("760+ rate at 96 = %+v, %v; want 0.55", rate, ok)
	}
	if got := len(loaded.Fees(VA, TransactionPurchase)); got != len(builtin.Fees(VA, TransactionPurchase)) {
		t.Errorf("VA purchase fee count = %d", got)
	}
	if loaded.Prepaids != builtin.Prepaids {
		t.Errorf("prepaids = %+v, want %+v", loaded.Prepaids, builtin.Prepaids)
	}
	mode, places := loaded.LTVRounding()
	if mode != "up" || places != 2 {
		t.Errorf("LTVRounding() = %s, %d", mode, places)
	}
}

func TestLoadReaderJSON(t *testing.T) {
	doc := `{
	  "version": "json-1",
	  "creditScoreBands": [{"name": "all", "min": 300, "max": 850}],
	  "limits": {"loanTermYears": {"min": 1, "max": 40}},
	  "loanTypes": {
	    "conventional": {"minDownPaymentPercent": 5, "maxLtv": 95,
	      "mortgageInsurance": {"ltvThreshold": 80, "default": [{"maxLtv": 95, "annualPercent": 0.5}]}}
	  },
	  "closingCosts": [{"name": "Points", "kind": "percentage", "percent": 1}]
	}`
	tables, err := LoadReader(strings.NewReader(doc), "JSON")
	if err != nil {
		t.Fatalf("LoadReader() error = %v", err)
	}
	if tables.Version != "json-1" {
		t.Errorf("Version = %q", tables.Version)
	}
	e, ok := tables.Entry(Conventional)
	if !ok {
		t.Fatal("conventional entry missing")
	}
	if e.MinDownPaymentPolicy != PolicyWarn {
		t.Errorf("policy default = %q, want warn", e.MinDownPaymentPolicy)
	}
	if e.SellerCredit.Base != BasePurchasePrice || e.LenderCredit.Base != BaseLoanAmount {
		t.Errorf("credit bases = %q/%q", e.SellerCredit.Base, e.LenderCredit.Base)
	}
	if tables.ClosingCosts[0].Base != BaseLoanAmount {
		t.Errorf("fee base default = %q", tables.ClosingCosts[0].Base)
	}
	if got := tables.Message(Conventional, MsgMinDownPayment); got != DefaultMessages().MinDownPayment {
		t.Errorf("message fallback = %q", got)
	}
	if _, ok := tables.Entry(FHA); ok {
		t.Error("unexpected fha entry")
	}
}

func TestLoadReaderRejectsUnknownFormat(t *testing.T) {
	if _, err := LoadReader(strings.NewReader(""), "toml"); err == nil {
		t.Fatal("expected an error for toml")
	}
}

func TestCompileRejectsInvalidTables(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Tables)
		want   string
	}{
		{"missing version", func(t *Tables) { t.Version = "" }, "version is required"},
		{"overlapping bands", func(t *Tables) {
			t.CreditScoreBands = append(t.CreditScoreBands, CreditScoreBand{Name: "dup-range", Min: 700, Max: 705})
		}, "overlaps"},
		{"unknown default band", func(t *Tables) { t.DefaultCreditScoreBand = "platinum" }, "defaultCreditScoreBand"},
		{"unknown loan type", func(t *Tables) { t.LoanTypes["balloon"] = LoanTypeTable{MaxLTV: 80} }, "unknown loan type"},
		{"negative upfront", func(t *Tables) {
			e := t.LoanTypes["fha"]
			e.UpfrontPremium.Percent = -1
			t.LoanTypes["fha"] = e
		}, "upfrontPremium.percent"},
		{"unsorted insurance tiers", func(t *Tables) {
			e := t.LoanTypes["fha"]
			e.MortgageInsurance.Default = []LTVRate{{100, 0.55}, {95, 0.5}}
			t.LoanTypes["fha"] = e
		}, "ascending maxLtv"},
		{"va without matrix", func(t *Tables) {
			e := t.LoanTypes["va"]
			e.VAFundingFee = nil
			t.LoanTypes["va"] = e
		}, "vaFundingFee matrix is required"},
		{"unknown policy", func(t *Tables) {
			e := t.LoanTypes["jumbo"]
			e.MinDownPaymentPolicy = "ignore"
			t.LoanTypes["jumbo"] = e
		}, "minDownPaymentPolicy"},
		{"unknown credit base", func(t *Tables) {
			e := t.LoanTypes["conventional"]
			e.SellerCredit.Base = "appraised_value"
			t.LoanTypes["conventional"] = e
		}, "unknown base"},
		{"unknown refinance purpose", func(t *Tables) {
			e := t.LoanTypes["usda"]
			e.Refinance.MaxLTV = map[string]float64{"streamline": 100}
			t.LoanTypes["usda"] = e
		}, "unknown purpose"},
		{"unknown fee kind", func(t *Tables) { t.ClosingCosts[0].Kind = "tiered" }, "unknown kind"},
		{"unknown rounding", func(t *Tables) { t.Rounding.LTV = "sideways" }, "rounding.ltv"},
		{"inverted limits", func(t *Tables) { t.Limits.InterestRate.Min = 30 }, "limits.interestRate"},
		{"no loan types", func(t *Tables) { t.LoanTypes = nil }, "at least one loan type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tables := Default()
			tt.mutate(tables)
			err := tables.Compile()
			if err == nil {
				t.Fatal("Compile() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Compile() error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestCompileReportsEveryProblem(t *testing.T) {
	tables := Default()
	tables.Version = ""
	tables.ClosingCosts[0].Kind = "tiered"
	tables.Rounding.AppraisedValue = "sideways"

	err := tables.Compile()
	if err == nil {
		t.Fatal("expected error")
	}
	if got := len(multierr.Errors(errors.Unwrap(err))); got != 3 {
		t.Errorf("got %d errors, want 3: %v", got, err)
	}
}

func TestCreditScoreBands(t *testing.T) {
	tables := Default()
	tests := []struct {
		score int
		want  string
		ok    bool
	}{
		{850, "760+", true},
		{760, "760+", true},
		{759, "740-759", true},
		{700, "700-719", true},
		{500, "500-579", true},
		{499, "", false},
		{900, "", false},
	}
	for _, tt := range tests {
		band, ok := tables.BandForScore(tt.score)
		if ok != tt.ok || band.Name != tt.want {
			t.Errorf("BandForScore(%d) = %q, %v; want %q, %v", tt.score, band.Name, ok, tt.want, tt.ok)
		}
	}

	if band, ok := tables.BandByName("760+"); !ok || band.Min != 760 {
		t.Errorf("BandByName(760+) = %+v, %v", band, ok)
	}
	if _, ok := tables.BandByName("excellent"); ok {
		t.Error("BandByName(excellent) should not match")
	}
	if band, ok := tables.DefaultBand(); !ok || band.Name != "700-719" {
		t.Errorf("DefaultBand() = %+v, %v", band, ok)
	}
}

func TestTopMortgageInsuranceRate(t *testing.T) {
	tables := Default()
	conv, _ := tables.Entry(Conventional)
	fha, _ := tables.Entry(FHA)

	if top, ok := conv.TopMortgageInsuranceRate("700-719"); !ok || top.MaxLTV != 97 || top.AnnualPercent != 1.05 {
		t.Errorf("conventional top tier = %+v, %v", top, ok)
	}
	if top, ok := fha.TopMortgageInsuranceRate("760+"); !ok || top.MaxLTV != 100 || top.AnnualPercent != 0.55 {
		t.Errorf("fha top tier = %+v, %v", top, ok)
	}
	if _, ok := conv.TopMortgageInsuranceRate("580-619"); ok {
		t.Error("band without a curve should have no top tier")
	}
}

func TestMortgageInsuranceRate(t *testing.T) {
	tables := Default()
	conv, _ := tables.Entry(Conventional)
	fha, _ := tables.Entry(FHA)

	tests := []struct {
		name  string
		entry *LoanTypeTable
		band  string
		ltv   float64
		want  float64
		ok    bool
	}{
		{"conventional first tier", conv, "700-719", 80.01, 0.30, true},
		{"conventional tier boundary inclusive", conv, "700-719", 85, 0.30, true},
		{"conventional next tier", conv, "700-719", 85.01, 0.55, true},
		{"conventional top tier", conv, "620-639", 97, 1.98, true},
		{"conventional above curve", conv, "760+", 97.5, 0, false},
		{"band without curve", conv, "580-619", 90, 0, false},
		{"band name case", conv, "760+", 90, 0.30, true},
		{"fha default curve low", fha, "580-619", 90, 0.50, true},
		{"fha default curve high", fha, "760+", 96.5, 0.55, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.entry.MortgageInsuranceRate(tt.band, tt.ltv)
			if ok != tt.ok || got.AnnualPercent != tt.want {
				t.Errorf("MortgageInsuranceRate(%q, %v) = %v, %v; want %v, %v",
					tt.band, tt.ltv, got.AnnualPercent, ok, tt.want, tt.ok)
			}
		})
	}

	if !fha.HasMortgageInsurance() {
		t.Error("fha should carry mortgage insurance")
	}
	va, _ := tables.Entry(VA)
	if va.HasMortgageInsurance() {
		t.Error("va should not carry mortgage insurance")
	}
}

func TestMortgageInsuranceMonths(t *testing.T) {
	fha, _ := Default().Entry(FHA)
	if got := fha.MortgageInsuranceMonths(90); got != 132 {
		t.Errorf("MortgageInsuranceMonths(90) = %d, want 132", got)
	}
	if got := fha.MortgageInsuranceMonths(96.5); got != 0 {
		t.Errorf("MortgageInsuranceMonths(96.5) = %d, want 0 (life of loan)", got)
	}
}

func TestVAFundingFeePercent(t *testing.T) {
	va, _ := Default().Entry(VA)
	tests := []struct {
		service, usage string
		down           float64
		want           float64
		ok             bool
	}{
		{"regular", "first", 0, 2.15, true},
		{"regular", "first", 4.99, 2.15, true},
		{"regular", "first", 5, 1.5, true},
		{"regular", "subsequent", 0, 3.3, true},
		{"reserves", "subsequent", 12, 1.25, true},
		{"Regular", "FIRST", 10, 1.25, true},
		{"national_guard", "first", 0, 0, false},
	}
	for _, tt := range tests {
		got, ok := va.VAFundingFeePercent(tt.service, tt.usage, tt.down)
		if ok != tt.ok || got != tt.want {
			t.Errorf("VAFundingFeePercent(%s, %s, %v) = %v, %v; want %v, %v",
				tt.service, tt.usage, tt.down, got, ok, tt.want, tt.ok)
		}
	}
}

func TestContributionLimitTiers(t *testing.T) {
	conv, _ := Default().Entry(Conventional)
	tests := map[float64]float64{0: 3, 9.99: 3, 10: 6, 24: 6, 25: 9, 40: 9}
	for down, want := range tests {
		if got := conv.SellerCredit.MaxPercentFor(down); got != want {
			t.Errorf("MaxPercentFor(%v) = %v, want %v", down, got, want)
		}
	}
}

func TestRefinanceRules(t *testing.T) {
	tables := Default()
	usda, _ := tables.Entry(USDA)
	if _, ok := usda.RefinanceMaxLTV(PurposeCashOut); ok {
		t.Error("usda should not offer cash-out refinance")
	}
	if got := usda.RefinanceUpfrontPercent(PurposeRateTerm); got != 1 {
		t.Errorf("usda refinance upfront = %v, want purchase premium 1", got)
	}
	va, _ := tables.Entry(VA)
	if got := va.RefinanceUpfrontPercent(PurposeRateTerm); got != 0.5 {
		t.Errorf("va rate/term upfront = %v, want 0.5", got)
	}
	fha, _ := tables.Entry(FHA)
	if got, _ := fha.RefinanceMaxLTV(PurposeRateTerm); got != 97.75 {
		t.Errorf("fha rate/term max LTV = %v", got)
	}
}

func TestFeesFilter(t *testing.T) {
	tables := Default()
	names := func(items []FeeItem) string {
		var out []string
		for _, f := range items {
			out = append(out, f.Name)
		}
		return strings.Join(out, ",")
	}

	conv := tables.Fees(Conventional, TransactionPurchase)
	if len(conv) != 10 {
		t.Errorf("conventional purchase fees = %s", names(conv))
	}
	va := tables.Fees(VA, TransactionPurchase)
	if len(va) != 11 || va[len(va)-1].Name != "Termite Inspection" {
		t.Errorf("va purchase fees = %s", names(va))
	}
	refi := tables.Fees(Conventional, TransactionRefinance)
	if len(refi) != 7 {
		t.Errorf("conventional refinance fees = %s", names(refi))
	}
	if strings.Contains(names(refi), "Owner's Title") {
		t.Error("owner's title applies to purchases only")
	}
}

func TestMessageOverride(t *testing.T) {
	tables := Default()
	e := tables.LoanTypes["va"]
	e.Messages.SellerCreditExceeded = "VA concessions are capped at {max_amount}."
	tables.LoanTypes["va"] = e
	if err := tables.Compile(); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if got := tables.Message(VA, MsgSellerCreditExceeded); got != "VA concessions are capped at {max_amount}." {
		t.Errorf("VA override = %q", got)
	}
	if got := tables.Message(FHA, MsgSellerCreditExceeded); got != DefaultMessages().SellerCreditExceeded {
		t.Errorf("FHA message = %q", got)
	}
}

func TestLoanTypeParsing(t *testing.T) {
	for _, lt := range AllLoanTypes() {
		parsed, err := ParseLoanType(strings.ToUpper(lt.String()))
		if err != nil || parsed != lt {
			t.Errorf("ParseLoanType(%s) = %v, %v", lt, parsed, err)
		}
	}
	if _, err := ParseLoanType("balloon"); err == nil {
		t.Error("expected error for balloon")
	}
	if FHA.Label() != "FHA" || Conventional.Label() != "Conventional" {
		t.Errorf("labels = %s, %s", FHA.Label(), Conventional.Label())
	}
	var lt LoanType
	if err := lt.UnmarshalText([]byte("usda")); err != nil || lt != USDA {
		t.Errorf("UnmarshalText(usda) = %v, %v", lt, err)
	}
	if _, err := LoanType(0).MarshalText(); err == nil {
		t.Error("MarshalText should reject the zero value")
	}
}
