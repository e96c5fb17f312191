package ratetables

import "github.com/iwvelando/mortgage-calculator/pkg/validation"

func convMI(r85, r90, r95, r97 float64) []LTVRate {
	return []LTVRate{{85, r85}, {90, r90}, {95, r95}, {97, r97}}
}

func jumboMI(r85, r90 float64) []LTVRate {
	return []LTVRate{{85, r85}, {90, r90}}
}

func vaTiers(zero, five, ten float64) []FeeTier {
	return []FeeTier{{0, zero}, {5, five}, {10, ten}}
}

// Default returns a compiled set of tables with typical program values. It
// backs the CLI when no tables file is configured and is the fixture used
// throughout the tests.
func Default() *Tables {
	t := &Tables{
		Version:                "builtin-2026.10",
		DefaultCreditScoreBand: "700-719",
		CreditScoreBands: []CreditScoreBand{
			{Name: "500-579", Min: 500, Max: 579},
			{Name: "580-619", Min: 580, Max: 619},
			{Name: "620-639", Min: 620, Max: 639},
			{Name: "640-659", Min: 640, Max: 659},
			{Name: "660-679", Min: 660, Max: 679},
			{Name: "680-699", Min: 680, Max: 699},
			{Name: "700-719", Min: 700, Max: 719},
			{Name: "720-739", Min: 720, Max: 739},
			{Name: "740-759", Min: 740, Max: 759},
			{Name: "760+", Min: 760, Max: 850},
		},
		Limits: Limits{
			PurchasePrice:  validation.Bounds{Min: 10000, Max: 10000000},
			CurrentBalance: validation.Bounds{Min: 10000, Max: 10000000},
			InterestRate:   validation.Bounds{Min: 0, Max: 20},
			LoanTermYears:  validation.Bounds{Min: 5, Max: 40},
		},
		Rounding: Rounding{LTV: "up", LTVPlaces: 2, AppraisedValue: "up"},
		LoanTypes: map[string]LoanTypeTable{
			"conventional": {
				MinDownPaymentPercent: 3,
				MinDownPaymentPolicy:  PolicyWarn,
				MaxLTV:                97,
				MaxLoanAmount:         806500,
				MortgageInsurance: MortgageInsurance{
					LTVThreshold: 80,
					CancelLTV:    78,
					Bands: map[string][]LTVRate{
						"760+":    convMI(0.19, 0.30, 0.41, 0.55),
						"740-759": convMI(0.22, 0.38, 0.53, 0.70),
						"720-739": convMI(0.26, 0.46, 0.66, 0.87),
						"700-719": convMI(0.30, 0.55, 0.80, 1.05),
						"680-699": convMI(0.35, 0.66, 0.97, 1.25),
						"660-679": convMI(0.40, 0.78, 1.15, 1.48),
						"640-659": convMI(0.46, 0.90, 1.35, 1.72),
						"620-639": convMI(0.55, 1.05, 1.55, 1.98),
					},
				},
				SellerCredit: ContributionLimit{
					Base:       BasePurchasePrice,
					MaxPercent: 3,
					Tiers:      []ContributionTier{{10, 6}, {25, 9}},
				},
				LenderCredit: ContributionLimit{Base: BaseLoanAmount, MaxPercent: 3},
				Refinance: RefinanceRules{
					MaxLTV: map[string]float64{PurposeRateTerm: 97, PurposeCashOut: 80},
				},
			},
			"fha": {
				MinDownPaymentPercent: 3.5,
				MinDownPaymentPolicy:  PolicyWarn,
				MaxLTV:                96.5,
				UpfrontPremium:        UpfrontPremium{Name: "FHA Upfront MIP", Percent: 1.75, Financed: true},
				MortgageInsurance: MortgageInsurance{
					Default:  []LTVRate{{95, 0.50}, {100, 0.55}},
					Duration: []DurationTier{{MaxLTV: 90, Years: 11}},
				},
				SellerCredit: ContributionLimit{Base: BasePurchasePrice, MaxPercent: 6},
				LenderCredit: ContributionLimit{Base: BaseLoanAmount, MaxPercent: 6},
				Refinance: RefinanceRules{
					MaxLTV:                map[string]float64{PurposeRateTerm: 97.75, PurposeCashOut: 80},
					UpfrontPremiumPercent: map[string]float64{PurposeRateTerm: 1.75, PurposeCashOut: 1.75},
				},
			},
			"va": {
				MinDownPaymentPolicy: PolicyWarn,
				MaxLTV:               100,
				UpfrontPremium:       UpfrontPremium{Name: "VA Funding Fee", Financed: true},
				VAFundingFee: []VAFundingFeeRow{
					{ServiceType: VAServiceRegular, Usage: VAUsageFirst, Tiers: vaTiers(2.15, 1.5, 1.25)},
					{ServiceType: VAServiceRegular, Usage: VAUsageSubsequent, Tiers: vaTiers(3.3, 1.5, 1.25)},
					{ServiceType: VAServiceReserves, Usage: VAUsageFirst, Tiers: vaTiers(2.15, 1.5, 1.25)},
					{ServiceType: VAServiceReserves, Usage: VAUsageSubsequent, Tiers: vaTiers(3.3, 1.5, 1.25)},
				},
				SellerCredit: ContributionLimit{Base: BasePurchasePrice, MaxPercent: 4},
				LenderCredit: ContributionLimit{Base: BaseLoanAmount, MaxPercent: 4},
				Refinance: RefinanceRules{
					MaxLTV:                map[string]float64{PurposeRateTerm: 100, PurposeCashOut: 90},
					UpfrontPremiumPercent: map[string]float64{PurposeRateTerm: 0.5},
				},
			},
			"usda": {
				MinDownPaymentPolicy: PolicyWarn,
				MaxLTV:               100,
				UpfrontPremium:       UpfrontPremium{Name: "USDA Guarantee Fee", Percent: 1, Financed: true},
				MortgageInsurance: MortgageInsurance{
					Default: []LTVRate{{102, 0.35}},
				},
				SellerCredit: ContributionLimit{Base: BasePurchasePrice, MaxPercent: 6},
				LenderCredit: ContributionLimit{Base: BaseLoanAmount, MaxPercent: 6},
				Refinance: RefinanceRules{
					MaxLTV: map[string]float64{PurposeRateTerm: 100},
				},
			},
			"jumbo": {
				MinDownPaymentPercent: 10,
				MinDownPaymentPolicy:  PolicyReject,
				MaxLTV:                90,
				MinLoanAmount:         806501,
				MortgageInsurance: MortgageInsurance{
					LTVThreshold: 80,
					CancelLTV:    78,
					Bands: map[string][]LTVRate{
						"760+":    jumboMI(0.25, 0.42),
						"740-759": jumboMI(0.30, 0.50),
						"720-739": jumboMI(0.36, 0.60),
						"700-719": jumboMI(0.42, 0.70),
					},
				},
				SellerCredit: ContributionLimit{Base: BasePurchasePrice, MaxPercent: 6},
				LenderCredit: ContributionLimit{Base: BaseLoanAmount, MaxPercent: 3},
				Refinance: RefinanceRules{
					MaxLTV: map[string]float64{PurposeRateTerm: 90, PurposeCashOut: 75},
				},
			},
		},
		ClosingCosts: []FeeItem{
			{Name: "Origination Fee", Kind: FeePercentage, Percent: 1, Base: BaseLoanAmount},
			{Name: "Lender's Title Insurance", Kind: FeePercentage, Percent: 0.5, Base: BaseLoanAmount},
			{Name: "Owner's Title Insurance", Kind: FeePercentage, Percent: 0.35, Base: BasePurchasePrice,
				Transactions: []string{TransactionPurchase}},
			{Name: "Transfer Tax", Kind: FeePercentage, Percent: 0.2, Base: BasePurchasePrice,
				Transactions: []string{TransactionPurchase}},
			{Name: "Appraisal", Kind: FeeFixed, Amount: 650},
			{Name: "Credit Report", Kind: FeeFixed, Amount: 65},
			{Name: "Underwriting", Kind: FeeFixed, Amount: 995},
			{Name: "Settlement Fee", Kind: FeeFixed, Amount: 750},
			{Name: "Recording Fees", Kind: FeeFixed, Amount: 125},
			{Name: "Survey", Kind: FeeFixed, Amount: 400, Transactions: []string{TransactionPurchase}},
			{Name: "Termite Inspection", Kind: FeeFixed, Amount: 125, LoanTypes: []string{"va"},
				Transactions: []string{TransactionPurchase}},
		},
		Prepaids: PrepaidSchedule{
			TaxEscrowMonths:        3,
			InsuranceEscrowMonths:  2,
			PrepaidInsuranceMonths: 12,
			PerDiemDaysCap:         31,
			DefaultPerDiemDays:     15,
		},
	}
	if err := t.Compile(); err != nil {
		panic("built-in rate tables are invalid: " + err.Error())
	}
	return t
}
