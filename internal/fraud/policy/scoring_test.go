package policy

import (
	"testing"
	"time"
)

var testNow = time.Date(2026, 5, 12, 10, 0, 0, 0, time.UTC)

func cleanInput() Input {
	return Input{
		Email:         "aoife.murphy@gmail.com",
		Phone:         "087 123 4567",
		FirstName:     "Aoife",
		LastName:      "Murphy",
		Eircode:       "D02 X285",
		PreferredDate: testNow.AddDate(0, 0, 7),
		Now:           testNow,
	}
}

func TestScore(t *testing.T) {
	cases := []struct {
		name      string
		mutate    func(*Input)
		wantScore int
		wantRisk  Risk
		wantHas   []string
	}{
		{
			name:      "clean first-time customer",
			mutate:    func(in *Input) {},
			wantScore: 60,
			wantRisk:  RiskMedium,
			wantHas:   []string{FactorValidPhone, FactorValidEircode},
		},
		{
			name:      "verified customer",
			mutate:    func(in *Input) { in.EmailVerified = true },
			wantScore: 75,
			wantRisk:  RiskLow,
			wantHas:   []string{FactorVerifiedCustomer},
		},
		{
			name:      "invoice originated with referral",
			mutate:    func(in *Input) { in.InvoiceOriginated = true; in.HasReferralCode = true },
			wantScore: 85,
			wantRisk:  RiskLow,
			wantHas:   []string{FactorInvoiceOriginated, FactorReferralCode},
		},
		{
			name: "bad phone without eircode",
			mutate: func(in *Input) {
				in.Phone = "12345"
				in.Eircode = ""
			},
			wantScore: 35,
			wantRisk:  RiskHigh,
			wantHas:   []string{FactorInvalidPhone, FactorMissingEircode},
		},
		{
			name: "duplicate rapid disposable",
			mutate: func(in *Input) {
				in.Email = "x@mailinator.com"
				in.SameEmailCount = 3
				in.RapidCount = 2
			},
			wantScore: 10,
			wantRisk:  RiskCritical,
			wantHas:   []string{FactorDuplicateEmail, FactorRapidRepeat, FactorDisposableEmail},
		},
		{
			name:      "one recent booking is not rapid repeat",
			mutate:    func(in *Input) { in.RapidCount = 1 },
			wantScore: 60,
			wantRisk:  RiskMedium,
		},
		{
			name: "repeat customer with prior flag",
			mutate: func(in *Input) {
				in.PriorCompleted = 2
				in.PriorFlagged = 1
			},
			wantScore: 45,
			wantRisk:  RiskHigh,
			wantHas:   []string{FactorRepeatCustomer, FactorPriorFlagged},
		},
		{
			name: "clamped at 100",
			mutate: func(in *Input) {
				in.EmailVerified = true
				in.InvoiceOriginated = true
				in.HasReferralCode = true
				in.PriorCompleted = 1
			},
			wantScore: 100,
			wantRisk:  RiskLow,
		},
		{
			name: "clamped at 0",
			mutate: func(in *Input) {
				in.Email = "test@yopmail.com"
				in.FirstName = "Test"
				in.LastName = "User"
				in.Phone = ""
				in.Eircode = "nope"
				in.PreferredDate = testNow.AddDate(0, 0, -3)
				in.SameEmailCount = 1
				in.SamePhoneCount = 1
				in.RapidCount = 5
				in.PriorFlagged = 2
			},
			wantScore: 0,
			wantRisk:  RiskCritical,
			wantHas:   []string{FactorSuspiciousName, FactorScheduleAnomaly, FactorDuplicatePhone},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := cleanInput()
			tc.mutate(&in)
			got := Score(in)
			if got.Score != tc.wantScore {
				t.Fatalf("expected score %d, got %d (factors %v)", tc.wantScore, got.Score, got.Factors)
			}
			if got.Risk != tc.wantRisk {
				t.Fatalf("expected risk %s, got %s", tc.wantRisk, got.Risk)
			}
			for _, factor := range tc.wantHas {
				if _, ok := got.Factors[factor]; !ok {
					t.Fatalf("expected factor %s in %v", factor, got.Factors)
				}
			}
			if got.Version != Version {
				t.Fatalf("expected version %s, got %s", Version, got.Version)
			}
		})
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	in := cleanInput()
	in.SamePhoneCount = 1
	first := Score(in)
	for range 10 {
		again := Score(in)
		if again.Score != first.Score || len(again.Factors) != len(first.Factors) {
			t.Fatalf("score changed between runs: %+v vs %+v", first, again)
		}
	}
}

func TestRiskFor(t *testing.T) {
	cases := map[int]Risk{
		100: RiskLow,
		70:  RiskLow,
		69:  RiskMedium,
		50:  RiskMedium,
		49:  RiskHigh,
		30:  RiskHigh,
		29:  RiskCritical,
		0:   RiskCritical,
	}
	for score, want := range cases {
		if got := RiskFor(score); got != want {
			t.Fatalf("RiskFor(%d) = %s, want %s", score, got, want)
		}
	}
}

func TestRequiresReviewAndSellable(t *testing.T) {
	if RequiresReview(RiskLow) || RequiresReview(RiskMedium) {
		t.Fatal("low and medium risk must not require review")
	}
	if !RequiresReview(RiskHigh) || !RequiresReview(RiskCritical) {
		t.Fatal("high and critical risk must require review")
	}
	if Sellable(RiskCritical) || !Sellable(RiskHigh) {
		t.Fatal("only critical leads are unsellable")
	}
}
