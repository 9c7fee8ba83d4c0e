package service

import (
	"errors"
	"testing"
	"time"

	"tradesbook/internal/pricing/repository"
	"tradesbook/platform/apperr"
)

func TestDefaultsLoad(t *testing.T) {
	table := MustDefaults()
	if len(table.Tiers) != 4 || len(table.AddOns) != 4 || len(table.WallTypes) != 4 {
		t.Fatalf("unexpected default table shape: %d tiers, %d add-ons, %d walls", len(table.Tiers), len(table.AddOns), len(table.WallTypes))
	}
	gold, ok := table.Tier("gold")
	if !ok || gold.PriceCents != 22900 || gold.MaxTVInches != 100 {
		t.Fatalf("unexpected gold tier %+v", gold)
	}
}

func TestValidateRequiresLeadFeeRules(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Table)
	}{
		{"missing critical multiplier", func(tbl *Table) { delete(tbl.LeadFee.RiskMultiplierBps, "critical") }},
		{"missing low multiplier", func(tbl *Table) { delete(tbl.LeadFee.RiskMultiplierBps, "low") }},
		{"negative multiplier", func(tbl *Table) { tbl.LeadFee.RiskMultiplierBps["high"] = -1 }},
		{"missing premium discount", func(tbl *Table) { delete(tbl.LeadFee.FeeStructureDiscountBps, "premium") }},
		{"discount above full price", func(tbl *Table) { tbl.LeadFee.FeeStructureDiscountBps["subscription"] = 12000 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			table := MustDefaults().Clone()
			tc.mutate(&table)
			if err := table.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	if _, err := ParseTable([]byte(`
version: partial
max_tvs: 1
tiers:
  - {key: basic, price_cents: 100, lead_fee_cents: 10, max_tv_inches: 40}
lead_fee:
  risk_multiplier_bps: {low: 10000}
  bands:
    - name: standard
`)); err == nil {
		t.Fatal("expected a table without every risk level to be rejected")
	}
}

func TestCalculateQuote_SingleTV(t *testing.T) {
	quote, err := CalculateQuote(MustDefaults(), QuoteInput{
		Tier:         "silver",
		TVCount:      1,
		TVSizeInches: 55,
		WallType:     "plasterboard",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.SubtotalCents != 15900 || quote.TotalCents != 15900 {
		t.Fatalf("expected 15900, got subtotal %d total %d", quote.SubtotalCents, quote.TotalCents)
	}
	if len(quote.Lines) != 1 {
		t.Fatalf("expected a single line, got %d", len(quote.Lines))
	}
}

func TestCalculateQuote_MultiTVWithSurchargesAndDiscount(t *testing.T) {
	quote, err := CalculateQuote(MustDefaults(), QuoteInput{
		Tier:         "gold",
		TVCount:      2,
		TVSizeInches: 77,
		WallType:     "concrete",
		AddOns:       []string{"cable_concealment", "soundbar_mount"},
		DiscountBps:  1000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 22900 + 18320 (second TV at 80%) + 2*1500 concrete + 2*3000 large TV + 4900 + 3900
	const wantSubtotal = 22900 + 18320 + 3000 + 6000 + 4900 + 3900
	if quote.SubtotalCents != wantSubtotal {
		t.Fatalf("expected subtotal %d, got %d", wantSubtotal, quote.SubtotalCents)
	}
	if quote.DiscountCents != 5902 {
		t.Fatalf("expected discount 5902, got %d", quote.DiscountCents)
	}
	if quote.TotalCents != wantSubtotal-5902 {
		t.Fatalf("expected total %d, got %d", wantSubtotal-5902, quote.TotalCents)
	}
	if len(quote.Lines) != 6 {
		t.Fatalf("expected 6 lines, got %d", len(quote.Lines))
	}
}

func TestCalculateQuote_DiscountRoundsHalfUp(t *testing.T) {
	// 8900 at 1250 bps = 1112.5
	quote, err := CalculateQuote(MustDefaults(), QuoteInput{
		Tier:         "table_top",
		TVCount:      1,
		TVSizeInches: 50,
		WallType:     "brick",
		DiscountBps:  1250,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.DiscountCents != 1113 {
		t.Fatalf("expected discount 1113, got %d", quote.DiscountCents)
	}
}

func TestCalculateQuote_Rejections(t *testing.T) {
	base := QuoteInput{Tier: "bronze", TVCount: 1, TVSizeInches: 40, WallType: "brick"}

	cases := []struct {
		name   string
		mutate func(*QuoteInput)
	}{
		{"unknown tier", func(in *QuoteInput) { in.Tier = "platinum" }},
		{"tv too large for tier", func(in *QuoteInput) { in.TVSizeInches = 55 }},
		{"zero tvs", func(in *QuoteInput) { in.TVCount = 0 }},
		{"too many tvs", func(in *QuoteInput) { in.TVCount = 6 }},
		{"unknown wall", func(in *QuoteInput) { in.WallType = "glass" }},
		{"unknown add-on", func(in *QuoteInput) { in.AddOns = []string{"laser_show"} }},
		{"duplicate add-on", func(in *QuoteInput) { in.AddOns = []string{"device_setup", "device_setup"} }},
		{"negative discount", func(in *QuoteInput) { in.DiscountBps = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := base
			tc.mutate(&in)
			_, err := CalculateQuote(MustDefaults(), in)
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCalculateLeadFee(t *testing.T) {
	table := MustDefaults()

	cases := []struct {
		name         string
		in           LeadFeeInput
		wantBase     int64
		wantAdjusted int64
		wantBand     string
	}{
		{"bronze low risk", LeadFeeInput{Tier: "bronze", TVCount: 1, Risk: "low"}, 1500, 1500, "premium"},
		{"bronze medium risk", LeadFeeInput{Tier: "bronze", TVCount: 1, Risk: "medium"}, 1500, 1275, "standard"},
		{"silver extras", LeadFeeInput{Tier: "silver", TVCount: 2, AddOns: []string{"a", "b"}, Risk: "low"}, 2900, 2900, "high_value"},
		{"gold capped", LeadFeeInput{Tier: "gold", TVCount: 3, AddOns: []string{"a", "b", "c", "d"}, Risk: "low"}, 4000, 4000, "high_value"},
		{"gold high risk", LeadFeeInput{Tier: "gold", TVCount: 1, Risk: "high"}, 2800, 1680, "premium"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fee, err := CalculateLeadFee(table, tc.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if fee.BaseCents != tc.wantBase || fee.RiskAdjustedCents != tc.wantAdjusted || fee.Band != tc.wantBand {
				t.Fatalf("got %+v, want base %d adjusted %d band %s", fee, tc.wantBase, tc.wantAdjusted, tc.wantBand)
			}
		})
	}
}

func TestCalculateLeadFee_CriticalNotSellable(t *testing.T) {
	fee, err := CalculateLeadFee(MustDefaults(), LeadFeeInput{Tier: "silver", TVCount: 1, Risk: "critical"})
	if !errors.Is(err, ErrLeadNotSellable) {
		t.Fatalf("expected ErrLeadNotSellable, got %v", err)
	}
	if fee.BaseCents != 2000 || fee.RiskAdjustedCents != 0 {
		t.Fatalf("expected base fee to be reported, got %+v", fee)
	}

	if _, err := CalculateLeadFee(MustDefaults(), LeadFeeInput{Tier: "silver", TVCount: 1, Risk: "unknown"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown risk, got %v", err)
	}
}

func TestApplyFeeStructure(t *testing.T) {
	table := MustDefaults()
	cases := map[string]int64{
		"pay_per_lead": 2000,
		"subscription": 1500,
		"premium":      1000,
	}
	for structure, want := range cases {
		got, err := ApplyFeeStructure(table, 2000, structure)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", structure, err)
		}
		if got != want {
			t.Fatalf("%s: expected %d, got %d", structure, want, got)
		}
	}
	if _, err := ApplyFeeStructure(table, 2000, "barter"); err == nil {
		t.Fatal("expected error for unknown structure")
	}
}

func TestFeeBand(t *testing.T) {
	table := MustDefaults()
	cases := map[int64]string{
		0:    "standard",
		1499: "standard",
		1500: "premium",
		2499: "premium",
		2500: "high_value",
		9999: "high_value",
	}
	for cents, want := range cases {
		if got := table.FeeBand(cents); got != want {
			t.Fatalf("FeeBand(%d) = %q, want %q", cents, got, want)
		}
	}
}

func TestApplyOverrides(t *testing.T) {
	base := MustDefaults()
	changed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	table := ApplyOverrides(base, []repository.Override{
		{Kind: KindTierPrice, Key: "silver", AmountCents: 16900, UpdatedAt: changed},
		{Kind: KindTierLeadFee, Key: "silver", AmountCents: 2200, UpdatedAt: changed.Add(-time.Hour)},
		{Kind: KindAddOn, Key: "device_setup", AmountCents: 3000, UpdatedAt: changed},
		{Kind: KindWallSurcharge, Key: "brick", AmountCents: 500, UpdatedAt: changed},
		{Kind: KindAddOn, Key: "retired_add_on", AmountCents: 100, UpdatedAt: changed.Add(time.Hour)},
	})

	silver, _ := table.Tier("silver")
	if silver.PriceCents != 16900 || silver.LeadFeeCents != 2200 {
		t.Fatalf("silver overrides not applied: %+v", silver)
	}
	if addOn, _ := table.AddOn("device_setup"); addOn.PriceCents != 3000 {
		t.Fatalf("add-on override not applied: %+v", addOn)
	}
	if wall, _ := table.WallType("brick"); wall.SurchargeCents != 500 {
		t.Fatalf("wall override not applied: %+v", wall)
	}
	if table.Version != base.Version+"+20260301120000" {
		t.Fatalf("unexpected version %q", table.Version)
	}

	if original, _ := base.Tier("silver"); original.PriceCents != 15900 {
		t.Fatal("overrides leaked into the base table")
	}
	if untouched := ApplyOverrides(base, nil); untouched.Version != base.Version {
		t.Fatalf("version must not change without overrides, got %q", untouched.Version)
	}
}
