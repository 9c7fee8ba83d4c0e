package service

import (
	"errors"

	"tradesbook/platform/apperr"
	"tradesbook/platform/money"
)

// ErrLeadNotSellable is returned for bookings whose risk multiplier is zero.
var ErrLeadNotSellable = errors.New("lead is not sellable at this risk level")

// Line codes that are not tier, add-on or wall keys.
const (
	LineAdditionalTV = "additional_tv"
	LineLargeTV      = "large_tv"
	LineWallPrefix   = "wall_"
)

// QuoteInput describes what the customer wants installed.
type QuoteInput struct {
	Tier         string
	TVCount      int
	TVSizeInches int
	WallType     string
	AddOns       []string
	DiscountBps  int
}

// QuoteLine is one priced row of a quote.
type QuoteLine struct {
	Code       string `json:"code"`
	Label      string `json:"label"`
	Quantity   int    `json:"quantity"`
	UnitCents  int64  `json:"unitCents"`
	TotalCents int64  `json:"totalCents"`
}

// Quote is the customer price breakdown.
type Quote struct {
	Lines         []QuoteLine `json:"lines"`
	SubtotalCents int64       `json:"subtotalCents"`
	DiscountCents int64       `json:"discountCents"`
	TotalCents    int64       `json:"totalCents"`
	Version       string      `json:"version"`
}

// LeadFeeInput holds the booking facts that drive the installer fee.
type LeadFeeInput struct {
	Tier    string
	TVCount int
	AddOns  []string
	Risk    string
}

// LeadFee is the installer-facing price of a lead before fee-structure discounts.
type LeadFee struct {
	BaseCents         int64  `json:"baseCents"`
	RiskAdjustedCents int64  `json:"riskAdjustedCents"`
	Band              string `json:"band"`
}

// CalculateQuote prices a booking. The first TV is charged at the tier price
// and each additional TV at AdditionalTVBps of it. Wall and large-TV
// surcharges apply per TV, add-ons once. The referral discount is taken off
// the subtotal and rounded half up.
func CalculateQuote(table Table, in QuoteInput) (Quote, error) {
	tier, ok := table.Tier(in.Tier)
	if !ok {
		return Quote{}, apperr.Validation("unknown service tier")
	}
	if in.TVCount < 1 || in.TVCount > table.MaxTVs {
		return Quote{}, apperr.Validation("tv count out of range")
	}
	if in.TVSizeInches <= 0 {
		return Quote{}, apperr.Validation("tv size is required")
	}
	if in.TVSizeInches > tier.MaxTVInches {
		return Quote{}, apperr.Validation("tv size exceeds the maximum for this tier")
	}
	wall, ok := table.WallType(in.WallType)
	if !ok {
		return Quote{}, apperr.Validation("unknown wall type")
	}
	if in.DiscountBps < 0 || in.DiscountBps > 10000 {
		return Quote{}, apperr.Validation("discount out of range")
	}

	lines := []QuoteLine{{
		Code:       tier.Key,
		Label:      tier.Label,
		Quantity:   1,
		UnitCents:  tier.PriceCents,
		TotalCents: tier.PriceCents,
	}}

	if extra := in.TVCount - 1; extra > 0 {
		unit := money.ApplyBps(tier.PriceCents, table.AdditionalTVBps)
		lines = append(lines, QuoteLine{
			Code:       LineAdditionalTV,
			Label:      "Additional TV",
			Quantity:   extra,
			UnitCents:  unit,
			TotalCents: unit * int64(extra),
		})
	}

	if wall.SurchargeCents > 0 {
		lines = append(lines, QuoteLine{
			Code:       LineWallPrefix + wall.Key,
			Label:      wall.Label + " wall",
			Quantity:   in.TVCount,
			UnitCents:  wall.SurchargeCents,
			TotalCents: wall.SurchargeCents * int64(in.TVCount),
		})
	}

	if table.LargeTV.MinInches > 0 && in.TVSizeInches >= table.LargeTV.MinInches {
		lines = append(lines, QuoteLine{
			Code:       LineLargeTV,
			Label:      "Large TV handling",
			Quantity:   in.TVCount,
			UnitCents:  table.LargeTV.SurchargeCents,
			TotalCents: table.LargeTV.SurchargeCents * int64(in.TVCount),
		})
	}

	seen := make(map[string]bool, len(in.AddOns))
	for _, key := range in.AddOns {
		if seen[key] {
			return Quote{}, apperr.Validation("duplicate add-on")
		}
		seen[key] = true

		addOn, ok := table.AddOn(key)
		if !ok {
			return Quote{}, apperr.Validation("unknown add-on")
		}
		lines = append(lines, QuoteLine{
			Code:       addOn.Key,
			Label:      addOn.Label,
			Quantity:   1,
			UnitCents:  addOn.PriceCents,
			TotalCents: addOn.PriceCents,
		})
	}

	var subtotal int64
	for _, line := range lines {
		subtotal += line.TotalCents
	}
	discount := money.ApplyBps(subtotal, in.DiscountBps)

	return Quote{
		Lines:         lines,
		SubtotalCents: subtotal,
		DiscountCents: discount,
		TotalCents:    subtotal - discount,
		Version:       table.Version,
	}, nil
}

// CalculateLeadFee prices a lead: tier base fee plus per-add-on and multi-TV
// fees, capped, then scaled by the risk multiplier. A zero multiplier yields
// ErrLeadNotSellable; the returned fee still carries BaseCents and its band.
func CalculateLeadFee(table Table, in LeadFeeInput) (LeadFee, error) {
	tier, ok := table.Tier(in.Tier)
	if !ok {
		return LeadFee{}, apperr.Validation("unknown service tier")
	}

	rules := table.LeadFee
	base := tier.LeadFeeCents + rules.PerAddOnCents*int64(len(in.AddOns))
	if in.TVCount > 1 {
		base += rules.MultiTVCents
	}
	if rules.CapCents > 0 && base > rules.CapCents {
		base = rules.CapCents
	}

	multiplier, ok := rules.RiskMultiplierBps[in.Risk]
	if !ok {
		return LeadFee{}, apperr.Validation("unknown risk level")
	}
	if multiplier == 0 {
		return LeadFee{BaseCents: base, Band: table.FeeBand(base)}, ErrLeadNotSellable
	}

	adjusted := money.ApplyBps(base, multiplier)
	return LeadFee{
		BaseCents:         base,
		RiskAdjustedCents: adjusted,
		Band:              table.FeeBand(adjusted),
	}, nil
}

// ApplyFeeStructure returns what an installer on the given fee structure pays.
func ApplyFeeStructure(table Table, feeCents int64, structure string) (int64, error) {
	bps, ok := table.LeadFee.FeeStructureDiscountBps[structure]
	if !ok {
		return 0, apperr.Validation("unknown fee structure")
	}
	return feeCents - money.ApplyBps(feeCents, bps), nil
}

// FeeBand names the band a fee falls into.
func (t Table) FeeBand(cents int64) string {
	for _, band := range t.LeadFee.Bands {
		if band.BelowCents == 0 || cents < band.BelowCents {
			return band.Name
		}
	}
	return ""
}
