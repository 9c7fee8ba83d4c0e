package service

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultTableYAML []byte

// Every risk level and fee structure needs a lead fee rule.
var (
	requiredRiskLevels    = []string{"low", "medium", "high", "critical"}
	requiredFeeStructures = []string{"pay_per_lead", "subscription", "premium"}
)

// Tier is a bookable service level.
type Tier struct {
	Key          string `yaml:"key" json:"key"`
	Label        string `yaml:"label" json:"label"`
	PriceCents   int64  `yaml:"price_cents" json:"priceCents"`
	LeadFeeCents int64  `yaml:"lead_fee_cents" json:"leadFeeCents"`
	MaxTVInches  int    `yaml:"max_tv_inches" json:"maxTvInches"`
}

// AddOn is an optional extra charged once per booking.
type AddOn struct {
	Key        string `yaml:"key" json:"key"`
	Label      string `yaml:"label" json:"label"`
	PriceCents int64  `yaml:"price_cents" json:"priceCents"`
}

// WallType carries the per-TV surcharge for a wall construction.
type WallType struct {
	Key            string `yaml:"key" json:"key"`
	Label          string `yaml:"label" json:"label"`
	SurchargeCents int64  `yaml:"surcharge_cents" json:"surchargeCents"`
}

// LargeTVRule adds a per-TV surcharge from MinInches upwards.
type LargeTVRule struct {
	MinInches      int   `yaml:"min_inches" json:"minInches"`
	SurchargeCents int64 `yaml:"surcharge_cents" json:"surchargeCents"`
}

// FeeBandRule names fees below BelowCents. A zero BelowCents is open-ended.
type FeeBandRule struct {
	Name       string `yaml:"name" json:"name"`
	BelowCents int64  `yaml:"below_cents" json:"belowCents,omitempty"`
}

// LeadFeeRules governs what installers pay for a lead.
type LeadFeeRules struct {
	PerAddOnCents           int64          `yaml:"per_add_on_cents" json:"perAddOnCents"`
	MultiTVCents            int64          `yaml:"multi_tv_cents" json:"multiTvCents"`
	CapCents                int64          `yaml:"cap_cents" json:"capCents"`
	RiskMultiplierBps       map[string]int `yaml:"risk_multiplier_bps" json:"riskMultiplierBps"`
	FeeStructureDiscountBps map[string]int `yaml:"fee_structure_discount_bps" json:"feeStructureDiscountBps"`
	Bands                   []FeeBandRule  `yaml:"bands" json:"bands"`
}

// Table is the complete price list. Amounts are euro cents.
type Table struct {
	Version         string       `yaml:"version" json:"version"`
	MaxTVs          int          `yaml:"max_tvs" json:"maxTvs"`
	AdditionalTVBps int          `yaml:"additional_tv_bps" json:"additionalTvBps"`
	Tiers           []Tier       `yaml:"tiers" json:"tiers"`
	AddOns          []AddOn      `yaml:"add_ons" json:"addOns"`
	WallTypes       []WallType   `yaml:"wall_types" json:"wallTypes"`
	LargeTV         LargeTVRule  `yaml:"large_tv" json:"largeTv"`
	LeadFee         LeadFeeRules `yaml:"lead_fee" json:"leadFee"`
}

// Tier returns the tier with the given key.
func (t Table) Tier(key string) (Tier, bool) {
	for _, tier := range t.Tiers {
		if tier.Key == key {
			return tier, true
		}
	}
	return Tier{}, false
}

// AddOn returns the add-on with the given key.
func (t Table) AddOn(key string) (AddOn, bool) {
	for _, addOn := range t.AddOns {
		if addOn.Key == key {
			return addOn, true
		}
	}
	return AddOn{}, false
}

// WallType returns the wall type with the given key.
func (t Table) WallType(key string) (WallType, bool) {
	for _, wall := range t.WallTypes {
		if wall.Key == key {
			return wall, true
		}
	}
	return WallType{}, false
}

// Clone returns a deep copy so overrides never touch the defaults.
func (t Table) Clone() Table {
	out := t
	out.Tiers = append([]Tier(nil), t.Tiers...)
	out.AddOns = append([]AddOn(nil), t.AddOns...)
	out.WallTypes = append([]WallType(nil), t.WallTypes...)
	out.LeadFee.Bands = append([]FeeBandRule(nil), t.LeadFee.Bands...)
	out.LeadFee.RiskMultiplierBps = make(map[string]int, len(t.LeadFee.RiskMultiplierBps))
	for k, v := range t.LeadFee.RiskMultiplierBps {
		out.LeadFee.RiskMultiplierBps[k] = v
	}
	out.LeadFee.FeeStructureDiscountBps = make(map[string]int, len(t.LeadFee.FeeStructureDiscountBps))
	for k, v := range t.LeadFee.FeeStructureDiscountBps {
		out.LeadFee.FeeStructureDiscountBps[k] = v
	}
	return out
}

// Validate checks the table is internally consistent.
func (t Table) Validate() error {
	if t.Version == "" {
		return fmt.Errorf("pricing table version is required")
	}
	if len(t.Tiers) == 0 {
		return fmt.Errorf("pricing table has no tiers")
	}
	if t.MaxTVs < 1 {
		return fmt.Errorf("max_tvs must be at least 1")
	}
	for _, tier := range t.Tiers {
		if tier.PriceCents < 0 || tier.LeadFeeCents < 0 || tier.MaxTVInches <= 0 {
			return fmt.Errorf("tier %q has invalid amounts", tier.Key)
		}
	}
	if len(t.LeadFee.Bands) == 0 || t.LeadFee.Bands[len(t.LeadFee.Bands)-1].BelowCents != 0 {
		return fmt.Errorf("lead fee bands must end with an open-ended band")
	}
	for _, level := range requiredRiskLevels {
		bps, ok := t.LeadFee.RiskMultiplierBps[level]
		if !ok {
			return fmt.Errorf("risk_multiplier_bps is missing %q", level)
		}
		if bps < 0 {
			return fmt.Errorf("risk_multiplier_bps for %q must not be negative", level)
		}
	}
	for _, structure := range requiredFeeStructures {
		bps, ok := t.LeadFee.FeeStructureDiscountBps[structure]
		if !ok {
			return fmt.Errorf("fee_structure_discount_bps is missing %q", structure)
		}
		if bps < 0 || bps > 10000 {
			return fmt.Errorf("fee_structure_discount_bps for %q must be between 0 and 10000", structure)
		}
	}
	return nil
}

// ParseTable decodes and validates a YAML price list.
func ParseTable(data []byte) (Table, error) {
	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return Table{}, fmt.Errorf("decode pricing table: %w", err)
	}
	if err := table.Validate(); err != nil {
		return Table{}, err
	}
	return table, nil
}

// LoadDefaults returns the embedded table, or the file at path when set.
func LoadDefaults(path string) (Table, error) {
	if path == "" {
		return ParseTable(defaultTableYAML)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read pricing file: %w", err)
	}
	return ParseTable(data)
}

// MustDefaults returns the embedded table and panics if it is broken.
func MustDefaults() Table {
	table, err := ParseTable(defaultTableYAML)
	if err != nil {
		panic(err)
	}
	return table
}
