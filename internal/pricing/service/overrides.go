package service

import (
	"fmt"
	"time"

	"tradesbook/internal/pricing/repository"
)

// Override kinds an admin can set.
const (
	KindTierPrice     = "tier_price"
	KindTierLeadFee   = "tier_lead_fee"
	KindAddOn         = "add_on"
	KindWallSurcharge = "wall_surcharge"
)

// validOverrideTarget reports whether key names something the kind can change.
func validOverrideTarget(table Table, kind, key string) bool {
	switch kind {
	case KindTierPrice, KindTierLeadFee:
		_, ok := table.Tier(key)
		return ok
	case KindAddOn:
		_, ok := table.AddOn(key)
		return ok
	case KindWallSurcharge:
		_, ok := table.WallType(key)
		return ok
	default:
		return false
	}
}

// ApplyOverrides returns a copy of base with overrides merged in. Overrides
// that no longer match a table entry are ignored. When any override applies,
// the version gains a suffix from the most recent change so stored bookings
// can tell which prices they were quoted.
func ApplyOverrides(base Table, overrides []repository.Override) Table {
	table := base.Clone()
	var latest time.Time
	applied := 0

	for _, o := range overrides {
		if !applyOverride(&table, o) {
			continue
		}
		applied++
		if o.UpdatedAt.After(latest) {
			latest = o.UpdatedAt
		}
	}

	if applied > 0 {
		table.Version = fmt.Sprintf("%s+%s", base.Version, latest.UTC().Format("20060102150405"))
	}
	return table
}

func applyOverride(table *Table, o repository.Override) bool {
	switch o.Kind {
	case KindTierPrice, KindTierLeadFee:
		for i := range table.Tiers {
			if table.Tiers[i].Key != o.Key {
				continue
			}
			if o.Kind == KindTierPrice {
				table.Tiers[i].PriceCents = o.AmountCents
			} else {
				table.Tiers[i].LeadFeeCents = o.AmountCents
			}
			return true
		}
	case KindAddOn:
		for i := range table.AddOns {
			if table.AddOns[i].Key == o.Key {
				table.AddOns[i].PriceCents = o.AmountCents
				return true
			}
		}
	case KindWallSurcharge:
		for i := range table.WallTypes {
			if table.WallTypes[i].Key == o.Key {
				table.WallTypes[i].SurchargeCents = o.AmountCents
				return true
			}
		}
	}
	return false
}
