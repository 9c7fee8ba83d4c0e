package transport

import "time"

// QuoteRequest asks for a customer price.
type QuoteRequest struct {
	ServiceTier  string   `json:"serviceTier" validate:"required,servicetier"`
	TVCount      int      `json:"tvCount" validate:"required,min=1,max=5"`
	TVSizeInches int      `json:"tvSizeInches" validate:"required,min=20,max=120"`
	WallType     string   `json:"wallType" validate:"required,walltype"`
	AddOns       []string `json:"addOns" validate:"omitempty,max=4,dive,required"`
	ReferralCode *string  `json:"referralCode,omitempty" validate:"omitempty,max=40"`
}

// SetOverrideRequest replaces one amount in the price list.
type SetOverrideRequest struct {
	Kind        string `json:"kind" validate:"required,oneof=tier_price tier_lead_fee add_on wall_surcharge"`
	Key         string `json:"key" validate:"required,max=50"`
	AmountCents int64  `json:"amountCents" validate:"min=0,max=1000000"`
}

// OverrideResponse is one stored override.
type OverrideResponse struct {
	Kind        string    `json:"kind"`
	Key         string    `json:"key"`
	AmountCents int64     `json:"amountCents"`
	UpdatedBy   *string   `json:"updatedBy,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// OverrideListResponse wraps the override list.
type OverrideListResponse struct {
	Items []OverrideResponse `json:"items"`
}
