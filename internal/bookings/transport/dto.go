package transport

import "time"

// DateLayout is the wire format of preferred dates.
const DateLayout = "2006-01-02"

// CreateBookingRequest is the public booking form.
type CreateBookingRequest struct {
	FirstName     string   `json:"firstName" validate:"required,min=1,max=100"`
	LastName      string   `json:"lastName" validate:"max=100"`
	Email         string   `json:"email" validate:"required,email,max=254"`
	Phone         string   `json:"phone" validate:"required,min=6,max=32"`
	Address       string   `json:"address" validate:"required,min=3,max=300"`
	County        string   `json:"county" validate:"required,max=50"`
	Eircode       string   `json:"eircode" validate:"omitempty,max=10"`
	ServiceTier   string   `json:"serviceTier" validate:"required,servicetier"`
	TVCount       int      `json:"tvCount" validate:"required,min=1,max=5"`
	TVSizeInches  int      `json:"tvSizeInches" validate:"required,min=20,max=120"`
	WallType      string   `json:"wallType" validate:"required,walltype"`
	AddOns        []string `json:"addOns" validate:"omitempty,max=4,dive,required"`
	PreferredDate string   `json:"preferredDate" validate:"required,datetime=2006-01-02"`
	TimeSlot      string   `json:"timeSlot" validate:"required,oneof=morning afternoon evening"`
	Notes         string   `json:"notes" validate:"max=2000"`
	ReferralCode  string   `json:"referralCode" validate:"omitempty,max=40"`
}

// CustomerLookupQuery identifies the customer on public booking routes.
type CustomerLookupQuery struct {
	Email string `form:"email" validate:"required,email"`
}

// CancelBookingRequest confirms a customer cancellation.
type CancelBookingRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyEmailRequest carries the token from an email verification link.
type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required,max=2048"`
}

// VerifyEmailResponse confirms the customer's email state.
type VerifyEmailResponse struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
}

// ListBookingsQuery filters the admin list.
type ListBookingsQuery struct {
	Status   string `form:"status" validate:"omitempty,max=20"`
	Risk     string `form:"risk" validate:"omitempty,oneof=low medium high critical"`
	County   string `form:"county" validate:"omitempty,max=50"`
	Search   string `form:"search" validate:"omitempty,max=100"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// ChangeStatusRequest is an admin status change.
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending_review open cancelled flagged expired assigned completed"`
	Reason string `json:"reason" validate:"max=500"`
}

// ReviewRequest resolves a booking held for review.
type ReviewRequest struct {
	Approve *bool  `json:"approve" validate:"required"`
	Note    string `json:"note" validate:"max=500"`
}

// BookingSummary is what the customer sees after booking or on lookup.
type BookingSummary struct {
	BookingCode   string    `json:"bookingCode"`
	Status        string    `json:"status"`
	ServiceTier   string    `json:"serviceTier"`
	TVCount       int       `json:"tvCount"`
	PreferredDate string    `json:"preferredDate"`
	TimeSlot      string    `json:"timeSlot"`
	County        string    `json:"county"`
	SubtotalCents int64     `json:"subtotalCents"`
	DiscountCents int64     `json:"discountCents"`
	TotalCents    int64     `json:"totalCents"`
	TrackingURL   string    `json:"trackingUrl"`
	CreatedAt     time.Time `json:"createdAt"`
}

// TrackingResponse is the QR tracking page payload. It carries no contact details.
type TrackingResponse struct {
	BookingCode   string `json:"bookingCode"`
	Status        string `json:"status"`
	ServiceTier   string `json:"serviceTier"`
	PreferredDate string `json:"preferredDate"`
	TimeSlot      string `json:"timeSlot"`
}

// AdminBookingResponse is the full booking for admins.
type AdminBookingResponse struct {
	ID             string         `json:"id"`
	BookingCode    string         `json:"bookingCode"`
	CustomerID     string         `json:"customerId"`
	ContactName    string         `json:"contactName"`
	ContactEmail   string         `json:"contactEmail"`
	ContactPhone   string         `json:"contactPhone"`
	Address        string         `json:"address"`
	County         string         `json:"county"`
	Eircode        *string        `json:"eircode,omitempty"`
	ServiceTier    string         `json:"serviceTier"`
	TVCount        int            `json:"tvCount"`
	TVSizeInches   int            `json:"tvSizeInches"`
	WallType       string         `json:"wallType"`
	AddOns         []string       `json:"addOns"`
	PreferredDate  string         `json:"preferredDate"`
	TimeSlot       string         `json:"timeSlot"`
	Notes          *string        `json:"notes,omitempty"`
	SubtotalCents  int64          `json:"subtotalCents"`
	DiscountCents  int64          `json:"discountCents"`
	TotalCents     int64          `json:"totalCents"`
	LeadFeeCents   int64          `json:"leadFeeCents"`
	PricingVersion string         `json:"pricingVersion"`
	ReferralCodeID *string        `json:"referralCodeId,omitempty"`
	QualityScore   int            `json:"qualityScore"`
	RiskLevel      string         `json:"riskLevel"`
	FraudFactors   map[string]int `json:"fraudFactors"`
	FraudVersion   string         `json:"fraudVersion"`
	Status         string         `json:"status"`
	ClientIP       *string        `json:"clientIp,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// AdminBookingListResponse is a page of bookings.
type AdminBookingListResponse struct {
	Items      []AdminBookingResponse `json:"items"`
	Total      int                    `json:"total"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"pageSize"`
	TotalPages int                    `json:"totalPages"`
}
