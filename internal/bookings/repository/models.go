package repository

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a person who has booked or verified an invoice.
type Customer struct {
	ID                uuid.UUID
	Email             string
	FirstName         string
	LastName          string
	Phone             string
	EmailVerified     bool
	InvoiceOriginated bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CustomerUpsert carries the fields written when a customer is seen again.
// InvoiceOriginated is sticky: once set it is never cleared.
type CustomerUpsert struct {
	Email             string
	FirstName         string
	LastName          string
	Phone             string
	InvoiceOriginated bool
}

// Booking is a persisted installation request.
type Booking struct {
	ID                uuid.UUID
	BookingCode       string
	QRToken           string
	CustomerID        uuid.UUID
	ContactName       string
	ContactEmail      string
	ContactPhone      string
	Address           string
	County            string
	Eircode           *string
	ServiceTier       string
	TVCount           int
	TVSizeInches      int
	WallType          string
	AddOns            []string
	PreferredDate     time.Time
	PreferredTimeSlot string
	Notes             *string
	SubtotalCents     int64
	DiscountCents     int64
	TotalCents        int64
	LeadFeeCents      int64
	PricingVersion    string
	ReferralCodeID    *uuid.UUID
	QualityScore      int
	RiskLevel         string
	FraudFactors      map[string]int
	FraudVersion      string
	Status            string
	ClientIP          *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ReferralUsage links a new booking to the referral code it used.
type ReferralUsage struct {
	ReferralCodeID  uuid.UUID
	DiscountCents   int64
	CommissionCents int64
}

// Assessment is a stored fraud result together with the fee it implies.
type Assessment struct {
	QualityScore int
	RiskLevel    string
	FraudFactors map[string]int
	FraudVersion string
	LeadFeeCents int64
}

// ListParams filters the admin booking list.
type ListParams struct {
	Status   string
	Risk     string
	County   string
	Search   string
	Page     int
	PageSize int
}

// ListResult is a page of bookings.
type ListResult struct {
	Items      []Booking
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}
