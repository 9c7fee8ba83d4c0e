// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"tradesbook/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Booking Domain Events
// =============================================================================

// BookingCreated is published after a booking is persisted.
type BookingCreated struct {
	BaseEvent
	BookingID     uuid.UUID `json:"bookingId"`
	BookingCode   string    `json:"bookingCode"`
	QRToken       string    `json:"qrToken"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	ServiceTier   string    `json:"serviceTier"`
	TotalCents    int64     `json:"totalCents"`
	PreferredDate time.Time `json:"preferredDate"`
	TimeSlot      string    `json:"timeSlot"`
	Status        string    `json:"status"`
	RiskLevel     string    `json:"riskLevel"`
	ReferralCode  *string   `json:"referralCode,omitempty"`

	// VerifyToken is empty when the customer's email is already verified.
	VerifyToken string `json:"-"`
}

func (e BookingCreated) EventName() string { return "bookings.booking.created" }

// BookingFlagged is published when a booking lands in the flagged state,
// either at creation (critical risk) or after a review or refund.
type BookingFlagged struct {
	BaseEvent
	BookingID    uuid.UUID      `json:"bookingId"`
	BookingCode  string         `json:"bookingCode"`
	QualityScore int            `json:"qualityScore"`
	RiskLevel    string         `json:"riskLevel"`
	Factors      map[string]int `json:"factors"`
	Reason       string         `json:"reason"`
}

func (e BookingFlagged) EventName() string { return "bookings.booking.flagged" }

// BookingCancelled is published when a booking is cancelled by the customer or an admin.
type BookingCancelled struct {
	BaseEvent
	BookingID   uuid.UUID `json:"bookingId"`
	BookingCode string    `json:"bookingCode"`
	ByCustomer  bool      `json:"byCustomer"`
}

func (e BookingCancelled) EventName() string { return "bookings.booking.cancelled" }

// BookingCompleted is published when an installer marks a job done.
type BookingCompleted struct {
	BaseEvent
	BookingID      uuid.UUID  `json:"bookingId"`
	BookingCode    string     `json:"bookingCode"`
	InstallerID    uuid.UUID  `json:"installerId"`
	ReferralCodeID *uuid.UUID `json:"referralCodeId,omitempty"`
}

func (e BookingCompleted) EventName() string { return "bookings.booking.completed" }

// BookingReminderDue is published by the scheduler the day before an installation.
type BookingReminderDue struct {
	BaseEvent
	BookingID     uuid.UUID `json:"bookingId"`
	BookingCode   string    `json:"bookingCode"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	PreferredDate time.Time `json:"preferredDate"`
	TimeSlot      string    `json:"timeSlot"`
}

func (e BookingReminderDue) EventName() string { return "bookings.booking.reminder_due" }

// =============================================================================
// Marketplace Domain Events
// =============================================================================

// LeadPurchased is published after an installer buys a lead.
type LeadPurchased struct {
	BaseEvent
	AssignmentID      uuid.UUID `json:"assignmentId"`
	BookingID         uuid.UUID `json:"bookingId"`
	BookingCode       string    `json:"bookingCode"`
	InstallerID       uuid.UUID `json:"installerId"`
	InstallerName     string    `json:"installerName"`
	InstallerEmail    string    `json:"installerEmail"`
	InstallerPhone    string    `json:"installerPhone"`
	CustomerName      string    `json:"customerName"`
	CustomerEmail     string    `json:"customerEmail"`
	ChargedCents      int64     `json:"chargedCents"`
	BalanceAfterCents int64     `json:"balanceAfterCents"`
}

func (e LeadPurchased) EventName() string { return "installers.lead.purchased" }

// LeadRefunded is published when a refund request is resolved.
type LeadRefunded struct {
	BaseEvent
	RefundRequestID uuid.UUID `json:"refundRequestId"`
	AssignmentID    uuid.UUID `json:"assignmentId"`
	BookingID       uuid.UUID `json:"bookingId"`
	BookingCode     string    `json:"bookingCode"`
	InstallerID     uuid.UUID `json:"installerId"`
	InstallerEmail  string    `json:"installerEmail"`
	Approved        bool      `json:"approved"`
	AmountCents     int64     `json:"amountCents"`
	Reason          string    `json:"reason"`
	Note            string    `json:"note"`
}

func (e LeadRefunded) EventName() string { return "installers.lead.refunded" }

// =============================================================================
// Referral Domain Events
// =============================================================================

// InvoiceVerified is published when a retailer invoice is accepted.
type InvoiceVerified struct {
	BaseEvent
	InvoiceID     uuid.UUID `json:"invoiceId"`
	InvoiceNumber string    `json:"invoiceNumber"`
	Retailer      string    `json:"retailer"`
	CustomerID    uuid.UUID `json:"customerId"`
	CustomerEmail string    `json:"customerEmail"`
}

func (e InvoiceVerified) EventName() string { return "referrals.invoice.verified" }
