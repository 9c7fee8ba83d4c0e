package repository

import (
	"time"

	"github.com/google/uuid"
)

// Ledger entry types. Debits are stored with a negative amount.
const (
	TxTopUp        = "top_up"
	TxLeadPurchase = "lead_purchase"
	TxRefund       = "refund"
	TxAdjustment   = "adjustment"
)

// Assignment statuses.
const (
	AssignmentActive    = "active"
	AssignmentCompleted = "completed"
	AssignmentRefunded  = "refunded"
)

// Refund request statuses.
const (
	RefundPending  = "pending"
	RefundApproved = "approved"
	RefundRejected = "rejected"
)

// Installer is a business that buys leads.
type Installer struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	BusinessName string
	Email        string
	Phone        string
	Counties     []string
	FeeStructure string
	IsApproved   bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AdminUpdate changes the fields only admins control. Nil leaves a field as is.
type AdminUpdate struct {
	IsApproved   *bool
	IsActive     *bool
	FeeStructure *string
}

// Wallet is an installer's prepaid balance.
type Wallet struct {
	InstallerID  uuid.UUID
	BalanceCents int64
	UpdatedAt    time.Time
}

// Transaction is one wallet ledger row.
type Transaction struct {
	ID                uuid.UUID
	InstallerID       uuid.UUID
	Type              string
	AmountCents       int64
	BalanceAfterCents int64
	BookingID         *uuid.UUID
	Reference         *string
	Description       string
	CreatedAt         time.Time
}

// Credit describes money added to a wallet.
type Credit struct {
	InstallerID uuid.UUID
	Type        string
	AmountCents int64
	Reference   *string
	Description string
}

// Lead is an open booking as shown in the marketplace.
type Lead struct {
	BookingID     uuid.UUID
	BookingCode   string
	ContactName   string
	ContactEmail  string
	ContactPhone  string
	County        string
	Eircode       *string
	ServiceTier   string
	TVCount       int
	TVSizeInches  int
	WallType      string
	AddOns        []string
	PreferredDate time.Time
	TimeSlot      string
	QualityScore  int
	RiskLevel     string
	LeadFeeCents  int64
	CreatedAt     time.Time
}

// PurchaseTarget is the locked booking handed to the charge callback.
type PurchaseTarget struct {
	BookingID    uuid.UUID
	BookingCode  string
	Status       string
	RiskLevel    string
	LeadFeeCents int64
	ContactName  string
	ContactEmail string
}

// ChargeFunc computes what the installer pays for a locked booking.
type ChargeFunc func(target PurchaseTarget) (int64, error)

// Assignment is a purchased lead.
type Assignment struct {
	ID                  uuid.UUID
	BookingID           uuid.UUID
	InstallerID         uuid.UUID
	LeadFeeCents        int64
	ChargedCents        int64
	RiskLevelAtPurchase string
	Status              string
	PurchasedAt         time.Time
	CompletedAt         *time.Time
	RefundedAt          *time.Time
}

// PurchaseResult is the outcome of a successful purchase.
type PurchaseResult struct {
	Assignment        Assignment
	Target            PurchaseTarget
	BalanceAfterCents int64
}

// Job is an assignment with the booking details the installer paid for.
type Job struct {
	Assignment
	BookingCode    string
	BookingStatus  string
	ContactName    string
	ContactEmail   string
	ContactPhone   string
	Address        string
	County         string
	Eircode        *string
	ServiceTier    string
	TVCount        int
	TVSizeInches   int
	WallType       string
	AddOns         []string
	PreferredDate  time.Time
	TimeSlot       string
	Notes          *string
	ReferralCodeID *uuid.UUID
	QualityScore   int
	FraudFactors   map[string]int
}

// RefundRequest is an installer's claim against a purchased lead.
type RefundRequest struct {
	ID           uuid.UUID
	AssignmentID uuid.UUID
	InstallerID  uuid.UUID
	Reason       string
	Details      *string
	Status       string
	DecisionNote *string
	DecidedBy    *uuid.UUID
	DecidedAt    *time.Time
	CreatedAt    time.Time
}

// RefundView joins a request with what an admin needs to decide it.
type RefundView struct {
	RefundRequest
	BookingID      uuid.UUID
	BookingCode    string
	BusinessName   string
	InstallerEmail string
	ChargedCents   int64
}

// RefundFilter narrows a refund listing. Zero values match everything.
type RefundFilter struct {
	Status      string
	InstallerID *uuid.UUID
}

// RefundDecision is applied when a request is approved.
// BookingStatus is where an assigned booking moves; empty leaves it alone.
type RefundDecision struct {
	RequestID     uuid.UUID
	DecidedBy     *uuid.UUID
	Note          string
	BookingStatus string
}

// RefundResult is the state after an approval.
type RefundResult struct {
	Request           RefundRequest
	Assignment        Assignment
	BookingCode       string
	BookingStatus     string
	BalanceAfterCents int64
}
