package repository

import (
	"time"

	"github.com/google/uuid"
)

// Referral usage statuses.
const (
	UsagePending = "pending"
	UsageEarned  = "earned"
	UsageVoid    = "void"
)

// InvoiceVerified is the only status invoices are stored with today.
const InvoiceVerified = "verified"

// Code is a staff referral code.
type Code struct {
	ID              uuid.UUID
	Code            string
	Retailer        string
	StoreCode       string
	StaffName       string
	DiscountBps     int
	CommissionCents int64
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Invoice is a verified retailer invoice.
type Invoice struct {
	ID            uuid.UUID
	InvoiceNumber string
	RawInput      string
	Retailer      string
	StoreCode     *string
	CustomerID    uuid.UUID
	PurchaseDate  time.Time
	ImageKey      *string
	Status        string
	CreatedAt     time.Time
}

// StoreStats aggregates referral performance for one store.
type StoreStats struct {
	Retailer               string
	StoreCode              string
	Bookings               int64
	Completed              int64
	EarnedCommissionCents  int64
	PendingCommissionCents int64
	VerifiedInvoices       int64
}
