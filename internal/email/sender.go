// Package email renders and delivers transactional emails.
package email

import (
	"context"
	"time"
)

// Sender delivers the transactional emails the platform sends.
type Sender interface {
	SendBookingConfirmation(ctx context.Context, toEmail string, data BookingConfirmation) error
	SendFraudAlert(ctx context.Context, toEmail string, data FraudAlert) error
	SendInstallerIntroduction(ctx context.Context, toEmail string, data InstallerIntroduction) error
	SendLeadReceipt(ctx context.Context, toEmail string, data LeadReceipt) error
	SendRefundDecision(ctx context.Context, toEmail string, data RefundDecision) error
	SendBookingReminder(ctx context.Context, toEmail string, data BookingReminder) error
}

// BookingConfirmation is sent to the customer after booking.
type BookingConfirmation struct {
	CustomerName  string
	BookingCode   string
	ServiceTier   string
	TotalCents    int64
	PreferredDate time.Time
	TimeSlot      string
	TrackingURL   string
	UnderReview   bool
	VerifyURL     string
}

// FraudAlert tells an admin a booking was flagged.
type FraudAlert struct {
	BookingCode  string
	QualityScore int
	RiskLevel    string
	Factors      map[string]int
	Reason       string
	ReviewURL    string
}

// InstallerIntroduction gives the customer their installer's details.
type InstallerIntroduction struct {
	CustomerName   string
	BookingCode    string
	InstallerName  string
	InstallerEmail string
	InstallerPhone string
}

// LeadReceipt confirms a lead purchase to the installer.
type LeadReceipt struct {
	InstallerName     string
	BookingCode       string
	ChargedCents      int64
	BalanceAfterCents int64
	JobsURL           string
}

// RefundDecision tells the installer how a refund request was resolved.
type RefundDecision struct {
	BookingCode string
	Approved    bool
	AmountCents int64
	Reason      string
	Note        string
}

// BookingReminder is sent the day before an installation.
type BookingReminder struct {
	CustomerName  string
	BookingCode   string
	PreferredDate time.Time
	TimeSlot      string
	LookupURL     string
}

// NoopSender drops every email. Used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendBookingConfirmation(context.Context, string, BookingConfirmation) error {
	return nil
}

func (NoopSender) SendFraudAlert(context.Context, string, FraudAlert) error { return nil }

func (NoopSender) SendInstallerIntroduction(context.Context, string, InstallerIntroduction) error {
	return nil
}

func (NoopSender) SendLeadReceipt(context.Context, string, LeadReceipt) error { return nil }

func (NoopSender) SendRefundDecision(context.Context, string, RefundDecision) error { return nil }

func (NoopSender) SendBookingReminder(context.Context, string, BookingReminder) error { return nil }

var _ Sender = NoopSender{}
