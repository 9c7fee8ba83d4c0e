// Package notification sends emails in response to domain events.
// Domain modules publish events and never talk to the mail transport directly.
package notification

import (
	"context"
	"net/url"
	"strings"

	"tradesbook/internal/email"
	"tradesbook/internal/events"
	"tradesbook/platform/config"
	"tradesbook/platform/logger"
)

const bookingStatusOpen = "open"

// Module handles all notification-related event subscriptions.
type Module struct {
	sender email.Sender
	cfg    config.NotificationConfig
	log    *logger.Logger
}

// New creates the notification module.
func New(sender email.Sender, cfg config.NotificationConfig, log *logger.Logger) *Module {
	return &Module{sender: sender, cfg: cfg, log: log}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "notification" }

// RegisterHandlers subscribes to the events that trigger emails.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.BookingCreated{}.EventName(), m)
	bus.Subscribe(events.BookingFlagged{}.EventName(), m)
	bus.Subscribe(events.BookingReminderDue{}.EventName(), m)
	bus.Subscribe(events.LeadPurchased{}.EventName(), m)
	bus.Subscribe(events.LeadRefunded{}.EventName(), m)
}

// Handle implements events.Handler. Delivery failures are logged and
// swallowed so a mail outage never fails the publishing operation.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.BookingCreated:
		m.handleBookingCreated(ctx, e)
	case events.BookingFlagged:
		m.handleBookingFlagged(ctx, e)
	case events.BookingReminderDue:
		m.handleBookingReminderDue(ctx, e)
	case events.LeadPurchased:
		m.handleLeadPurchased(ctx, e)
	case events.LeadRefunded:
		m.handleLeadRefunded(ctx, e)
	default:
		m.log.Warn("notification module received unexpected event", "event", event.EventName())
	}
	return nil
}

func (m *Module) handleBookingCreated(ctx context.Context, e events.BookingCreated) {
	err := m.sender.SendBookingConfirmation(ctx, e.CustomerEmail, email.BookingConfirmation{
		CustomerName:  e.CustomerName,
		BookingCode:   e.BookingCode,
		ServiceTier:   e.ServiceTier,
		TotalCents:    e.TotalCents,
		PreferredDate: e.PreferredDate,
		TimeSlot:      e.TimeSlot,
		TrackingURL:   m.buildURL("/track/" + e.QRToken),
		UnderReview:   e.Status != bookingStatusOpen,
		VerifyURL:     m.verifyURL(e.BookingCode, e.VerifyToken),
	})
	m.report(err, "booking confirmation", "bookingCode", e.BookingCode, "email", e.CustomerEmail)
}

func (m *Module) handleBookingFlagged(ctx context.Context, e events.BookingFlagged) {
	to := m.cfg.GetAdminAlertEmail()
	if to == "" {
		m.log.Debug("admin alert email not configured; skipping fraud alert", "bookingCode", e.BookingCode)
		return
	}
	err := m.sender.SendFraudAlert(ctx, to, email.FraudAlert{
		BookingCode:  e.BookingCode,
		QualityScore: e.QualityScore,
		RiskLevel:    e.RiskLevel,
		Factors:      e.Factors,
		Reason:       e.Reason,
		ReviewURL:    m.buildURL("/admin/bookings/" + e.BookingID.String()),
	})
	m.report(err, "fraud alert", "bookingCode", e.BookingCode, "risk", e.RiskLevel)
}

func (m *Module) handleBookingReminderDue(ctx context.Context, e events.BookingReminderDue) {
	err := m.sender.SendBookingReminder(ctx, e.CustomerEmail, email.BookingReminder{
		CustomerName:  e.CustomerName,
		BookingCode:   e.BookingCode,
		PreferredDate: e.PreferredDate,
		TimeSlot:      e.TimeSlot,
		LookupURL:     m.buildURL("/bookings/" + e.BookingCode),
	})
	m.report(err, "booking reminder", "bookingCode", e.BookingCode, "email", e.CustomerEmail)
}

func (m *Module) handleLeadPurchased(ctx context.Context, e events.LeadPurchased) {
	err := m.sender.SendInstallerIntroduction(ctx, e.CustomerEmail, email.InstallerIntroduction{
		CustomerName:   e.CustomerName,
		BookingCode:    e.BookingCode,
		InstallerName:  e.InstallerName,
		InstallerEmail: e.InstallerEmail,
		InstallerPhone: e.InstallerPhone,
	})
	m.report(err, "installer introduction", "bookingCode", e.BookingCode, "email", e.CustomerEmail)

	err = m.sender.SendLeadReceipt(ctx, e.InstallerEmail, email.LeadReceipt{
		InstallerName:     e.InstallerName,
		BookingCode:       e.BookingCode,
		ChargedCents:      e.ChargedCents,
		BalanceAfterCents: e.BalanceAfterCents,
		JobsURL:           m.buildURL("/installer/jobs"),
	})
	m.report(err, "lead receipt", "bookingCode", e.BookingCode, "installerId", e.InstallerID)
}

func (m *Module) handleLeadRefunded(ctx context.Context, e events.LeadRefunded) {
	if e.InstallerEmail == "" {
		m.log.Warn("refund decision has no installer email", "refundRequestId", e.RefundRequestID)
		return
	}
	err := m.sender.SendRefundDecision(ctx, e.InstallerEmail, email.RefundDecision{
		BookingCode: e.BookingCode,
		Approved:    e.Approved,
		AmountCents: e.AmountCents,
		Reason:      e.Reason,
		Note:        e.Note,
	})
	m.report(err, "refund decision", "bookingCode", e.BookingCode, "approved", e.Approved)
}

func (m *Module) report(err error, kind string, args ...any) {
	if err != nil {
		m.log.Error("failed to send "+kind+" email", append(args, "error", err)...)
		return
	}
	m.log.Info(kind+" email sent", args...)
}

func (m *Module) verifyURL(bookingCode, token string) string {
	if token == "" {
		return ""
	}
	return m.buildURL("/bookings/" + bookingCode + "/verify-email?token=" + url.QueryEscape(token))
}

func (m *Module) buildURL(path string) string {
	return strings.TrimRight(m.cfg.GetAppBaseURL(), "/") + path
}
