package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"tradesbook/internal/email"
	"tradesbook/internal/events"
	"tradesbook/platform/logger"

	"github.com/google/uuid"
)

type testNotificationConfig struct {
	adminEmail string
}

func (testNotificationConfig) GetAppBaseURL() string        { return "https://tradesbook.ie/" }
func (c testNotificationConfig) GetAdminAlertEmail() string { return c.adminEmail }

type sentEmail struct {
	to   string
	data any
}

type testSender struct {
	sent []sentEmail
	fail bool
}

func (s *testSender) record(to string, data any) error {
	if s.fail {
		return errors.New("smtp down")
	}
	s.sent = append(s.sent, sentEmail{to: to, data: data})
	return nil
}

func (s *testSender) SendBookingConfirmation(_ context.Context, to string, d email.BookingConfirmation) error {
	return s.record(to, d)
}
func (s *testSender) SendFraudAlert(_ context.Context, to string, d email.FraudAlert) error {
	return s.record(to, d)
}
func (s *testSender) SendInstallerIntroduction(_ context.Context, to string, d email.InstallerIntroduction) error {
	return s.record(to, d)
}
func (s *testSender) SendLeadReceipt(_ context.Context, to string, d email.LeadReceipt) error {
	return s.record(to, d)
}
func (s *testSender) SendRefundDecision(_ context.Context, to string, d email.RefundDecision) error {
	return s.record(to, d)
}
func (s *testSender) SendBookingReminder(_ context.Context, to string, d email.BookingReminder) error {
	return s.record(to, d)
}

func TestBookingCreatedSendsConfirmation(t *testing.T) {
	sender := &testSender{}
	m := New(sender, testNotificationConfig{}, logger.Discard())

	err := m.Handle(context.Background(), events.BookingCreated{
		BookingCode:   "TB-ABC123",
		QRToken:       "tok",
		CustomerEmail: "aoife@example.ie",
		PreferredDate: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Status:        "pending_review",
		VerifyToken:   "a.b+c",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].to != "aoife@example.ie" {
		t.Fatalf("expected one confirmation to the customer, got %+v", sender.sent)
	}
	got := sender.sent[0].data.(email.BookingConfirmation)
	if got.TrackingURL != "https://tradesbook.ie/track/tok" {
		t.Fatalf("unexpected tracking url %q", got.TrackingURL)
	}
	if !got.UnderReview {
		t.Fatal("expected non-open booking to be marked under review")
	}
	if got.VerifyURL != "https://tradesbook.ie/bookings/TB-ABC123/verify-email?token=a.b%2Bc" {
		t.Fatalf("unexpected verify url %q", got.VerifyURL)
	}
}

func TestBookingFlaggedAlertsAdmin(t *testing.T) {
	cases := []struct {
		name       string
		adminEmail string
		wantSent   int
	}{
		{"configured", "ops@tradesbook.ie", 1},
		{"not configured", "", 0},
	}

	for _, tc := range cases {
		sender := &testSender{}
		m := New(sender, testNotificationConfig{adminEmail: tc.adminEmail}, logger.Discard())
		id := uuid.New()
		if err := m.Handle(context.Background(), events.BookingFlagged{BookingID: id, BookingCode: "TB-1", RiskLevel: "critical"}); err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if len(sender.sent) != tc.wantSent {
			t.Fatalf("%s: expected %d emails, got %d", tc.name, tc.wantSent, len(sender.sent))
		}
		if tc.wantSent == 1 {
			alert := sender.sent[0].data.(email.FraudAlert)
			if alert.ReviewURL != "https://tradesbook.ie/admin/bookings/"+id.String() {
				t.Fatalf("%s: unexpected review url %q", tc.name, alert.ReviewURL)
			}
		}
	}
}

func TestLeadPurchasedEmailsBothParties(t *testing.T) {
	sender := &testSender{}
	m := New(sender, testNotificationConfig{}, logger.Discard())

	err := m.Handle(context.Background(), events.LeadPurchased{
		BookingCode:       "TB-2",
		InstallerName:     "Mounts Ltd",
		InstallerEmail:    "jobs@mounts.ie",
		InstallerPhone:    "+353871234567",
		CustomerEmail:     "aoife@example.ie",
		ChargedCents:      2000,
		BalanceAfterCents: 8000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(sender.sent))
	}
	if intro, ok := sender.sent[0].data.(email.InstallerIntroduction); !ok || intro.InstallerPhone != "+353871234567" {
		t.Fatalf("expected installer introduction first, got %+v", sender.sent[0].data)
	}
	if sender.sent[1].to != "jobs@mounts.ie" {
		t.Fatalf("expected receipt to the installer, got %s", sender.sent[1].to)
	}
}

func TestSendFailuresAreNotPropagated(t *testing.T) {
	m := New(&testSender{fail: true}, testNotificationConfig{}, logger.Discard())

	evts := []events.Event{
		events.BookingReminderDue{BookingCode: "TB-3", CustomerEmail: "a@example.ie"},
		events.LeadRefunded{BookingCode: "TB-3", InstallerEmail: "jobs@mounts.ie", Approved: true},
		events.InvoiceVerified{},
	}
	for _, e := range evts {
		if err := m.Handle(context.Background(), e); err != nil {
			t.Fatalf("%s: expected nil error, got %v", e.EventName(), err)
		}
	}
}
