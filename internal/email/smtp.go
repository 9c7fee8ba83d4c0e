package email

import (
	"context"
	"fmt"
	"net"
	"time"

	"tradesbook/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements Sender over SMTP via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates an SMTPSender from the email settings.
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

// NewSender returns an SMTP sender when email is enabled and a NoopSender otherwise.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(cfg)
}

func (s *SMTPSender) deliver(ctx context.Context, toEmail string, data any) error {
	subject, body, err := Render(data)
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, body)
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	opts := []gomail.Option{
		gomail.WithPort(s.port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15 * time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	}
	if s.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.username),
			gomail.WithPassword(s.password),
		)
	}

	client, err := gomail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *SMTPSender) SendBookingConfirmation(ctx context.Context, toEmail string, data BookingConfirmation) error {
	return s.deliver(ctx, toEmail, data)
}

func (s *SMTPSender) SendFraudAlert(ctx context.Context, toEmail string, data FraudAlert) error {
	return s.deliver(ctx, toEmail, data)
}

func (s *SMTPSender) SendInstallerIntroduction(ctx context.Context, toEmail string, data InstallerIntroduction) error {
	return s.deliver(ctx, toEmail, data)
}

func (s *SMTPSender) SendLeadReceipt(ctx context.Context, toEmail string, data LeadReceipt) error {
	return s.deliver(ctx, toEmail, data)
}

func (s *SMTPSender) SendRefundDecision(ctx context.Context, toEmail string, data RefundDecision) error {
	return s.deliver(ctx, toEmail, data)
}

func (s *SMTPSender) SendBookingReminder(ctx context.Context, toEmail string, data BookingReminder) error {
	return s.deliver(ctx, toEmail, data)
}

var _ Sender = (*SMTPSender)(nil)
