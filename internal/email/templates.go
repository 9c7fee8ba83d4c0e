package email

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"time"

	"tradesbook/platform/money"
)

const baseLayout = `{{define "email"}}<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Heading}}</title></head>
<body style="font-family: Arial, sans-serif; color: #1f2933; max-width: 600px; margin: 0 auto;">
<h1 style="font-size: 22px;">{{.Heading}}</h1>
{{template "content" .Body}}
{{if .CTAURL}}<p><a href="{{.CTAURL}}" style="background: #0b5fff; color: #fff; padding: 10px 18px; text-decoration: none; border-radius: 4px;">{{.CTALabel}}</a></p>{{end}}
<p style="font-size: 12px; color: #7b8794;">tradesbook.ie</p>
</body>
</html>{{end}}`

var contentTemplates = map[string]string{
	"booking_confirmation": `{{define "content"}}<p>Hi {{.CustomerName}},</p>
{{if .UnderReview}}<p>Thanks for booking with us. Your booking <strong>{{.BookingCode}}</strong> needs a quick check by our team before we match you with an installer. We will be in touch shortly.</p>
{{else}}<p>Thanks for booking with us. Your booking reference is <strong>{{.BookingCode}}</strong>.</p>{{end}}
<table>
<tr><td>Package</td><td>{{.ServiceTier}}</td></tr>
<tr><td>Date</td><td>{{date .PreferredDate}} ({{.TimeSlot}})</td></tr>
<tr><td>Total</td><td>{{euros .TotalCents}}</td></tr>
</table>
{{if .VerifyURL}}<p>Please <a href="{{.VerifyURL}}">confirm your email address</a> so we can match you with an installer faster.</p>{{end}}{{end}}`,

	"fraud_alert": `{{define "content"}}<p>Booking <strong>{{.BookingCode}}</strong> was flagged with a quality score of {{.QualityScore}} ({{.RiskLevel}} risk).</p>
{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}
{{if .Factors}}<ul>{{range factors .Factors}}<li>{{.Name}}: {{.Weight}}</li>{{end}}</ul>{{end}}{{end}}`,

	"installer_introduction": `{{define "content"}}<p>Hi {{.CustomerName}},</p>
<p>Good news: an installer has taken on booking <strong>{{.BookingCode}}</strong> and will contact you to confirm the details.</p>
<table>
<tr><td>Installer</td><td>{{.InstallerName}}</td></tr>
<tr><td>Email</td><td>{{.InstallerEmail}}</td></tr>
<tr><td>Phone</td><td>{{.InstallerPhone}}</td></tr>
</table>{{end}}`,

	"lead_receipt": `{{define "content"}}<p>Hi {{.InstallerName}},</p>
<p>You purchased lead <strong>{{.BookingCode}}</strong> for {{euros .ChargedCents}}. Your wallet balance is now {{euros .BalanceAfterCents}}.</p>
<p>The customer's contact details are available under your jobs.</p>{{end}}`,

	"refund_decision": `{{define "content"}}{{if .Approved}}<p>Your refund request for lead <strong>{{.BookingCode}}</strong> was approved. {{euros .AmountCents}} has been returned to your wallet.</p>
{{else}}<p>Your refund request for lead <strong>{{.BookingCode}}</strong> was declined.</p>{{end}}
{{if .Note}}<p>{{.Note}}</p>{{end}}{{end}}`,

	"booking_reminder": `{{define "content"}}<p>Hi {{.CustomerName}},</p>
<p>This is a reminder that your installation for booking <strong>{{.BookingCode}}</strong> is on {{date .PreferredDate}} ({{.TimeSlot}}).</p>{{end}}`,
}

type layoutData struct {
	Heading  string
	CTALabel string
	CTAURL   string
	Body     any
}

type factorLine struct {
	Name   string
	Weight int
}

var templateFuncs = template.FuncMap{
	"euros": money.Format,
	"date": func(t time.Time) string {
		return t.Format("Monday 2 January 2006")
	},
	"factors": sortedFactors,
}

var emailTemplates = mustParseTemplates()

func mustParseTemplates() map[string]*template.Template {
	out := make(map[string]*template.Template, len(contentTemplates))
	for name, content := range contentTemplates {
		tmpl := template.Must(template.New(name).Funcs(templateFuncs).Parse(baseLayout))
		out[name] = template.Must(tmpl.Parse(content))
	}
	return out
}

func renderEmailTemplate(name string, data layoutData) (string, error) {
	tmpl, ok := emailTemplates[name]
	if !ok {
		return "", fmt.Errorf("unknown email template %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func sortedFactors(factors map[string]int) []factorLine {
	lines := make([]factorLine, 0, len(factors))
	for name, weight := range factors {
		lines = append(lines, factorLine{Name: name, Weight: weight})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Name < lines[j].Name })
	return lines
}

// Render builds the subject and HTML body for one of the Sender payloads.
func Render(data any) (subject, body string, err error) {
	var name string
	layout := layoutData{Body: data}

	switch d := data.(type) {
	case BookingConfirmation:
		name = "booking_confirmation"
		layout.Heading = "Booking confirmed"
		subject = fmt.Sprintf(subjectBookingConfirmationFmt, d.BookingCode)
		if d.UnderReview {
			layout.Heading = "Booking received"
			subject = fmt.Sprintf(subjectBookingReviewFmt, d.BookingCode)
		}
		layout.CTALabel, layout.CTAURL = "Track your booking", d.TrackingURL
	case FraudAlert:
		name = "fraud_alert"
		layout.Heading = "Booking flagged for review"
		subject = fmt.Sprintf(subjectFraudAlertFmt, d.BookingCode, d.RiskLevel)
		layout.CTALabel, layout.CTAURL = "Review booking", d.ReviewURL
	case InstallerIntroduction:
		name = "installer_introduction"
		layout.Heading = "Meet your installer"
		subject = fmt.Sprintf(subjectInstallerIntroFmt, d.BookingCode)
	case LeadReceipt:
		name = "lead_receipt"
		layout.Heading = "Lead purchased"
		subject = fmt.Sprintf(subjectLeadReceiptFmt, d.BookingCode)
		layout.CTALabel, layout.CTAURL = "View jobs", d.JobsURL
	case RefundDecision:
		name = "refund_decision"
		layout.Heading = "Refund request declined"
		subject = fmt.Sprintf(subjectRefundRejectedFmt, d.BookingCode)
		if d.Approved {
			layout.Heading = "Refund approved"
			subject = fmt.Sprintf(subjectRefundApprovedFmt, d.BookingCode)
		}
	case BookingReminder:
		name = "booking_reminder"
		layout.Heading = "Your installation is tomorrow"
		subject = fmt.Sprintf(subjectBookingReminderFmt, d.BookingCode)
		layout.CTALabel, layout.CTAURL = "View booking", d.LookupURL
	default:
		return "", "", fmt.Errorf("no email template for %T", data)
	}

	body, err = renderEmailTemplate(name, layout)
	if err != nil {
		return "", "", err
	}
	return subject, body, nil
}
