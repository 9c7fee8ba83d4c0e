// Package parser recognises retailer referral codes and retailer invoice numbers.
package parser

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"tradesbook/platform/apperr"
)

// MaxInvoiceAge is how old a purchase may be and still earn a referral.
const MaxInvoiceAge = 90 * 24 * time.Hour

// Retailer is an electrical retailer whose staff hand out referral codes.
type Retailer struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var retailers = map[string]Retailer{
	"HN":  {Code: "HN", Name: "Harvey Norman"},
	"CR":  {Code: "CR", Name: "Currys"},
	"DID": {Code: "DID", Name: "DID Electrical"},
	"PC":  {Code: "PC", Name: "Power City"},
	"EXP": {Code: "EXP", Name: "Expert"},
}

// LookupRetailer returns a retailer by code.
func LookupRetailer(code string) (Retailer, bool) {
	r, ok := retailers[strings.ToUpper(strings.TrimSpace(code))]
	return r, ok
}

// Retailers lists the registry ordered by code.
func Retailers() []Retailer {
	out := make([]Retailer, 0, len(retailers))
	for _, r := range retailers {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// ReferralCode is a parsed RETAILER-STORE-STAFF code.
type ReferralCode struct {
	Code      string
	Retailer  Retailer
	StoreCode string
	StaffName string
}

var referralPattern = regexp.MustCompile(`^([A-Z]{2,3})-([A-Z0-9]{2,8})-([A-Z]{2,20})$`)

// NormalizeCode uppercases and trims a customer-typed code.
func NormalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ParseReferralCode validates the shape and the retailer of a referral code.
func ParseReferralCode(raw string) (ReferralCode, error) {
	code := NormalizeCode(raw)
	m := referralPattern.FindStringSubmatch(code)
	if m == nil {
		return ReferralCode{}, apperr.Validation("referral code must look like HN-DUB01-JOHN")
	}
	retailer, ok := retailers[m[1]]
	if !ok {
		return ReferralCode{}, apperr.Validation("unknown retailer in referral code")
	}
	return ReferralCode{Code: code, Retailer: retailer, StoreCode: m[2], StaffName: m[3]}, nil
}

// Invoice is a recognised retailer invoice number.
type Invoice struct {
	Retailer  Retailer
	StoreCode string
	// Number is the canonical RETAILER-DIGITS form used for uniqueness.
	Number string
}

type invoicePattern struct {
	retailer string
	re       *regexp.Regexp
}

// Checked in order; the prefixes do not overlap.
var invoicePatterns = []invoicePattern{
	{"HN", regexp.MustCompile(`^HN[- ]?(?:([A-Z]{2,8})[- ])?(\d{8})$`)},
	{"CR", regexp.MustCompile(`^(?:CUR|CR)[- ]?(?:([A-Z]{2,8})[- ])?(\d{9})$`)},
	{"DID", regexp.MustCompile(`^DID[- ]?(?:([A-Z]{2,8})[- ])?(\d{6,8})$`)},
	{"PC", regexp.MustCompile(`^PC[- ]?(?:([A-Z]{2,8})[- ])?([A-Z]\d{7})$`)},
	{"EXP", regexp.MustCompile(`^EXP[- ]?(?:([A-Z]{2,8})[- ])?(\d{7})$`)},
}

var invoicePrefix = regexp.MustCompile(`^(?:#\s*)?(?:INV(?:OICE)?(?:\s*(?:NO\.?|NUMBER))?[\s:#.-]*)?`)

// NormalizeInvoice uppercases, collapses whitespace and strips a leading
// "#" or "INV" style prefix.
func NormalizeInvoice(raw string) string {
	s := strings.Join(strings.Fields(strings.ToUpper(raw)), " ")
	s = invoicePrefix.ReplaceAllString(s, "")
	return strings.TrimSpace(strings.TrimLeft(s, "#"))
}

// DetectRetailerInvoice recognises which retailer issued an invoice number.
func DetectRetailerInvoice(raw string) (Invoice, bool) {
	s := NormalizeInvoice(raw)
	for _, p := range invoicePatterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		return Invoice{
			Retailer:  retailers[p.retailer],
			StoreCode: m[1],
			Number:    p.retailer + "-" + m[2],
		}, true
	}
	return Invoice{}, false
}

// ValidatePurchaseDate rejects purchases dated in the future or older than
// MaxInvoiceAge. Dates compare by calendar day in UTC.
func ValidatePurchaseDate(purchased, now time.Time) error {
	day := truncateDay(purchased)
	today := truncateDay(now)
	if day.After(today) {
		return apperr.Validation("purchase date cannot be in the future")
	}
	if today.Sub(day) > MaxInvoiceAge {
		return apperr.Validation("purchase is older than 90 days")
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
