package policy

import (
	"strings"
	"time"
	"unicode"

	"tradesbook/platform/phone"
	"tradesbook/platform/validator"
)

// maxScheduleAhead is how far out a preferred date may be before it looks odd.
const maxScheduleAhead = 180 * 24 * time.Hour

var disposableDomains = map[string]bool{
	"mailinator.com":     true,
	"guerrillamail.com":  true,
	"10minutemail.com":   true,
	"tempmail.com":       true,
	"temp-mail.org":      true,
	"yopmail.com":        true,
	"trashmail.com":      true,
	"sharklasers.com":    true,
	"getnada.com":        true,
	"dispostable.com":    true,
	"maildrop.cc":        true,
	"throwawaymail.com":  true,
	"fakeinbox.com":      true,
	"mintemail.com":      true,
	"emailondeck.com":    true,
	"mohmal.com":         true,
	"burnermail.io":      true,
	"spamgourmet.com":    true,
	"mailnesia.com":      true,
	"guerrillamail.info": true,
}

var placeholderNameWords = map[string]bool{
	"test":      true,
	"testing":   true,
	"fake":      true,
	"none":      true,
	"na":        true,
	"n/a":       true,
	"anonymous": true,
	"unknown":   true,
	"user":      true,
	"customer":  true,
	"asdf":      true,
}

var keyboardRuns = []string{"asdf", "qwert", "zxcv", "hjkl", "xxx"}

// IsDisposableEmail reports whether the address uses a throwaway mail domain.
func IsDisposableEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	return disposableDomains[strings.ToLower(strings.TrimSpace(email[at+1:]))]
}

// IsSuspiciousName flags placeholder words, keyboard mashing, digits,
// runs of four identical characters and names with no real content.
func IsSuspiciousName(firstName, lastName string) bool {
	full := strings.ToLower(strings.TrimSpace(firstName + " " + lastName))
	if len([]rune(strings.ReplaceAll(full, " ", ""))) < 3 {
		return true
	}

	for _, word := range strings.Fields(full) {
		if placeholderNameWords[word] {
			return true
		}
	}
	for _, run := range keyboardRuns {
		if strings.Contains(full, run) {
			return true
		}
	}

	var prev rune
	repeat := 0
	for _, r := range full {
		if unicode.IsDigit(r) {
			return true
		}
		if r == prev {
			repeat++
			if repeat >= 4 {
				return true
			}
		} else {
			prev = r
			repeat = 1
		}
	}
	return false
}

// HasValidEircode reports whether raw is present and well formed.
func HasValidEircode(raw string) bool {
	return strings.TrimSpace(raw) != "" && validator.IsEircode(raw)
}

// HasValidPhone reports whether raw is a dialable number (Irish by default).
func HasValidPhone(raw string) bool {
	return phone.IsValid(raw)
}

// IsScheduleAnomaly reports a preferred date before today or more than
// 180 days after now. Dates are compared by calendar day.
func IsScheduleAnomaly(preferred, now time.Time) bool {
	if preferred.IsZero() {
		return true
	}
	day := truncateDay(preferred)
	today := truncateDay(now)
	if day.Before(today) {
		return true
	}
	return day.After(now.Add(maxScheduleAhead))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
