package domain

import (
	"testing"

	"tradesbook/internal/fraud/policy"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPendingReview, StatusOpen, true},
		{StatusPendingReview, StatusAssigned, false},
		{StatusOpen, StatusAssigned, true},
		{StatusOpen, StatusExpired, true},
		{StatusOpen, StatusCompleted, false},
		{StatusAssigned, StatusCompleted, true},
		{StatusAssigned, StatusOpen, true},
		{StatusFlagged, StatusOpen, true},
		{StatusFlagged, StatusAssigned, false},
		{StatusCompleted, StatusOpen, false},
		{StatusCancelled, StatusOpen, false},
		{StatusExpired, StatusOpen, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusCancelled, StatusExpired} {
		if !s.IsTerminal() {
			t.Fatalf("expected %s to be terminal", s)
		}
	}
	if StatusOpen.IsTerminal() {
		t.Fatal("open must not be terminal")
	}
}

func TestInitialStatus(t *testing.T) {
	cases := map[policy.Risk]Status{
		policy.RiskLow:      StatusOpen,
		policy.RiskMedium:   StatusOpen,
		policy.RiskHigh:     StatusPendingReview,
		policy.RiskCritical: StatusFlagged,
	}
	for risk, want := range cases {
		if got := InitialStatus(risk); got != want {
			t.Fatalf("%s: expected %s, got %s", risk, want, got)
		}
	}
}

func TestReassessedStatusLeavesAssignedAlone(t *testing.T) {
	if got := ReassessedStatus(StatusAssigned, policy.RiskCritical); got != StatusAssigned {
		t.Fatalf("expected assigned to stay, got %s", got)
	}
	if got := ReassessedStatus(StatusPendingReview, policy.RiskLow); got != StatusOpen {
		t.Fatalf("expected pending_review to open, got %s", got)
	}
	if got := ReassessedStatus(StatusOpen, policy.RiskCritical); got != StatusFlagged {
		t.Fatalf("expected open to be flagged, got %s", got)
	}
}

func TestParseStatus(t *testing.T) {
	if _, err := ParseStatus("open"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseStatus("archived"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestBookingCodes(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := NewBookingCode()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !IsBookingCode(code) {
			t.Fatalf("generated code %q has the wrong shape", code)
		}
		seen[code] = true
	}
	if len(seen) < 195 {
		t.Fatalf("expected codes to be mostly unique, got %d distinct", len(seen))
	}

	if got := NormalizeBookingCode(" tb-abc234 "); got != "TB-ABC234" {
		t.Fatalf("unexpected normalised code %q", got)
	}
	if got := NormalizeBookingCode("abc234"); got != "TB-ABC234" {
		t.Fatalf("expected prefix to be added, got %q", got)
	}
	if IsBookingCode("TB-ABC10O") {
		t.Fatal("ambiguous characters must be rejected")
	}
}

func TestQRToken(t *testing.T) {
	a, err := NewQRToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := NewQRToken()
	if len(a) != 24 || a == b {
		t.Fatalf("expected distinct 24 char tokens, got %q and %q", a, b)
	}
}
