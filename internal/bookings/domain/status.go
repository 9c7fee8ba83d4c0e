// Package domain holds the booking lifecycle rules shared by the bookings
// and installers contexts.
package domain

import (
	"fmt"

	"tradesbook/internal/fraud/policy"
)

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPendingReview Status = "pending_review"
	StatusOpen          Status = "open"
	StatusAssigned      Status = "assigned"
	StatusCompleted     Status = "completed"
	StatusCancelled     Status = "cancelled"
	StatusFlagged       Status = "flagged"
	StatusExpired       Status = "expired"
)

var transitions = map[Status][]Status{
	StatusPendingReview: {StatusOpen, StatusFlagged, StatusCancelled},
	StatusOpen:          {StatusAssigned, StatusCancelled, StatusFlagged, StatusExpired},
	StatusAssigned:      {StatusCompleted, StatusCancelled, StatusFlagged, StatusOpen},
	StatusFlagged:       {StatusOpen, StatusCancelled},
}

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	switch s {
	case StatusPendingReview, StatusOpen, StatusAssigned, StatusCompleted,
		StatusCancelled, StatusFlagged, StatusExpired:
		return s, nil
	}
	return "", fmt.Errorf("unknown booking status %q", raw)
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// CustomerCancellable reports whether the customer may still cancel.
func (s Status) CustomerCancellable() bool {
	return s == StatusPendingReview || s == StatusOpen || s == StatusAssigned
}

// InitialStatus maps an assessed risk to the status a new booking starts in.
func InitialStatus(risk policy.Risk) Status {
	switch risk {
	case policy.RiskLow, policy.RiskMedium:
		return StatusOpen
	case policy.RiskHigh:
		return StatusPendingReview
	default:
		return StatusFlagged
	}
}

// ReassessedStatus returns where a re-assessed booking should go. Only the
// risk-driven states move; anything else keeps its current status.
func ReassessedStatus(current Status, risk policy.Risk) Status {
	switch current {
	case StatusOpen, StatusPendingReview, StatusFlagged:
		return InitialStatus(risk)
	default:
		return current
	}
}
