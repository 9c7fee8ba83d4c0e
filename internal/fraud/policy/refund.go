package policy

import "time"

// RefundReason is why an installer wants a lead fee back.
type RefundReason string

const (
	RefundCustomerCancelled RefundReason = "customer_cancelled"
	RefundFraudulent        RefundReason = "fraudulent"
	RefundDuplicate         RefundReason = "duplicate"
	RefundUnreachable       RefundReason = "unreachable"
)

// Valid reports whether r is a known reason.
func (r RefundReason) Valid() bool {
	switch r {
	case RefundCustomerCancelled, RefundFraudulent, RefundDuplicate, RefundUnreachable:
		return true
	}
	return false
}

// RefundOutcome is the automatic decision.
type RefundOutcome string

const (
	RefundApproved RefundOutcome = "approved"
	RefundReview   RefundOutcome = "review"
	RefundRejected RefundOutcome = "rejected"
)

// RefundCase is the state a refund request is judged on.
type RefundCase struct {
	Reason           RefundReason
	PurchasedAt      time.Time
	Now              time.Time
	Window           time.Duration
	AssignmentActive bool
	BookingCancelled bool
	BookingFlagged   bool
	RiskAtPurchase   Risk
	Factors          map[string]int
}

// RefundDecision is the outcome with a human-readable explanation.
type RefundDecision struct {
	Outcome     RefundOutcome `json:"outcome"`
	Explanation string        `json:"explanation"`
}

// EvaluateRefund applies the refund table. Requests outside the window or
// against an assignment that is no longer active are rejected outright.
func EvaluateRefund(c RefundCase) RefundDecision {
	if !c.AssignmentActive {
		return RefundDecision{RefundRejected, "assignment is not active"}
	}
	if c.Window > 0 && c.Now.Sub(c.PurchasedAt) > c.Window {
		return RefundDecision{RefundRejected, "refund window has closed"}
	}

	switch c.Reason {
	case RefundCustomerCancelled:
		if c.BookingCancelled {
			return RefundDecision{RefundApproved, "booking was cancelled"}
		}
		return RefundDecision{RefundReview, "cancellation not recorded on the booking"}

	case RefundFraudulent:
		if c.BookingFlagged || c.RiskAtPurchase == RiskHigh || c.RiskAtPurchase == RiskCritical {
			return RefundDecision{RefundApproved, "booking was flagged or high risk at purchase"}
		}
		return RefundDecision{RefundReview, "fraud claim needs admin review"}

	case RefundDuplicate:
		if HasDuplicateSignals(c.Factors) {
			return RefundDecision{RefundApproved, "duplicate signals present on the booking"}
		}
		return RefundDecision{RefundRejected, "no duplicate signals on the booking"}

	case RefundUnreachable:
		if c.RiskAtPurchase != RiskLow {
			return RefundDecision{RefundApproved, "contact details were not low risk at purchase"}
		}
		return RefundDecision{RefundReview, "low risk contact needs admin review"}
	}

	return RefundDecision{RefundRejected, "unknown refund reason"}
}
