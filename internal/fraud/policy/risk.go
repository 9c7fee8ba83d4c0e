// Package policy holds the deterministic lead-quality rules: the fraud
// score, its risk buckets and the refund decision table.
package policy

// Risk is the four-bucket label derived from a quality score.
type Risk string

const (
	RiskLow      Risk = "low"
	RiskMedium   Risk = "medium"
	RiskHigh     Risk = "high"
	RiskCritical Risk = "critical"
)

// Score thresholds, inclusive lower bounds.
const (
	lowRiskMinScore    = 70
	mediumRiskMinScore = 50
	highRiskMinScore   = 30
)

// RiskFor buckets a 0..100 quality score.
func RiskFor(score int) Risk {
	switch {
	case score >= lowRiskMinScore:
		return RiskLow
	case score >= mediumRiskMinScore:
		return RiskMedium
	case score >= highRiskMinScore:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// Valid reports whether r is one of the four buckets.
func (r Risk) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// RequiresReview reports whether a booking at this risk must be looked at
// by an admin before installers can see it.
func RequiresReview(r Risk) bool {
	return r == RiskHigh || r == RiskCritical
}

// Sellable reports whether installers may buy a lead at this risk.
func Sellable(r Risk) bool {
	return r != RiskCritical
}
