package policy

import "time"

// Version identifies the scoring model stored alongside each assessment.
// Bump it when weights or thresholds change.
const Version = "fraud-2026.1"

const baseScore = 50

// Factor names as stored in fraud_factors.
const (
	FactorDuplicateEmail    = "duplicate_email"
	FactorRapidRepeat       = "rapid_repeat"
	FactorDuplicatePhone    = "duplicate_phone"
	FactorInvalidPhone      = "invalid_phone"
	FactorValidPhone        = "valid_phone"
	FactorDisposableEmail   = "disposable_email"
	FactorSuspiciousName    = "suspicious_name"
	FactorMissingEircode    = "missing_eircode"
	FactorValidEircode      = "valid_eircode"
	FactorScheduleAnomaly   = "schedule_anomaly"
	FactorPriorFlagged      = "prior_flagged"
	FactorVerifiedCustomer  = "verified_customer"
	FactorInvoiceOriginated = "invoice_originated"
	FactorReferralCode      = "referral_code"
	FactorRepeatCustomer    = "repeat_customer"
)

// Weights is the point table. Negative values lower quality.
var Weights = map[string]int{
	FactorDuplicateEmail:    -15,
	FactorRapidRepeat:       -20,
	FactorDuplicatePhone:    -10,
	FactorInvalidPhone:      -10,
	FactorValidPhone:        5,
	FactorDisposableEmail:   -15,
	FactorSuspiciousName:    -10,
	FactorMissingEircode:    -5,
	FactorValidEircode:      5,
	FactorScheduleAnomaly:   -10,
	FactorPriorFlagged:      -25,
	FactorVerifiedCustomer:  15,
	FactorInvoiceOriginated: 20,
	FactorReferralCode:      5,
	FactorRepeatCustomer:    10,
}

// rapidRepeatMinOthers is how many other recent bookings trigger rapid_repeat.
const rapidRepeatMinOthers = 2

// Input is everything the score depends on. Counts exclude the booking
// being assessed.
type Input struct {
	Email         string
	Phone         string
	FirstName     string
	LastName      string
	Eircode       string
	PreferredDate time.Time
	Now           time.Time

	SameEmailCount int
	SamePhoneCount int
	RapidCount     int
	PriorFlagged   int
	PriorCompleted int

	EmailVerified     bool
	InvoiceOriginated bool
	HasReferralCode   bool
}

// Assessment is the outcome of Score.
type Assessment struct {
	Score   int            `json:"score"`
	Risk    Risk           `json:"risk"`
	Factors map[string]int `json:"factors"`
	Version string         `json:"version"`
}

// Score computes the quality score: base 50 plus the weight of every factor
// that applies, clamped to 0..100.
func Score(in Input) Assessment {
	factors := map[string]int{}
	add := func(name string, applies bool) {
		if applies {
			factors[name] = Weights[name]
		}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	add(FactorDuplicateEmail, in.SameEmailCount >= 1)
	add(FactorRapidRepeat, in.RapidCount >= rapidRepeatMinOthers)
	add(FactorDuplicatePhone, in.SamePhoneCount >= 1)

	validPhone := HasValidPhone(in.Phone)
	add(FactorValidPhone, validPhone)
	add(FactorInvalidPhone, !validPhone)

	add(FactorDisposableEmail, IsDisposableEmail(in.Email))
	add(FactorSuspiciousName, IsSuspiciousName(in.FirstName, in.LastName))

	validEircode := HasValidEircode(in.Eircode)
	add(FactorValidEircode, validEircode)
	add(FactorMissingEircode, !validEircode)

	add(FactorScheduleAnomaly, IsScheduleAnomaly(in.PreferredDate, now))
	add(FactorPriorFlagged, in.PriorFlagged >= 1)
	add(FactorVerifiedCustomer, in.EmailVerified)
	add(FactorInvoiceOriginated, in.InvoiceOriginated)
	add(FactorReferralCode, in.HasReferralCode)
	add(FactorRepeatCustomer, in.PriorCompleted >= 1)

	score := baseScore
	for _, points := range factors {
		score += points
	}
	score = clampScore(score)

	return Assessment{
		Score:   score,
		Risk:    RiskFor(score),
		Factors: factors,
		Version: Version,
	}
}

// HasDuplicateSignals reports whether an assessment saw the contact booking before.
func HasDuplicateSignals(factors map[string]int) bool {
	_, email := factors[FactorDuplicateEmail]
	_, phone := factors[FactorDuplicatePhone]
	_, rapid := factors[FactorRapidRepeat]
	return email || phone || rapid
}

func clampScore(value int) int {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}
