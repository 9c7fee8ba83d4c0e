package service

import (
	"context"
	"time"

	"tradesbook/internal/fraud/policy"
	fraudsvc "tradesbook/internal/fraud/service"
	pricingsvc "tradesbook/internal/pricing/service"

	"github.com/google/uuid"
)

// Pricer prices bookings and leads against the effective price list.
type Pricer interface {
	Quote(ctx context.Context, in pricingsvc.QuoteInput) (pricingsvc.Quote, error)
	LeadFee(ctx context.Context, in pricingsvc.LeadFeeInput) (pricingsvc.LeadFee, error)
}

// Assessor scores a booking for fraud risk.
type Assessor interface {
	Assess(ctx context.Context, req fraudsvc.Request) policy.Assessment
}

// Referral is an active referral code resolved for a booking.
type Referral struct {
	ID              uuid.UUID
	Code            string
	DiscountBps     int
	CommissionCents int64
}

// ReferralResolver resolves a customer-entered referral code.
// Unknown or inactive codes return an apperr NotFound.
type ReferralResolver interface {
	Resolve(ctx context.Context, code string) (Referral, error)
}

// JobScheduler queues deferred booking work.
type JobScheduler interface {
	ScheduleBookingReminder(ctx context.Context, bookingID uuid.UUID, runAt time.Time) error
	EnqueueFraudReassessment(ctx context.Context, bookingID uuid.UUID) error
}
