package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrCodeTaken is returned by Create when the booking code or QR token
// collides with an existing row. Callers regenerate and retry.
var ErrCodeTaken = errors.New("booking code or qr token already in use")

// Repository is the persistence port for bookings and customers.
type Repository interface {
	UpsertCustomer(ctx context.Context, in CustomerUpsert) (Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (Customer, error)
	// MarkEmailVerified reports changed=false when the email was already verified.
	MarkEmailVerified(ctx context.Context, email string) (c Customer, changed bool, err error)

	Create(ctx context.Context, b Booking, usage *ReferralUsage) (Booking, error)
	GetByID(ctx context.Context, id uuid.UUID) (Booking, error)
	GetByCode(ctx context.Context, code string) (Booking, error)
	GetByQRToken(ctx context.Context, token string) (Booking, error)
	List(ctx context.Context, params ListParams) (ListResult, error)
	ListByEmail(ctx context.Context, email string, statuses []string) ([]Booking, error)

	// UpdateStatus moves a booking only if it is still in from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (Booking, error)
	// UpdateAssessment stores a re-assessment and status, guarded like UpdateStatus.
	UpdateAssessment(ctx context.Context, id uuid.UUID, from, to string, a Assessment) (Booking, error)
	// HasActiveAssignment reports whether an installer currently holds the booking.
	HasActiveAssignment(ctx context.Context, bookingID uuid.UUID) (bool, error)

	// ExpireStale expires open and pending_review bookings whose preferred
	// date is before cutoff and voids their pending referral usages.
	ExpireStale(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
}
