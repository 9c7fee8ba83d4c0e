// Package adapters connects bounded contexts through the narrow ports each
// service declares, so no domain package imports another's service.
package adapters

import (
	"context"

	bookingsvc "tradesbook/internal/bookings/service"
	referralrepo "tradesbook/internal/referrals/repository"
)

// ActiveCodeLookup resolves a referral code that is currently active.
type ActiveCodeLookup interface {
	ResolveActive(ctx context.Context, raw string) (referralrepo.Code, error)
}

// ReferralResolver implements bookings/service.ReferralResolver on top of
// the referrals service.
type ReferralResolver struct {
	codes ActiveCodeLookup
}

// NewReferralResolver creates a new referral resolver adapter.
func NewReferralResolver(codes ActiveCodeLookup) *ReferralResolver {
	return &ReferralResolver{codes: codes}
}

// Resolve returns the referral terms a booking should apply.
func (a *ReferralResolver) Resolve(ctx context.Context, code string) (bookingsvc.Referral, error) {
	c, err := a.codes.ResolveActive(ctx, code)
	if err != nil {
		return bookingsvc.Referral{}, err
	}
	return bookingsvc.Referral{
		ID:              c.ID,
		Code:            c.Code,
		DiscountBps:     c.DiscountBps,
		CommissionCents: c.CommissionCents,
	}, nil
}

var _ bookingsvc.ReferralResolver = (*ReferralResolver)(nil)
