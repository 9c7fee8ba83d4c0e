package adapters

import (
	"context"

	bookingrepo "tradesbook/internal/bookings/repository"
	"tradesbook/internal/scheduler"

	"github.com/google/uuid"
)

// BookingWork is the part of the bookings service the scheduler drives.
type BookingWork interface {
	SendReminder(ctx context.Context, id uuid.UUID) error
	Reassess(ctx context.Context, id uuid.UUID) (bookingrepo.Booking, error)
	ExpireStale(ctx context.Context) (int, error)
}

// BookingJobs implements scheduler.BookingJobs.
type BookingJobs struct {
	bookings BookingWork
}

// NewBookingJobs creates a new booking jobs adapter.
func NewBookingJobs(bookings BookingWork) *BookingJobs {
	return &BookingJobs{bookings: bookings}
}

func (a *BookingJobs) SendReminder(ctx context.Context, id uuid.UUID) error {
	return a.bookings.SendReminder(ctx, id)
}

func (a *BookingJobs) ReassessBooking(ctx context.Context, id uuid.UUID) error {
	_, err := a.bookings.Reassess(ctx, id)
	return err
}

func (a *BookingJobs) ExpireStale(ctx context.Context) (int, error) {
	return a.bookings.ExpireStale(ctx)
}

var _ scheduler.BookingJobs = (*BookingJobs)(nil)
