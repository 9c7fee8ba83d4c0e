package referrals

import (
	"context"
	"testing"

	"tradesbook/internal/events"
	"tradesbook/internal/referrals/repository"
	"tradesbook/internal/referrals/service"
	"tradesbook/platform/logger"

	"github.com/google/uuid"
)

type usageRepo struct {
	repository.Repository
	settled map[uuid.UUID]string
}

func (r *usageRepo) SettleUsage(ctx context.Context, bookingID uuid.UUID, status string) (bool, error) {
	if _, done := r.settled[bookingID]; done {
		return false, nil
	}
	r.settled[bookingID] = status
	return true, nil
}

func TestHandleSettlesUsage(t *testing.T) {
	repo := &usageRepo{settled: make(map[uuid.UUID]string)}
	m := &Module{service: service.New(repo, nil, nil, nil, logger.Discard()), log: logger.Discard()}

	completed, cancelled, flagged := uuid.New(), uuid.New(), uuid.New()
	cases := []events.Event{
		events.BookingCompleted{BookingID: completed},
		events.BookingCancelled{BookingID: cancelled},
		events.BookingFlagged{BookingID: flagged},
		events.BookingCancelled{BookingID: completed},
		events.InvoiceVerified{},
	}
	for _, e := range cases {
		if err := m.Handle(context.Background(), e); err != nil {
			t.Fatalf("%s: %v", e.EventName(), err)
		}
	}

	want := map[uuid.UUID]string{
		completed: repository.UsageEarned,
		cancelled: repository.UsageVoid,
		flagged:   repository.UsageVoid,
	}
	for id, status := range want {
		if repo.settled[id] != status {
			t.Fatalf("booking %s: expected %s, got %s", id, status, repo.settled[id])
		}
	}
}
