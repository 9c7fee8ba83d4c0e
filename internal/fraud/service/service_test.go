package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tradesbook/internal/fraud/policy"
	"tradesbook/platform/logger"

	"github.com/google/uuid"
)

type fakeRepo struct {
	mu          sync.Mutex
	byEmail     int
	byPhone     int
	byContact   int
	byStatus    map[string]int
	failAll     bool
	excludeSeen []*uuid.UUID
	sinceSeen   []time.Time
}

func (f *fakeRepo) record(exclude *uuid.UUID, since time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.excludeSeen = append(f.excludeSeen, exclude)
	if !since.IsZero() {
		f.sinceSeen = append(f.sinceSeen, since)
	}
}

func (f *fakeRepo) CountByEmailSince(ctx context.Context, email string, since time.Time, exclude *uuid.UUID) (int, error) {
	f.record(exclude, since)
	if f.failAll {
		return 0, errors.New("timeout")
	}
	return f.byEmail, nil
}

func (f *fakeRepo) CountByPhoneSince(ctx context.Context, phone string, since time.Time, exclude *uuid.UUID) (int, error) {
	f.record(exclude, since)
	if f.failAll {
		return 0, errors.New("timeout")
	}
	return f.byPhone, nil
}

func (f *fakeRepo) CountByContactSince(ctx context.Context, email, phone, clientIP string, since time.Time, exclude *uuid.UUID) (int, error) {
	f.record(exclude, since)
	if f.failAll {
		return 0, errors.New("timeout")
	}
	return f.byContact, nil
}

func (f *fakeRepo) CountByContactStatus(ctx context.Context, email, phone, status string, exclude *uuid.UUID) (int, error) {
	f.record(exclude, time.Time{})
	if f.failAll {
		return 0, errors.New("timeout")
	}
	return f.byStatus[status], nil
}

func newTestService(repo *fakeRepo, now time.Time) *Service {
	svc := New(repo, Windows{Duplicate: 30 * 24 * time.Hour, Rapid: time.Hour}, logger.Discard())
	svc.now = func() time.Time { return now }
	return svc
}

func baseRequest(now time.Time) Request {
	return Request{
		BookingRef:    "TB-TEST01",
		Email:         "aoife.murphy@gmail.com",
		Phone:         "+353871234567",
		FirstName:     "Aoife",
		LastName:      "Murphy",
		Eircode:       "D02X285",
		ClientIP:      "203.0.113.9",
		PreferredDate: now.AddDate(0, 0, 5),
	}
}

func TestAssessUsesHistory(t *testing.T) {
	now := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)
	repo := &fakeRepo{byEmail: 2, byContact: 3, byStatus: map[string]int{"completed": 1}}
	svc := newTestService(repo, now)

	got := svc.Assess(context.Background(), baseRequest(now))

	// 50 + 5 phone + 5 eircode - 15 duplicate email - 20 rapid + 10 repeat customer
	if got.Score != 35 || got.Risk != policy.RiskHigh {
		t.Fatalf("expected 35/high, got %d/%s (%v)", got.Score, got.Risk, got.Factors)
	}

	wantDuplicateSince := now.Add(-30 * 24 * time.Hour)
	wantRapidSince := now.Add(-time.Hour)
	seenDuplicate, seenRapid := false, false
	for _, since := range repo.sinceSeen {
		seenDuplicate = seenDuplicate || since.Equal(wantDuplicateSince)
		seenRapid = seenRapid || since.Equal(wantRapidSince)
	}
	if !seenDuplicate || !seenRapid {
		t.Fatalf("expected lookbacks %s and %s, saw %v", wantDuplicateSince, wantRapidSince, repo.sinceSeen)
	}
}

func TestAssessDegradesOnLookupFailure(t *testing.T) {
	now := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)
	svc := newTestService(&fakeRepo{failAll: true}, now)

	got := svc.Assess(context.Background(), baseRequest(now))
	if got.Score != 60 || got.Risk != policy.RiskMedium {
		t.Fatalf("expected history to count as zero, got %d/%s", got.Score, got.Risk)
	}
}

func TestAssessExcludesBookingOnReassessment(t *testing.T) {
	now := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)
	repo := &fakeRepo{}
	svc := newTestService(repo, now)
	id := uuid.New()

	req := baseRequest(now)
	req.ExcludeBookingID = &id
	req.At = now.Add(-48 * time.Hour)
	svc.Assess(context.Background(), req)

	if len(repo.excludeSeen) != 5 {
		t.Fatalf("expected 5 lookups, got %d", len(repo.excludeSeen))
	}
	for _, seen := range repo.excludeSeen {
		if seen == nil || *seen != id {
			t.Fatal("expected every lookup to exclude the booking itself")
		}
	}
	for _, since := range repo.sinceSeen {
		if !since.Before(req.At) {
			t.Fatalf("expected windows anchored at booking time, saw %s", since)
		}
	}
}
