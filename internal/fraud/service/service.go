// Package service assesses booking risk from contact history.
package service

import (
	"context"
	"time"

	"tradesbook/internal/fraud/policy"
	"tradesbook/internal/fraud/repository"
	"tradesbook/platform/logger"
	"tradesbook/platform/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Statuses counted as history. Kept as strings so fraud does not depend on bookings.
const (
	statusFlagged   = "flagged"
	statusCompleted = "completed"
)

// Windows configures the lookback periods.
type Windows struct {
	Duplicate time.Duration
	Rapid     time.Duration
}

// Request is a booking to assess. ExcludeBookingID is set when re-assessing
// a stored booking so it does not count against itself.
type Request struct {
	BookingRef        string
	Email             string
	Phone             string
	FirstName         string
	LastName          string
	Eircode           string
	ClientIP          string
	PreferredDate     time.Time
	At                time.Time
	EmailVerified     bool
	InvoiceOriginated bool
	HasReferralCode   bool
	ExcludeBookingID  *uuid.UUID
}

// Service runs the history lookups and scores the booking.
type Service struct {
	repo    repository.Repository
	windows Windows
	log     *logger.Logger
	now     func() time.Time
}

// New creates a fraud assessment service.
func New(repo repository.Repository, windows Windows, log *logger.Logger) *Service {
	return &Service{repo: repo, windows: windows, log: log, now: time.Now}
}

// Assess gathers the history counts concurrently and scores the booking.
// A failed lookup is logged and counted as zero so a database hiccup never
// blocks a booking.
func (s *Service) Assess(ctx context.Context, req Request) policy.Assessment {
	at := req.At
	if at.IsZero() {
		at = s.now()
	}

	var sameEmail, samePhone, rapid, flagged, completed int
	g, gctx := errgroup.WithContext(ctx)

	lookup := func(name string, dst *int, fn func(context.Context) (int, error)) {
		g.Go(func() error {
			n, err := fn(gctx)
			if err != nil {
				s.log.Warn("fraud signal lookup failed", "signal", name, "booking", req.BookingRef, "error", err)
				return nil
			}
			*dst = n
			return nil
		})
	}

	lookup("same_email", &sameEmail, func(ctx context.Context) (int, error) {
		return s.repo.CountByEmailSince(ctx, req.Email, at.Add(-s.windows.Duplicate), req.ExcludeBookingID)
	})
	lookup("same_phone", &samePhone, func(ctx context.Context) (int, error) {
		return s.repo.CountByPhoneSince(ctx, req.Phone, at.Add(-s.windows.Duplicate), req.ExcludeBookingID)
	})
	lookup("rapid", &rapid, func(ctx context.Context) (int, error) {
		return s.repo.CountByContactSince(ctx, req.Email, req.Phone, req.ClientIP, at.Add(-s.windows.Rapid), req.ExcludeBookingID)
	})
	lookup("prior_flagged", &flagged, func(ctx context.Context) (int, error) {
		return s.repo.CountByContactStatus(ctx, req.Email, req.Phone, statusFlagged, req.ExcludeBookingID)
	})
	lookup("prior_completed", &completed, func(ctx context.Context) (int, error) {
		return s.repo.CountByContactStatus(ctx, req.Email, "", statusCompleted, req.ExcludeBookingID)
	})
	_ = g.Wait()

	assessment := policy.Score(policy.Input{
		Email:             req.Email,
		Phone:             req.Phone,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Eircode:           req.Eircode,
		PreferredDate:     req.PreferredDate,
		Now:               s.now(),
		SameEmailCount:    sameEmail,
		SamePhoneCount:    samePhone,
		RapidCount:        rapid,
		PriorFlagged:      flagged,
		PriorCompleted:    completed,
		EmailVerified:     req.EmailVerified,
		InvoiceOriginated: req.InvoiceOriginated,
		HasReferralCode:   req.HasReferralCode,
	})

	metrics.RecordFraudAssessment(string(assessment.Risk))
	s.log.FraudAssessment(req.BookingRef, assessment.Score, string(assessment.Risk), assessment.Factors)
	return assessment
}
