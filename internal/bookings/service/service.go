// Package service implements booking intake, customer self-service and the
// admin review workflow.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tradesbook/internal/bookings/domain"
	"tradesbook/internal/bookings/repository"
	"tradesbook/internal/events"
	"tradesbook/internal/fraud/policy"
	fraudsvc "tradesbook/internal/fraud/service"
	pricingsvc "tradesbook/internal/pricing/service"
	"tradesbook/platform/apperr"
	"tradesbook/platform/logger"
	"tradesbook/platform/metrics"
	"tradesbook/platform/phone"
	"tradesbook/platform/qrcode"
	"tradesbook/platform/sanitize"
	"tradesbook/platform/validator"

	"github.com/google/uuid"
)

const (
	maxCodeAttempts = 5
	reminderHourUTC = 9
	bookingNotFound = "booking not found"
	defaultPageSize = 20
	maxPageSize     = 100
)

// Options configures the bookings service.
type Options struct {
	AppBaseURL      string
	LeadExpiryGrace time.Duration

	// VerifySecret signs email verification links; empty disables them.
	VerifySecret string
	VerifyTTL    time.Duration
}

// Service handles booking business logic.
type Service struct {
	repo      repository.Repository
	pricer    Pricer
	assessor  Assessor
	referrals ReferralResolver
	jobs      JobScheduler
	eventBus  events.Bus
	opts      Options
	log       *logger.Logger
	now       func() time.Time
}

// New creates a bookings service. referrals and jobs may be nil.
func New(repo repository.Repository, pricer Pricer, assessor Assessor, referrals ReferralResolver, jobs JobScheduler, eventBus events.Bus, opts Options, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		pricer:    pricer,
		assessor:  assessor,
		referrals: referrals,
		jobs:      jobs,
		eventBus:  eventBus,
		opts:      opts,
		log:       log,
		now:       time.Now,
	}
}

// SetJobScheduler wires the scheduler after construction; the scheduler
// client is created later in startup than the module.
func (s *Service) SetJobScheduler(jobs JobScheduler) {
	s.jobs = jobs
}

// CreateInput is a sanitised-on-entry booking request.
type CreateInput struct {
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	Address       string
	County        string
	Eircode       string
	ServiceTier   string
	TVCount       int
	TVSizeInches  int
	WallType      string
	AddOns        []string
	PreferredDate time.Time
	TimeSlot      string
	Notes         string
	ReferralCode  string
	ClientIP      string
}

// Create validates, prices and risk-scores a booking, then persists it.
func (s *Service) Create(ctx context.Context, in CreateInput) (repository.Booking, error) {
	in = normalizeCreateInput(in)
	if in.FirstName == "" || in.Email == "" || in.Address == "" {
		return repository.Booking{}, apperr.Validation("name, email and address are required")
	}

	var referral *Referral
	if in.ReferralCode != "" {
		if s.referrals == nil {
			return repository.Booking{}, apperr.Validation("referral codes are not accepted")
		}
		resolved, err := s.referrals.Resolve(ctx, in.ReferralCode)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return repository.Booking{}, apperr.Validation("referral code is not valid")
			}
			return repository.Booking{}, err
		}
		referral = &resolved
	}

	quoteInput := pricingsvc.QuoteInput{
		Tier:         in.ServiceTier,
		TVCount:      in.TVCount,
		TVSizeInches: in.TVSizeInches,
		WallType:     in.WallType,
		AddOns:       in.AddOns,
	}
	if referral != nil {
		quoteInput.DiscountBps = referral.DiscountBps
	}
	quote, err := s.pricer.Quote(ctx, quoteInput)
	if err != nil {
		return repository.Booking{}, err
	}

	customer, err := s.repo.UpsertCustomer(ctx, repository.CustomerUpsert{
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
	})
	if err != nil {
		return repository.Booking{}, err
	}

	now := s.now()
	assessment := s.assessor.Assess(ctx, fraudsvc.Request{
		Email:             in.Email,
		Phone:             in.Phone,
		FirstName:         in.FirstName,
		LastName:          in.LastName,
		Eircode:           in.Eircode,
		ClientIP:          in.ClientIP,
		PreferredDate:     in.PreferredDate,
		At:                now,
		EmailVerified:     customer.EmailVerified,
		InvoiceOriginated: customer.InvoiceOriginated,
		HasReferralCode:   referral != nil,
	})

	leadFee, err := s.leadFeeFor(ctx, in.ServiceTier, in.TVCount, in.AddOns, assessment.Risk)
	if err != nil {
		return repository.Booking{}, err
	}

	status := domain.InitialStatus(assessment.Risk)
	booking := repository.Booking{
		CustomerID:        customer.ID,
		ContactName:       strings.TrimSpace(in.FirstName + " " + in.LastName),
		ContactEmail:      in.Email,
		ContactPhone:      in.Phone,
		Address:           in.Address,
		County:            in.County,
		Eircode:           optional(in.Eircode),
		ServiceTier:       in.ServiceTier,
		TVCount:           in.TVCount,
		TVSizeInches:      in.TVSizeInches,
		WallType:          in.WallType,
		AddOns:            nonNil(in.AddOns),
		PreferredDate:     in.PreferredDate,
		PreferredTimeSlot: in.TimeSlot,
		Notes:             optional(in.Notes),
		SubtotalCents:     quote.SubtotalCents,
		DiscountCents:     quote.DiscountCents,
		TotalCents:        quote.TotalCents,
		LeadFeeCents:      leadFee,
		PricingVersion:    quote.Version,
		QualityScore:      assessment.Score,
		RiskLevel:         string(assessment.Risk),
		FraudFactors:      assessment.Factors,
		FraudVersion:      assessment.Version,
		Status:            string(status),
		ClientIP:          optional(in.ClientIP),
	}

	var usage *repository.ReferralUsage
	if referral != nil {
		booking.ReferralCodeID = &referral.ID
		usage = &repository.ReferralUsage{
			ReferralCodeID:  referral.ID,
			DiscountCents:   quote.DiscountCents,
			CommissionCents: referral.CommissionCents,
		}
	}

	created, err := s.insertWithFreshCodes(ctx, booking, usage)
	if err != nil {
		return repository.Booking{}, err
	}

	metrics.RecordBookingCreated(created.ServiceTier)
	s.log.Info("booking created",
		"booking", created.BookingCode, "status", created.Status,
		"risk", created.RiskLevel, "score", created.QualityScore)

	var referralCode *string
	if referral != nil {
		referralCode = &referral.Code
	}
	var verifyToken string
	if !customer.EmailVerified {
		if verifyToken, err = s.EmailVerificationToken(created); err != nil {
			s.log.Warn("failed to sign email verification token", "booking", created.BookingCode, "error", err)
		}
	}
	s.eventBus.Publish(ctx, events.BookingCreated{
		BaseEvent:     events.NewBaseEvent(),
		BookingID:     created.ID,
		BookingCode:   created.BookingCode,
		QRToken:       created.QRToken,
		CustomerName:  created.ContactName,
		CustomerEmail: created.ContactEmail,
		ServiceTier:   created.ServiceTier,
		TotalCents:    created.TotalCents,
		PreferredDate: created.PreferredDate,
		TimeSlot:      created.PreferredTimeSlot,
		Status:        created.Status,
		RiskLevel:     created.RiskLevel,
		ReferralCode:  referralCode,
		VerifyToken:   verifyToken,
	})
	if status == domain.StatusFlagged {
		s.publishFlagged(ctx, created, "assessed as critical risk at intake")
	}

	s.scheduleReminder(ctx, created)
	return created, nil
}

func (s *Service) insertWithFreshCodes(ctx context.Context, booking repository.Booking, usage *repository.ReferralUsage) (repository.Booking, error) {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := domain.NewBookingCode()
		if err != nil {
			return repository.Booking{}, err
		}
		token, err := domain.NewQRToken()
		if err != nil {
			return repository.Booking{}, err
		}
		booking.BookingCode = code
		booking.QRToken = token

		created, err := s.repo.Create(ctx, booking, usage)
		if errors.Is(err, repository.ErrCodeTaken) {
			s.log.Warn("booking code collision, retrying", "attempt", attempt)
			continue
		}
		return created, err
	}
	return repository.Booking{}, fmt.Errorf("create booking: no unique code after %d attempts", maxCodeAttempts)
}

// leadFeeFor returns the stored lead fee. Unsellable risk keeps the base fee
// so a later re-assessment has something to show.
func (s *Service) leadFeeFor(ctx context.Context, tier string, tvCount int, addOns []string, risk policy.Risk) (int64, error) {
	fee, err := s.pricer.LeadFee(ctx, pricingsvc.LeadFeeInput{
		Tier:    tier,
		TVCount: tvCount,
		AddOns:  addOns,
		Risk:    string(risk),
	})
	if errors.Is(err, pricingsvc.ErrLeadNotSellable) {
		return fee.BaseCents, nil
	}
	if err != nil {
		return 0, err
	}
	return fee.RiskAdjustedCents, nil
}

// ReminderTime is 09:00 UTC on the day before the installation.
func ReminderTime(preferredDate time.Time) time.Time {
	y, m, d := preferredDate.Date()
	return time.Date(y, m, d, reminderHourUTC, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}

func (s *Service) scheduleReminder(ctx context.Context, b repository.Booking) {
	if s.jobs == nil || domain.Status(b.Status) == domain.StatusFlagged {
		return
	}
	runAt := ReminderTime(b.PreferredDate)
	if !runAt.After(s.now()) {
		return
	}
	if err := s.jobs.ScheduleBookingReminder(ctx, b.ID, runAt); err != nil {
		s.log.Warn("failed to schedule booking reminder", "booking", b.BookingCode, "error", err)
	}
}

// GetForCustomer returns a booking when code and email both match.
// A mismatched email is reported as not found.
func (s *Service) GetForCustomer(ctx context.Context, code, email string) (repository.Booking, error) {
	b, err := s.repo.GetByCode(ctx, domain.NormalizeBookingCode(code))
	if err != nil {
		return repository.Booking{}, err
	}
	if !strings.EqualFold(b.ContactEmail, strings.TrimSpace(email)) {
		return repository.Booking{}, apperr.NotFound(bookingNotFound)
	}
	return b, nil
}

// GetByQRToken returns the booking behind a tracking link.
func (s *Service) GetByQRToken(ctx context.Context, token string) (repository.Booking, error) {
	if strings.TrimSpace(token) == "" {
		return repository.Booking{}, apperr.NotFound(bookingNotFound)
	}
	return s.repo.GetByQRToken(ctx, token)
}

// TrackingURL is the public page a booking QR code points at.
func (s *Service) TrackingURL(b repository.Booking) string {
	return s.opts.AppBaseURL + "/track/" + b.QRToken
}

// QRCode renders the tracking link of a customer's booking as a PNG.
func (s *Service) QRCode(ctx context.Context, code, email string) ([]byte, error) {
	b, err := s.GetForCustomer(ctx, code, email)
	if err != nil {
		return nil, err
	}
	return qrcode.PNG(s.TrackingURL(b), qrcode.DefaultSize)
}

// CancelByCustomer cancels a booking the customer still controls.
func (s *Service) CancelByCustomer(ctx context.Context, code, email string) (repository.Booking, error) {
	b, err := s.GetForCustomer(ctx, code, email)
	if err != nil {
		return repository.Booking{}, err
	}
	if !domain.Status(b.Status).CustomerCancellable() {
		return repository.Booking{}, apperr.Conflict("booking can no longer be cancelled")
	}

	updated, err := s.repo.UpdateStatus(ctx, b.ID, b.Status, string(domain.StatusCancelled))
	if err != nil {
		return repository.Booking{}, err
	}
	s.log.Info("booking cancelled by customer", "booking", updated.BookingCode, "from", b.Status)
	s.eventBus.Publish(ctx, events.BookingCancelled{
		BaseEvent:   events.NewBaseEvent(),
		BookingID:   updated.ID,
		BookingCode: updated.BookingCode,
		ByCustomer:  true,
	})
	return updated, nil
}

// List returns a filtered page of bookings for admins.
func (s *Service) List(ctx context.Context, params repository.ListParams) (repository.ListResult, error) {
	if params.Status != "" {
		if _, err := domain.ParseStatus(params.Status); err != nil {
			return repository.ListResult{}, apperr.Validation(err.Error())
		}
	}
	if params.Risk != "" && !policy.Risk(params.Risk).Valid() {
		return repository.ListResult{}, apperr.Validation("unknown risk level")
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = defaultPageSize
	}
	if params.PageSize > maxPageSize {
		params.PageSize = maxPageSize
	}
	return s.repo.List(ctx, params)
}

// Get returns a booking by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Booking, error) {
	return s.repo.GetByID(ctx, id)
}

// ChangeStatus applies an admin status change that follows the transition
// table. Assignment and completion belong to the installer workflow.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, rawStatus, reason string) (repository.Booking, error) {
	to, err := domain.ParseStatus(rawStatus)
	if err != nil {
		return repository.Booking{}, apperr.Validation(err.Error())
	}
	if to == domain.StatusAssigned || to == domain.StatusCompleted {
		return repository.Booking{}, apperr.Validation("assignment and completion are set by installers")
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.Booking{}, err
	}
	from := domain.Status(b.Status)
	if !domain.CanTransition(from, to) {
		return repository.Booking{}, apperr.Conflict(fmt.Sprintf("cannot move booking from %s to %s", from, to))
	}
	if from == domain.StatusAssigned && to == domain.StatusOpen {
		held, err := s.repo.HasActiveAssignment(ctx, id)
		if err != nil {
			return repository.Booking{}, err
		}
		if held {
			return repository.Booking{}, apperr.Conflict("booking is held by an installer; refund the lead before reopening")
		}
	}
	if to == domain.StatusOpen && !policy.Sellable(policy.Risk(b.RiskLevel)) {
		return repository.Booking{}, apperr.Conflict("critical risk bookings must be re-assessed before listing")
	}

	updated, err := s.repo.UpdateStatus(ctx, id, string(from), string(to))
	if err != nil {
		return repository.Booking{}, err
	}
	s.log.Info("booking status changed", "booking", updated.BookingCode, "from", from, "to", to, "reason", reason)
	s.publishStatusEvent(ctx, updated, to, reason)
	return updated, nil
}

// Review resolves a booking held for review: approve lists it, reject flags it.
func (s *Service) Review(ctx context.Context, id uuid.UUID, approve bool, note string) (repository.Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.Booking{}, err
	}
	from := domain.Status(b.Status)
	if from != domain.StatusPendingReview && from != domain.StatusFlagged {
		return repository.Booking{}, apperr.Conflict("booking is not awaiting review")
	}

	to := domain.StatusFlagged
	if approve {
		to = domain.StatusOpen
		if !policy.Sellable(policy.Risk(b.RiskLevel)) {
			return repository.Booking{}, apperr.Conflict("critical risk bookings must be re-assessed before listing")
		}
	}
	if from == to {
		return b, nil
	}

	updated, err := s.repo.UpdateStatus(ctx, id, string(from), string(to))
	if err != nil {
		return repository.Booking{}, err
	}
	s.log.Info("booking reviewed", "booking", updated.BookingCode, "approved", approve, "note", note)
	s.publishStatusEvent(ctx, updated, to, note)
	return updated, nil
}

// Reassess re-runs the fraud assessment for a stored booking and, unless it
// has been sold or closed, moves it between open, pending_review and flagged.
func (s *Service) Reassess(ctx context.Context, id uuid.UUID) (repository.Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.Booking{}, err
	}
	current := domain.Status(b.Status)
	if current.IsTerminal() {
		return repository.Booking{}, apperr.Conflict("booking is closed")
	}

	customer, err := s.repo.GetCustomerByEmail(ctx, b.ContactEmail)
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return repository.Booking{}, err
	}

	firstName, lastName := splitName(b.ContactName)
	bookingID := b.ID
	assessment := s.assessor.Assess(ctx, fraudsvc.Request{
		BookingRef:        b.BookingCode,
		Email:             b.ContactEmail,
		Phone:             b.ContactPhone,
		FirstName:         firstName,
		LastName:          lastName,
		Eircode:           deref(b.Eircode),
		ClientIP:          deref(b.ClientIP),
		PreferredDate:     b.PreferredDate,
		At:                b.CreatedAt,
		EmailVerified:     customer.EmailVerified,
		InvoiceOriginated: customer.InvoiceOriginated,
		HasReferralCode:   b.ReferralCodeID != nil,
		ExcludeBookingID:  &bookingID,
	})

	leadFee, err := s.leadFeeFor(ctx, b.ServiceTier, b.TVCount, b.AddOns, assessment.Risk)
	if err != nil {
		return repository.Booking{}, err
	}

	next := domain.ReassessedStatus(current, assessment.Risk)
	updated, err := s.repo.UpdateAssessment(ctx, b.ID, string(current), string(next), repository.Assessment{
		QualityScore: assessment.Score,
		RiskLevel:    string(assessment.Risk),
		FraudFactors: assessment.Factors,
		FraudVersion: assessment.Version,
		LeadFeeCents: leadFee,
	})
	if err != nil {
		return repository.Booking{}, err
	}

	s.log.Info("booking reassessed",
		"booking", updated.BookingCode, "score", updated.QualityScore,
		"risk", updated.RiskLevel, "from", current, "to", next)
	if next == domain.StatusFlagged && current != domain.StatusFlagged {
		s.publishFlagged(ctx, updated, "re-assessed as critical risk")
	}
	return updated, nil
}

// ReassessForCustomer queues re-assessment of the contact's bookings that are
// still risk-gated, typically after they verify a retailer invoice.
func (s *Service) ReassessForCustomer(ctx context.Context, email string) error {
	bookings, err := s.repo.ListByEmail(ctx, email, []string{
		string(domain.StatusPendingReview),
		string(domain.StatusFlagged),
		string(domain.StatusOpen),
	})
	if err != nil {
		return err
	}
	for _, b := range bookings {
		if s.jobs != nil {
			if err := s.jobs.EnqueueFraudReassessment(ctx, b.ID); err != nil {
				s.log.Warn("failed to enqueue reassessment", "booking", b.BookingCode, "error", err)
			}
			continue
		}
		if _, err := s.Reassess(ctx, b.ID); err != nil {
			s.log.Warn("reassessment failed", "booking", b.BookingCode, "error", err)
		}
	}
	return nil
}

// ExpireStale expires unsold bookings whose preferred date passed more than
// the configured grace period ago.
func (s *Service) ExpireStale(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.opts.LeadExpiryGrace)
	ids, err := s.repo.ExpireStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if len(ids) > 0 {
		s.log.Info("expired stale bookings", "count", len(ids), "cutoff", cutoff)
	}
	return len(ids), nil
}

// SendReminder publishes the reminder for a booking that is still going ahead.
func (s *Service) SendReminder(ctx context.Context, id uuid.UUID) error {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	switch domain.Status(b.Status) {
	case domain.StatusOpen, domain.StatusAssigned:
	default:
		s.log.Info("skipping reminder", "booking", b.BookingCode, "status", b.Status)
		return nil
	}
	s.eventBus.Publish(ctx, events.BookingReminderDue{
		BaseEvent:     events.NewBaseEvent(),
		BookingID:     b.ID,
		BookingCode:   b.BookingCode,
		CustomerName:  b.ContactName,
		CustomerEmail: b.ContactEmail,
		PreferredDate: b.PreferredDate,
		TimeSlot:      b.PreferredTimeSlot,
	})
	return nil
}

func (s *Service) publishStatusEvent(ctx context.Context, b repository.Booking, to domain.Status, reason string) {
	switch to {
	case domain.StatusFlagged:
		s.publishFlagged(ctx, b, reason)
	case domain.StatusCancelled:
		s.eventBus.Publish(ctx, events.BookingCancelled{
			BaseEvent:   events.NewBaseEvent(),
			BookingID:   b.ID,
			BookingCode: b.BookingCode,
		})
	}
}

func (s *Service) publishFlagged(ctx context.Context, b repository.Booking, reason string) {
	s.eventBus.Publish(ctx, events.BookingFlagged{
		BaseEvent:    events.NewBaseEvent(),
		BookingID:    b.ID,
		BookingCode:  b.BookingCode,
		QualityScore: b.QualityScore,
		RiskLevel:    b.RiskLevel,
		Factors:      b.FraudFactors,
		Reason:       reason,
	})
}

func normalizeCreateInput(in CreateInput) CreateInput {
	in.FirstName = sanitize.Text(in.FirstName)
	in.LastName = sanitize.Text(in.LastName)
	in.Email = sanitize.Email(in.Email)
	in.Phone = phone.NormalizeE164(in.Phone)
	in.Address = sanitize.Text(in.Address)
	in.County = sanitize.Text(in.County)
	in.Eircode = validator.NormalizeEircode(in.Eircode)
	in.TimeSlot = sanitize.Text(in.TimeSlot)
	in.Notes = sanitize.Multiline(in.Notes)
	in.ReferralCode = strings.ToUpper(strings.TrimSpace(in.ReferralCode))
	return in
}

func splitName(full string) (string, string) {
	first, last, _ := strings.Cut(strings.TrimSpace(full), " ")
	return first, strings.TrimSpace(last)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
