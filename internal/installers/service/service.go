// Package service implements installer profiles, wallets, the lead
// marketplace and refund handling.
package service

import (
	"context"
	"strings"
	"time"

	"tradesbook/internal/events"
	"tradesbook/internal/installers/repository"
	"tradesbook/platform/apperr"
	"tradesbook/platform/logger"
	"tradesbook/platform/phone"
	"tradesbook/platform/sanitize"

	"github.com/google/uuid"
)

const (
	leadPageSize        = 50
	transactionPageSize = 50
)

// Fee structures an installer can be placed on.
const (
	FeePayPerLead   = "pay_per_lead"
	FeeSubscription = "subscription"
	FeePremium      = "premium"
)

// Options configures the installers service.
type Options struct {
	RefundWindow time.Duration
}

// Service handles installer business logic.
type Service struct {
	repo     repository.Repository
	pricer   Pricer
	eventBus events.Bus
	opts     Options
	log      *logger.Logger
	now      func() time.Time
}

// New creates an installers service.
func New(repo repository.Repository, pricer Pricer, eventBus events.Bus, opts Options, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		pricer:   pricer,
		eventBus: eventBus,
		opts:     opts,
		log:      log,
		now:      time.Now,
	}
}

// ProfileInput is the self-service part of an installer profile.
type ProfileInput struct {
	BusinessName string
	Email        string
	Phone        string
	Counties     []string
}

// GetProfile returns the caller's installer profile. Deactivated installers
// can still read it to see their account state.
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (repository.Installer, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// UpsertProfile creates or updates the caller's installer profile. New
// profiles start unapproved.
func (s *Service) UpsertProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (repository.Installer, error) {
	counties := normalizeCounties(in.Counties)
	in.BusinessName = sanitize.Text(in.BusinessName)
	in.Email = sanitize.Email(in.Email)
	in.Phone = phone.NormalizeE164(in.Phone)
	if in.BusinessName == "" || in.Email == "" {
		return repository.Installer{}, apperr.Validation("business name and email are required")
	}
	if !phone.IsValid(in.Phone) {
		return repository.Installer{}, apperr.Validation("phone number is not valid")
	}
	if len(counties) == 0 {
		return repository.Installer{}, apperr.Validation("at least one county is required")
	}
	if _, err := s.active(ctx, userID); err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return repository.Installer{}, err
	}

	return s.repo.UpsertProfile(ctx, repository.Installer{
		UserID:       userID,
		BusinessName: in.BusinessName,
		Email:        in.Email,
		Phone:        in.Phone,
		Counties:     counties,
	})
}

// ListInstallers returns installers for admins, optionally by approval.
func (s *Service) ListInstallers(ctx context.Context, approved *bool) ([]repository.Installer, error) {
	return s.repo.List(ctx, approved)
}

// UpdateInstaller applies an admin change to approval, activity or fee structure.
func (s *Service) UpdateInstaller(ctx context.Context, id uuid.UUID, in repository.AdminUpdate) (repository.Installer, error) {
	if in.IsApproved == nil && in.IsActive == nil && in.FeeStructure == nil {
		return repository.Installer{}, apperr.Validation("nothing to update")
	}
	if in.FeeStructure != nil && !ValidFeeStructure(*in.FeeStructure) {
		return repository.Installer{}, apperr.Validation("unknown fee structure")
	}
	installer, err := s.repo.AdminUpdate(ctx, id, in)
	if err != nil {
		return repository.Installer{}, err
	}
	s.log.Info("installer updated",
		"installerId", installer.ID,
		"approved", installer.IsApproved,
		"active", installer.IsActive,
		"feeStructure", installer.FeeStructure)
	return installer, nil
}

// ValidFeeStructure reports whether v names a fee structure.
func ValidFeeStructure(v string) bool {
	switch v {
	case FeePayPerLead, FeeSubscription, FeePremium:
		return true
	}
	return false
}

// active loads the caller and rejects deactivated accounts.
func (s *Service) active(ctx context.Context, userID uuid.UUID) (repository.Installer, error) {
	installer, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return repository.Installer{}, err
	}
	if !installer.IsActive {
		return repository.Installer{}, apperr.Forbidden("installer account is deactivated")
	}
	return installer, nil
}

// approved is active plus admin approval, required for the marketplace.
func (s *Service) approved(ctx context.Context, userID uuid.UUID) (repository.Installer, error) {
	installer, err := s.active(ctx, userID)
	if err != nil {
		return repository.Installer{}, err
	}
	if !installer.IsApproved {
		return repository.Installer{}, apperr.Forbidden("installer is not approved yet")
	}
	return installer, nil
}

func normalizeCounties(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, county := range raw {
		county = sanitize.Text(county)
		key := strings.ToLower(county)
		if county == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, county)
	}
	return out
}
