package service

import (
	"context"
	"strings"

	"tradesbook/internal/events"
	"tradesbook/internal/installers/repository"
	"tradesbook/platform/metrics"
	"tradesbook/platform/phone"

	"github.com/google/uuid"
)

// LeadView is a marketplace lead with contact details masked and the
// caller's own price.
type LeadView struct {
	repository.Lead
	ChargeCents int64
	FeeBand     string
}

// ListLeads returns open leads in the caller's counties.
func (s *Service) ListLeads(ctx context.Context, userID uuid.UUID) ([]LeadView, error) {
	installer, err := s.approved(ctx, userID)
	if err != nil {
		return nil, err
	}
	leads, err := s.repo.ListLeads(ctx, installer.Counties, leadPageSize)
	if err != nil {
		return nil, err
	}

	out := make([]LeadView, 0, len(leads))
	for _, lead := range leads {
		charge, err := s.pricer.ChargeFor(ctx, lead.LeadFeeCents, installer.FeeStructure)
		if err != nil {
			return nil, err
		}
		band, err := s.pricer.FeeBand(ctx, lead.LeadFeeCents)
		if err != nil {
			return nil, err
		}
		lead.ContactName = MaskName(lead.ContactName)
		lead.ContactEmail = MaskEmail(lead.ContactEmail)
		lead.ContactPhone = phone.Mask(lead.ContactPhone)
		out = append(out, LeadView{Lead: lead, ChargeCents: charge, FeeBand: band})
	}
	return out, nil
}

// PurchaseLead buys a lead from the caller's wallet.
func (s *Service) PurchaseLead(ctx context.Context, userID, bookingID uuid.UUID) (repository.PurchaseResult, error) {
	installer, err := s.approved(ctx, userID)
	if err != nil {
		return repository.PurchaseResult{}, err
	}

	result, err := s.repo.Purchase(ctx, installer.ID, bookingID, func(target repository.PurchaseTarget) (int64, error) {
		return s.pricer.ChargeFor(ctx, target.LeadFeeCents, installer.FeeStructure)
	})
	if err != nil {
		return repository.PurchaseResult{}, err
	}

	charged := result.Assignment.ChargedCents
	metrics.RecordLeadPurchase(charged)
	s.log.WalletMovement(installer.ID.String(), repository.TxLeadPurchase, -charged, result.BalanceAfterCents)
	s.eventBus.Publish(ctx, events.LeadPurchased{
		BaseEvent:         events.NewBaseEvent(),
		AssignmentID:      result.Assignment.ID,
		BookingID:         result.Target.BookingID,
		BookingCode:       result.Target.BookingCode,
		InstallerID:       installer.ID,
		InstallerName:     installer.BusinessName,
		InstallerEmail:    installer.Email,
		InstallerPhone:    installer.Phone,
		CustomerName:      result.Target.ContactName,
		CustomerEmail:     result.Target.ContactEmail,
		ChargedCents:      charged,
		BalanceAfterCents: result.BalanceAfterCents,
	})
	return result, nil
}

// ListJobs returns the caller's purchased leads with full contact details.
func (s *Service) ListJobs(ctx context.Context, userID uuid.UUID) ([]repository.Job, error) {
	installer, err := s.active(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListJobs(ctx, installer.ID)
}

// CompleteJob marks one of the caller's jobs done.
func (s *Service) CompleteJob(ctx context.Context, userID, assignmentID uuid.UUID) (repository.Job, error) {
	installer, err := s.active(ctx, userID)
	if err != nil {
		return repository.Job{}, err
	}
	job, err := s.repo.CompleteJob(ctx, installer.ID, assignmentID)
	if err != nil {
		return repository.Job{}, err
	}

	s.eventBus.Publish(ctx, events.BookingCompleted{
		BaseEvent:      events.NewBaseEvent(),
		BookingID:      job.BookingID,
		BookingCode:    job.BookingCode,
		InstallerID:    installer.ID,
		ReferralCodeID: job.ReferralCodeID,
	})
	return job, nil
}

// MaskName keeps the first name and the initial of the last.
func MaskName(name string) string {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	last := []rune(parts[len(parts)-1])
	return parts[0] + " " + strings.ToUpper(string(last[0])) + "."
}

// MaskEmail keeps the first character of the local part and the domain.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	local := []rune(email[:at])
	return string(local[0]) + "***" + email[at:]
}
