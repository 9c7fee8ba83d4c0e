package service

import (
	"context"

	"tradesbook/internal/events"
	"tradesbook/internal/fraud/policy"
	"tradesbook/internal/installers/repository"
	"tradesbook/platform/apperr"
	"tradesbook/platform/metrics"
	"tradesbook/platform/sanitize"

	"github.com/google/uuid"
)

const (
	bookingAssigned  = "assigned"
	bookingCancelled = "cancelled"
	bookingFlagged   = "flagged"
)

// RefundInput is an installer's refund claim.
type RefundInput struct {
	Reason  string
	Details string
}

// RefundOutcome is a stored request with the decision that produced it.
type RefundOutcome struct {
	Request           repository.RefundRequest
	Decision          policy.RefundDecision
	BalanceAfterCents *int64
}

// RequestRefund files a refund claim against one of the caller's jobs and
// applies the automatic decision. Review outcomes wait for an admin.
func (s *Service) RequestRefund(ctx context.Context, userID, assignmentID uuid.UUID, in RefundInput) (RefundOutcome, error) {
	reason := policy.RefundReason(in.Reason)
	if !reason.Valid() {
		return RefundOutcome{}, apperr.Validation("unknown refund reason")
	}
	installer, err := s.active(ctx, userID)
	if err != nil {
		return RefundOutcome{}, err
	}
	job, err := s.repo.GetJob(ctx, installer.ID, assignmentID)
	if err != nil {
		return RefundOutcome{}, err
	}

	decision := policy.EvaluateRefund(policy.RefundCase{
		Reason:           reason,
		PurchasedAt:      job.PurchasedAt,
		Now:              s.now(),
		Window:           s.opts.RefundWindow,
		AssignmentActive: job.Status == repository.AssignmentActive,
		BookingCancelled: job.BookingStatus == bookingCancelled,
		BookingFlagged:   job.BookingStatus == bookingFlagged,
		RiskAtPurchase:   policy.Risk(job.RiskLevelAtPurchase),
		Factors:          job.FraudFactors,
	})
	metrics.RecordLeadRefund(string(decision.Outcome))

	filed := repository.RefundRequest{
		AssignmentID: job.ID,
		InstallerID:  installer.ID,
		Reason:       string(reason),
		Details:      sanitize.TextPtr(optional(in.Details)),
		Status:       repository.RefundPending,
	}

	if decision.Outcome == policy.RefundApproved {
		result, err := s.repo.FileApprovedRefund(ctx, filed, repository.RefundDecision{
			Note:          decision.Explanation,
			BookingStatus: BookingStatusAfterRefund(reason),
		})
		if err != nil {
			return RefundOutcome{}, err
		}
		s.afterApproval(ctx, result, reason, job.BookingStatus)
		return RefundOutcome{Request: result.Request, Decision: decision, BalanceAfterCents: &result.BalanceAfterCents}, nil
	}

	if decision.Outcome == policy.RefundRejected {
		filed.Status = repository.RefundRejected
		filed.DecisionNote = &decision.Explanation
	}
	req, err := s.repo.CreateRefundRequest(ctx, filed)
	if err != nil {
		return RefundOutcome{}, err
	}

	outcome := RefundOutcome{Request: req, Decision: decision}
	switch decision.Outcome {
	case policy.RefundRejected:
		s.publishRefund(ctx, req, job.BookingID, job.BookingCode, installer.Email, false, 0)
	default:
		s.log.Info("refund request queued for review",
			"refundRequestId", req.ID,
			"bookingCode", job.BookingCode,
			"reason", reason)
	}
	return outcome, nil
}

// ListMyRefunds returns the caller's refund requests.
func (s *Service) ListMyRefunds(ctx context.Context, userID uuid.UUID) ([]repository.RefundView, error) {
	installer, err := s.active(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListRefundRequests(ctx, repository.RefundFilter{InstallerID: &installer.ID})
}

// ListRefunds returns refund requests for admins.
func (s *Service) ListRefunds(ctx context.Context, status string) ([]repository.RefundView, error) {
	switch status {
	case "", repository.RefundPending, repository.RefundApproved, repository.RefundRejected:
	default:
		return nil, apperr.Validation("unknown refund status")
	}
	return s.repo.ListRefundRequests(ctx, repository.RefundFilter{Status: status})
}

// DecideRefund resolves a request waiting for review.
func (s *Service) DecideRefund(ctx context.Context, id uuid.UUID, approve bool, adminID uuid.UUID, note string) (repository.RefundRequest, error) {
	view, err := s.repo.GetRefundRequest(ctx, id)
	if err != nil {
		return repository.RefundRequest{}, err
	}
	if view.Status != repository.RefundPending {
		return repository.RefundRequest{}, apperr.Conflict("refund request is not pending")
	}
	note = sanitize.Text(note)

	if approve {
		status, err := s.bookingStatusOf(ctx, view)
		if err != nil {
			return repository.RefundRequest{}, err
		}
		metrics.RecordLeadRefund(string(policy.RefundApproved))
		result, err := s.approve(ctx, id, &adminID, note, policy.RefundReason(view.Reason), status)
		if err != nil {
			return repository.RefundRequest{}, err
		}
		return result.Request, nil
	}

	req, err := s.repo.RejectRefund(ctx, id, &adminID, note)
	if err != nil {
		return repository.RefundRequest{}, err
	}
	metrics.RecordLeadRefund(string(policy.RefundRejected))
	s.publishRefund(ctx, req, view.BookingID, view.BookingCode, view.InstallerEmail, false, 0)
	return req, nil
}

func (s *Service) bookingStatusOf(ctx context.Context, view repository.RefundView) (string, error) {
	job, err := s.repo.GetJob(ctx, view.InstallerID, view.AssignmentID)
	if err != nil {
		return "", err
	}
	return job.BookingStatus, nil
}

// approve credits the refund and moves the booking according to the reason.
func (s *Service) approve(ctx context.Context, requestID uuid.UUID, decidedBy *uuid.UUID, note string, reason policy.RefundReason, bookingStatus string) (repository.RefundResult, error) {
	result, err := s.repo.ApproveRefund(ctx, repository.RefundDecision{
		RequestID:     requestID,
		DecidedBy:     decidedBy,
		Note:          note,
		BookingStatus: BookingStatusAfterRefund(reason),
	})
	if err != nil {
		return repository.RefundResult{}, err
	}
	s.afterApproval(ctx, result, reason, bookingStatus)
	return result, nil
}

// afterApproval logs the wallet credit and publishes the refund events.
func (s *Service) afterApproval(ctx context.Context, result repository.RefundResult, reason policy.RefundReason, bookingStatus string) {
	installer, err := s.repo.GetByID(ctx, result.Assignment.InstallerID)
	if err != nil {
		s.log.Warn("refund approved but installer lookup failed", "installerId", result.Assignment.InstallerID, "error", err)
	}
	s.log.WalletMovement(result.Assignment.InstallerID.String(), repository.TxRefund,
		result.Assignment.ChargedCents, result.BalanceAfterCents)
	s.publishRefund(ctx, result.Request, result.Assignment.BookingID, result.BookingCode, installer.Email, true, result.Assignment.ChargedCents)

	if bookingStatus == bookingAssigned && result.BookingStatus == bookingFlagged {
		s.eventBus.Publish(ctx, events.BookingFlagged{
			BaseEvent:   events.NewBaseEvent(),
			BookingID:   result.Assignment.BookingID,
			BookingCode: result.BookingCode,
			RiskLevel:   result.Assignment.RiskLevelAtPurchase,
			Reason:      "refund approved: " + string(reason),
		})
	}
}

func (s *Service) publishRefund(ctx context.Context, req repository.RefundRequest, bookingID uuid.UUID, bookingCode, installerEmail string, approved bool, amount int64) {
	note := ""
	if req.DecisionNote != nil {
		note = *req.DecisionNote
	}
	s.eventBus.Publish(ctx, events.LeadRefunded{
		BaseEvent:       events.NewBaseEvent(),
		RefundRequestID: req.ID,
		AssignmentID:    req.AssignmentID,
		BookingID:       bookingID,
		BookingCode:     bookingCode,
		InstallerID:     req.InstallerID,
		InstallerEmail:  installerEmail,
		Approved:        approved,
		AmountCents:     amount,
		Reason:          req.Reason,
		Note:            note,
	})
}

// BookingStatusAfterRefund is where an assigned booking goes once its lead
// fee is refunded. Empty leaves the booking alone.
func BookingStatusAfterRefund(reason policy.RefundReason) string {
	switch reason {
	case policy.RefundFraudulent, policy.RefundDuplicate:
		return bookingFlagged
	case policy.RefundUnreachable:
		return bookingCancelled
	}
	return ""
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
