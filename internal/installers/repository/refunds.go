package repository

import (
	"context"
	"fmt"

	"tradesbook/platform/apperr"
	"tradesbook/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const refundNotFoundMsg = "refund request not found"

const refundColumns = `r.id, r.assignment_id, r.installer_id, r.reason, r.details, r.status,
	r.decision_note, r.decided_by, r.decided_at, r.created_at`

const refundViewColumns = refundColumns + `,
	a.booking_id, b.booking_code, i.business_name, i.email, a.charged_cents`

const refundViewFrom = `
	FROM refund_requests r
	JOIN job_assignments a ON a.id = r.assignment_id
	JOIN bookings b ON b.id = a.booking_id
	JOIN installers i ON i.id = r.installer_id`

func scanRefund(row pgx.Row) (RefundRequest, error) {
	var rr RefundRequest
	err := row.Scan(&rr.ID, &rr.AssignmentID, &rr.InstallerID, &rr.Reason, &rr.Details, &rr.Status,
		&rr.DecisionNote, &rr.DecidedBy, &rr.DecidedAt, &rr.CreatedAt)
	return rr, err
}

func scanRefundView(row pgx.Row) (RefundView, error) {
	var v RefundView
	err := row.Scan(&v.ID, &v.AssignmentID, &v.InstallerID, &v.Reason, &v.Details, &v.Status,
		&v.DecisionNote, &v.DecidedBy, &v.DecidedAt, &v.CreatedAt,
		&v.BookingID, &v.BookingCode, &v.BusinessName, &v.InstallerEmail, &v.ChargedCents)
	return v, err
}

// CreateRefundRequest stores a request. An assignment may have only one
// pending or approved request.
func (r *Repo) CreateRefundRequest(ctx context.Context, req RefundRequest) (RefundRequest, error) {
	return insertRefundRequest(ctx, r.pool, req)
}

// FileApprovedRefund stores a pending request and approves it in the same
// transaction, so a failed approval leaves no request behind.
func (r *Repo) FileApprovedRefund(ctx context.Context, req RefundRequest, d RefundDecision) (RefundResult, error) {
	var result RefundResult
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		req.Status = RefundPending
		created, err := insertRefundRequest(ctx, tx, req)
		if err != nil {
			return err
		}
		d.RequestID = created.ID
		result, err = approveRefund(ctx, tx, d)
		return err
	})
	if err != nil {
		return RefundResult{}, err
	}
	return result, nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertRefundRequest(ctx context.Context, q rowQuerier, req RefundRequest) (RefundRequest, error) {
	out, err := scanRefund(q.QueryRow(ctx, `
		INSERT INTO refund_requests AS r (assignment_id, installer_id, reason, details, status, decision_note, decided_at)
		VALUES ($1, $2, $3, $4, $5, $6, CASE WHEN $5 = 'pending' THEN NULL ELSE now() END)
		RETURNING `+refundColumns,
		req.AssignmentID, req.InstallerID, req.Reason, req.Details, req.Status, req.DecisionNote))
	if db.IsUniqueViolation(err, "refund_requests_open_assignment_key") {
		return RefundRequest{}, apperr.Conflict("a refund request for this job is already open")
	}
	if err != nil {
		return RefundRequest{}, fmt.Errorf("insert refund request: %w", err)
	}
	return out, nil
}

// GetRefundRequest returns a request with its booking and installer.
func (r *Repo) GetRefundRequest(ctx context.Context, id uuid.UUID) (RefundView, error) {
	v, err := scanRefundView(r.pool.QueryRow(ctx, `SELECT `+refundViewColumns+refundViewFrom+` WHERE r.id = $1`, id))
	if db.IsNoRows(err) {
		return RefundView{}, apperr.NotFound(refundNotFoundMsg)
	}
	if err != nil {
		return RefundView{}, fmt.Errorf("get refund request: %w", err)
	}
	return v, nil
}

// ListRefundRequests returns matching requests, oldest first.
func (r *Repo) ListRefundRequests(ctx context.Context, f RefundFilter) ([]RefundView, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+refundViewColumns+refundViewFrom+`
		WHERE ($1 = '' OR r.status = $1)
		  AND ($2::uuid IS NULL OR r.installer_id = $2)
		ORDER BY r.created_at`, f.Status, f.InstallerID)
	if err != nil {
		return nil, fmt.Errorf("list refund requests: %w", err)
	}
	defer rows.Close()

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (RefundView, error) {
		return scanRefundView(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan refund requests: %w", err)
	}
	return items, nil
}

// ApproveRefund credits the charge back, marks the assignment refunded, moves
// an assigned booking to d.BookingStatus and voids its pending referral usage.
func (r *Repo) ApproveRefund(ctx context.Context, d RefundDecision) (RefundResult, error) {
	var result RefundResult
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		result, err = approveRefund(ctx, tx, d)
		return err
	})
	if err != nil {
		return RefundResult{}, err
	}
	return result, nil
}

func approveRefund(ctx context.Context, tx pgx.Tx, d RefundDecision) (RefundResult, error) {
	req, err := scanRefund(tx.QueryRow(ctx, `
		UPDATE refund_requests AS r
		SET status = 'approved', decision_note = $2, decided_by = $3, decided_at = now()
		WHERE r.id = $1 AND r.status = 'pending'
		RETURNING `+refundColumns, d.RequestID, d.Note, d.DecidedBy))
	if db.IsNoRows(err) {
		return RefundResult{}, apperr.Conflict("refund request is not pending")
	}
	if err != nil {
		return RefundResult{}, fmt.Errorf("approve refund request: %w", err)
	}

	assignment, err := scanAssignment(tx.QueryRow(ctx, `
		UPDATE job_assignments AS a SET status = 'refunded', refunded_at = now()
		WHERE a.id = $1 AND a.status = 'active'
		RETURNING `+assignmentColumns, req.AssignmentID))
	if db.IsNoRows(err) {
		return RefundResult{}, apperr.Conflict("job is not active")
	}
	if err != nil {
		return RefundResult{}, fmt.Errorf("refund assignment: %w", err)
	}

	balance, err := creditWallet(ctx, tx, assignment.InstallerID, assignment.ChargedCents)
	if err != nil {
		return RefundResult{}, err
	}

	var bookingCode, bookingStatus string
	if err := tx.QueryRow(ctx, `
		UPDATE bookings SET
			status = CASE WHEN status = 'assigned' AND $2 <> '' THEN $2 ELSE status END,
			updated_at = now()
		WHERE id = $1
		RETURNING booking_code, status`, assignment.BookingID, d.BookingStatus,
	).Scan(&bookingCode, &bookingStatus); err != nil {
		return RefundResult{}, fmt.Errorf("update refunded booking: %w", err)
	}

	if _, err := insertTransaction(ctx, tx, Transaction{
		InstallerID:       assignment.InstallerID,
		Type:              TxRefund,
		AmountCents:       assignment.ChargedCents,
		BalanceAfterCents: balance,
		BookingID:         &assignment.BookingID,
		Reference:         &bookingCode,
		Description:       "Refund for lead " + bookingCode,
	}); err != nil {
		return RefundResult{}, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE referral_usages SET status = 'void', settled_at = now()
		WHERE booking_id = $1 AND status = 'pending'`, assignment.BookingID); err != nil {
		return RefundResult{}, fmt.Errorf("void referral usage: %w", err)
	}

	return RefundResult{
		Request:           req,
		Assignment:        assignment,
		BookingCode:       bookingCode,
		BookingStatus:     bookingStatus,
		BalanceAfterCents: balance,
	}, nil
}

// RejectRefund closes a pending request without a credit.
func (r *Repo) RejectRefund(ctx context.Context, id uuid.UUID, decidedBy *uuid.UUID, note string) (RefundRequest, error) {
	req, err := scanRefund(r.pool.QueryRow(ctx, `
		UPDATE refund_requests AS r
		SET status = 'rejected', decision_note = $2, decided_by = $3, decided_at = now()
		WHERE r.id = $1 AND r.status = 'pending'
		RETURNING `+refundColumns, id, note, decidedBy))
	if db.IsNoRows(err) {
		return RefundRequest{}, apperr.Conflict("refund request is not pending")
	}
	if err != nil {
		return RefundRequest{}, fmt.Errorf("reject refund request: %w", err)
	}
	return req, nil
}
