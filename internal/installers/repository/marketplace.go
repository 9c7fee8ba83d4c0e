package repository

import (
	"context"
	"fmt"

	"tradesbook/platform/apperr"
	"tradesbook/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const jobNotFoundMsg = "job not found"

const assignmentColumns = `a.id, a.booking_id, a.installer_id, a.lead_fee_cents, a.charged_cents,
	a.risk_level_at_purchase, a.status, a.purchased_at, a.completed_at, a.refunded_at`

const jobColumns = assignmentColumns + `,
	b.booking_code, b.status, b.contact_name, b.contact_email, b.contact_phone, b.address, b.county,
	b.eircode, b.service_tier, b.tv_count, b.tv_size_inches, b.wall_type, b.add_ons, b.preferred_date,
	b.preferred_time_slot, b.notes, b.referral_code_id, b.quality_score, b.fraud_factors`

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.BookingID, &a.InstallerID, &a.LeadFeeCents, &a.ChargedCents,
		&a.RiskLevelAtPurchase, &a.Status, &a.PurchasedAt, &a.CompletedAt, &a.RefundedAt)
	return a, err
}

func scanJob(row pgx.Row) (Job, error) {
	var j Job
	err := row.Scan(&j.ID, &j.BookingID, &j.InstallerID, &j.LeadFeeCents, &j.ChargedCents,
		&j.RiskLevelAtPurchase, &j.Status, &j.PurchasedAt, &j.CompletedAt, &j.RefundedAt,
		&j.BookingCode, &j.BookingStatus, &j.ContactName, &j.ContactEmail, &j.ContactPhone, &j.Address, &j.County,
		&j.Eircode, &j.ServiceTier, &j.TVCount, &j.TVSizeInches, &j.WallType, &j.AddOns, &j.PreferredDate,
		&j.TimeSlot, &j.Notes, &j.ReferralCodeID, &j.QualityScore, &j.FraudFactors)
	return j, err
}

// ListLeads returns open, sellable bookings in the given counties, oldest first
// so leads nearer their date surface before they expire.
func (r *Repo) ListLeads(ctx context.Context, counties []string, limit int) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, booking_code, contact_name, contact_email, contact_phone, county, eircode,
		       service_tier, tv_count, tv_size_inches, wall_type, add_ons, preferred_date,
		       preferred_time_slot, quality_score, risk_level, lead_fee_cents, created_at
		FROM bookings
		WHERE status = 'open'
		  AND risk_level <> 'critical'
		  AND lower(county) = ANY(SELECT lower(c) FROM unnest($1::text[]) AS c)
		ORDER BY preferred_date, created_at
		LIMIT $2`, counties, limit)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Lead, error) {
		var l Lead
		err := row.Scan(&l.BookingID, &l.BookingCode, &l.ContactName, &l.ContactEmail, &l.ContactPhone,
			&l.County, &l.Eircode, &l.ServiceTier, &l.TVCount, &l.TVSizeInches, &l.WallType, &l.AddOns,
			&l.PreferredDate, &l.TimeSlot, &l.QualityScore, &l.RiskLevel, &l.LeadFeeCents, &l.CreatedAt)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan leads: %w", err)
	}
	return items, nil
}

// Purchase sells a lead in a single transaction: the booking row is locked,
// must be open and sellable, the wallet is debited and ledgered, and the
// assignment is created. Concurrent buyers serialise on the booking lock; the
// loser sees a Conflict.
func (r *Repo) Purchase(ctx context.Context, installerID, bookingID uuid.UUID, charge ChargeFunc) (PurchaseResult, error) {
	var result PurchaseResult
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var target PurchaseTarget
		err := tx.QueryRow(ctx, `
			SELECT id, booking_code, status, risk_level, lead_fee_cents, contact_name, contact_email
			FROM bookings WHERE id = $1
			FOR UPDATE`, bookingID,
		).Scan(&target.BookingID, &target.BookingCode, &target.Status, &target.RiskLevel,
			&target.LeadFeeCents, &target.ContactName, &target.ContactEmail)
		if db.IsNoRows(err) {
			return apperr.NotFound("lead not found")
		}
		if err != nil {
			return fmt.Errorf("lock booking: %w", err)
		}
		if target.Status != "open" {
			return apperr.Conflict("lead is no longer available")
		}
		if target.RiskLevel == "critical" {
			return apperr.Forbidden("lead is not available for purchase")
		}

		charged, err := charge(target)
		if err != nil {
			return err
		}

		var balance int64
		err = tx.QueryRow(ctx, `
			SELECT balance_cents FROM installer_wallets WHERE installer_id = $1 FOR UPDATE`,
			installerID).Scan(&balance)
		if db.IsNoRows(err) {
			return apperr.NotFound(walletNotFoundMsg)
		}
		if err != nil {
			return fmt.Errorf("lock wallet: %w", err)
		}
		if balance < charged {
			return apperr.InsufficientFunds("insufficient wallet balance").WithDetails(map[string]int64{
				"balanceCents":  balance,
				"requiredCents": charged,
			})
		}

		balanceAfter, err := creditWallet(ctx, tx, installerID, -charged)
		if err != nil {
			return err
		}
		bookingRef := target.BookingCode
		if _, err := insertTransaction(ctx, tx, Transaction{
			InstallerID:       installerID,
			Type:              TxLeadPurchase,
			AmountCents:       -charged,
			BalanceAfterCents: balanceAfter,
			BookingID:         &target.BookingID,
			Reference:         &bookingRef,
			Description:       "Lead " + target.BookingCode,
		}); err != nil {
			return err
		}

		assignment, err := scanAssignment(tx.QueryRow(ctx, `
			INSERT INTO job_assignments AS a (booking_id, installer_id, lead_fee_cents, charged_cents, risk_level_at_purchase)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+assignmentColumns,
			target.BookingID, installerID, target.LeadFeeCents, charged, target.RiskLevel))
		if db.IsUniqueViolation(err, "job_assignments_live_booking_key") {
			return apperr.Conflict("lead is no longer available")
		}
		if err != nil {
			return fmt.Errorf("insert job assignment: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE bookings SET status = 'assigned', updated_at = now() WHERE id = $1`, target.BookingID); err != nil {
			return fmt.Errorf("assign booking: %w", err)
		}

		target.Status = "assigned"
		result = PurchaseResult{Assignment: assignment, Target: target, BalanceAfterCents: balanceAfter}
		return nil
	})
	if err != nil {
		return PurchaseResult{}, err
	}
	return result, nil
}

// ListJobs returns the installer's purchased leads, newest first.
func (r *Repo) ListJobs(ctx context.Context, installerID uuid.UUID) ([]Job, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+jobColumns+`
		FROM job_assignments a
		JOIN bookings b ON b.id = a.booking_id
		WHERE a.installer_id = $1
		ORDER BY a.purchased_at DESC`, installerID)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Job, error) {
		return scanJob(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan jobs: %w", err)
	}
	return items, nil
}

// GetJob returns one of the installer's assignments.
func (r *Repo) GetJob(ctx context.Context, installerID, assignmentID uuid.UUID) (Job, error) {
	j, err := scanJob(r.pool.QueryRow(ctx, `
		SELECT `+jobColumns+`
		FROM job_assignments a
		JOIN bookings b ON b.id = a.booking_id
		WHERE a.id = $1 AND a.installer_id = $2`, assignmentID, installerID))
	if db.IsNoRows(err) {
		return Job{}, apperr.NotFound(jobNotFoundMsg)
	}
	if err != nil {
		return Job{}, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

// CompleteJob marks an active assignment and its booking completed.
func (r *Repo) CompleteJob(ctx context.Context, installerID, assignmentID uuid.UUID) (Job, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var bookingID uuid.UUID
		err := tx.QueryRow(ctx, `
			UPDATE job_assignments SET status = 'completed', completed_at = now()
			WHERE id = $1 AND installer_id = $2 AND status = 'active'
			RETURNING booking_id`, assignmentID, installerID).Scan(&bookingID)
		if db.IsNoRows(err) {
			return apperr.Conflict("job is not active")
		}
		if err != nil {
			return fmt.Errorf("complete assignment: %w", err)
		}

		tag, err := tx.Exec(ctx, `
			UPDATE bookings SET status = 'completed', updated_at = now()
			WHERE id = $1 AND status = 'assigned'`, bookingID)
		if err != nil {
			return fmt.Errorf("complete booking: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperr.Conflict("booking is no longer assigned")
		}
		return nil
	})
	if err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			if _, getErr := r.GetJob(ctx, installerID, assignmentID); apperr.Is(getErr, apperr.KindNotFound) {
				return Job{}, getErr
			}
		}
		return Job{}, err
	}
	return r.GetJob(ctx, installerID, assignmentID)
}
