// Package repository persists bookings and customers.
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tradesbook/platform/apperr"
	"tradesbook/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingNotFoundMsg = "booking not found"

const bookingColumns = `
	id, booking_code, qr_token, customer_id, contact_name, contact_email, contact_phone,
	address, county, eircode, service_tier, tv_count, tv_size_inches, wall_type, add_ons,
	preferred_date, preferred_time_slot, notes, subtotal_cents, discount_cents, total_cents,
	lead_fee_cents, pricing_version, referral_code_id, quality_score, risk_level,
	fraud_factors, fraud_version, status, client_ip, created_at, updated_at`

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new bookings repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

func scanBooking(row pgx.Row) (Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID, &b.BookingCode, &b.QRToken, &b.CustomerID, &b.ContactName, &b.ContactEmail, &b.ContactPhone,
		&b.Address, &b.County, &b.Eircode, &b.ServiceTier, &b.TVCount, &b.TVSizeInches, &b.WallType, &b.AddOns,
		&b.PreferredDate, &b.PreferredTimeSlot, &b.Notes, &b.SubtotalCents, &b.DiscountCents, &b.TotalCents,
		&b.LeadFeeCents, &b.PricingVersion, &b.ReferralCodeID, &b.QualityScore, &b.RiskLevel,
		&b.FraudFactors, &b.FraudVersion, &b.Status, &b.ClientIP, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

func (r *Repo) getOne(ctx context.Context, op, where string, arg any) (Booking, error) {
	b, err := scanBooking(r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE `+where, arg))
	if db.IsNoRows(err) {
		return Booking{}, apperr.NotFound(bookingNotFoundMsg)
	}
	if err != nil {
		return Booking{}, fmt.Errorf("%s: %w", op, err)
	}
	return b, nil
}

// UpsertCustomer inserts a customer or refreshes the contact details of an
// existing one matched case-insensitively by email.
func (r *Repo) UpsertCustomer(ctx context.Context, in CustomerUpsert) (Customer, error) {
	var c Customer
	err := r.pool.QueryRow(ctx, `
		INSERT INTO customers (email, first_name, last_name, phone, invoice_originated)
		VALUES (lower($1), $2, $3, $4, $5)
		ON CONFLICT ((lower(email))) DO UPDATE
		SET first_name = CASE WHEN EXCLUDED.first_name <> '' THEN EXCLUDED.first_name ELSE customers.first_name END,
		    last_name = CASE WHEN EXCLUDED.last_name <> '' THEN EXCLUDED.last_name ELSE customers.last_name END,
		    phone = CASE WHEN EXCLUDED.phone <> '' THEN EXCLUDED.phone ELSE customers.phone END,
		    invoice_originated = customers.invoice_originated OR EXCLUDED.invoice_originated,
		    updated_at = now()
		RETURNING id, email, first_name, last_name, phone, email_verified, invoice_originated, created_at, updated_at`,
		in.Email, in.FirstName, in.LastName, in.Phone, in.InvoiceOriginated,
	).Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.Phone, &c.EmailVerified, &c.InvoiceOriginated, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Customer{}, fmt.Errorf("upsert customer: %w", err)
	}
	return c, nil
}

// GetCustomerByEmail looks a customer up case-insensitively.
func (r *Repo) GetCustomerByEmail(ctx context.Context, email string) (Customer, error) {
	var c Customer
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, first_name, last_name, phone, email_verified, invoice_originated, created_at, updated_at
		FROM customers WHERE lower(email) = lower($1)`, email,
	).Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.Phone, &c.EmailVerified, &c.InvoiceOriginated, &c.CreatedAt, &c.UpdatedAt)
	if db.IsNoRows(err) {
		return Customer{}, apperr.NotFound("customer not found")
	}
	if err != nil {
		return Customer{}, fmt.Errorf("get customer by email: %w", err)
	}
	return c, nil
}

// MarkEmailVerified sets email_verified on the customer with this email.
func (r *Repo) MarkEmailVerified(ctx context.Context, email string) (Customer, bool, error) {
	var c Customer
	err := r.pool.QueryRow(ctx, `
		UPDATE customers SET email_verified = true, updated_at = now()
		WHERE lower(email) = lower($1) AND NOT email_verified
		RETURNING id, email, first_name, last_name, phone, email_verified, invoice_originated, created_at, updated_at`, email,
	).Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.Phone, &c.EmailVerified, &c.InvoiceOriginated, &c.CreatedAt, &c.UpdatedAt)
	if db.IsNoRows(err) {
		existing, getErr := r.GetCustomerByEmail(ctx, email)
		return existing, false, getErr
	}
	if err != nil {
		return Customer{}, false, fmt.Errorf("mark email verified: %w", err)
	}
	return c, true, nil
}

// Create inserts the booking and, when present, its referral usage in one transaction.
func (r *Repo) Create(ctx context.Context, b Booking, usage *ReferralUsage) (Booking, error) {
	var created Booking
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO bookings (
				booking_code, qr_token, customer_id, contact_name, contact_email, contact_phone,
				address, county, eircode, service_tier, tv_count, tv_size_inches, wall_type, add_ons,
				preferred_date, preferred_time_slot, notes, subtotal_cents, discount_cents, total_cents,
				lead_fee_cents, pricing_version, referral_code_id, quality_score, risk_level,
				fraud_factors, fraud_version, status, client_ip
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
				$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29
			)
			RETURNING `+bookingColumns,
			b.BookingCode, b.QRToken, b.CustomerID, b.ContactName, b.ContactEmail, b.ContactPhone,
			b.Address, b.County, b.Eircode, b.ServiceTier, b.TVCount, b.TVSizeInches, b.WallType, b.AddOns,
			b.PreferredDate, b.PreferredTimeSlot, b.Notes, b.SubtotalCents, b.DiscountCents, b.TotalCents,
			b.LeadFeeCents, b.PricingVersion, b.ReferralCodeID, b.QualityScore, b.RiskLevel,
			b.FraudFactors, b.FraudVersion, b.Status, b.ClientIP,
		)
		var err error
		created, err = scanBooking(row)
		if err != nil {
			if db.IsUniqueViolation(err, "bookings_booking_code_key") || db.IsUniqueViolation(err, "bookings_qr_token_key") {
				return ErrCodeTaken
			}
			return fmt.Errorf("insert booking: %w", err)
		}

		if usage == nil {
			return nil
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO referral_usages (referral_code_id, booking_id, discount_cents, commission_cents)
			VALUES ($1, $2, $3, $4)`,
			usage.ReferralCodeID, created.ID, usage.DiscountCents, usage.CommissionCents,
		); err != nil {
			return fmt.Errorf("insert referral usage: %w", err)
		}
		return nil
	})
	if err != nil {
		return Booking{}, err
	}
	return created, nil
}

// GetByID returns a booking by ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Booking, error) {
	return r.getOne(ctx, "get booking", "id = $1", id)
}

// GetByCode returns a booking by its public code.
func (r *Repo) GetByCode(ctx context.Context, code string) (Booking, error) {
	return r.getOne(ctx, "get booking by code", "booking_code = $1", code)
}

// GetByQRToken returns a booking by its tracking token.
func (r *Repo) GetByQRToken(ctx context.Context, token string) (Booking, error) {
	return r.getOne(ctx, "get booking by qr token", "qr_token = $1", token)
}

// List returns a filtered, paginated page of bookings, newest first.
func (r *Repo) List(ctx context.Context, params ListParams) (ListResult, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if params.Status != "" {
		add("status = $%d", params.Status)
	}
	if params.Risk != "" {
		add("risk_level = $%d", params.Risk)
	}
	if params.County != "" {
		add("lower(county) = lower($%d)", params.County)
	}
	if s := strings.TrimSpace(params.Search); s != "" {
		args = append(args, "%"+s+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(booking_code ILIKE $%d OR contact_email ILIKE $%d OR contact_name ILIKE $%d)", n, n, n))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM bookings`+where, args...).Scan(&total); err != nil {
		return ListResult{}, fmt.Errorf("count bookings: %w", err)
	}

	page, pageSize := params.Page, params.PageSize
	offset := (page - 1) * pageSize
	args = append(args, pageSize, offset)
	rows, err := r.pool.Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings`+where+
			fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args)),
		args...)
	if err != nil {
		return ListResult{}, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Booking, error) {
		return scanBooking(row)
	})
	if err != nil {
		return ListResult{}, fmt.Errorf("scan bookings: %w", err)
	}

	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return ListResult{Items: items, Total: total, Page: page, PageSize: pageSize, TotalPages: totalPages}, nil
}

// ListByEmail returns the contact's bookings in any of statuses, newest first.
func (r *Repo) ListByEmail(ctx context.Context, email string, statuses []string) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE lower(contact_email) = lower($1) AND status = ANY($2)
		ORDER BY created_at DESC`, email, statuses)
	if err != nil {
		return nil, fmt.Errorf("list bookings by email: %w", err)
	}
	defer rows.Close()

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Booking, error) {
		return scanBooking(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan bookings by email: %w", err)
	}
	return items, nil
}

// UpdateStatus sets status to to when the row is still in from. A booking that
// moved in the meantime is a Conflict.
func (r *Repo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (Booking, error) {
	b, err := scanBooking(r.pool.QueryRow(ctx, `
		UPDATE bookings SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING `+bookingColumns, id, from, to))
	if db.IsNoRows(err) {
		return Booking{}, r.missingOrMoved(ctx, id)
	}
	if err != nil {
		return Booking{}, fmt.Errorf("update booking status: %w", err)
	}
	return b, nil
}

// UpdateAssessment stores a fresh fraud result with the same guard as UpdateStatus.
func (r *Repo) UpdateAssessment(ctx context.Context, id uuid.UUID, from, to string, a Assessment) (Booking, error) {
	b, err := scanBooking(r.pool.QueryRow(ctx, `
		UPDATE bookings SET
			quality_score = $4, risk_level = $5, fraud_factors = $6, fraud_version = $7,
			lead_fee_cents = $8, status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING `+bookingColumns,
		id, from, to, a.QualityScore, a.RiskLevel, a.FraudFactors, a.FraudVersion, a.LeadFeeCents))
	if db.IsNoRows(err) {
		return Booking{}, r.missingOrMoved(ctx, id)
	}
	if err != nil {
		return Booking{}, fmt.Errorf("update booking assessment: %w", err)
	}
	return b, nil
}

func (r *Repo) missingOrMoved(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check booking: %w", err)
	}
	if !exists {
		return apperr.NotFound(bookingNotFoundMsg)
	}
	return apperr.Conflict("booking status changed, reload and try again")
}

// HasActiveAssignment reports whether a job assignment for the booking is still active.
func (r *Repo) HasActiveAssignment(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM job_assignments WHERE booking_id = $1 AND status = 'active')`, bookingID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check active assignment: %w", err)
	}
	return exists, nil
}

// ExpireStale expires unsold bookings and voids their pending referral usages.
func (r *Repo) ExpireStale(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			UPDATE bookings SET status = 'expired', updated_at = now()
			WHERE status IN ('open', 'pending_review') AND preferred_date < $1::date
			RETURNING id`, cutoff)
		if err != nil {
			return fmt.Errorf("expire bookings: %w", err)
		}
		ids, err = pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
		if err != nil {
			return fmt.Errorf("scan expired bookings: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}
		if _, err := tx.Exec(ctx, `
			UPDATE referral_usages SET status = 'void', settled_at = now()
			WHERE booking_id = ANY($1) AND status = 'pending'`, ids); err != nil {
			return fmt.Errorf("void expired referral usages: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
