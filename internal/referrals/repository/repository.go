// Package repository persists referral codes, retailer invoices and referral usage.
package repository

import (
	"context"
	"fmt"

	"tradesbook/platform/apperr"
	"tradesbook/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	codeNotFoundMsg = "referral code not found"
	codeColumns     = `id, code, retailer, store_code, staff_name, discount_bps, commission_cents, is_active, created_at, updated_at`
	invoiceColumns  = `id, invoice_number, raw_input, retailer, store_code, customer_id, purchase_date, image_key, status, created_at`
)

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new referrals repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

func scanCode(row pgx.Row) (Code, error) {
	var c Code
	err := row.Scan(&c.ID, &c.Code, &c.Retailer, &c.StoreCode, &c.StaffName,
		&c.DiscountBps, &c.CommissionCents, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanInvoice(row pgx.Row) (Invoice, error) {
	var i Invoice
	err := row.Scan(&i.ID, &i.InvoiceNumber, &i.RawInput, &i.Retailer, &i.StoreCode,
		&i.CustomerID, &i.PurchaseDate, &i.ImageKey, &i.Status, &i.CreatedAt)
	return i, err
}

// CreateCode stores a new referral code.
func (r *Repo) CreateCode(ctx context.Context, c Code) (Code, error) {
	out, err := scanCode(r.pool.QueryRow(ctx, `
		INSERT INTO referral_codes (code, retailer, store_code, staff_name, discount_bps, commission_cents)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+codeColumns,
		c.Code, c.Retailer, c.StoreCode, c.StaffName, c.DiscountBps, c.CommissionCents))
	if db.IsUniqueViolation(err, "referral_codes_code_key") {
		return Code{}, apperr.Conflict("referral code already exists")
	}
	if db.IsCheckViolation(err, "") {
		return Code{}, apperr.Validation("discount or commission out of range")
	}
	if err != nil {
		return Code{}, fmt.Errorf("insert referral code: %w", err)
	}
	return out, nil
}

// GetCodeByCode returns a code by its normalised text.
func (r *Repo) GetCodeByCode(ctx context.Context, code string) (Code, error) {
	c, err := scanCode(r.pool.QueryRow(ctx, `SELECT `+codeColumns+` FROM referral_codes WHERE code = $1`, code))
	if db.IsNoRows(err) {
		return Code{}, apperr.NotFound(codeNotFoundMsg)
	}
	if err != nil {
		return Code{}, fmt.Errorf("get referral code: %w", err)
	}
	return c, nil
}

// ListCodes returns codes, optionally for one retailer.
func (r *Repo) ListCodes(ctx context.Context, retailer string) ([]Code, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+codeColumns+` FROM referral_codes
		WHERE ($1 = '' OR retailer = $1)
		ORDER BY retailer, store_code, staff_name`, retailer)
	if err != nil {
		return nil, fmt.Errorf("list referral codes: %w", err)
	}
	defer rows.Close()

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Code, error) {
		return scanCode(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan referral codes: %w", err)
	}
	return items, nil
}

// SetCodeActive enables or disables a code.
func (r *Repo) SetCodeActive(ctx context.Context, id uuid.UUID, active bool) (Code, error) {
	c, err := scanCode(r.pool.QueryRow(ctx, `
		UPDATE referral_codes SET is_active = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+codeColumns, id, active))
	if db.IsNoRows(err) {
		return Code{}, apperr.NotFound(codeNotFoundMsg)
	}
	if err != nil {
		return Code{}, fmt.Errorf("update referral code: %w", err)
	}
	return c, nil
}

// CreateInvoice stores a verified invoice. A reused number returns ErrInvoiceTaken.
func (r *Repo) CreateInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	out, err := scanInvoice(r.pool.QueryRow(ctx, `
		INSERT INTO retailer_invoices (invoice_number, raw_input, retailer, store_code, customer_id, purchase_date, image_key, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+invoiceColumns,
		inv.InvoiceNumber, inv.RawInput, inv.Retailer, inv.StoreCode, inv.CustomerID, inv.PurchaseDate, inv.ImageKey, inv.Status))
	if db.IsUniqueViolation(err, "retailer_invoices_invoice_number_key") {
		return Invoice{}, ErrInvoiceTaken
	}
	if err != nil {
		return Invoice{}, fmt.Errorf("insert retailer invoice: %w", err)
	}
	return out, nil
}

// GetInvoiceByNumber returns an invoice by canonical number.
func (r *Repo) GetInvoiceByNumber(ctx context.Context, number string) (Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM retailer_invoices WHERE invoice_number = $1`, number))
	if db.IsNoRows(err) {
		return Invoice{}, apperr.NotFound("invoice not found")
	}
	if err != nil {
		return Invoice{}, fmt.Errorf("get retailer invoice: %w", err)
	}
	return inv, nil
}

// SettleUsage moves the booking's pending usage to status.
func (r *Repo) SettleUsage(ctx context.Context, bookingID uuid.UUID, status string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE referral_usages SET status = $2, settled_at = now()
		WHERE booking_id = $1 AND status = 'pending'`, bookingID, status)
	if err != nil {
		return false, fmt.Errorf("settle referral usage: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// StoreStats aggregates usage and invoices per retailer store.
func (r *Repo) StoreStats(ctx context.Context, retailer string) ([]StoreStats, error) {
	rows, err := r.pool.Query(ctx, `
		WITH usage AS (
			SELECT rc.retailer, rc.store_code,
			       count(*) AS bookings,
			       count(*) FILTER (WHERE u.status = 'earned') AS completed,
			       COALESCE(sum(u.commission_cents) FILTER (WHERE u.status = 'earned'), 0)::bigint AS earned,
			       COALESCE(sum(u.commission_cents) FILTER (WHERE u.status = 'pending'), 0)::bigint AS pending
			FROM referral_usages u
			JOIN referral_codes rc ON rc.id = u.referral_code_id
			WHERE ($1 = '' OR rc.retailer = $1)
			GROUP BY rc.retailer, rc.store_code
		), invoices AS (
			SELECT retailer, COALESCE(store_code, '') AS store_code, count(*) AS verified
			FROM retailer_invoices
			WHERE status = 'verified' AND ($1 = '' OR retailer = $1)
			GROUP BY retailer, COALESCE(store_code, '')
		)
		SELECT COALESCE(u.retailer, i.retailer), COALESCE(u.store_code, i.store_code),
		       COALESCE(u.bookings, 0), COALESCE(u.completed, 0),
		       COALESCE(u.earned, 0), COALESCE(u.pending, 0), COALESCE(i.verified, 0)
		FROM usage u
		FULL OUTER JOIN invoices i ON i.retailer = u.retailer AND i.store_code = u.store_code
		ORDER BY 1, 2`, retailer)
	if err != nil {
		return nil, fmt.Errorf("store stats: %w", err)
	}
	defer rows.Close()

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (StoreStats, error) {
		var s StoreStats
		err := row.Scan(&s.Retailer, &s.StoreCode, &s.Bookings, &s.Completed,
			&s.EarnedCommissionCents, &s.PendingCommissionCents, &s.VerifiedInvoices)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan store stats: %w", err)
	}
	return items, nil
}
