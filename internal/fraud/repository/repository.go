// Package repository reads the booking history used as fraud signals.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository counts earlier bookings that share contact details with a new one.
// exclude, when set, is left out of every count.
type Repository interface {
	CountByEmailSince(ctx context.Context, email string, since time.Time, exclude *uuid.UUID) (int, error)
	CountByPhoneSince(ctx context.Context, phone string, since time.Time, exclude *uuid.UUID) (int, error)
	CountByContactSince(ctx context.Context, email, phone, clientIP string, since time.Time, exclude *uuid.UUID) (int, error)
	CountByContactStatus(ctx context.Context, email, phone, status string, exclude *uuid.UUID) (int, error)
}

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new fraud signal repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

func (r *Repo) count(ctx context.Context, op, query string, args ...any) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// CountByEmailSince counts bookings with the same email created at or after since.
func (r *Repo) CountByEmailSince(ctx context.Context, email string, since time.Time, exclude *uuid.UUID) (int, error) {
	return r.count(ctx, "count bookings by email", `
		SELECT count(*) FROM bookings
		WHERE lower(contact_email) = lower($1)
		  AND created_at >= $2
		  AND ($3::uuid IS NULL OR id <> $3)`,
		email, since, exclude)
}

// CountByPhoneSince counts bookings with the same normalised phone since.
func (r *Repo) CountByPhoneSince(ctx context.Context, phone string, since time.Time, exclude *uuid.UUID) (int, error) {
	if phone == "" {
		return 0, nil
	}
	return r.count(ctx, "count bookings by phone", `
		SELECT count(*) FROM bookings
		WHERE contact_phone = $1
		  AND created_at >= $2
		  AND ($3::uuid IS NULL OR id <> $3)`,
		phone, since, exclude)
}

// CountByContactSince counts bookings matching any of email, phone or client IP since.
func (r *Repo) CountByContactSince(ctx context.Context, email, phone, clientIP string, since time.Time, exclude *uuid.UUID) (int, error) {
	return r.count(ctx, "count recent bookings by contact", `
		SELECT count(*) FROM bookings
		WHERE created_at >= $4
		  AND ($5::uuid IS NULL OR id <> $5)
		  AND (lower(contact_email) = lower($1)
		       OR ($2 <> '' AND contact_phone = $2)
		       OR ($3 <> '' AND client_ip = $3))`,
		email, phone, clientIP, since, exclude)
}

// CountByContactStatus counts bookings in status that share email or phone.
func (r *Repo) CountByContactStatus(ctx context.Context, email, phone, status string, exclude *uuid.UUID) (int, error) {
	return r.count(ctx, "count bookings by contact and status", `
		SELECT count(*) FROM bookings
		WHERE status = $3
		  AND ($4::uuid IS NULL OR id <> $4)
		  AND (lower(contact_email) = lower($1) OR ($2 <> '' AND contact_phone = $2))`,
		email, phone, status, exclude)
}
