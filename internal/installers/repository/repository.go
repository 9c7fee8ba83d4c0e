// Package repository persists installers, wallets, purchased leads and refunds.
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

const installerNotFoundMsg = "installer not found"

const installerColumns = `id, user_id, business_name, email, phone, counties, fee_structure, is_approved, is_active, created_at, updated_at`

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new installers repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

func scanInstaller(row pgx.Row) (Installer, error) {
	var i Installer
	err := row.Scan(&i.ID, &i.UserID, &i.BusinessName, &i.Email, &i.Phone, &i.Counties,
		&i.FeeStructure, &i.IsApproved, &i.IsActive, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

// UpsertProfile creates the installer for a user, with an empty wallet, or
// updates the self-service fields of an existing one.
func (r *Repo) UpsertProfile(ctx context.Context, in Installer) (Installer, error) {
	var out Installer
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		out, err = scanInstaller(tx.QueryRow(ctx, `
			INSERT INTO installers (user_id, business_name, email, phone, counties)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id) DO UPDATE
			SET business_name = EXCLUDED.business_name,
			    email = EXCLUDED.email,
			    phone = EXCLUDED.phone,
			    counties = EXCLUDED.counties,
			    updated_at = now()
			RETURNING `+installerColumns,
			in.UserID, in.BusinessName, in.Email, in.Phone, in.Counties))
		if err != nil {
			return fmt.Errorf("upsert installer: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO installer_wallets (installer_id) VALUES ($1)
			ON CONFLICT (installer_id) DO NOTHING`, out.ID); err != nil {
			return fmt.Errorf("create installer wallet: %w", err)
		}
		return nil
	})
	if err != nil {
		return Installer{}, err
	}
	return out, nil
}

// GetByUserID returns the installer owned by a user.
func (r *Repo) GetByUserID(ctx context.Context, userID uuid.UUID) (Installer, error) {
	i, err := scanInstaller(r.pool.QueryRow(ctx, `SELECT `+installerColumns+` FROM installers WHERE user_id = $1`, userID))
	if db.IsNoRows(err) {
		return Installer{}, apperr.NotFound(installerNotFoundMsg)
	}
	if err != nil {
		return Installer{}, fmt.Errorf("get installer by user: %w", err)
	}
	return i, nil
}

// GetByID returns an installer by ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Installer, error) {
	i, err := scanInstaller(r.pool.QueryRow(ctx, `SELECT `+installerColumns+` FROM installers WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return Installer{}, apperr.NotFound(installerNotFoundMsg)
	}
	if err != nil {
		return Installer{}, fmt.Errorf("get installer: %w", err)
	}
	return i, nil
}

// List returns installers, optionally filtered by approval.
func (r *Repo) List(ctx context.Context, approved *bool) ([]Installer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+installerColumns+` FROM installers
		WHERE ($1::boolean IS NULL OR is_approved = $1)
		ORDER BY business_name`, approved)
	if err != nil {
		return nil, fmt.Errorf("list installers: %w", err)
	}
	defer rows.Close()

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Installer, error) {
		return scanInstaller(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan installers: %w", err)
	}
	return items, nil
}

// AdminUpdate applies approval, activity and fee structure changes.
func (r *Repo) AdminUpdate(ctx context.Context, id uuid.UUID, in AdminUpdate) (Installer, error) {
	i, err := scanInstaller(r.pool.QueryRow(ctx, `
		UPDATE installers SET
			is_approved = COALESCE($2, is_approved),
			is_active = COALESCE($3, is_active),
			fee_structure = COALESCE($4, fee_structure),
			updated_at = now()
		WHERE id = $1
		RETURNING `+installerColumns, id, in.IsApproved, in.IsActive, in.FeeStructure))
	if db.IsNoRows(err) {
		return Installer{}, apperr.NotFound(installerNotFoundMsg)
	}
	if err != nil {
		return Installer{}, fmt.Errorf("update installer: %w", err)
	}
	return i, nil
}
