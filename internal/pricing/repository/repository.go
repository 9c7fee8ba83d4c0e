package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tradesbook/platform/apperr"
)

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new pricing repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

// ListOverrides returns every override ordered by kind then key.
func (r *Repo) ListOverrides(ctx context.Context) ([]Override, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT kind, key, amount_cents, updated_by, updated_at
		FROM pricing_overrides
		ORDER BY kind, key`)
	if err != nil {
		return nil, fmt.Errorf("list pricing overrides: %w", err)
	}
	defer rows.Close()

	overrides, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Override, error) {
		var o Override
		err := row.Scan(&o.Kind, &o.Key, &o.AmountCents, &o.UpdatedBy, &o.UpdatedAt)
		return o, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan pricing overrides: %w", err)
	}
	return overrides, nil
}

// UpsertOverride inserts or replaces the override for (kind, key).
func (r *Repo) UpsertOverride(ctx context.Context, o Override) (Override, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO pricing_overrides (kind, key, amount_cents, updated_by, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (kind, key) DO UPDATE
		SET amount_cents = EXCLUDED.amount_cents,
		    updated_by = EXCLUDED.updated_by,
		    updated_at = now()
		RETURNING kind, key, amount_cents, updated_by, updated_at`,
		o.Kind, o.Key, o.AmountCents, o.UpdatedBy,
	).Scan(&o.Kind, &o.Key, &o.AmountCents, &o.UpdatedBy, &o.UpdatedAt)
	if err != nil {
		return Override{}, fmt.Errorf("upsert pricing override: %w", err)
	}
	return o, nil
}

// DeleteOverride removes an override; missing rows are NotFound.
func (r *Repo) DeleteOverride(ctx context.Context, kind, key string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM pricing_overrides WHERE kind = $1 AND key = $2`, kind, key)
	if err != nil {
		return fmt.Errorf("delete pricing override: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("pricing override not found")
	}
	return nil
}
