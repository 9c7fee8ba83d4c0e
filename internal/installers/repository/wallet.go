package repository

import (
	"context"
	"fmt"

	"tradesbook/platform/apperr"
	"tradesbook/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const walletNotFoundMsg = "wallet not found"

// GetWallet returns an installer's balance.
func (r *Repo) GetWallet(ctx context.Context, installerID uuid.UUID) (Wallet, error) {
	var w Wallet
	err := r.pool.QueryRow(ctx, `
		SELECT installer_id, balance_cents, updated_at FROM installer_wallets WHERE installer_id = $1`,
		installerID).Scan(&w.InstallerID, &w.BalanceCents, &w.UpdatedAt)
	if db.IsNoRows(err) {
		return Wallet{}, apperr.NotFound(walletNotFoundMsg)
	}
	if err != nil {
		return Wallet{}, fmt.Errorf("get wallet: %w", err)
	}
	return w, nil
}

// ListTransactions returns the newest ledger rows first.
func (r *Repo) ListTransactions(ctx context.Context, installerID uuid.UUID, limit int) ([]Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, installer_id, type, amount_cents, balance_after_cents, booking_id, reference, description, created_at
		FROM installer_transactions
		WHERE installer_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, installerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list wallet transactions: %w", err)
	}
	defer rows.Close()

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Transaction, error) {
		var t Transaction
		err := row.Scan(&t.ID, &t.InstallerID, &t.Type, &t.AmountCents, &t.BalanceAfterCents,
			&t.BookingID, &t.Reference, &t.Description, &t.CreatedAt)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan wallet transactions: %w", err)
	}
	return items, nil
}

// Credit adds money to a wallet and records it in the ledger.
func (r *Repo) Credit(ctx context.Context, in Credit) (Transaction, error) {
	var t Transaction
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		balance, err := creditWallet(ctx, tx, in.InstallerID, in.AmountCents)
		if err != nil {
			return err
		}
		t, err = insertTransaction(ctx, tx, Transaction{
			InstallerID:       in.InstallerID,
			Type:              in.Type,
			AmountCents:       in.AmountCents,
			BalanceAfterCents: balance,
			Reference:         in.Reference,
			Description:       in.Description,
		})
		return err
	})
	if err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func creditWallet(ctx context.Context, tx pgx.Tx, installerID uuid.UUID, amountCents int64) (int64, error) {
	var balance int64
	err := tx.QueryRow(ctx, `
		UPDATE installer_wallets SET balance_cents = balance_cents + $2, updated_at = now()
		WHERE installer_id = $1
		RETURNING balance_cents`, installerID, amountCents).Scan(&balance)
	if db.IsNoRows(err) {
		return 0, apperr.NotFound(walletNotFoundMsg)
	}
	if db.IsCheckViolation(err, "installer_wallets_balance_cents_check") {
		return 0, apperr.InsufficientFunds("insufficient wallet balance")
	}
	if err != nil {
		return 0, fmt.Errorf("update wallet balance: %w", err)
	}
	return balance, nil
}

func insertTransaction(ctx context.Context, tx pgx.Tx, t Transaction) (Transaction, error) {
	err := tx.QueryRow(ctx, `
		INSERT INTO installer_transactions
			(installer_id, type, amount_cents, balance_after_cents, booking_id, reference, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		t.InstallerID, t.Type, t.AmountCents, t.BalanceAfterCents, t.BookingID, t.Reference, t.Description,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return Transaction{}, fmt.Errorf("insert wallet transaction: %w", err)
	}
	return t, nil
}
