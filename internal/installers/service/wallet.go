package service

import (
	"context"
	"strings"

	"tradesbook/internal/installers/repository"
	"tradesbook/platform/apperr"
	"tradesbook/platform/money"
	"tradesbook/platform/sanitize"

	"github.com/google/uuid"
)

// WalletView is a balance with its most recent ledger rows.
type WalletView struct {
	Wallet       repository.Wallet
	Transactions []repository.Transaction
}

// GetWallet returns the caller's wallet.
func (s *Service) GetWallet(ctx context.Context, userID uuid.UUID) (WalletView, error) {
	installer, err := s.active(ctx, userID)
	if err != nil {
		return WalletView{}, err
	}
	return s.walletView(ctx, installer.ID)
}

// ListTransactions returns an installer's ledger for admins.
func (s *Service) ListTransactions(ctx context.Context, installerID uuid.UUID) (WalletView, error) {
	if _, err := s.repo.GetByID(ctx, installerID); err != nil {
		return WalletView{}, err
	}
	return s.walletView(ctx, installerID)
}

func (s *Service) walletView(ctx context.Context, installerID uuid.UUID) (WalletView, error) {
	wallet, err := s.repo.GetWallet(ctx, installerID)
	if err != nil {
		return WalletView{}, err
	}
	txs, err := s.repo.ListTransactions(ctx, installerID, transactionPageSize)
	if err != nil {
		return WalletView{}, err
	}
	return WalletView{Wallet: wallet, Transactions: txs}, nil
}

// CreditInput is an admin wallet movement. Amount is a euro string such as
// "50" or "49.99"; when empty AmountCents is used.
type CreditInput struct {
	Type        string
	Amount      string
	AmountCents int64
	Reference   string
	Description string
}

// AdminCredit tops up or adjusts an installer's wallet. Top-ups must be
// positive; adjustments may be negative but never take the balance below zero.
func (s *Service) AdminCredit(ctx context.Context, installerID uuid.UUID, in CreditInput) (repository.Transaction, error) {
	amount := in.AmountCents
	if strings.TrimSpace(in.Amount) != "" {
		parsed, err := money.ParseEuros(in.Amount)
		if err != nil {
			return repository.Transaction{}, apperr.Validation("amount must be a euro value like 49.99")
		}
		amount = parsed
	}

	kind := in.Type
	if kind == "" {
		kind = repository.TxTopUp
	}
	switch kind {
	case repository.TxTopUp:
		if amount <= 0 {
			return repository.Transaction{}, apperr.Validation("top-up amount must be positive")
		}
	case repository.TxAdjustment:
		if amount == 0 {
			return repository.Transaction{}, apperr.Validation("adjustment amount must not be zero")
		}
	default:
		return repository.Transaction{}, apperr.Validation("type must be top_up or adjustment")
	}

	description := sanitize.Text(in.Description)
	if description == "" {
		description = "Wallet top-up"
		if kind == repository.TxAdjustment {
			description = "Balance adjustment"
		}
	}
	var reference *string
	if ref := sanitize.Text(in.Reference); ref != "" {
		reference = &ref
	}

	tx, err := s.repo.Credit(ctx, repository.Credit{
		InstallerID: installerID,
		Type:        kind,
		AmountCents: amount,
		Reference:   reference,
		Description: description,
	})
	if err != nil {
		return repository.Transaction{}, err
	}
	s.log.WalletMovement(installerID.String(), kind, amount, tx.BalanceAfterCents)
	return tx, nil
}
