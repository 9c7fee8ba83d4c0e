package repository

import (
	"context"

	"github.com/google/uuid"
)

// ProfileStore manages installer profiles.
type ProfileStore interface {
	UpsertProfile(ctx context.Context, in Installer) (Installer, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (Installer, error)
	GetByID(ctx context.Context, id uuid.UUID) (Installer, error)
	List(ctx context.Context, approved *bool) ([]Installer, error)
	AdminUpdate(ctx context.Context, id uuid.UUID, in AdminUpdate) (Installer, error)
}

// WalletStore manages balances and the ledger.
type WalletStore interface {
	GetWallet(ctx context.Context, installerID uuid.UUID) (Wallet, error)
	ListTransactions(ctx context.Context, installerID uuid.UUID, limit int) ([]Transaction, error)
	Credit(ctx context.Context, in Credit) (Transaction, error)
}

// Marketplace lists and sells leads.
type Marketplace interface {
	ListLeads(ctx context.Context, counties []string, limit int) ([]Lead, error)
	Purchase(ctx context.Context, installerID, bookingID uuid.UUID, charge ChargeFunc) (PurchaseResult, error)
	ListJobs(ctx context.Context, installerID uuid.UUID) ([]Job, error)
	GetJob(ctx context.Context, installerID, assignmentID uuid.UUID) (Job, error)
	CompleteJob(ctx context.Context, installerID, assignmentID uuid.UUID) (Job, error)
}

// RefundStore manages refund requests.
type RefundStore interface {
	CreateRefundRequest(ctx context.Context, req RefundRequest) (RefundRequest, error)
	GetRefundRequest(ctx context.Context, id uuid.UUID) (RefundView, error)
	ListRefundRequests(ctx context.Context, f RefundFilter) ([]RefundView, error)
	ApproveRefund(ctx context.Context, d RefundDecision) (RefundResult, error)
	// FileApprovedRefund creates and approves a request atomically.
	FileApprovedRefund(ctx context.Context, req RefundRequest, d RefundDecision) (RefundResult, error)
	RejectRefund(ctx context.Context, id uuid.UUID, decidedBy *uuid.UUID, note string) (RefundRequest, error)
}

// Repository is the full installers persistence port.
type Repository interface {
	ProfileStore
	WalletStore
	Marketplace
	RefundStore
}
