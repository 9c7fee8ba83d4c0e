package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrInvoiceTaken is returned when the canonical invoice number is already stored.
var ErrInvoiceTaken = errors.New("invoice number already recorded")

// Repository is the referrals persistence port.
type Repository interface {
	CreateCode(ctx context.Context, c Code) (Code, error)
	GetCodeByCode(ctx context.Context, code string) (Code, error)
	ListCodes(ctx context.Context, retailer string) ([]Code, error)
	SetCodeActive(ctx context.Context, id uuid.UUID, active bool) (Code, error)

	CreateInvoice(ctx context.Context, inv Invoice) (Invoice, error)
	GetInvoiceByNumber(ctx context.Context, number string) (Invoice, error)

	// SettleUsage moves a pending usage to status and reports whether one moved.
	SettleUsage(ctx context.Context, bookingID uuid.UUID, status string) (bool, error)
	StoreStats(ctx context.Context, retailer string) ([]StoreStats, error)
}
