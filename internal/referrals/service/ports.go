package service

import (
	"context"

	"github.com/google/uuid"
)

// CustomerInput identifies the customer who verifies an invoice.
type CustomerInput struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
}

// Customers is the slice of the customer store referrals needs.
type Customers interface {
	// UpsertInvoiceCustomer creates or updates the customer and marks them
	// as having come from a retailer invoice.
	UpsertInvoiceCustomer(ctx context.Context, in CustomerInput) (uuid.UUID, error)
	// CustomerIDByEmail returns apperr NotFound for unknown customers.
	CustomerIDByEmail(ctx context.Context, email string) (uuid.UUID, error)
}
