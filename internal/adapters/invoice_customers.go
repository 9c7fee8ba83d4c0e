package adapters

import (
	"context"
	"fmt"

	bookingrepo "tradesbook/internal/bookings/repository"
	referralsvc "tradesbook/internal/referrals/service"

	"github.com/google/uuid"
)

// CustomerStore is the customer half of the bookings repository.
type CustomerStore interface {
	UpsertCustomer(ctx context.Context, in bookingrepo.CustomerUpsert) (bookingrepo.Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (bookingrepo.Customer, error)
}

// InvoiceCustomers implements referrals/service.Customers on the shared
// customers table owned by bookings.
type InvoiceCustomers struct {
	store CustomerStore
}

// NewInvoiceCustomers creates a new invoice customer adapter.
func NewInvoiceCustomers(store CustomerStore) *InvoiceCustomers {
	return &InvoiceCustomers{store: store}
}

// UpsertInvoiceCustomer records the customer and marks them invoice-originated.
func (a *InvoiceCustomers) UpsertInvoiceCustomer(ctx context.Context, in referralsvc.CustomerInput) (uuid.UUID, error) {
	c, err := a.store.UpsertCustomer(ctx, bookingrepo.CustomerUpsert{
		Email:             in.Email,
		FirstName:         in.FirstName,
		LastName:          in.LastName,
		Phone:             in.Phone,
		InvoiceOriginated: true,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("upsert invoice customer: %w", err)
	}
	return c.ID, nil
}

// CustomerIDByEmail passes the store's NotFound through untouched.
func (a *InvoiceCustomers) CustomerIDByEmail(ctx context.Context, email string) (uuid.UUID, error) {
	c, err := a.store.GetCustomerByEmail(ctx, email)
	if err != nil {
		return uuid.Nil, err
	}
	return c.ID, nil
}

var _ referralsvc.Customers = (*InvoiceCustomers)(nil)
