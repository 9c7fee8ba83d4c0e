package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Override replaces one amount of the default price list.
type Override struct {
	Kind        string
	Key         string
	AmountCents int64
	UpdatedBy   *uuid.UUID
	UpdatedAt   time.Time
}

// Repository persists admin pricing overrides.
type Repository interface {
	ListOverrides(ctx context.Context) ([]Override, error)
	UpsertOverride(ctx context.Context, o Override) (Override, error)
	DeleteOverride(ctx context.Context, kind, key string) error
}
