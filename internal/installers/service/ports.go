package service

import "context"

// Pricer converts lead fees into what a given installer pays.
type Pricer interface {
	ChargeFor(ctx context.Context, feeCents int64, structure string) (int64, error)
	FeeBand(ctx context.Context, cents int64) (string, error)
}
