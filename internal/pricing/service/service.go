// Package service implements lead pricing and admin price management.
package service

import (
	"context"
	"strings"
	"time"

	"tradesbook/internal/pricing/repository"
	"tradesbook/platform/apperr"
	"tradesbook/platform/logger"

	"github.com/google/uuid"
)

// Service merges the default price list with admin overrides and prices
// quotes and leads against the result.
type Service struct {
	repo     repository.Repository
	cache    TableCache
	defaults Table
	ttl      time.Duration
	log      *logger.Logger
}

// New creates a pricing service. A nil cache disables caching.
func New(repo repository.Repository, cache TableCache, defaults Table, ttl time.Duration, log *logger.Logger) *Service {
	if cache == nil {
		cache = NoopTableCache{}
	}
	return &Service{repo: repo, cache: cache, defaults: defaults, ttl: ttl, log: log}
}

// EffectiveTable returns defaults merged with overrides. Cache failures are
// logged and fall through to the database.
func (s *Service) EffectiveTable(ctx context.Context) (Table, error) {
	if table, ok, err := s.cache.Get(ctx); err != nil {
		s.log.Warn("pricing cache read failed", "error", err)
	} else if ok {
		return table, nil
	}

	overrides, err := s.repo.ListOverrides(ctx)
	if err != nil {
		return Table{}, err
	}
	table := ApplyOverrides(s.defaults, overrides)

	if err := s.cache.Set(ctx, table, s.ttl); err != nil {
		s.log.Warn("pricing cache write failed", "error", err)
	}
	return table, nil
}

// Defaults returns the configured base table.
func (s *Service) Defaults() Table {
	return s.defaults.Clone()
}

// ListOverrides returns the stored overrides.
func (s *Service) ListOverrides(ctx context.Context) ([]repository.Override, error) {
	return s.repo.ListOverrides(ctx)
}

// SetOverride validates and stores an override, then drops the cached table.
func (s *Service) SetOverride(ctx context.Context, kind, key string, amountCents int64, by uuid.UUID) (repository.Override, error) {
	kind = strings.TrimSpace(kind)
	key = strings.TrimSpace(key)
	if amountCents < 0 {
		return repository.Override{}, apperr.Validation("amount must not be negative")
	}
	if !validOverrideTarget(s.defaults, kind, key) {
		return repository.Override{}, apperr.Validation("unknown pricing override target")
	}

	saved, err := s.repo.UpsertOverride(ctx, repository.Override{
		Kind:        kind,
		Key:         key,
		AmountCents: amountCents,
		UpdatedBy:   &by,
	})
	if err != nil {
		return repository.Override{}, err
	}

	s.invalidate(ctx)
	s.log.Info("pricing override set", "kind", kind, "key", key, "amount_cents", amountCents, "by", by)
	return saved, nil
}

// DeleteOverride removes an override and drops the cached table.
func (s *Service) DeleteOverride(ctx context.Context, kind, key string) error {
	if err := s.repo.DeleteOverride(ctx, kind, key); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.log.Info("pricing override removed", "kind", kind, "key", key)
	return nil
}

// Quote prices a booking against the effective table.
func (s *Service) Quote(ctx context.Context, in QuoteInput) (Quote, error) {
	table, err := s.EffectiveTable(ctx)
	if err != nil {
		return Quote{}, err
	}
	return CalculateQuote(table, in)
}

// LeadFee prices a lead against the effective table.
func (s *Service) LeadFee(ctx context.Context, in LeadFeeInput) (LeadFee, error) {
	table, err := s.EffectiveTable(ctx)
	if err != nil {
		return LeadFee{}, err
	}
	return CalculateLeadFee(table, in)
}

// ChargeFor returns what an installer on structure pays for a lead fee.
func (s *Service) ChargeFor(ctx context.Context, feeCents int64, structure string) (int64, error) {
	table, err := s.EffectiveTable(ctx)
	if err != nil {
		return 0, err
	}
	return ApplyFeeStructure(table, feeCents, structure)
}

// FeeBand names the band for a fee under the effective table.
func (s *Service) FeeBand(ctx context.Context, cents int64) (string, error) {
	table, err := s.EffectiveTable(ctx)
	if err != nil {
		return "", err
	}
	return table.FeeBand(cents), nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("pricing cache invalidation failed", "error", err)
	}
}
