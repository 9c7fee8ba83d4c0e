package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"tradesbook/internal/pricing/repository"
	"tradesbook/platform/apperr"
	"tradesbook/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type fakeRepo struct {
	overrides map[string]repository.Override
	listCalls int
	listErr   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{overrides: map[string]repository.Override{}}
}

func (f *fakeRepo) ListOverrides(ctx context.Context) ([]repository.Override, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]repository.Override, 0, len(f.overrides))
	for _, o := range f.overrides {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeRepo) UpsertOverride(ctx context.Context, o repository.Override) (repository.Override, error) {
	o.UpdatedAt = time.Now()
	f.overrides[o.Kind+"/"+o.Key] = o
	return o, nil
}

func (f *fakeRepo) DeleteOverride(ctx context.Context, kind, key string) error {
	if _, ok := f.overrides[kind+"/"+key]; !ok {
		return apperr.NotFound("pricing override not found")
	}
	delete(f.overrides, kind+"/"+key)
	return nil
}

func newRedisCache(t *testing.T) (*RedisTableCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisTableCache(rdb), mr
}

func TestEffectiveTableIsCached(t *testing.T) {
	repo := newFakeRepo()
	cache, mr := newRedisCache(t)
	svc := New(repo, cache, MustDefaults(), time.Minute, logger.Discard())
	ctx := context.Background()

	for range 3 {
		if _, err := svc.EffectiveTable(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if repo.listCalls != 1 {
		t.Fatalf("expected a single database read, got %d", repo.listCalls)
	}
	if !mr.Exists(tableCacheKey) {
		t.Fatal("expected table to be stored in redis")
	}

	mr.FastForward(2 * time.Minute)
	if _, err := svc.EffectiveTable(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.listCalls != 2 {
		t.Fatalf("expected reload after ttl, got %d reads", repo.listCalls)
	}
}

func TestSetOverrideInvalidatesCache(t *testing.T) {
	repo := newFakeRepo()
	cache, _ := newRedisCache(t)
	svc := New(repo, cache, MustDefaults(), time.Hour, logger.Discard())
	ctx := context.Background()

	before, err := svc.Quote(ctx, QuoteInput{Tier: "silver", TVCount: 1, TVSizeInches: 50, WallType: "brick"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.SetOverride(ctx, KindTierPrice, "silver", 17900, uuid.New()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after, err := svc.Quote(ctx, QuoteInput{Tier: "silver", TVCount: 1, TVSizeInches: 50, WallType: "brick"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if before.TotalCents != 15900 || after.TotalCents != 17900 {
		t.Fatalf("expected 15900 then 17900, got %d then %d", before.TotalCents, after.TotalCents)
	}
	if after.Version == before.Version {
		t.Fatal("expected version to change after an override")
	}

	if err := svc.DeleteOverride(ctx, KindTierPrice, "silver"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reverted, _ := svc.Quote(ctx, QuoteInput{Tier: "silver", TVCount: 1, TVSizeInches: 50, WallType: "brick"})
	if reverted.TotalCents != 15900 {
		t.Fatalf("expected default price after delete, got %d", reverted.TotalCents)
	}
}

func TestSetOverrideValidation(t *testing.T) {
	svc := New(newFakeRepo(), nil, MustDefaults(), time.Minute, logger.Discard())
	ctx := context.Background()

	if _, err := svc.SetOverride(ctx, KindAddOn, "unknown", 100, uuid.New()); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown key, got %v", err)
	}
	if _, err := svc.SetOverride(ctx, "discount", "silver", 100, uuid.New()); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown kind, got %v", err)
	}
	if _, err := svc.SetOverride(ctx, KindTierPrice, "silver", -1, uuid.New()); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for negative amount, got %v", err)
	}
}

func TestEffectiveTableSurvivesCacheOutage(t *testing.T) {
	repo := newFakeRepo()
	cache, mr := newRedisCache(t)
	svc := New(repo, cache, MustDefaults(), time.Minute, logger.Discard())
	mr.Close()

	table, err := svc.EffectiveTable(context.Background())
	if err != nil {
		t.Fatalf("expected fallback to database, got %v", err)
	}
	if table.Version != MustDefaults().Version {
		t.Fatalf("unexpected version %q", table.Version)
	}
}

func TestEffectiveTablePropagatesDatabaseErrors(t *testing.T) {
	repo := newFakeRepo()
	repo.listErr = errors.New("connection refused")
	svc := New(repo, nil, MustDefaults(), time.Minute, logger.Discard())

	if _, err := svc.EffectiveTable(context.Background()); err == nil {
		t.Fatal("expected database error")
	}
}
