package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradesbook/internal/adapters"
	"tradesbook/internal/bookings"
	bookingrepo "tradesbook/internal/bookings/repository"
	bookingsvc "tradesbook/internal/bookings/service"
	"tradesbook/internal/email"
	"tradesbook/internal/events"
	fraudrepo "tradesbook/internal/fraud/repository"
	fraudsvc "tradesbook/internal/fraud/service"
	"tradesbook/internal/notification"
	pricingrepo "tradesbook/internal/pricing/repository"
	pricingsvc "tradesbook/internal/pricing/service"
	"tradesbook/internal/referrals"
	"tradesbook/internal/scheduler"
	"tradesbook/platform/config"
	"tradesbook/platform/db"
	"tradesbook/platform/logger"
	"tradesbook/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	// Reminders published by the worker are delivered from this process.
	notificationModule := notification.New(email.NewSender(cfg), cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	priceList, err := pricingsvc.LoadDefaults(cfg.GetPricingFile())
	if err != nil {
		log.Error("failed to load price list", "error", err)
		panic("failed to load price list: " + err.Error())
	}
	prices := pricingsvc.New(pricingrepo.New(pool), pricingsvc.NoopTableCache{}, priceList, cfg.GetPricingCacheTTL(), log)

	assessor := fraudsvc.New(fraudrepo.New(pool), fraudsvc.Windows{
		Duplicate: cfg.GetFraudDuplicateWindow(),
		Rapid:     cfg.GetFraudRapidWindow(),
	}, log)

	val := validator.New()

	// Referral usage must settle for bookings the worker flags or completes.
	referralsModule := referrals.NewModule(pool, adapters.NewInvoiceCustomers(bookingrepo.New(pool)), nil, eventBus, val, log)
	referralsModule.RegisterHandlers(eventBus)

	// Jobs stays nil: reassessment triggered inside the worker runs inline.
	bookingsModule := bookings.NewModule(pool, bookings.Deps{
		Pricer:    prices,
		Assessor:  assessor,
		Referrals: adapters.NewReferralResolver(referralsModule.Service()),
		EventBus:  eventBus,
	}, bookingsvc.Options{
		AppBaseURL:      cfg.GetAppBaseURL(),
		LeadExpiryGrace: cfg.GetLeadExpiryGrace(),
		VerifySecret:    cfg.GetEmailVerifySecret(),
		VerifyTTL:       cfg.GetEmailVerifyTTL(),
	}, val, log)

	worker, err := scheduler.NewWorker(cfg, adapters.NewBookingJobs(bookingsModule.Service()), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
