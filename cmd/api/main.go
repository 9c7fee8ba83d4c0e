package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradesbook/internal/adapters"
	"tradesbook/internal/adapters/storage"
	"tradesbook/internal/bookings"
	bookingrepo "tradesbook/internal/bookings/repository"
	bookingsvc "tradesbook/internal/bookings/service"
	"tradesbook/internal/email"
	"tradesbook/internal/events"
	fraudrepo "tradesbook/internal/fraud/repository"
	fraudsvc "tradesbook/internal/fraud/service"
	apphttp "tradesbook/internal/http"
	"tradesbook/internal/http/router"
	"tradesbook/internal/installers"
	installersvc "tradesbook/internal/installers/service"
	"tradesbook/internal/notification"
	"tradesbook/internal/pricing"
	pricingsvc "tradesbook/internal/pricing/service"
	"tradesbook/internal/referrals"
	"tradesbook/internal/scheduler"
	"tradesbook/migrations"
	"tradesbook/platform/config"
	"tradesbook/platform/db"
	"tradesbook/platform/logger"
	"tradesbook/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	eventBus := events.NewInMemoryBus(log)

	jobs, closeJobs := initJobScheduler(cfg, log)
	if closeJobs != nil {
		defer closeJobs()
	}

	priceCache, closeCache := initPriceCache(ctx, cfg, log)
	if closeCache != nil {
		defer closeCache()
	}

	val := validator.New()

	invoiceImages := initInvoiceStorage(ctx, cfg, log)

	priceList, err := pricingsvc.LoadDefaults(cfg.GetPricingFile())
	if err != nil {
		log.Error("failed to load price list", "error", err)
		panic("failed to load price list: " + err.Error())
	}
	if err := pricing.RegisterValidations(val, priceList); err != nil {
		panic("failed to register pricing validations: " + err.Error())
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	notificationModule := notification.New(email.NewSender(cfg), cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	invoiceCustomers := adapters.NewInvoiceCustomers(bookingrepo.New(pool))
	referralsModule := referrals.NewModule(pool, invoiceCustomers, invoiceImages, eventBus, val, log)
	referralsModule.RegisterHandlers(eventBus)

	pricingModule := pricing.NewModule(pool, priceCache, priceList, cfg.GetPricingCacheTTL(), val, referralsModule.Service(), log)

	assessor := fraudsvc.New(fraudrepo.New(pool), fraudsvc.Windows{
		Duplicate: cfg.GetFraudDuplicateWindow(),
		Rapid:     cfg.GetFraudRapidWindow(),
	}, log)

	bookingsModule := bookings.NewModule(pool, bookings.Deps{
		Pricer:    pricingModule.Service(),
		Assessor:  assessor,
		Referrals: adapters.NewReferralResolver(referralsModule.Service()),
		Jobs:      jobs,
		EventBus:  eventBus,
	}, bookingsvc.Options{
		AppBaseURL:      cfg.GetAppBaseURL(),
		LeadExpiryGrace: cfg.GetLeadExpiryGrace(),
		VerifySecret:    cfg.GetEmailVerifySecret(),
		VerifyTTL:       cfg.GetEmailVerifyTTL(),
	}, val, log)
	bookingsModule.RegisterHandlers(eventBus)

	installersModule := installers.NewModule(pool, pricingModule.Service(), eventBus, installersvc.Options{
		RefundWindow: cfg.GetRefundWindow(),
	}, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			pricingModule,
			bookingsModule,
			installersModule,
			referralsModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initJobScheduler(cfg config.SchedulerConfig, log *logger.Logger) (bookingsvc.JobScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; booking reminders disabled and reassessment runs inline")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func initPriceCache(ctx context.Context, cfg config.SchedulerConfig, log *logger.Logger) (pricingsvc.TableCache, func()) {
	if cfg.GetRedisURL() == "" {
		return pricingsvc.NoopTableCache{}, nil
	}

	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("invalid REDIS_URL; price list cache disabled", "error", err)
		return pricingsvc.NoopTableCache{}, nil
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable at startup; price list cache will retry per request", "error", err)
	}

	return pricingsvc.NewRedisTableCache(rdb), func() {
		_ = rdb.Close()
	}
}

func initInvoiceStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) storage.InvoiceStorage {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; invoice image uploads disabled")
		return nil
	}

	store, err := storage.NewMinIOInvoiceStore(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	if err := withRetry(ctx, log, "ensure invoice bucket", 5, 2*time.Second, func() error {
		return store.EnsureBucket(ctx)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetMinioBucketRetailerInvoices())
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "invoiceBucket", cfg.GetMinioBucketRetailerInvoices())
	return store
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
