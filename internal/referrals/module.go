// Package referrals provides retailer referral codes, invoice verification
// and store analytics.
package referrals

import (
	"context"

	"tradesbook/internal/adapters/storage"
	"tradesbook/internal/events"
	apphttp "tradesbook/internal/http"
	"tradesbook/internal/referrals/handler"
	"tradesbook/internal/referrals/repository"
	"tradesbook/internal/referrals/service"
	"tradesbook/platform/logger"
	"tradesbook/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the referrals bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	log     *logger.Logger
}

// NewModule creates the referrals module. images may be nil.
func NewModule(pool *pgxpool.Pool, customers service.Customers, images storage.InvoiceStorage, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), customers, images, eventBus, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		log:     log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "referrals"
}

// Service returns the referrals service for the bookings and pricing adapters.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts referral routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.Public.Group("/referrals")
	public.GET("/retailers", m.handler.ListRetailers)
	public.GET("/validate", m.handler.ValidateCode)
	if ctx.PublicWriteLimiter != nil {
		public.POST("/invoices", ctx.PublicWriteLimiter.RateLimit(), m.handler.VerifyInvoice)
		public.POST("/invoices/upload-url", ctx.PublicWriteLimiter.RateLimit(), m.handler.InvoiceUploadURL)
	} else {
		public.POST("/invoices", m.handler.VerifyInvoice)
		public.POST("/invoices/upload-url", m.handler.InvoiceUploadURL)
	}

	admin := ctx.Admin
	admin.GET("/referral-codes", m.handler.ListCodes)
	admin.POST("/referral-codes", m.handler.CreateCode)
	admin.PATCH("/referral-codes/:id", m.handler.SetActive)
	admin.GET("/referrals/stores", m.handler.StoreAnalytics)
}

// RegisterHandlers settles referral usage as bookings finish.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.BookingCompleted{}.EventName(), m)
	bus.Subscribe(events.BookingCancelled{}.EventName(), m)
	bus.Subscribe(events.BookingFlagged{}.EventName(), m)
}

// Handle implements events.Handler.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.BookingCompleted:
		return m.service.SettleUsage(ctx, e.BookingID, repository.UsageEarned)
	case events.BookingCancelled:
		return m.service.SettleUsage(ctx, e.BookingID, repository.UsageVoid)
	case events.BookingFlagged:
		return m.service.SettleUsage(ctx, e.BookingID, repository.UsageVoid)
	default:
		m.log.Warn("referrals module received unexpected event", "event", event.EventName())
		return nil
	}
}

var _ apphttp.Module = (*Module)(nil)
