// Package bookings provides the booking intake, customer self-service and
// admin review bounded context.
package bookings

import (
	"context"

	"tradesbook/internal/bookings/handler"
	"tradesbook/internal/bookings/repository"
	"tradesbook/internal/bookings/service"
	"tradesbook/internal/events"
	apphttp "tradesbook/internal/http"
	"tradesbook/platform/logger"
	"tradesbook/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the bookings bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repo
	log     *logger.Logger
}

// Deps are the cross-module ports the bookings service needs.
type Deps struct {
	Pricer    service.Pricer
	Assessor  service.Assessor
	Referrals service.ReferralResolver
	Jobs      service.JobScheduler
	EventBus  events.Bus
}

// NewModule creates and initializes the bookings module.
func NewModule(pool *pgxpool.Pool, deps Deps, opts service.Options, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, deps.Pricer, deps.Assessor, deps.Referrals, deps.Jobs, deps.EventBus, opts, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
		log:     log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "bookings"
}

// Service returns the service layer for other modules and the scheduler.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository exposes the customer store to the referrals adapter.
func (m *Module) Repository() *repository.Repo {
	return m.repo
}

// RegisterRoutes mounts booking routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.Public.Group("/bookings")
	if ctx.PublicWriteLimiter != nil {
		public.POST("", ctx.PublicWriteLimiter.RateLimit(), m.handler.Create)
		public.POST("/:code/cancel", ctx.PublicWriteLimiter.RateLimit(), m.handler.Cancel)
		public.POST("/:code/verify-email", ctx.PublicWriteLimiter.RateLimit(), m.handler.VerifyEmail)
	} else {
		public.POST("", m.handler.Create)
		public.POST("/:code/cancel", m.handler.Cancel)
		public.POST("/:code/verify-email", m.handler.VerifyEmail)
	}
	public.GET("/:code", m.handler.Lookup)
	public.GET("/:code/qr.png", m.handler.QRCode)
	ctx.Public.GET("/track/:token", m.handler.Track)

	admin := ctx.Admin.Group("/bookings")
	admin.GET("", m.handler.List)
	admin.GET("/:id", m.handler.Get)
	admin.PATCH("/:id/status", m.handler.ChangeStatus)
	admin.POST("/:id/review", m.handler.Review)
	admin.POST("/:id/reassess", m.handler.Reassess)
}

// RegisterHandlers subscribes to invoice verification so the customer's
// risk-gated bookings get re-scored.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.InvoiceVerified{}.EventName(), m)
}

// Handle implements events.Handler.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.InvoiceVerified:
		return m.service.ReassessForCustomer(ctx, e.CustomerEmail)
	default:
		m.log.Warn("bookings module received unexpected event", "event", event.EventName())
		return nil
	}
}

var _ apphttp.Module = (*Module)(nil)
