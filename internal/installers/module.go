// Package installers provides installer profiles, wallets, the lead
// marketplace and refund requests.
package installers

import (
	"tradesbook/internal/events"
	apphttp "tradesbook/internal/http"
	"tradesbook/internal/installers/handler"
	"tradesbook/internal/installers/repository"
	"tradesbook/internal/installers/service"
	"tradesbook/platform/logger"
	"tradesbook/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the installers bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the installers module.
func NewModule(pool *pgxpool.Pool, pricer service.Pricer, eventBus events.Bus, opts service.Options, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, pricer, eventBus, opts, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "installers"
}

// Service returns the installers service.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts installer and admin routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	inst := ctx.Installer
	inst.GET("/profile", m.handler.GetProfile)
	inst.PUT("/profile", m.handler.UpsertProfile)
	inst.GET("/wallet", m.handler.GetWallet)
	inst.GET("/leads", m.handler.ListLeads)
	inst.POST("/leads/:bookingId/purchase", m.handler.PurchaseLead)
	inst.GET("/jobs", m.handler.ListJobs)
	inst.POST("/jobs/:id/complete", m.handler.CompleteJob)
	inst.POST("/jobs/:id/refund-requests", m.handler.RequestRefund)
	inst.GET("/refund-requests", m.handler.ListMyRefunds)

	admin := ctx.Admin
	admin.GET("/installers", m.handler.ListInstallers)
	admin.PATCH("/installers/:id", m.handler.UpdateInstaller)
	admin.POST("/installers/:id/wallet/credit", m.handler.CreditWallet)
	admin.GET("/installers/:id/transactions", m.handler.ListTransactions)
	admin.GET("/refund-requests", m.handler.ListRefunds)
	admin.POST("/refund-requests/:id/decision", m.handler.DecideRefund)
}

var _ apphttp.Module = (*Module)(nil)
