// Package pricing provides the price list, quote calculation and lead fee
// bounded context.
package pricing

import (
	"time"

	apphttp "tradesbook/internal/http"
	"tradesbook/internal/pricing/handler"
	"tradesbook/internal/pricing/repository"
	"tradesbook/internal/pricing/service"
	"tradesbook/platform/logger"
	"tradesbook/platform/validator"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the pricing bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the pricing module. cache may be nil.
func NewModule(pool *pgxpool.Pool, cache service.TableCache, defaults service.Table, ttl time.Duration, val *validator.Validator, discounts handler.ReferralDiscounts, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), cache, defaults, ttl, log)
	return &Module{
		handler: handler.New(svc, val, discounts),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "pricing"
}

// Service returns the service layer for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts pricing routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Public.GET("/pricing", m.handler.GetPublicPricing)
	ctx.Public.POST("/pricing/quote", m.handler.Quote)

	admin := ctx.Admin.Group("/pricing")
	admin.GET("", m.handler.GetAdminPricing)
	admin.GET("/overrides", m.handler.ListOverrides)
	admin.PUT("/overrides", m.handler.SetOverride)
	admin.DELETE("/overrides/:kind/:key", m.handler.DeleteOverride)
}

// RegisterValidations adds the servicetier and walltype tags, backed by the
// configured price list.
func RegisterValidations(val *validator.Validator, defaults service.Table) error {
	if err := val.RegisterValidation("servicetier", func(fl govalidator.FieldLevel) bool {
		_, ok := defaults.Tier(fl.Field().String())
		return ok
	}); err != nil {
		return err
	}
	return val.RegisterValidation("walltype", func(fl govalidator.FieldLevel) bool {
		_, ok := defaults.WallType(fl.Field().String())
		return ok
	})
}

var _ apphttp.Module = (*Module)(nil)
