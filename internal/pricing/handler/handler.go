package handler

import (
	"context"
	"net/http"
	"strings"

	"tradesbook/internal/pricing/repository"
	"tradesbook/internal/pricing/service"
	"tradesbook/internal/pricing/transport"
	"tradesbook/platform/httpkit"
	"tradesbook/platform/validator"

	"github.com/gin-gonic/gin"
)

// ReferralDiscounts resolves a referral code to its discount for quotes.
type ReferralDiscounts interface {
	DiscountBps(ctx context.Context, code string) (int, error)
}

// Handler handles HTTP requests for pricing.
type Handler struct {
	svc       *service.Service
	val       *validator.Validator
	discounts ReferralDiscounts
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates a new pricing handler. discounts may be nil.
func New(svc *service.Service, val *validator.Validator, discounts ReferralDiscounts) *Handler {
	return &Handler{svc: svc, val: val, discounts: discounts}
}

// GetPublicPricing returns the effective price list.
// GET /api/v1/public/pricing
func (h *Handler) GetPublicPricing(c *gin.Context) {
	table, err := h.svc.EffectiveTable(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	c.Header("Cache-Control", "public, max-age=300")
	httpkit.OK(c, gin.H{
		"version":         table.Version,
		"maxTvs":          table.MaxTVs,
		"additionalTvBps": table.AdditionalTVBps,
		"tiers":           table.Tiers,
		"addOns":          table.AddOns,
		"wallTypes":       table.WallTypes,
		"largeTv":         table.LargeTV,
	})
}

// Quote prices a prospective booking.
// POST /api/v1/public/pricing/quote
func (h *Handler) Quote(c *gin.Context) {
	var req transport.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	discountBps := 0
	if req.ReferralCode != nil && strings.TrimSpace(*req.ReferralCode) != "" && h.discounts != nil {
		bps, err := h.discounts.DiscountBps(c.Request.Context(), *req.ReferralCode)
		if httpkit.HandleError(c, err) {
			return
		}
		discountBps = bps
	}

	quote, err := h.svc.Quote(c.Request.Context(), service.QuoteInput{
		Tier:         req.ServiceTier,
		TVCount:      req.TVCount,
		TVSizeInches: req.TVSizeInches,
		WallType:     req.WallType,
		AddOns:       req.AddOns,
		DiscountBps:  discountBps,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, quote)
}

// GetAdminPricing returns the effective table including lead fee rules,
// alongside the defaults it was built from.
// GET /api/v1/admin/pricing
func (h *Handler) GetAdminPricing(c *gin.Context) {
	table, err := h.svc.EffectiveTable(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"effective": table, "defaults": h.svc.Defaults()})
}

// ListOverrides returns the stored overrides.
// GET /api/v1/admin/pricing/overrides
func (h *Handler) ListOverrides(c *gin.Context) {
	overrides, err := h.svc.ListOverrides(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	items := make([]transport.OverrideResponse, 0, len(overrides))
	for _, o := range overrides {
		items = append(items, toOverrideResponse(o))
	}
	httpkit.OK(c, transport.OverrideListResponse{Items: items})
}

// SetOverride creates or replaces an override.
// PUT /api/v1/admin/pricing/overrides
func (h *Handler) SetOverride(c *gin.Context) {
	var req transport.SetOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	saved, err := h.svc.SetOverride(c.Request.Context(), req.Kind, req.Key, req.AmountCents, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toOverrideResponse(saved))
}

// DeleteOverride removes an override.
// DELETE /api/v1/admin/pricing/overrides/:kind/:key
func (h *Handler) DeleteOverride(c *gin.Context) {
	if err := h.svc.DeleteOverride(c.Request.Context(), c.Param("kind"), c.Param("key")); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func toOverrideResponse(o repository.Override) transport.OverrideResponse {
	resp := transport.OverrideResponse{
		Kind:        o.Kind,
		Key:         o.Key,
		AmountCents: o.AmountCents,
		UpdatedAt:   o.UpdatedAt,
	}
	if o.UpdatedBy != nil {
		by := o.UpdatedBy.String()
		resp.UpdatedBy = &by
	}
	return resp
}
