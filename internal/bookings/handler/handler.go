package handler

import (
	"net/http"
	"time"

	"tradesbook/internal/bookings/repository"
	"tradesbook/internal/bookings/service"
	"tradesbook/internal/bookings/transport"
	"tradesbook/platform/apperr"
	"tradesbook/platform/httpkit"
	"tradesbook/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for bookings.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid booking id"
)

// New creates a new bookings handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Create accepts a booking from the public site.
// POST /api/v1/public/bookings
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}
	preferred, err := time.Parse(transport.DateLayout, req.PreferredDate)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, map[string]string{"PreferredDate": "datetime"})
		return
	}

	booking, err := h.svc.Create(c.Request.Context(), service.CreateInput{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		County:        req.County,
		Eircode:       req.Eircode,
		ServiceTier:   req.ServiceTier,
		TVCount:       req.TVCount,
		TVSizeInches:  req.TVSizeInches,
		WallType:      req.WallType,
		AddOns:        req.AddOns,
		PreferredDate: preferred,
		TimeSlot:      req.TimeSlot,
		Notes:         req.Notes,
		ReferralCode:  req.ReferralCode,
		ClientIP:      c.ClientIP(),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, h.toSummary(booking))
}

// Lookup returns a booking for the customer who made it.
// GET /api/v1/public/bookings/:code?email=
func (h *Handler) Lookup(c *gin.Context) {
	email, ok := h.bindEmailQuery(c)
	if !ok {
		return
	}
	booking, err := h.svc.GetForCustomer(c.Request.Context(), c.Param("code"), email)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, h.toSummary(booking))
}

// QRCode returns the booking's tracking QR code.
// GET /api/v1/public/bookings/:code/qr.png?email=
func (h *Handler) QRCode(c *gin.Context) {
	email, ok := h.bindEmailQuery(c)
	if !ok {
		return
	}
	png, err := h.svc.QRCode(c.Request.Context(), c.Param("code"), email)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}

// Cancel lets a customer cancel their booking.
// POST /api/v1/public/bookings/:code/cancel
func (h *Handler) Cancel(c *gin.Context) {
	var req transport.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}
	booking, err := h.svc.CancelByCustomer(c.Request.Context(), c.Param("code"), req.Email)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, h.toSummary(booking))
}

// VerifyEmail confirms a customer's email from the link in their confirmation.
// POST /api/v1/public/bookings/:code/verify-email
func (h *Handler) VerifyEmail(c *gin.Context) {
	var req transport.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}
	customer, err := h.svc.VerifyEmail(c.Request.Context(), c.Param("code"), req.Token)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.VerifyEmailResponse{Email: customer.Email, EmailVerified: customer.EmailVerified})
}

// Track serves the QR tracking page data.
// GET /api/v1/public/track/:token
func (h *Handler) Track(c *gin.Context) {
	booking, err := h.svc.GetByQRToken(c.Request.Context(), c.Param("token"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.TrackingResponse{
		BookingCode:   booking.BookingCode,
		Status:        booking.Status,
		ServiceTier:   booking.ServiceTier,
		PreferredDate: booking.PreferredDate.Format(transport.DateLayout),
		TimeSlot:      booking.PreferredTimeSlot,
	})
}

// List returns bookings for admins.
// GET /api/v1/admin/bookings
func (h *Handler) List(c *gin.Context) {
	var req transport.ListBookingsQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.List(c.Request.Context(), repository.ListParams{
		Status:   req.Status,
		Risk:     req.Risk,
		County:   req.County,
		Search:   req.Search,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.AdminBookingResponse, 0, len(result.Items))
	for _, b := range result.Items {
		items = append(items, toAdminResponse(b))
	}
	httpkit.OK(c, transport.AdminBookingListResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	})
}

// Get returns one booking for admins.
// GET /api/v1/admin/bookings/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	booking, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toAdminResponse(booking))
}

// ChangeStatus applies an admin status change.
// PATCH /api/v1/admin/bookings/:id/status
func (h *Handler) ChangeStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}
	booking, err := h.svc.ChangeStatus(c.Request.Context(), id, req.Status, req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toAdminResponse(booking))
}

// Review approves or rejects a booking held for review.
// POST /api/v1/admin/bookings/:id/review
func (h *Handler) Review(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}
	booking, err := h.svc.Review(c.Request.Context(), id, *req.Approve, req.Note)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toAdminResponse(booking))
}

// Reassess re-runs the fraud assessment.
// POST /api/v1/admin/bookings/:id/reassess
func (h *Handler) Reassess(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	booking, err := h.svc.Reassess(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toAdminResponse(booking))
}

func (h *Handler) bindEmailQuery(c *gin.Context) (string, bool) {
	var q transport.CustomerLookupQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return "", false
	}
	if err := h.val.Struct(q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return "", false
	}
	return q.Email, true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest(msgInvalidID))
		return uuid.UUID{}, false
	}
	return id, true
}

func (h *Handler) toSummary(b repository.Booking) transport.BookingSummary {
	return transport.BookingSummary{
		BookingCode:   b.BookingCode,
		Status:        b.Status,
		ServiceTier:   b.ServiceTier,
		TVCount:       b.TVCount,
		PreferredDate: b.PreferredDate.Format(transport.DateLayout),
		TimeSlot:      b.PreferredTimeSlot,
		County:        b.County,
		SubtotalCents: b.SubtotalCents,
		DiscountCents: b.DiscountCents,
		TotalCents:    b.TotalCents,
		TrackingURL:   h.svc.TrackingURL(b),
		CreatedAt:     b.CreatedAt,
	}
}

func toAdminResponse(b repository.Booking) transport.AdminBookingResponse {
	resp := transport.AdminBookingResponse{
		ID:             b.ID.String(),
		BookingCode:    b.BookingCode,
		CustomerID:     b.CustomerID.String(),
		ContactName:    b.ContactName,
		ContactEmail:   b.ContactEmail,
		ContactPhone:   b.ContactPhone,
		Address:        b.Address,
		County:         b.County,
		Eircode:        b.Eircode,
		ServiceTier:    b.ServiceTier,
		TVCount:        b.TVCount,
		TVSizeInches:   b.TVSizeInches,
		WallType:       b.WallType,
		AddOns:         b.AddOns,
		PreferredDate:  b.PreferredDate.Format(transport.DateLayout),
		TimeSlot:       b.PreferredTimeSlot,
		Notes:          b.Notes,
		SubtotalCents:  b.SubtotalCents,
		DiscountCents:  b.DiscountCents,
		TotalCents:     b.TotalCents,
		LeadFeeCents:   b.LeadFeeCents,
		PricingVersion: b.PricingVersion,
		QualityScore:   b.QualityScore,
		RiskLevel:      b.RiskLevel,
		FraudFactors:   b.FraudFactors,
		FraudVersion:   b.FraudVersion,
		Status:         b.Status,
		ClientIP:       b.ClientIP,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
	if b.ReferralCodeID != nil {
		id := b.ReferralCodeID.String()
		resp.ReferralCodeID = &id
	}
	return resp
}
