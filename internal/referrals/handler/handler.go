package handler

import (
	"net/http"
	"time"

	"tradesbook/internal/referrals/parser"
	"tradesbook/internal/referrals/repository"
	"tradesbook/internal/referrals/service"
	"tradesbook/internal/referrals/transport"
	"tradesbook/platform/apperr"
	"tradesbook/platform/httpkit"
	"tradesbook/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for referrals.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	dateLayout          = "2006-01-02"
)

// New creates a new referrals handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ListRetailers returns the partner retailer registry.
// GET /api/v1/public/referrals/retailers
func (h *Handler) ListRetailers(c *gin.Context) {
	httpkit.OK(c, gin.H{"items": parser.Retailers()})
}

// ValidateCode checks a referral code before booking.
// GET /api/v1/public/referrals/validate?code=
func (h *Handler) ValidateCode(c *gin.Context) {
	var query transport.ValidateCodeQuery
	if !h.bindQuery(c, &query) {
		return
	}
	code, err := h.svc.ResolveActive(c.Request.Context(), query.Code)
	if httpkit.HandleError(c, err) {
		return
	}
	retailer, _ := parser.LookupRetailer(code.Retailer)
	httpkit.OK(c, transport.ValidateCodeResponse{
		Code:         code.Code,
		Retailer:     code.Retailer,
		RetailerName: retailer.Name,
		DiscountBps:  code.DiscountBps,
	})
}

// VerifyInvoice records a retailer invoice.
// POST /api/v1/public/referrals/invoices
func (h *Handler) VerifyInvoice(c *gin.Context) {
	var req transport.VerifyInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	purchased, err := time.Parse(dateLayout, req.PurchaseDate)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, map[string]string{"PurchaseDate": "datetime"})
		return
	}

	invoice, created, err := h.svc.VerifyInvoice(c.Request.Context(), service.VerifyInvoiceInput{
		InvoiceNumber: req.InvoiceNumber,
		PurchaseDate:  purchased,
		Email:         req.Email,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Phone:         req.Phone,
		ImageKey:      req.ImageKey,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	retailer, _ := parser.LookupRetailer(invoice.Retailer)
	httpkit.JSON(c, status, transport.InvoiceResponse{
		ID:            invoice.ID.String(),
		InvoiceNumber: invoice.InvoiceNumber,
		Retailer:      invoice.Retailer,
		RetailerName:  retailer.Name,
		StoreCode:     invoice.StoreCode,
		PurchaseDate:  invoice.PurchaseDate.Format(dateLayout),
		Status:        invoice.Status,
	})
}

// InvoiceUploadURL returns a presigned URL for an invoice image.
// POST /api/v1/public/referrals/invoices/upload-url
func (h *Handler) InvoiceUploadURL(c *gin.Context) {
	var req transport.UploadURLRequest
	if !h.bindJSON(c, &req) {
		return
	}
	url, err := h.svc.UploadURL(c.Request.Context(), req.FileName, req.ContentType, req.SizeBytes)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, url)
}

// ListCodes lists referral codes.
// GET /api/v1/admin/referral-codes
func (h *Handler) ListCodes(c *gin.Context) {
	var query transport.RetailerQuery
	if !h.bindQuery(c, &query) {
		return
	}
	codes, err := h.svc.ListCodes(c.Request.Context(), query.Retailer)
	if httpkit.HandleError(c, err) {
		return
	}
	resp := transport.CodeListResponse{Items: make([]transport.CodeResponse, 0, len(codes))}
	for _, code := range codes {
		resp.Items = append(resp.Items, toCodeResponse(code))
	}
	httpkit.OK(c, resp)
}

// CreateCode registers a referral code.
// POST /api/v1/admin/referral-codes
func (h *Handler) CreateCode(c *gin.Context) {
	var req transport.CreateCodeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	code, err := h.svc.CreateCode(c.Request.Context(), service.CreateCodeInput{
		Code:            req.Code,
		DiscountBps:     req.DiscountBps,
		CommissionCents: req.CommissionCents,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, toCodeResponse(code))
}

// SetActive enables or disables a referral code.
// PATCH /api/v1/admin/referral-codes/:id
func (h *Handler) SetActive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid referral code id"))
		return
	}
	var req transport.SetActiveRequest
	if !h.bindJSON(c, &req) {
		return
	}
	code, err := h.svc.SetActive(c.Request.Context(), id, *req.IsActive)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toCodeResponse(code))
}

// StoreAnalytics reports referral performance per store.
// GET /api/v1/admin/referrals/stores
func (h *Handler) StoreAnalytics(c *gin.Context) {
	var query transport.RetailerQuery
	if !h.bindQuery(c, &query) {
		return
	}
	views, err := h.svc.StoreAnalytics(c.Request.Context(), query.Retailer)
	if httpkit.HandleError(c, err) {
		return
	}
	resp := transport.StoreStatsListResponse{Items: make([]transport.StoreStatsResponse, 0, len(views))}
	for _, v := range views {
		resp.Items = append(resp.Items, transport.StoreStatsResponse{
			Retailer:               v.Retailer,
			RetailerName:           v.RetailerName,
			StoreCode:              v.StoreCode,
			Bookings:               v.Bookings,
			Completed:              v.Completed,
			EarnedCommissionCents:  v.EarnedCommissionCents,
			PendingCommissionCents: v.PendingCommissionCents,
			VerifiedInvoices:       v.VerifiedInvoices,
		})
	}
	httpkit.OK(c, resp)
}

func (h *Handler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return false
	}
	return true
}

func (h *Handler) bindQuery(c *gin.Context, query interface{}) bool {
	if err := c.ShouldBindQuery(query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return false
	}
	return true
}

func toCodeResponse(code repository.Code) transport.CodeResponse {
	return transport.CodeResponse{
		ID:              code.ID.String(),
		Code:            code.Code,
		Retailer:        code.Retailer,
		StoreCode:       code.StoreCode,
		StaffName:       code.StaffName,
		DiscountBps:     code.DiscountBps,
		CommissionCents: code.CommissionCents,
		IsActive:        code.IsActive,
		CreatedAt:       code.CreatedAt,
	}
}
