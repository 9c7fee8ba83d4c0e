package handler

import (
	"net/http"

	"tradesbook/internal/installers/repository"
	"tradesbook/internal/installers/service"
	"tradesbook/internal/installers/transport"
	"tradesbook/platform/apperr"
	"tradesbook/platform/httpkit"
	"tradesbook/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for installers.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	dateLayout          = "2006-01-02"
)

// New creates a new installers handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// GetProfile returns the caller's installer profile.
// GET /api/v1/installer/profile
func (h *Handler) GetProfile(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	installer, err := h.svc.GetProfile(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toInstallerResponse(installer))
}

// UpsertProfile creates or updates the caller's installer profile.
// PUT /api/v1/installer/profile
func (h *Handler) UpsertProfile(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	var req transport.UpsertProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}
	installer, err := h.svc.UpsertProfile(c.Request.Context(), identity.UserID(), service.ProfileInput{
		BusinessName: req.BusinessName,
		Email:        req.Email,
		Phone:        req.Phone,
		Counties:     req.Counties,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toInstallerResponse(installer))
}

// GetWallet returns the caller's balance and recent ledger.
// GET /api/v1/installer/wallet
func (h *Handler) GetWallet(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	view, err := h.svc.GetWallet(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toWalletResponse(view))
}

// ListInstallers lists installers for admins.
// GET /api/v1/admin/installers
func (h *Handler) ListInstallers(c *gin.Context) {
	var query transport.ListInstallersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	items, err := h.svc.ListInstallers(c.Request.Context(), query.Approved)
	if httpkit.HandleError(c, err) {
		return
	}
	resp := transport.InstallerListResponse{Items: make([]transport.InstallerResponse, 0, len(items))}
	for _, i := range items {
		resp.Items = append(resp.Items, toInstallerResponse(i))
	}
	httpkit.OK(c, resp)
}

// UpdateInstaller approves, deactivates or re-prices an installer.
// PATCH /api/v1/admin/installers/:id
func (h *Handler) UpdateInstaller(c *gin.Context) {
	id, ok := parseID(c, "id", "invalid installer id")
	if !ok {
		return
	}
	var req transport.AdminUpdateInstallerRequest
	if !h.bindJSON(c, &req) {
		return
	}
	installer, err := h.svc.UpdateInstaller(c.Request.Context(), id, repository.AdminUpdate{
		IsApproved:   req.IsApproved,
		IsActive:     req.IsActive,
		FeeStructure: req.FeeStructure,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toInstallerResponse(installer))
}

// CreditWallet tops up or adjusts an installer's wallet.
// POST /api/v1/admin/installers/:id/wallet/credit
func (h *Handler) CreditWallet(c *gin.Context) {
	id, ok := parseID(c, "id", "invalid installer id")
	if !ok {
		return
	}
	var req transport.WalletCreditRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tx, err := h.svc.AdminCredit(c.Request.Context(), id, service.CreditInput{
		Type:        req.Type,
		Amount:      req.Amount,
		AmountCents: req.AmountCents,
		Reference:   req.Reference,
		Description: req.Description,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, toTransactionResponse(tx))
}

// ListTransactions returns an installer's ledger for admins.
// GET /api/v1/admin/installers/:id/transactions
func (h *Handler) ListTransactions(c *gin.Context) {
	id, ok := parseID(c, "id", "invalid installer id")
	if !ok {
		return
	}
	view, err := h.svc.ListTransactions(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toWalletResponse(view))
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

func parseID(c *gin.Context, param, msg string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest(msg))
		return uuid.UUID{}, false
	}
	return id, true
}

func toInstallerResponse(i repository.Installer) transport.InstallerResponse {
	return transport.InstallerResponse{
		ID:           i.ID.String(),
		BusinessName: i.BusinessName,
		Email:        i.Email,
		Phone:        i.Phone,
		Counties:     i.Counties,
		FeeStructure: i.FeeStructure,
		IsApproved:   i.IsApproved,
		IsActive:     i.IsActive,
		CreatedAt:    i.CreatedAt,
	}
}

func toWalletResponse(view service.WalletView) transport.WalletResponse {
	resp := transport.WalletResponse{
		BalanceCents: view.Wallet.BalanceCents,
		Transactions: make([]transport.TransactionResponse, 0, len(view.Transactions)),
	}
	for _, t := range view.Transactions {
		resp.Transactions = append(resp.Transactions, toTransactionResponse(t))
	}
	return resp
}

func toTransactionResponse(t repository.Transaction) transport.TransactionResponse {
	var bookingID *string
	if t.BookingID != nil {
		s := t.BookingID.String()
		bookingID = &s
	}
	return transport.TransactionResponse{
		ID:                t.ID.String(),
		Type:              t.Type,
		AmountCents:       t.AmountCents,
		BalanceAfterCents: t.BalanceAfterCents,
		BookingID:         bookingID,
		Reference:         t.Reference,
		Description:       t.Description,
		CreatedAt:         t.CreatedAt,
	}
}
