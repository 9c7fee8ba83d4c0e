package handler

import (
	"net/http"

	"tradesbook/internal/installers/repository"
	"tradesbook/internal/installers/service"
	"tradesbook/internal/installers/transport"
	"tradesbook/platform/httpkit"
	"tradesbook/platform/validator"

	"github.com/gin-gonic/gin"
)

const msgInvalidJobID = "invalid job id"

// ListLeads returns the marketplace for the caller's counties.
// GET /api/v1/installer/leads
func (h *Handler) ListLeads(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	leads, err := h.svc.ListLeads(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	resp := transport.LeadListResponse{Items: make([]transport.LeadResponse, 0, len(leads))}
	for _, l := range leads {
		resp.Items = append(resp.Items, transport.LeadResponse{
			BookingID:     l.BookingID.String(),
			BookingCode:   l.BookingCode,
			ContactName:   l.ContactName,
			ContactEmail:  l.ContactEmail,
			ContactPhone:  l.ContactPhone,
			County:        l.County,
			ServiceTier:   l.ServiceTier,
			TVCount:       l.TVCount,
			TVSizeInches:  l.TVSizeInches,
			WallType:      l.WallType,
			AddOns:        l.AddOns,
			PreferredDate: l.PreferredDate.Format(dateLayout),
			TimeSlot:      l.TimeSlot,
			QualityScore:  l.QualityScore,
			RiskLevel:     l.RiskLevel,
			LeadFeeCents:  l.LeadFeeCents,
			FeeBand:       l.FeeBand,
			ChargeCents:   l.ChargeCents,
		})
	}
	httpkit.OK(c, resp)
}

// PurchaseLead buys a lead from the caller's wallet.
// POST /api/v1/installer/leads/:bookingId/purchase
func (h *Handler) PurchaseLead(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	bookingID, ok := parseID(c, "bookingId", "invalid booking id")
	if !ok {
		return
	}
	result, err := h.svc.PurchaseLead(c.Request.Context(), identity.UserID(), bookingID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.PurchaseResponse{
		AssignmentID:      result.Assignment.ID.String(),
		BookingID:         result.Target.BookingID.String(),
		BookingCode:       result.Target.BookingCode,
		ChargedCents:      result.Assignment.ChargedCents,
		BalanceAfterCents: result.BalanceAfterCents,
	})
}

// ListJobs returns the caller's purchased leads.
// GET /api/v1/installer/jobs
func (h *Handler) ListJobs(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	jobs, err := h.svc.ListJobs(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	resp := transport.JobListResponse{Items: make([]transport.JobResponse, 0, len(jobs))}
	for _, j := range jobs {
		resp.Items = append(resp.Items, toJobResponse(j))
	}
	httpkit.OK(c, resp)
}

// CompleteJob marks a job done.
// POST /api/v1/installer/jobs/:id/complete
func (h *Handler) CompleteJob(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c, "id", msgInvalidJobID)
	if !ok {
		return
	}
	job, err := h.svc.CompleteJob(c.Request.Context(), identity.UserID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toJobResponse(job))
}

// RequestRefund files a refund claim against a job.
// POST /api/v1/installer/jobs/:id/refund-requests
func (h *Handler) RequestRefund(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c, "id", msgInvalidJobID)
	if !ok {
		return
	}
	var req transport.RefundRequestBody
	if !h.bindJSON(c, &req) {
		return
	}
	out, err := h.svc.RequestRefund(c.Request.Context(), identity.UserID(), id, service.RefundInput{
		Reason:  req.Reason,
		Details: req.Details,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	resp := toRefundResponse(repository.RefundView{RefundRequest: out.Request})
	resp.Explanation = out.Decision.Explanation
	resp.BalanceAfterCents = out.BalanceAfterCents
	httpkit.JSON(c, http.StatusCreated, resp)
}

// ListMyRefunds returns the caller's refund requests.
// GET /api/v1/installer/refund-requests
func (h *Handler) ListMyRefunds(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	items, err := h.svc.ListMyRefunds(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toRefundList(items))
}

// ListRefunds returns the admin refund queue.
// GET /api/v1/admin/refund-requests
func (h *Handler) ListRefunds(c *gin.Context) {
	var query transport.ListRefundsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}
	items, err := h.svc.ListRefunds(c.Request.Context(), query.Status)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toRefundList(items))
}

// DecideRefund approves or rejects a refund under review.
// POST /api/v1/admin/refund-requests/:id/decision
func (h *Handler) DecideRefund(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c, "id", "invalid refund request id")
	if !ok {
		return
	}
	var req transport.RefundDecisionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	out, err := h.svc.DecideRefund(c.Request.Context(), id, *req.Approve, identity.UserID(), req.Note)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toRefundResponse(repository.RefundView{RefundRequest: out}))
}

func toJobResponse(j repository.Job) transport.JobResponse {
	return transport.JobResponse{
		AssignmentID:  j.ID.String(),
		BookingID:     j.BookingID.String(),
		BookingCode:   j.BookingCode,
		BookingStatus: j.BookingStatus,
		Status:        j.Status,
		ContactName:   j.ContactName,
		ContactEmail:  j.ContactEmail,
		ContactPhone:  j.ContactPhone,
		Address:       j.Address,
		County:        j.County,
		Eircode:       j.Eircode,
		ServiceTier:   j.ServiceTier,
		TVCount:       j.TVCount,
		TVSizeInches:  j.TVSizeInches,
		WallType:      j.WallType,
		AddOns:        j.AddOns,
		PreferredDate: j.PreferredDate.Format(dateLayout),
		TimeSlot:      j.TimeSlot,
		Notes:         j.Notes,
		ChargedCents:  j.ChargedCents,
		PurchasedAt:   j.PurchasedAt,
		CompletedAt:   j.CompletedAt,
	}
}

func toRefundResponse(v repository.RefundView) transport.RefundResponse {
	return transport.RefundResponse{
		ID:           v.ID.String(),
		AssignmentID: v.AssignmentID.String(),
		BookingCode:  v.BookingCode,
		BusinessName: v.BusinessName,
		Reason:       v.Reason,
		Details:      v.Details,
		Status:       v.Status,
		DecisionNote: v.DecisionNote,
		ChargedCents: v.ChargedCents,
		DecidedAt:    v.DecidedAt,
		CreatedAt:    v.CreatedAt,
	}
}

func toRefundList(items []repository.RefundView) transport.RefundListResponse {
	resp := transport.RefundListResponse{Items: make([]transport.RefundResponse, 0, len(items))}
	for _, v := range items {
		resp.Items = append(resp.Items, toRefundResponse(v))
	}
	return resp
}
