package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tradesbook/internal/referrals/repository"
	"tradesbook/internal/referrals/service"
	"tradesbook/platform/apperr"
	"tradesbook/platform/logger"
	"tradesbook/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// stubRepo implements only what these tests reach.
type stubRepo struct {
	repository.Repository
	codes map[string]repository.Code
}

func (s *stubRepo) GetCodeByCode(ctx context.Context, code string) (repository.Code, error) {
	c, ok := s.codes[code]
	if !ok {
		return repository.Code{}, apperr.NotFound("referral code not found")
	}
	return c, nil
}

func (s *stubRepo) CreateCode(ctx context.Context, c repository.Code) (repository.Code, error) {
	if _, ok := s.codes[c.Code]; ok {
		return repository.Code{}, apperr.Conflict("referral code already exists")
	}
	c.ID = uuid.New()
	c.IsActive = true
	s.codes[c.Code] = c
	return c, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *stubRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := &stubRepo{codes: map[string]repository.Code{
		"HN-D04-JOHN": {ID: uuid.New(), Code: "HN-D04-JOHN", Retailer: "HN", DiscountBps: 1000, IsActive: true},
		"CR-GAL-MARY": {ID: uuid.New(), Code: "CR-GAL-MARY", Retailer: "CR", IsActive: false},
	}}
	h := New(service.New(repo, nil, nil, nil, logger.Discard()), validator.New())

	r := gin.New()
	r.GET("/referrals/retailers", h.ListRetailers)
	r.GET("/referrals/validate", h.ValidateCode)
	r.POST("/referrals/invoices/upload-url", h.InvoiceUploadURL)
	r.POST("/admin/referral-codes", h.CreateCode)
	return r, repo
}

func TestValidateCode(t *testing.T) {
	r, _ := newTestRouter(t)

	cases := []struct {
		name string
		code string
		want int
	}{
		{"active code, lower case", "hn-d04-john", http.StatusOK},
		{"inactive code", "CR-GAL-MARY", http.StatusNotFound},
		{"malformed code", "NOPE", http.StatusNotFound},
		{"missing code", "", http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/referrals/validate?code="+tc.code, nil))
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d: %s", tc.name, tc.want, rec.Code, rec.Body.String())
		}
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/referrals/validate?code=HN-D04-JOHN", nil))
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["retailerName"] != "Harvey Norman" || body["discountBps"] != float64(1000) {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestCreateCode(t *testing.T) {
	r, repo := newTestRouter(t)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"created", `{"code":"did-cork-sean","discountBps":500}`, http.StatusCreated},
		{"duplicate", `{"code":"HN-D04-JOHN"}`, http.StatusConflict},
		{"unknown retailer", `{"code":"ZZ-D04-JOHN"}`, http.StatusBadRequest},
		{"discount too high", `{"code":"PC-TAL-ANNA","discountBps":9000}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/admin/referral-codes", bytes.NewBufferString(tc.body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d: %s", tc.name, tc.want, rec.Code, rec.Body.String())
		}
	}

	if c, ok := repo.codes["DID-CORK-SEAN"]; !ok || c.Retailer != "DID" || c.StaffName != "SEAN" {
		t.Fatalf("expected parsed code to be stored, got %+v", c)
	}
}

func TestUploadURLWithoutStorage(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/referrals/invoices/upload-url",
		bytes.NewBufferString(`{"fileName":"receipt.jpg","contentType":"image/jpeg","sizeBytes":2048}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 when storage is disabled, got %d", rec.Code)
	}
}

func TestListRetailers(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/referrals/retailers", nil))
	var body struct {
		Items []struct {
			Code string `json:"code"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Items) != 5 || body.Items[0].Code != "CR" {
		t.Fatalf("expected 5 retailers sorted by code, got %+v", body.Items)
	}
}
