// Package service implements referral codes, retailer invoice verification
// and store analytics.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"tradesbook/internal/adapters/storage"
	"tradesbook/internal/events"
	"tradesbook/internal/referrals/parser"
	"tradesbook/internal/referrals/repository"
	"tradesbook/platform/apperr"
	"tradesbook/platform/logger"
	"tradesbook/platform/phone"
	"tradesbook/platform/sanitize"

	"github.com/google/uuid"
)

const (
	defaultDiscountBps     = 1000
	defaultCommissionCents = 1000
	maxDiscountBps         = 5000
	codeNotFound           = "referral code not found"
)

// Service handles referral business logic.
type Service struct {
	repo      repository.Repository
	customers Customers
	images    storage.InvoiceStorage
	eventBus  events.Bus
	log       *logger.Logger
	now       func() time.Time
}

// New creates a referrals service. images may be nil when object storage is
// not configured; invoice images are then refused.
func New(repo repository.Repository, customers Customers, images storage.InvoiceStorage, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		customers: customers,
		images:    images,
		eventBus:  eventBus,
		log:       log,
		now:       time.Now,
	}
}

// ResolveActive returns an active code. Malformed, unknown and disabled
// codes are all NotFound so callers cannot tell which codes exist.
func (s *Service) ResolveActive(ctx context.Context, raw string) (repository.Code, error) {
	parsed, err := parser.ParseReferralCode(raw)
	if err != nil {
		return repository.Code{}, apperr.NotFound(codeNotFound)
	}
	code, err := s.repo.GetCodeByCode(ctx, parsed.Code)
	if err != nil {
		return repository.Code{}, err
	}
	if !code.IsActive {
		return repository.Code{}, apperr.NotFound(codeNotFound)
	}
	return code, nil
}

// DiscountBps returns the discount an active code gives on a quote.
func (s *Service) DiscountBps(ctx context.Context, raw string) (int, error) {
	code, err := s.ResolveActive(ctx, raw)
	if err != nil {
		return 0, err
	}
	return code.DiscountBps, nil
}

// CreateCodeInput is an admin request for a new code. Nil amounts use the defaults.
type CreateCodeInput struct {
	Code            string
	DiscountBps     *int
	CommissionCents *int64
}

// CreateCode registers a staff referral code.
func (s *Service) CreateCode(ctx context.Context, in CreateCodeInput) (repository.Code, error) {
	parsed, err := parser.ParseReferralCode(in.Code)
	if err != nil {
		return repository.Code{}, err
	}
	discount := defaultDiscountBps
	if in.DiscountBps != nil {
		discount = *in.DiscountBps
	}
	commission := int64(defaultCommissionCents)
	if in.CommissionCents != nil {
		commission = *in.CommissionCents
	}
	if discount < 0 || discount > maxDiscountBps {
		return repository.Code{}, apperr.Validation("discount must be between 0 and 5000 basis points")
	}
	if commission < 0 {
		return repository.Code{}, apperr.Validation("commission cannot be negative")
	}

	code, err := s.repo.CreateCode(ctx, repository.Code{
		Code:            parsed.Code,
		Retailer:        parsed.Retailer.Code,
		StoreCode:       parsed.StoreCode,
		StaffName:       parsed.StaffName,
		DiscountBps:     discount,
		CommissionCents: commission,
	})
	if err != nil {
		return repository.Code{}, err
	}
	s.log.Info("referral code created", "code", code.Code, "discountBps", discount, "commissionCents", commission)
	return code, nil
}

// ListCodes returns codes, optionally for one retailer.
func (s *Service) ListCodes(ctx context.Context, retailer string) ([]repository.Code, error) {
	retailer = strings.ToUpper(strings.TrimSpace(retailer))
	if retailer != "" {
		if _, ok := parser.LookupRetailer(retailer); !ok {
			return nil, apperr.Validation("unknown retailer")
		}
	}
	return s.repo.ListCodes(ctx, retailer)
}

// SetActive enables or disables a code.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) (repository.Code, error) {
	return s.repo.SetCodeActive(ctx, id, active)
}

// VerifyInvoiceInput is a customer's invoice submission.
type VerifyInvoiceInput struct {
	InvoiceNumber string
	PurchaseDate  time.Time
	Email         string
	FirstName     string
	LastName      string
	Phone         string
	ImageKey      string
}

// VerifyInvoice records a retailer invoice for a customer. Resubmitting the
// same invoice for the same customer returns the stored invoice with
// created=false; another customer gets a Conflict.
func (s *Service) VerifyInvoice(ctx context.Context, in VerifyInvoiceInput) (repository.Invoice, bool, error) {
	detected, ok := parser.DetectRetailerInvoice(in.InvoiceNumber)
	if !ok {
		return repository.Invoice{}, false, apperr.Validation("invoice number not recognised for any partner retailer")
	}
	if err := parser.ValidatePurchaseDate(in.PurchaseDate, s.now()); err != nil {
		return repository.Invoice{}, false, err
	}
	email := sanitize.Email(in.Email)
	if email == "" {
		return repository.Invoice{}, false, apperr.Validation("email is required")
	}

	existing, err := s.repo.GetInvoiceByNumber(ctx, detected.Number)
	switch {
	case err == nil:
		return s.existingInvoice(ctx, existing, email)
	case !apperr.Is(err, apperr.KindNotFound):
		return repository.Invoice{}, false, err
	}

	imageKey, err := s.checkImage(ctx, in.ImageKey)
	if err != nil {
		return repository.Invoice{}, false, err
	}

	customerID, err := s.customers.UpsertInvoiceCustomer(ctx, CustomerInput{
		Email:     email,
		FirstName: sanitize.Text(in.FirstName),
		LastName:  sanitize.Text(in.LastName),
		Phone:     phone.NormalizeE164(in.Phone),
	})
	if err != nil {
		return repository.Invoice{}, false, err
	}

	var store *string
	if detected.StoreCode != "" {
		store = &detected.StoreCode
	}
	invoice, err := s.repo.CreateInvoice(ctx, repository.Invoice{
		InvoiceNumber: detected.Number,
		RawInput:      sanitize.Text(in.InvoiceNumber),
		Retailer:      detected.Retailer.Code,
		StoreCode:     store,
		CustomerID:    customerID,
		PurchaseDate:  in.PurchaseDate,
		ImageKey:      imageKey,
		Status:        repository.InvoiceVerified,
	})
	if errors.Is(err, repository.ErrInvoiceTaken) {
		return repository.Invoice{}, false, apperr.Conflict("invoice has already been used")
	}
	if err != nil {
		return repository.Invoice{}, false, err
	}

	s.eventBus.Publish(ctx, events.InvoiceVerified{
		BaseEvent:     events.NewBaseEvent(),
		InvoiceID:     invoice.ID,
		InvoiceNumber: invoice.InvoiceNumber,
		Retailer:      invoice.Retailer,
		CustomerID:    customerID,
		CustomerEmail: email,
	})
	return invoice, true, nil
}

func (s *Service) existingInvoice(ctx context.Context, existing repository.Invoice, email string) (repository.Invoice, bool, error) {
	customerID, err := s.customers.CustomerIDByEmail(ctx, email)
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return repository.Invoice{}, false, err
	}
	if err != nil || customerID != existing.CustomerID {
		return repository.Invoice{}, false, apperr.Conflict("invoice has already been used")
	}
	return existing, false, nil
}

func (s *Service) checkImage(ctx context.Context, key string) (*string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	if s.images == nil {
		return nil, apperr.Validation("invoice image uploads are not enabled")
	}
	ok, err := s.images.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Validation("uploaded invoice image not found")
	}
	return &key, nil
}

// UploadURL returns a presigned URL for an invoice image.
func (s *Service) UploadURL(ctx context.Context, fileName, contentType string, sizeBytes int64) (storage.PresignedURL, error) {
	if s.images == nil {
		return storage.PresignedURL{}, apperr.BadRequest("invoice image uploads are not enabled")
	}
	return s.images.PresignUpload(ctx, fileName, contentType, sizeBytes)
}

// StoreView is store analytics with the retailer's display name.
type StoreView struct {
	repository.StoreStats
	RetailerName string
}

// StoreAnalytics reports referral performance per store.
func (s *Service) StoreAnalytics(ctx context.Context, retailer string) ([]StoreView, error) {
	retailer = strings.ToUpper(strings.TrimSpace(retailer))
	if retailer != "" {
		if _, ok := parser.LookupRetailer(retailer); !ok {
			return nil, apperr.Validation("unknown retailer")
		}
	}
	stats, err := s.repo.StoreStats(ctx, retailer)
	if err != nil {
		return nil, err
	}
	out := make([]StoreView, 0, len(stats))
	for _, st := range stats {
		r, _ := parser.LookupRetailer(st.Retailer)
		out = append(out, StoreView{StoreStats: st, RetailerName: r.Name})
	}
	return out, nil
}

// SettleUsage marks a booking's pending referral usage earned or void.
func (s *Service) SettleUsage(ctx context.Context, bookingID uuid.UUID, status string) error {
	moved, err := s.repo.SettleUsage(ctx, bookingID, status)
	if err != nil {
		return err
	}
	if moved {
		s.log.Info("referral usage settled", "bookingId", bookingID, "status", status)
	}
	return nil
}
