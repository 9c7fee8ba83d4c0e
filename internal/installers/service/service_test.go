package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"tradesbook/internal/events"
	"tradesbook/internal/fraud/policy"
	"tradesbook/internal/installers/repository"
	"tradesbook/platform/apperr"
	"tradesbook/platform/logger"

	"github.com/google/uuid"
)

type fakeBooking struct {
	lead     repository.Lead
	status   string
	factors  map[string]int
	referral *uuid.UUID
}

type fakeRepo struct {
	installers  map[uuid.UUID]repository.Installer
	wallets     map[uuid.UUID]int64
	ledger      []repository.Transaction
	bookings    map[uuid.UUID]*fakeBooking
	assignments map[uuid.UUID]repository.Assignment
	refunds     map[uuid.UUID]repository.RefundRequest
	approveErr  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		installers:  make(map[uuid.UUID]repository.Installer),
		wallets:     make(map[uuid.UUID]int64),
		bookings:    make(map[uuid.UUID]*fakeBooking),
		assignments: make(map[uuid.UUID]repository.Assignment),
		refunds:     make(map[uuid.UUID]repository.RefundRequest),
	}
}

func (f *fakeRepo) UpsertProfile(ctx context.Context, in repository.Installer) (repository.Installer, error) {
	for id, existing := range f.installers {
		if existing.UserID == in.UserID {
			existing.BusinessName, existing.Email, existing.Phone, existing.Counties = in.BusinessName, in.Email, in.Phone, in.Counties
			f.installers[id] = existing
			return existing, nil
		}
	}
	in.ID = uuid.New()
	in.FeeStructure = FeePayPerLead
	in.IsActive = true
	f.installers[in.ID] = in
	f.wallets[in.ID] = 0
	return in, nil
}

func (f *fakeRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (repository.Installer, error) {
	for _, i := range f.installers {
		if i.UserID == userID {
			return i, nil
		}
	}
	return repository.Installer{}, apperr.NotFound("installer not found")
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (repository.Installer, error) {
	i, ok := f.installers[id]
	if !ok {
		return repository.Installer{}, apperr.NotFound("installer not found")
	}
	return i, nil
}

func (f *fakeRepo) List(ctx context.Context, approved *bool) ([]repository.Installer, error) {
	var out []repository.Installer
	for _, i := range f.installers {
		if approved == nil || i.IsApproved == *approved {
			out = append(out, i)
		}
	}
	return out, nil
}

func (f *fakeRepo) AdminUpdate(ctx context.Context, id uuid.UUID, in repository.AdminUpdate) (repository.Installer, error) {
	i, ok := f.installers[id]
	if !ok {
		return repository.Installer{}, apperr.NotFound("installer not found")
	}
	if in.IsApproved != nil {
		i.IsApproved = *in.IsApproved
	}
	if in.IsActive != nil {
		i.IsActive = *in.IsActive
	}
	if in.FeeStructure != nil {
		i.FeeStructure = *in.FeeStructure
	}
	f.installers[id] = i
	return i, nil
}

func (f *fakeRepo) GetWallet(ctx context.Context, installerID uuid.UUID) (repository.Wallet, error) {
	balance, ok := f.wallets[installerID]
	if !ok {
		return repository.Wallet{}, apperr.NotFound("wallet not found")
	}
	return repository.Wallet{InstallerID: installerID, BalanceCents: balance}, nil
}

func (f *fakeRepo) ListTransactions(ctx context.Context, installerID uuid.UUID, limit int) ([]repository.Transaction, error) {
	var out []repository.Transaction
	for _, t := range f.ledger {
		if t.InstallerID == installerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRepo) Credit(ctx context.Context, in repository.Credit) (repository.Transaction, error) {
	balance := f.wallets[in.InstallerID] + in.AmountCents
	if balance < 0 {
		return repository.Transaction{}, apperr.InsufficientFunds("insufficient wallet balance")
	}
	f.wallets[in.InstallerID] = balance
	t := repository.Transaction{
		ID:                uuid.New(),
		InstallerID:       in.InstallerID,
		Type:              in.Type,
		AmountCents:       in.AmountCents,
		BalanceAfterCents: balance,
		Reference:         in.Reference,
		Description:       in.Description,
	}
	f.ledger = append(f.ledger, t)
	return t, nil
}

func (f *fakeRepo) ListLeads(ctx context.Context, counties []string, limit int) ([]repository.Lead, error) {
	var out []repository.Lead
	for _, b := range f.bookings {
		if b.status != "open" || b.lead.RiskLevel == "critical" {
			continue
		}
		for _, c := range counties {
			if c == b.lead.County {
				out = append(out, b.lead)
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) Purchase(ctx context.Context, installerID, bookingID uuid.UUID, charge repository.ChargeFunc) (repository.PurchaseResult, error) {
	b, ok := f.bookings[bookingID]
	if !ok {
		return repository.PurchaseResult{}, apperr.NotFound("lead not found")
	}
	if b.status != "open" {
		return repository.PurchaseResult{}, apperr.Conflict("lead is no longer available")
	}
	if b.lead.RiskLevel == "critical" {
		return repository.PurchaseResult{}, apperr.Forbidden("lead is not available for purchase")
	}
	target := repository.PurchaseTarget{
		BookingID:    bookingID,
		BookingCode:  b.lead.BookingCode,
		Status:       b.status,
		RiskLevel:    b.lead.RiskLevel,
		LeadFeeCents: b.lead.LeadFeeCents,
		ContactName:  b.lead.ContactName,
		ContactEmail: b.lead.ContactEmail,
	}
	charged, err := charge(target)
	if err != nil {
		return repository.PurchaseResult{}, err
	}
	if f.wallets[installerID] < charged {
		return repository.PurchaseResult{}, apperr.InsufficientFunds("insufficient wallet balance")
	}
	f.wallets[installerID] -= charged
	a := repository.Assignment{
		ID:                  uuid.New(),
		BookingID:           bookingID,
		InstallerID:         installerID,
		LeadFeeCents:        b.lead.LeadFeeCents,
		ChargedCents:        charged,
		RiskLevelAtPurchase: b.lead.RiskLevel,
		Status:              repository.AssignmentActive,
		PurchasedAt:         time.Now(),
	}
	f.assignments[a.ID] = a
	b.status = "assigned"
	return repository.PurchaseResult{Assignment: a, Target: target, BalanceAfterCents: f.wallets[installerID]}, nil
}

func (f *fakeRepo) job(a repository.Assignment) repository.Job {
	b := f.bookings[a.BookingID]
	return repository.Job{
		Assignment:     a,
		BookingCode:    b.lead.BookingCode,
		BookingStatus:  b.status,
		ContactName:    b.lead.ContactName,
		ContactEmail:   b.lead.ContactEmail,
		ReferralCodeID: b.referral,
		FraudFactors:   b.factors,
	}
}

func (f *fakeRepo) ListJobs(ctx context.Context, installerID uuid.UUID) ([]repository.Job, error) {
	var out []repository.Job
	for _, a := range f.assignments {
		if a.InstallerID == installerID {
			out = append(out, f.job(a))
		}
	}
	return out, nil
}

func (f *fakeRepo) GetJob(ctx context.Context, installerID, assignmentID uuid.UUID) (repository.Job, error) {
	a, ok := f.assignments[assignmentID]
	if !ok || a.InstallerID != installerID {
		return repository.Job{}, apperr.NotFound("job not found")
	}
	return f.job(a), nil
}

func (f *fakeRepo) CompleteJob(ctx context.Context, installerID, assignmentID uuid.UUID) (repository.Job, error) {
	a, ok := f.assignments[assignmentID]
	if !ok || a.InstallerID != installerID {
		return repository.Job{}, apperr.NotFound("job not found")
	}
	if a.Status != repository.AssignmentActive || f.bookings[a.BookingID].status != "assigned" {
		return repository.Job{}, apperr.Conflict("job is not active")
	}
	a.Status = repository.AssignmentCompleted
	f.assignments[a.ID] = a
	f.bookings[a.BookingID].status = "completed"
	return f.job(a), nil
}

func (f *fakeRepo) CreateRefundRequest(ctx context.Context, req repository.RefundRequest) (repository.RefundRequest, error) {
	for _, existing := range f.refunds {
		if existing.AssignmentID == req.AssignmentID && existing.Status != repository.RefundRejected {
			return repository.RefundRequest{}, apperr.Conflict("a refund request for this job is already open")
		}
	}
	req.ID = uuid.New()
	req.CreatedAt = time.Now()
	f.refunds[req.ID] = req
	return req, nil
}

func (f *fakeRepo) GetRefundRequest(ctx context.Context, id uuid.UUID) (repository.RefundView, error) {
	req, ok := f.refunds[id]
	if !ok {
		return repository.RefundView{}, apperr.NotFound("refund request not found")
	}
	a := f.assignments[req.AssignmentID]
	return repository.RefundView{
		RefundRequest: req,
		BookingID:     a.BookingID,
		BookingCode:   f.bookings[a.BookingID].lead.BookingCode,
		ChargedCents:  a.ChargedCents,
	}, nil
}

func (f *fakeRepo) ListRefundRequests(ctx context.Context, filter repository.RefundFilter) ([]repository.RefundView, error) {
	var out []repository.RefundView
	for id, req := range f.refunds {
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if filter.InstallerID != nil && req.InstallerID != *filter.InstallerID {
			continue
		}
		v, _ := f.GetRefundRequest(ctx, id)
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeRepo) ApproveRefund(ctx context.Context, d repository.RefundDecision) (repository.RefundResult, error) {
	req, ok := f.refunds[d.RequestID]
	if !ok || req.Status != repository.RefundPending {
		return repository.RefundResult{}, apperr.Conflict("refund request is not pending")
	}
	a := f.assignments[req.AssignmentID]
	a.Status = repository.AssignmentRefunded
	f.assignments[a.ID] = a
	f.wallets[a.InstallerID] += a.ChargedCents
	b := f.bookings[a.BookingID]
	if b.status == "assigned" && d.BookingStatus != "" {
		b.status = d.BookingStatus
	}
	req.Status = repository.RefundApproved
	req.DecidedBy = d.DecidedBy
	req.DecisionNote = &d.Note
	f.refunds[req.ID] = req
	return repository.RefundResult{
		Request:           req,
		Assignment:        a,
		BookingCode:       b.lead.BookingCode,
		BookingStatus:     b.status,
		BalanceAfterCents: f.wallets[a.InstallerID],
	}, nil
}

func (f *fakeRepo) FileApprovedRefund(ctx context.Context, req repository.RefundRequest, d repository.RefundDecision) (repository.RefundResult, error) {
	if f.approveErr != nil {
		return repository.RefundResult{}, f.approveErr
	}
	req.Status = repository.RefundPending
	created, err := f.CreateRefundRequest(ctx, req)
	if err != nil {
		return repository.RefundResult{}, err
	}
	d.RequestID = created.ID
	return f.ApproveRefund(ctx, d)
}

func (f *fakeRepo) RejectRefund(ctx context.Context, id uuid.UUID, decidedBy *uuid.UUID, note string) (repository.RefundRequest, error) {
	req, ok := f.refunds[id]
	if !ok || req.Status != repository.RefundPending {
		return repository.RefundRequest{}, apperr.Conflict("refund request is not pending")
	}
	req.Status = repository.RefundRejected
	req.DecidedBy = decidedBy
	req.DecisionNote = &note
	f.refunds[id] = req
	return req, nil
}

// fakePricer charges the fee minus 10% on premium and returns a fixed band.
type fakePricer struct{}

func (fakePricer) ChargeFor(ctx context.Context, feeCents int64, structure string) (int64, error) {
	if structure == FeePremium {
		return feeCents - feeCents/10, nil
	}
	return feeCents, nil
}

func (fakePricer) FeeBand(ctx context.Context, cents int64) (string, error) { return "standard", nil }

type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *recordingBus) Publish(ctx context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(eventName string, handler events.Handler) {}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.published))
	for _, e := range b.published {
		out = append(out, e.EventName())
	}
	return out
}

type testDeps struct {
	svc  *Service
	repo *fakeRepo
	bus  *recordingBus
	user uuid.UUID
	id   uuid.UUID
}

// newTestService registers an approved installer in Dublin with €100 in the wallet.
func newTestService(t *testing.T) testDeps {
	t.Helper()
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := New(repo, fakePricer{}, bus, Options{RefundWindow: 14 * 24 * time.Hour}, logger.Discard())

	user := uuid.New()
	installer, err := svc.UpsertProfile(context.Background(), user, ProfileInput{
		BusinessName: "Wall Mounts Ltd",
		Email:        "Jobs@WallMounts.ie",
		Phone:        "087 123 4567",
		Counties:     []string{"Dublin", " dublin ", "Wicklow"},
	})
	if err != nil {
		t.Fatalf("upsert profile: %v", err)
	}
	approved := true
	if _, err := svc.UpdateInstaller(context.Background(), installer.ID, repository.AdminUpdate{IsApproved: &approved}); err != nil {
		t.Fatalf("approve installer: %v", err)
	}
	repo.wallets[installer.ID] = 10000
	return testDeps{svc: svc, repo: repo, bus: bus, user: user, id: installer.ID}
}

func (d testDeps) addLead(risk string, feeCents int64) uuid.UUID {
	id := uuid.New()
	d.repo.bookings[id] = &fakeBooking{
		lead: repository.Lead{
			BookingID:    id,
			BookingCode:  "TB-" + id.String()[:6],
			ContactName:  "Aoife Byrne",
			ContactEmail: "aoife@example.ie",
			ContactPhone: "+353871234567",
			County:       "Dublin",
			RiskLevel:    risk,
			LeadFeeCents: feeCents,
		},
		status: "open",
	}
	return id
}

func TestUpsertProfileNormalises(t *testing.T) {
	d := newTestService(t)
	installer, err := d.svc.GetProfile(context.Background(), d.user)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if installer.Email != "jobs@wallmounts.ie" {
		t.Fatalf("expected lowercased email, got %q", installer.Email)
	}
	if installer.Phone != "+353871234567" {
		t.Fatalf("expected E.164 phone, got %q", installer.Phone)
	}
	if len(installer.Counties) != 2 {
		t.Fatalf("expected duplicate county removed, got %v", installer.Counties)
	}
}

func TestUpsertProfileRequiresCounty(t *testing.T) {
	d := newTestService(t)
	_, err := d.svc.UpsertProfile(context.Background(), uuid.New(), ProfileInput{
		BusinessName: "No Counties",
		Email:        "a@b.ie",
		Phone:        "0871234567",
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateInstallerRejectsUnknownFeeStructure(t *testing.T) {
	d := newTestService(t)
	bogus := "freemium"
	_, err := d.svc.UpdateInstaller(context.Background(), d.id, repository.AdminUpdate{FeeStructure: &bogus})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAdminCredit(t *testing.T) {
	cases := []struct {
		name     string
		in       CreditInput
		wantErr  apperr.Kind
		wantBal  int64
		wantType string
	}{
		{"euro string", CreditInput{Amount: "49.99"}, apperr.KindUnknown, 14999, repository.TxTopUp},
		{"cents", CreditInput{AmountCents: 2500}, apperr.KindUnknown, 12500, repository.TxTopUp},
		{"negative top-up", CreditInput{AmountCents: -100}, apperr.KindValidation, 0, ""},
		{"bad euro string", CreditInput{Amount: "ten"}, apperr.KindValidation, 0, ""},
		{"adjustment down", CreditInput{Type: repository.TxAdjustment, AmountCents: -500}, apperr.KindUnknown, 9500, repository.TxAdjustment},
		{"adjustment below zero", CreditInput{Type: repository.TxAdjustment, AmountCents: -20000}, apperr.KindInsufficientFunds, 0, ""},
		{"refund type not allowed", CreditInput{Type: repository.TxRefund, AmountCents: 100}, apperr.KindValidation, 0, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := newTestService(t)
			tx, err := d.svc.AdminCredit(context.Background(), d.id, tc.in)
			if tc.wantErr != apperr.KindUnknown {
				if !apperr.Is(err, tc.wantErr) {
					t.Fatalf("expected error kind %d, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tx.BalanceAfterCents != tc.wantBal || tx.Type != tc.wantType {
				t.Fatalf("expected %s balance %d, got %s %d", tc.wantType, tc.wantBal, tx.Type, tx.BalanceAfterCents)
			}
		})
	}
}

func TestListLeadsMasksContactDetails(t *testing.T) {
	d := newTestService(t)
	d.addLead("low", 1500)
	d.addLead("critical", 1500)

	leads, err := d.svc.ListLeads(context.Background(), d.user)
	if err != nil {
		t.Fatalf("list leads: %v", err)
	}
	if len(leads) != 1 {
		t.Fatalf("expected critical lead hidden, got %d leads", len(leads))
	}
	lead := leads[0]
	if lead.ContactName != "Aoife B." {
		t.Fatalf("expected masked name, got %q", lead.ContactName)
	}
	if lead.ContactEmail != "a***@example.ie" {
		t.Fatalf("expected masked email, got %q", lead.ContactEmail)
	}
	if lead.ContactPhone != "**********567" {
		t.Fatalf("expected masked phone, got %q", lead.ContactPhone)
	}
	if lead.ChargeCents != 1500 || lead.FeeBand != "standard" {
		t.Fatalf("unexpected price %d %q", lead.ChargeCents, lead.FeeBand)
	}
}

func TestListLeadsRequiresApproval(t *testing.T) {
	d := newTestService(t)
	approved := false
	if _, err := d.svc.UpdateInstaller(context.Background(), d.id, repository.AdminUpdate{IsApproved: &approved}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := d.svc.ListLeads(context.Background(), d.user); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestPurchaseLeadDebitsWalletAndPublishes(t *testing.T) {
	d := newTestService(t)
	premium := FeePremium
	if _, err := d.svc.UpdateInstaller(context.Background(), d.id, repository.AdminUpdate{FeeStructure: &premium}); err != nil {
		t.Fatalf("update: %v", err)
	}
	bookingID := d.addLead("medium", 2000)

	result, err := d.svc.PurchaseLead(context.Background(), d.user, bookingID)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if result.Assignment.ChargedCents != 1800 {
		t.Fatalf("expected premium charge 1800, got %d", result.Assignment.ChargedCents)
	}
	if result.BalanceAfterCents != 8200 {
		t.Fatalf("expected balance 8200, got %d", result.BalanceAfterCents)
	}
	names := d.bus.names()
	if len(names) != 1 || names[0] != (events.LeadPurchased{}).EventName() {
		t.Fatalf("expected LeadPurchased, got %v", names)
	}

	if _, err := d.svc.PurchaseLead(context.Background(), d.user, bookingID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict on second purchase, got %v", err)
	}
}

func TestPurchaseLeadInsufficientFunds(t *testing.T) {
	d := newTestService(t)
	d.repo.wallets[d.id] = 500
	bookingID := d.addLead("low", 1500)

	_, err := d.svc.PurchaseLead(context.Background(), d.user, bookingID)
	if !apperr.Is(err, apperr.KindInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if d.repo.bookings[bookingID].status != "open" {
		t.Fatal("booking must stay open after a failed purchase")
	}
	if len(d.bus.names()) != 0 {
		t.Fatal("no event expected for a failed purchase")
	}
}

func TestPurchaseLeadRejectsDeactivatedInstaller(t *testing.T) {
	d := newTestService(t)
	inactive := false
	if _, err := d.svc.UpdateInstaller(context.Background(), d.id, repository.AdminUpdate{IsActive: &inactive}); err != nil {
		t.Fatalf("update: %v", err)
	}
	_, err := d.svc.PurchaseLead(context.Background(), d.user, d.addLead("low", 1500))
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCompleteJobPublishesReferral(t *testing.T) {
	d := newTestService(t)
	bookingID := d.addLead("low", 1500)
	referral := uuid.New()
	d.repo.bookings[bookingID].referral = &referral

	result, err := d.svc.PurchaseLead(context.Background(), d.user, bookingID)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if _, err := d.svc.CompleteJob(context.Background(), d.user, result.Assignment.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	last := d.bus.published[len(d.bus.published)-1]
	completed, ok := last.(events.BookingCompleted)
	if !ok {
		t.Fatalf("expected BookingCompleted, got %T", last)
	}
	if completed.ReferralCodeID == nil || *completed.ReferralCodeID != referral {
		t.Fatal("expected referral code carried on the event")
	}

	if _, err := d.svc.CompleteJob(context.Background(), d.user, result.Assignment.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict completing twice, got %v", err)
	}
}

func TestRequestRefund(t *testing.T) {
	cases := []struct {
		name          string
		risk          string
		reason        policy.RefundReason
		bookingStatus string
		factors       map[string]int
		wantStatus    string
		wantBalance   int64
		wantBooking   string
		wantEvents    []string
	}{
		{
			name:          "unreachable medium risk is approved and cancels",
			risk:          "medium",
			reason:        policy.RefundUnreachable,
			bookingStatus: "assigned",
			wantStatus:    repository.RefundApproved,
			wantBalance:   10000,
			wantBooking:   "cancelled",
			wantEvents:    []string{(events.LeadRefunded{}).EventName()},
		},
		{
			name:          "duplicate with signals is approved and flags",
			risk:          "low",
			reason:        policy.RefundDuplicate,
			bookingStatus: "assigned",
			factors:       map[string]int{policy.FactorDuplicateEmail: -15},
			wantStatus:    repository.RefundApproved,
			wantBalance:   10000,
			wantBooking:   "flagged",
			wantEvents:    []string{(events.LeadRefunded{}).EventName(), (events.BookingFlagged{}).EventName()},
		},
		{
			name:          "duplicate without signals is rejected",
			risk:          "low",
			reason:        policy.RefundDuplicate,
			bookingStatus: "assigned",
			wantStatus:    repository.RefundRejected,
			wantBalance:   8500,
			wantBooking:   "assigned",
			wantEvents:    []string{(events.LeadRefunded{}).EventName()},
		},
		{
			name:          "fraud claim on low risk waits for review",
			risk:          "low",
			reason:        policy.RefundFraudulent,
			bookingStatus: "assigned",
			wantStatus:    repository.RefundPending,
			wantBalance:   8500,
			wantBooking:   "assigned",
		},
		{
			name:          "customer cancellation recorded is approved",
			risk:          "low",
			reason:        policy.RefundCustomerCancelled,
			bookingStatus: "cancelled",
			wantStatus:    repository.RefundApproved,
			wantBalance:   10000,
			wantBooking:   "cancelled",
			wantEvents:    []string{(events.LeadRefunded{}).EventName()},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := newTestService(t)
			bookingID := d.addLead(tc.risk, 1500)
			d.repo.bookings[bookingID].factors = tc.factors
			purchase, err := d.svc.PurchaseLead(context.Background(), d.user, bookingID)
			if err != nil {
				t.Fatalf("purchase: %v", err)
			}
			d.repo.bookings[bookingID].status = tc.bookingStatus
			d.bus.published = nil

			out, err := d.svc.RequestRefund(context.Background(), d.user, purchase.Assignment.ID, RefundInput{Reason: string(tc.reason)})
			if err != nil {
				t.Fatalf("request refund: %v", err)
			}
			if out.Request.Status != tc.wantStatus {
				t.Fatalf("expected request %s, got %s (%s)", tc.wantStatus, out.Request.Status, out.Decision.Explanation)
			}
			if got := d.repo.wallets[d.id]; got != tc.wantBalance {
				t.Fatalf("expected balance %d, got %d", tc.wantBalance, got)
			}
			if got := d.repo.bookings[bookingID].status; got != tc.wantBooking {
				t.Fatalf("expected booking %s, got %s", tc.wantBooking, got)
			}
			names := d.bus.names()
			if len(names) != len(tc.wantEvents) {
				t.Fatalf("expected events %v, got %v", tc.wantEvents, names)
			}
			for i := range names {
				if names[i] != tc.wantEvents[i] {
					t.Fatalf("expected events %v, got %v", tc.wantEvents, names)
				}
			}
		})
	}
}

func TestRequestRefundOutsideWindow(t *testing.T) {
	d := newTestService(t)
	bookingID := d.addLead("high", 1500)
	purchase, err := d.svc.PurchaseLead(context.Background(), d.user, bookingID)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	d.svc.now = func() time.Time { return time.Now().Add(15 * 24 * time.Hour) }

	out, err := d.svc.RequestRefund(context.Background(), d.user, purchase.Assignment.ID, RefundInput{Reason: string(policy.RefundUnreachable)})
	if err != nil {
		t.Fatalf("request refund: %v", err)
	}
	if out.Request.Status != repository.RefundRejected {
		t.Fatalf("expected rejection after window, got %s", out.Request.Status)
	}
}

func TestRequestRefundUnknownReason(t *testing.T) {
	d := newTestService(t)
	_, err := d.svc.RequestRefund(context.Background(), d.user, uuid.New(), RefundInput{Reason: "changed_mind"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRequestRefundApprovalFailureLeavesNoRequest(t *testing.T) {
	d := newTestService(t)
	bookingID := d.addLead("medium", 1500)
	purchase, err := d.svc.PurchaseLead(context.Background(), d.user, bookingID)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	d.bus.published = nil
	d.repo.approveErr = apperr.Internal("wallet credit failed")

	_, err = d.svc.RequestRefund(context.Background(), d.user, purchase.Assignment.ID, RefundInput{Reason: string(policy.RefundUnreachable)})
	if err == nil {
		t.Fatal("expected approval failure to surface")
	}
	if len(d.repo.refunds) != 0 {
		t.Fatalf("expected no refund request left behind, got %d", len(d.repo.refunds))
	}
	if d.repo.wallets[d.id] != 8500 {
		t.Fatalf("expected wallet untouched, got %d", d.repo.wallets[d.id])
	}
	if len(d.bus.names()) != 0 {
		t.Fatalf("expected no events, got %v", d.bus.names())
	}

	d.repo.approveErr = nil
	out, err := d.svc.RequestRefund(context.Background(), d.user, purchase.Assignment.ID, RefundInput{Reason: string(policy.RefundUnreachable)})
	if err != nil {
		t.Fatalf("retry refund: %v", err)
	}
	if out.Request.Status != repository.RefundApproved {
		t.Fatalf("expected approved on retry, got %s", out.Request.Status)
	}
}

func TestDeactivatedInstallerLosesInstallerRoutes(t *testing.T) {
	d := newTestService(t)
	inactive := false
	if _, err := d.svc.UpdateInstaller(context.Background(), d.id, repository.AdminUpdate{IsActive: &inactive}); err != nil {
		t.Fatalf("update: %v", err)
	}
	ctx := context.Background()

	calls := map[string]func() error{
		"wallet": func() error {
			_, err := d.svc.GetWallet(ctx, d.user)
			return err
		},
		"jobs": func() error {
			_, err := d.svc.ListJobs(ctx, d.user)
			return err
		},
		"refunds": func() error {
			_, err := d.svc.ListMyRefunds(ctx, d.user)
			return err
		},
		"profile update": func() error {
			_, err := d.svc.UpsertProfile(ctx, d.user, ProfileInput{BusinessName: "Wall Mounts Ltd", Email: "jobs@wallmounts.ie", Phone: "0871234567", Counties: []string{"Dublin"}})
			return err
		},
	}
	for name, call := range calls {
		if err := call(); !apperr.Is(err, apperr.KindForbidden) {
			t.Fatalf("%s: expected forbidden, got %v", name, err)
		}
	}

	if _, err := d.svc.GetProfile(ctx, d.user); err != nil {
		t.Fatalf("deactivated installer should still read the profile: %v", err)
	}
}

func TestDecideRefund(t *testing.T) {
	for _, approve := range []bool{true, false} {
		d := newTestService(t)
		bookingID := d.addLead("low", 1500)
		purchase, err := d.svc.PurchaseLead(context.Background(), d.user, bookingID)
		if err != nil {
			t.Fatalf("purchase: %v", err)
		}
		out, err := d.svc.RequestRefund(context.Background(), d.user, purchase.Assignment.ID, RefundInput{Reason: string(policy.RefundFraudulent)})
		if err != nil {
			t.Fatalf("request refund: %v", err)
		}
		if out.Request.Status != repository.RefundPending {
			t.Fatalf("expected pending request, got %s", out.Request.Status)
		}

		pending, err := d.svc.ListRefunds(context.Background(), repository.RefundPending)
		if err != nil || len(pending) != 1 {
			t.Fatalf("expected one pending request, got %d (%v)", len(pending), err)
		}

		req, err := d.svc.DecideRefund(context.Background(), out.Request.ID, approve, uuid.New(), "checked with customer")
		if err != nil {
			t.Fatalf("decide: %v", err)
		}
		wantStatus, wantBalance, wantBooking := repository.RefundRejected, int64(8500), "assigned"
		if approve {
			wantStatus, wantBalance, wantBooking = repository.RefundApproved, 10000, "flagged"
		}
		if req.Status != wantStatus {
			t.Fatalf("expected %s, got %s", wantStatus, req.Status)
		}
		if d.repo.wallets[d.id] != wantBalance {
			t.Fatalf("expected balance %d, got %d", wantBalance, d.repo.wallets[d.id])
		}
		if d.repo.bookings[bookingID].status != wantBooking {
			t.Fatalf("expected booking %s, got %s", wantBooking, d.repo.bookings[bookingID].status)
		}

		if _, err := d.svc.DecideRefund(context.Background(), out.Request.ID, approve, uuid.New(), ""); !apperr.Is(err, apperr.KindConflict) {
			t.Fatalf("expected conflict deciding twice, got %v", err)
		}
	}
}

func TestMaskHelpers(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Seán Ó Briain", "Seán B."},
		{"Cher", "Cher"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := MaskName(tc.in); got != tc.want {
			t.Fatalf("MaskName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
	if got := MaskEmail("bob@example.com"); got != "b***@example.com" {
		t.Fatalf("unexpected masked email %q", got)
	}
	if got := MaskEmail("nonsense"); got != "***" {
		t.Fatalf("unexpected masked email %q", got)
	}
}
