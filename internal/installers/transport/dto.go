package transport

import "time"

// UpsertProfileRequest is the installer's own profile.
type UpsertProfileRequest struct {
	BusinessName string   `json:"businessName" validate:"required,min=2,max=200"`
	Email        string   `json:"email" validate:"required,email,max=254"`
	Phone        string   `json:"phone" validate:"required,min=6,max=32"`
	Counties     []string `json:"counties" validate:"required,min=1,max=26,dive,required,max=50"`
}

// AdminUpdateInstallerRequest changes admin-controlled installer fields.
type AdminUpdateInstallerRequest struct {
	IsApproved   *bool   `json:"isApproved"`
	IsActive     *bool   `json:"isActive"`
	FeeStructure *string `json:"feeStructure" validate:"omitempty,oneof=pay_per_lead subscription premium"`
}

// ListInstallersQuery filters the admin installer list.
type ListInstallersQuery struct {
	Approved *bool `form:"approved"`
}

// WalletCreditRequest is an admin top-up or adjustment. Amount is a euro
// string; AmountCents is used when Amount is empty.
type WalletCreditRequest struct {
	Type        string `json:"type" validate:"omitempty,oneof=top_up adjustment"`
	Amount      string `json:"amount" validate:"omitempty,max=20"`
	AmountCents int64  `json:"amountCents"`
	Reference   string `json:"reference" validate:"max=100"`
	Description string `json:"description" validate:"max=200"`
}

// RefundRequestBody files a refund claim.
type RefundRequestBody struct {
	Reason  string `json:"reason" validate:"required,oneof=customer_cancelled fraudulent duplicate unreachable"`
	Details string `json:"details" validate:"max=2000"`
}

// ListRefundsQuery filters the admin refund queue.
type ListRefundsQuery struct {
	Status string `form:"status" validate:"omitempty,oneof=pending approved rejected"`
}

// RefundDecisionRequest resolves a refund under review.
type RefundDecisionRequest struct {
	Approve *bool  `json:"approve" validate:"required"`
	Note    string `json:"note" validate:"max=500"`
}

// InstallerResponse is an installer profile.
type InstallerResponse struct {
	ID           string    `json:"id"`
	BusinessName string    `json:"businessName"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Counties     []string  `json:"counties"`
	FeeStructure string    `json:"feeStructure"`
	IsApproved   bool      `json:"isApproved"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

// InstallerListResponse wraps the admin installer list.
type InstallerListResponse struct {
	Items []InstallerResponse `json:"items"`
}

// TransactionResponse is one ledger row.
type TransactionResponse struct {
	ID                string    `json:"id"`
	Type              string    `json:"type"`
	AmountCents       int64     `json:"amountCents"`
	BalanceAfterCents int64     `json:"balanceAfterCents"`
	BookingID         *string   `json:"bookingId,omitempty"`
	Reference         *string   `json:"reference,omitempty"`
	Description       string    `json:"description"`
	CreatedAt         time.Time `json:"createdAt"`
}

// WalletResponse is a balance with recent ledger rows.
type WalletResponse struct {
	BalanceCents int64                 `json:"balanceCents"`
	Transactions []TransactionResponse `json:"transactions"`
}

// LeadResponse is a marketplace lead with masked contact details.
type LeadResponse struct {
	BookingID     string   `json:"bookingId"`
	BookingCode   string   `json:"bookingCode"`
	ContactName   string   `json:"contactName"`
	ContactEmail  string   `json:"contactEmail"`
	ContactPhone  string   `json:"contactPhone"`
	County        string   `json:"county"`
	ServiceTier   string   `json:"serviceTier"`
	TVCount       int      `json:"tvCount"`
	TVSizeInches  int      `json:"tvSizeInches"`
	WallType      string   `json:"wallType"`
	AddOns        []string `json:"addOns"`
	PreferredDate string   `json:"preferredDate"`
	TimeSlot      string   `json:"timeSlot"`
	QualityScore  int      `json:"qualityScore"`
	RiskLevel     string   `json:"riskLevel"`
	LeadFeeCents  int64    `json:"leadFeeCents"`
	FeeBand       string   `json:"feeBand"`
	ChargeCents   int64    `json:"chargeCents"`
}

// LeadListResponse wraps the marketplace.
type LeadListResponse struct {
	Items []LeadResponse `json:"items"`
}

// PurchaseResponse confirms a purchase.
type PurchaseResponse struct {
	AssignmentID      string `json:"assignmentId"`
	BookingID         string `json:"bookingId"`
	BookingCode       string `json:"bookingCode"`
	ChargedCents      int64  `json:"chargedCents"`
	BalanceAfterCents int64  `json:"balanceAfterCents"`
}

// JobResponse is a purchased lead with full contact details.
type JobResponse struct {
	AssignmentID  string     `json:"assignmentId"`
	BookingID     string     `json:"bookingId"`
	BookingCode   string     `json:"bookingCode"`
	BookingStatus string     `json:"bookingStatus"`
	Status        string     `json:"status"`
	ContactName   string     `json:"contactName"`
	ContactEmail  string     `json:"contactEmail"`
	ContactPhone  string     `json:"contactPhone"`
	Address       string     `json:"address"`
	County        string     `json:"county"`
	Eircode       *string    `json:"eircode,omitempty"`
	ServiceTier   string     `json:"serviceTier"`
	TVCount       int        `json:"tvCount"`
	TVSizeInches  int        `json:"tvSizeInches"`
	WallType      string     `json:"wallType"`
	AddOns        []string   `json:"addOns"`
	PreferredDate string     `json:"preferredDate"`
	TimeSlot      string     `json:"timeSlot"`
	Notes         *string    `json:"notes,omitempty"`
	ChargedCents  int64      `json:"chargedCents"`
	PurchasedAt   time.Time  `json:"purchasedAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

// JobListResponse wraps the installer's jobs.
type JobListResponse struct {
	Items []JobResponse `json:"items"`
}

// RefundResponse is a refund request.
type RefundResponse struct {
	ID                string     `json:"id"`
	AssignmentID      string     `json:"assignmentId"`
	BookingCode       string     `json:"bookingCode,omitempty"`
	BusinessName      string     `json:"businessName,omitempty"`
	Reason            string     `json:"reason"`
	Details           *string    `json:"details,omitempty"`
	Status            string     `json:"status"`
	DecisionNote      *string    `json:"decisionNote,omitempty"`
	ChargedCents      int64      `json:"chargedCents,omitempty"`
	Explanation       string     `json:"explanation,omitempty"`
	BalanceAfterCents *int64     `json:"balanceAfterCents,omitempty"`
	DecidedAt         *time.Time `json:"decidedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// RefundListResponse wraps a refund listing.
type RefundListResponse struct {
	Items []RefundResponse `json:"items"`
}
