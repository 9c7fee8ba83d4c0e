package transport

import "time"

// ValidateCodeQuery checks a customer-entered referral code.
type ValidateCodeQuery struct {
	Code string `form:"code" validate:"required,max=40"`
}

// ValidateCodeResponse describes an active code to the customer.
type ValidateCodeResponse struct {
	Code         string `json:"code"`
	Retailer     string `json:"retailer"`
	RetailerName string `json:"retailerName"`
	DiscountBps  int    `json:"discountBps"`
}

// CreateCodeRequest registers a staff code.
type CreateCodeRequest struct {
	Code            string `json:"code" validate:"required,max=40"`
	DiscountBps     *int   `json:"discountBps" validate:"omitempty,min=0,max=5000"`
	CommissionCents *int64 `json:"commissionCents" validate:"omitempty,min=0"`
}

// SetActiveRequest toggles a code.
type SetActiveRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// RetailerQuery optionally narrows admin listings to one retailer.
type RetailerQuery struct {
	Retailer string `form:"retailer" validate:"omitempty,max=3"`
}

// CodeResponse is a referral code for admins.
type CodeResponse struct {
	ID              string    `json:"id"`
	Code            string    `json:"code"`
	Retailer        string    `json:"retailer"`
	StoreCode       string    `json:"storeCode"`
	StaffName       string    `json:"staffName"`
	DiscountBps     int       `json:"discountBps"`
	CommissionCents int64     `json:"commissionCents"`
	IsActive        bool      `json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
}

// CodeListResponse wraps the admin code list.
type CodeListResponse struct {
	Items []CodeResponse `json:"items"`
}

// VerifyInvoiceRequest is a customer's retailer invoice.
type VerifyInvoiceRequest struct {
	InvoiceNumber string `json:"invoiceNumber" validate:"required,max=60"`
	PurchaseDate  string `json:"purchaseDate" validate:"required,datetime=2006-01-02"`
	Email         string `json:"email" validate:"required,email,max=254"`
	FirstName     string `json:"firstName" validate:"required,max=100"`
	LastName      string `json:"lastName" validate:"max=100"`
	Phone         string `json:"phone" validate:"omitempty,max=32"`
	ImageKey      string `json:"imageKey" validate:"omitempty,max=200"`
}

// InvoiceResponse confirms a verified invoice.
type InvoiceResponse struct {
	ID            string  `json:"id"`
	InvoiceNumber string  `json:"invoiceNumber"`
	Retailer      string  `json:"retailer"`
	RetailerName  string  `json:"retailerName"`
	StoreCode     *string `json:"storeCode,omitempty"`
	PurchaseDate  string  `json:"purchaseDate"`
	Status        string  `json:"status"`
}

// UploadURLRequest asks for an invoice image upload URL.
type UploadURLRequest struct {
	FileName    string `json:"fileName" validate:"required,max=200"`
	ContentType string `json:"contentType" validate:"required,max=100"`
	SizeBytes   int64  `json:"sizeBytes" validate:"required,min=1"`
}

// StoreStatsResponse is one store's referral performance.
type StoreStatsResponse struct {
	Retailer               string `json:"retailer"`
	RetailerName           string `json:"retailerName"`
	StoreCode              string `json:"storeCode"`
	Bookings               int64  `json:"bookings"`
	Completed              int64  `json:"completed"`
	EarnedCommissionCents  int64  `json:"earnedCommissionCents"`
	PendingCommissionCents int64  `json:"pendingCommissionCents"`
	VerifiedInvoices       int64  `json:"verifiedInvoices"`
}

// StoreStatsListResponse wraps store analytics.
type StoreStatsListResponse struct {
	Items []StoreStatsResponse `json:"items"`
}
