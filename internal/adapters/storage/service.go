// Package storage keeps retailer invoice images in S3-compatible object storage.
package storage

import (
	"context"
	"time"
)

// PresignedURL is a time-limited upload or download link.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// InvoiceStorage is what the referrals module needs from object storage.
type InvoiceStorage interface {
	// PresignUpload returns a PUT URL for a new invoice image under a unique key.
	PresignUpload(ctx context.Context, fileName, contentType string, sizeBytes int64) (PresignedURL, error)
	// Exists reports whether an uploaded object is present.
	Exists(ctx context.Context, fileKey string) (bool, error)
}

// Config defines the configuration interface for storage.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketRetailerInvoices() string
	IsMinIOEnabled() bool
}
