package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	// PresignedURLTTL is how long an upload URL stays valid.
	PresignedURLTTL = 15 * time.Minute

	invoiceFolder = "invoices"
)

// MinIOInvoiceStore implements InvoiceStorage on a single MinIO bucket.
type MinIOInvoiceStore struct {
	client      *minio.Client
	bucket      string
	maxFileSize int64
	now         func() time.Time
}

// NewMinIOInvoiceStore creates the store. It fails when MinIO is not configured.
func NewMinIOInvoiceStore(cfg Config) (*MinIOInvoiceStore, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOInvoiceStore{
		client:      client,
		bucket:      cfg.GetMinioBucketRetailerInvoices(),
		maxFileSize: cfg.GetMinIOMaxFileSize(),
		now:         time.Now,
	}, nil
}

// EnsureBucket creates the invoice bucket if it doesn't exist.
func (s *MinIOInvoiceStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// PresignUpload validates the file and returns a presigned PUT URL.
func (s *MinIOInvoiceStore) PresignUpload(ctx context.Context, fileName, contentType string, sizeBytes int64) (PresignedURL, error) {
	if err := ValidateContentType(contentType); err != nil {
		return PresignedURL{}, err
	}
	if err := ValidateFileSize(sizeBytes, s.maxFileSize); err != nil {
		return PresignedURL{}, err
	}

	key := InvoiceKey(s.now(), fileName)
	u, err := s.client.PresignedPutObject(ctx, s.bucket, key, PresignedURLTTL)
	if err != nil {
		return PresignedURL{}, fmt.Errorf("failed to generate presigned upload URL: %w", err)
	}
	return PresignedURL{URL: u.String(), FileKey: key, ExpiresAt: s.now().Add(PresignedURLTTL)}, nil
}

// Exists stats the object. A missing key is not an error.
func (s *MinIOInvoiceStore) Exists(ctx context.Context, fileKey string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, fileKey, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat object %s: %w", fileKey, err)
}

// InvoiceKey builds invoices/YYYY/MM/<uuid><ext>. The client's file name only
// contributes its extension.
func InvoiceKey(now time.Time, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	if len(ext) > 6 {
		ext = ""
	}
	return path.Join(invoiceFolder, now.UTC().Format("2006/01"), uuid.NewString()+ext)
}

var _ InvoiceStorage = (*MinIOInvoiceStore)(nil)
