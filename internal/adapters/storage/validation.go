package storage

import (
	"strings"

	"tradesbook/platform/apperr"
)

// AllowedContentTypes are the invoice formats customers may upload.
var AllowedContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"image/heic":      true,
	"application/pdf": true,
}

// ValidateContentType checks if the content type is allowed.
func ValidateContentType(contentType string) error {
	normalized := strings.TrimSpace(strings.ToLower(strings.Split(contentType, ";")[0]))
	if !AllowedContentTypes[normalized] {
		return apperr.Validation("invoice must be a JPEG, PNG, WebP, HEIC image or a PDF")
	}
	return nil
}

// ValidateFileSize checks the declared size against the limit.
func ValidateFileSize(sizeBytes, maxBytes int64) error {
	if sizeBytes <= 0 {
		return apperr.Validation("file size must be greater than 0")
	}
	if maxBytes > 0 && sizeBytes > maxBytes {
		return apperr.Validation("invoice file is too large").WithDetails(map[string]int64{"maxBytes": maxBytes})
	}
	return nil
}
