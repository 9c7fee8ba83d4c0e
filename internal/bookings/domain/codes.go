package domain

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"
)

// Booking codes skip characters that are easy to misread (0/O, 1/I/L).
const codeAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

const (
	codePrefix = "TB-"
	codeLength = 6
	qrTokenLen = 18
)

// NewBookingCode returns a random code of the form TB-XXXXXX.
func NewBookingCode() (string, error) {
	var b strings.Builder
	b.WriteString(codePrefix)
	size := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < codeLength; i++ {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("generate booking code: %w", err)
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeBookingCode uppercases and trims user input, adding the prefix if missing.
func NormalizeBookingCode(raw string) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code != "" && !strings.HasPrefix(code, codePrefix) {
		code = codePrefix + code
	}
	return code
}

// IsBookingCode reports whether code has the TB-XXXXXX shape.
func IsBookingCode(code string) bool {
	if len(code) != len(codePrefix)+codeLength || !strings.HasPrefix(code, codePrefix) {
		return false
	}
	for _, r := range code[len(codePrefix):] {
		if !strings.ContainsRune(codeAlphabet, r) {
			return false
		}
	}
	return true
}

// NewQRToken returns an unguessable URL-safe token for the tracking page.
func NewQRToken() (string, error) {
	buf := make([]byte, qrTokenLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate qr token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
