package qrcode

import (
	"bytes"
	"image/png"
	"testing"
)

func TestPNG(t *testing.T) {
	data, err := PNG("https://tradesbook.ie/track/abc", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if img.Bounds().Dx() != DefaultSize {
		t.Fatalf("expected %dpx image, got %d", DefaultSize, img.Bounds().Dx())
	}

	if _, err := PNG("", 128); err == nil {
		t.Fatal("expected error for empty content")
	}
}
