package apperr

import (
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{NotFound("x"), http.StatusNotFound},
		{Validation("x"), http.StatusBadRequest},
		{BadRequest("x"), http.StatusBadRequest},
		{Conflict("x"), http.StatusConflict},
		{Forbidden("x"), http.StatusForbidden},
		{Unauthorized("x"), http.StatusUnauthorized},
		{Internal("x"), http.StatusInternalServerError},
		{Gone("x"), http.StatusGone},
		{InsufficientFunds("x"), http.StatusPaymentRequired},
		{New(KindUnknown, "x"), http.StatusBadRequest},
	}

	for _, tc := range cases {
		if got := tc.err.HTTPStatus(); got != tc.want {
			t.Fatalf("kind %d: expected status %d, got %d", tc.err.Kind, tc.want, got)
		}
	}
}

func TestIsFindsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("purchase lead: %w", Conflict("lead already purchased"))

	if !Is(wrapped, KindConflict) {
		t.Fatal("expected wrapped conflict to be detected")
	}
	if Is(wrapped, KindNotFound) {
		t.Fatal("did not expect not found kind")
	}
	if GetKind(fmt.Errorf("plain")) != KindUnknown {
		t.Fatal("expected unknown kind for untyped error")
	}
}

func TestErrorMessageIncludesOp(t *testing.T) {
	err := NotFound("booking not found").WithOp("bookings.Get")
	if err.Error() != "bookings.Get: booking not found" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
