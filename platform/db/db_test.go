package db

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert booking: %w", &pgconn.PgError{Code: "23505", ConstraintName: "bookings_booking_code_key"})

	if !IsUniqueViolation(err, "") {
		t.Fatal("expected unique violation")
	}
	if !IsUniqueViolation(err, "bookings_booking_code_key") {
		t.Fatal("expected unique violation on named constraint")
	}
	if IsUniqueViolation(err, "bookings_qr_token_key") {
		t.Fatal("did not expect match on other constraint")
	}
	if IsUniqueViolation(fmt.Errorf("other"), "") {
		t.Fatal("did not expect plain error to match")
	}
}

func TestIsCheckViolation(t *testing.T) {
	err := &pgconn.PgError{Code: "23514", ConstraintName: "installer_wallets_balance_cents_check"}
	if !IsCheckViolation(err, "installer_wallets_balance_cents_check") {
		t.Fatal("expected check violation")
	}
	if IsCheckViolation(&pgconn.PgError{Code: "23505"}, "") {
		t.Fatal("unique violation is not a check violation")
	}
}

func TestIsNoRows(t *testing.T) {
	if !IsNoRows(fmt.Errorf("get: %w", pgx.ErrNoRows)) {
		t.Fatal("expected wrapped ErrNoRows to match")
	}
}
