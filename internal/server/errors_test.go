package server

import (
	"net/http"
	"testing"

	authdomain "github.com/statboard/statboard/internal/auth/domain"
	"github.com/statboard/statboard/internal/authorization"
	"github.com/statboard/statboard/internal/ingest"
	observationdomain "github.com/statboard/statboard/internal/observation/domain"
	rbacdomain "github.com/statboard/statboard/internal/rbac/domain"
)

func TestMapErrorStatusCodes(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		typ    string
	}{
		{"invalid credentials", authdomain.ErrInvalidCredentials, http.StatusUnauthorized, "unauthorized"},
		{"forbidden", authorization.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"not found", observationdomain.ErrNotFound, http.StatusNotFound, "not_found"},
		{"no data", observationdomain.ErrNoData, http.StatusNotFound, "not_found"},
		{"duplicate", rbacdomain.ErrDuplicate, http.StatusConflict, "conflict"},
		{"user exists", authdomain.ErrUserExists, http.StatusConflict, "conflict"},
		{"type mismatch", observationdomain.ErrTypeMismatch, http.StatusBadRequest, "validation_error"},
		{"missing constraint", observationdomain.ErrMissingConstraint, http.StatusBadRequest, "validation_error"},
		{"invalid date", observationdomain.ErrInvalidDate, http.StatusBadRequest, "validation_error"},
		{"unexpected", errExplode, http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(tc.err)
			if status != tc.status {
				t.Fatalf("status = %d, want %d", status, tc.status)
			}
			if payload.Type != tc.typ {
				t.Fatalf("type = %q, want %q", payload.Type, tc.typ)
			}
		})
	}
}

func TestMapErrorKeepsUnexpectedMessage(t *testing.T) {
	status, payload := mapError(errExplode)
	if status != http.StatusInternalServerError {
		t.Fatalf("status = %d", status)
	}
	if payload.Message != "boom" {
		t.Fatalf("message = %q, want the original error text", payload.Message)
	}
}

var errExplode = &explodeError{}

type explodeError struct{}

func (*explodeError) Error() string { return "boom" }

func TestMapErrorUploadBody(t *testing.T) {
	err := newUploadError([]ingest.RowError{
		{Row: 2, Message: "Row 2: Indicator 'B' not found"},
		{Row: 5, Message: "Row 5: Invalid stat_date value"},
	})

	status, payload := mapError(err)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if payload.Type != "validation_error" {
		t.Fatalf("type = %q", payload.Type)
	}
	if payload.Message != "data validation failed" {
		t.Fatalf("message = %q", payload.Message)
	}
	if len(payload.Errors) != 2 {
		t.Fatalf("expected 2 row errors, got %d", len(payload.Errors))
	}

	first := payload.Errors[0]
	if first.Field != "row" || first.Code != "row_2" {
		t.Fatalf("unexpected first error: %+v", first)
	}
	if first.Message != "Row 2: Indicator 'B' not found" {
		t.Fatalf("message = %q", first.Message)
	}
}

func TestMapErrorValidationFieldDerivation(t *testing.T) {
	status, payload := mapError(observationdomain.ErrInvalidDate)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d", status)
	}
	if len(payload.Errors) != 1 {
		t.Fatalf("expected one error, got %d", len(payload.Errors))
	}
	if payload.Errors[0].Field != "date" || payload.Errors[0].Code != "invalid_date" {
		t.Fatalf("unexpected error: %+v", payload.Errors[0])
	}
}
