package goerror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCode_StatusCode(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeInvalidOTP, http.StatusBadRequest},
		{CodeInvalidFormat, http.StatusBadRequest},
		{CodeInvalidInput, http.StatusUnprocessableEntity},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeSessionExpired, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeConflict, http.StatusConflict},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			if got := tt.code.StatusCode(); got != tt.want {
				t.Fatalf("StatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseCode_RoundTrip(t *testing.T) {
	for c := CodeInternal; c <= CodeUnavailable; c++ {
		if got := ParseCode(c.String()); got != c {
			t.Fatalf("ParseCode(%q) = %v, want %v", c.String(), got, c)
		}
	}

	if got := ParseCode("NOPE"); got != CodeInternal {
		t.Fatalf("ParseCode(unknown) = %v, want CodeInternal", got)
	}
}

func TestCodeOf(t *testing.T) {
	// Arrange
	wrapped := fmt.Errorf("usecase: %w", NewBusiness("session expired", CodeSessionExpired))

	// Act
	got := CodeOf(wrapped)

	// Assert
	if got != CodeSessionExpired {
		t.Fatalf("CodeOf() = %v, want CodeSessionExpired", got)
	}
	if CodeOf(errors.New("plain")) != CodeInternal {
		t.Fatal("CodeOf(plain) must be CodeInternal")
	}
}

func TestNewInvalidInput_Fields(t *testing.T) {
	// Arrange & Act
	err := NewInvalidInput(nil, "latitude", "latitude is required")

	// Assert
	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatal("expected *Error")
	}
	if gerr.Fields()["latitude"] != "latitude is required" {
		t.Fatalf("unexpected fields: %v", gerr.Fields())
	}
	if gerr.StatusCode() != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", gerr.StatusCode())
	}
}

func TestNewUnavailable_KeepsCause(t *testing.T) {
	cause := errors.New("smtp down")
	err := NewUnavailable("Failed to deliver OTP", cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause")
	}
	var gerr *Error
	if !errors.As(err, &gerr) || gerr.Msg() != "Failed to deliver OTP" {
		t.Fatalf("unexpected error: %v", err)
	}
}
