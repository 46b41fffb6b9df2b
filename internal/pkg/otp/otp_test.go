package otp

import (
	"bytes"
	"errors"
	"testing"

	"github.com/pquerna/otp"
)

func TestNumeric_Generate(t *testing.T) {
	// Arrange
	gen := NewNumeric(otp.DigitsSix, nil)

	// Act & Assert
	for range 500 {
		code, err := gen.Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("len(%q) = %d, want 6", code, len(code))
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("non digit in %q", code)
			}
		}
	}
}

func TestNumeric_ZeroPadded(t *testing.T) {
	// Arrange: an all-zero entropy source yields the value 0.
	gen := NewNumeric(otp.DigitsSix, bytes.NewReader(make([]byte, 64)))

	// Act
	code, err := gen.Generate()

	// Assert
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if code != "000000" {
		t.Fatalf("code = %q, want 000000", code)
	}
}

func TestNumeric_FallbackDigits(t *testing.T) {
	code, err := NewNumeric(otp.Digits(4), nil).Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("len = %d, want 6", len(code))
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func TestNumeric_EntropyFailure(t *testing.T) {
	if _, err := NewNumeric(otp.DigitsSix, failingReader{}).Generate(); err == nil {
		t.Fatal("expected error")
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{code: "000123", want: true},
		{code: "12345", want: false},
		{code: "1234567", want: false},
		{code: "12345a", want: false},
		{code: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := Valid(tt.code); got != tt.want {
				t.Fatalf("Valid(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}
