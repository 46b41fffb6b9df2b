package validator

import (
	"errors"
	"testing"
)

type contactInput struct {
	Contact string `validate:"required,contact"`
	OTP     string `validate:"omitempty,otp"`
}

func TestV10Validator_Contact(t *testing.T) {
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator() error = %v", err)
	}

	tests := []struct {
		name    string
		in      contactInput
		wantErr bool
	}{
		{name: "email", in: contactInput{Contact: "a@b.com"}},
		{name: "e164", in: contactInput{Contact: "+628123456789"}},
		{name: "plain text", in: contactInput{Contact: "alice"}, wantErr: true},
		{name: "local phone", in: contactInput{Contact: "08123456789"}, wantErr: true},
		{name: "empty", in: contactInput{}, wantErr: true},
		{name: "otp ok", in: contactInput{Contact: "a@b.com", OTP: "012345"}},
		{name: "otp letters", in: contactInput{Contact: "a@b.com", OTP: "12a456"}, wantErr: true},
		{name: "otp short", in: contactInput{Contact: "a@b.com", OTP: "12345"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestV10Validator_ErrorKeysAreSnakeCase(t *testing.T) {
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator() error = %v", err)
	}

	err = v.Validate(contactInput{Contact: "nope"})

	var verr V10ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected V10ValidationError, got %T", err)
	}
	if msg := verr.Values()["contact"]; msg != "Contact must be an email address or an E.164 phone number" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Contact":    "contact",
		"OTP":        "otp",
		"IdentityID": "identity_id",
		"HTTPServer": "http_server",
		"Lat2Lon":    "lat2_lon",
		"":           "",
	}

	for in, want := range tests {
		if got := snakeCase(in); got != want {
			t.Errorf("snakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
