package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/geotoken/internal/pkg/clock"
	"github.com/shandysiswandi/geotoken/internal/pkg/config"
	"github.com/shandysiswandi/geotoken/internal/pkg/instrument"
	"github.com/shandysiswandi/geotoken/internal/pkg/mail"
	"github.com/shandysiswandi/geotoken/internal/pkg/validator"
)

type fakeMail struct {
	mu       sync.Mutex
	failures int
	sent     []mail.Message
	calls    int
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return errors.New("smtp: 421 try again later")
	}
	f.sent = append(f.sent, msg)
	return nil
}

var now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newUsecase(t *testing.T, m *fakeMail) *Usecase {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  notification:\n    max_retries: 2\n"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	uc := New(Dependency{
		RepoMail:   m,
		Config:     cfg,
		Clock:      clock.Func(func() time.Time { return now }),
		Validator:  v,
		Instrument: instrument.NewNoop(),
	})
	uc.retryBase = time.Millisecond
	return uc
}

func TestConsumeOTPRequested(t *testing.T) {
	valid := ConsumeOTPRequestedInput{IdentityID: 1, Contact: "a@b.com", Code: "123456", ExpiresAt: now.Add(5 * time.Minute)}

	tests := []struct {
		name      string
		in        ConsumeOTPRequestedInput
		failures  int
		wantErr   bool
		wantSent  int
		wantCalls int
	}{
		{name: "delivered", in: valid, wantSent: 1, wantCalls: 1},
		{name: "delivered after retries", in: valid, failures: 2, wantSent: 1, wantCalls: 3},
		{name: "retries exhausted", in: valid, failures: 5, wantErr: true, wantCalls: 3},
		{name: "phone contact dropped", in: ConsumeOTPRequestedInput{IdentityID: 1, Contact: "+628123456789", Code: "123456", ExpiresAt: now.Add(time.Minute)}},
		{name: "expired dropped", in: ConsumeOTPRequestedInput{IdentityID: 1, Contact: "a@b.com", Code: "123456", ExpiresAt: now.Add(-time.Second)}},
		{name: "malformed dropped", in: ConsumeOTPRequestedInput{IdentityID: 1, Contact: "a@b.com", Code: "12"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			m := &fakeMail{failures: tt.failures}
			uc := newUsecase(t, m)

			// Act
			err := uc.ConsumeOTPRequested(context.Background(), tt.in)

			// Assert
			if (err != nil) != tt.wantErr {
				t.Fatalf("ConsumeOTPRequested() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(m.sent) != tt.wantSent || m.calls != tt.wantCalls {
				t.Fatalf("sent = %d, calls = %d", len(m.sent), m.calls)
			}
		})
	}
}

func TestConsumeOTPRequested_Body(t *testing.T) {
	m := &fakeMail{}
	uc := newUsecase(t, m)

	err := uc.ConsumeOTPRequested(context.Background(), ConsumeOTPRequestedInput{
		IdentityID: 1, Contact: "a@b.com", Code: "123456", ExpiresAt: now.Add(5 * time.Minute),
	})

	if err != nil || len(m.sent) != 1 {
		t.Fatalf("err = %v, sent = %d", err, len(m.sent))
	}
	msg := m.sent[0]
	if msg.Subject != "Your OTP Code" || msg.To[0] != "a@b.com" {
		t.Fatalf("msg = %+v", msg)
	}
	if !strings.HasPrefix(msg.TextBody, "Your OTP is: 123456") || !strings.Contains(msg.TextBody, "5 minutes") {
		t.Fatalf("body = %q", msg.TextBody)
	}
}
