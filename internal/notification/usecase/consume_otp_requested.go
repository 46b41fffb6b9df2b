package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/geotoken/internal/notification/entity"
	"github.com/shandysiswandi/geotoken/internal/pkg/mail"
)

type ConsumeOTPRequestedInput struct {
	IdentityID int64     `validate:"required,gt=0"`
	Contact    string    `validate:"required,contact"`
	Code       string    `validate:"required,otp"`
	ExpiresAt  time.Time `validate:"required"`
}

// ConsumeOTPRequested mails the code with bounded exponential backoff. Events
// that cannot be delivered by mail are logged and dropped; only a mail failure
// that outlives every retry is returned.
func (s *Usecase) ConsumeOTPRequested(ctx context.Context, in ConsumeOTPRequestedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeOTPRequested")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	now := s.clock.Now()
	if now.After(in.ExpiresAt) {
		slog.WarnContext(ctx, "otp expired before delivery, dropping", "identity_id", in.IdentityID)
		return nil
	}

	if strings.HasPrefix(in.Contact, "+") {
		slog.WarnContext(ctx, "no mail route for phone contact, dropping", "identity_id", in.IdentityID)
		return nil
	}

	delivery := entity.OTPDelivery{IdentityID: in.IdentityID, Contact: in.Contact, Code: in.Code, ExpiresAt: in.ExpiresAt}
	body, err := s.render(s.otpTpl, map[string]any{"Code": delivery.Code, "Minutes": delivery.MinutesLeft(now)})
	if err != nil {
		slog.ErrorContext(ctx, "failed to render otp template", "identity_id", in.IdentityID, "error", err)
		return nil
	}

	msg := mail.Message{To: []string{delivery.Contact}, Subject: otpSubject, TextBody: body}
	attempt := 0
	backoff := retry.WithMaxRetries(s.maxRetries(), retry.WithCappedDuration(5*time.Second, retry.NewExponential(s.retryBase)))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := s.repoMail.Send(ctx, msg); err != nil {
			slog.WarnContext(ctx, "failed to send otp mail, retrying", "identity_id", in.IdentityID, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to deliver otp mail", "identity_id", in.IdentityID, "attempts", attempt, "error", err)
		return err
	}

	slog.InfoContext(ctx, "otp mail delivered", "identity_id", in.IdentityID, "attempts", attempt)

	return nil
}
