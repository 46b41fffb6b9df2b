package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/geotoken/internal/identity/entity"
	"github.com/shandysiswandi/geotoken/internal/pkg/goerror"
)

type SendOTPInput struct {
	Contact string `validate:"required,contact"`
}

// SendOTP issues a fresh code for the contact, replacing any previous one,
// and hands it to the notifier. When delivery fails the stored challenge is
// kept and the caller sees a 503.
func (s *Usecase) SendOTP(ctx context.Context, in SendOTPInput) error {
	ctx, span := s.startSpan(ctx, "SendOTP")
	defer span.End()

	in.Contact = entity.NormalizeContact(in.Contact)
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	code, err := s.otp.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp", "error", err)
		return goerror.NewServer(err)
	}

	codeHash, err := s.bcrypt.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash otp", "error", err)
		return goerror.NewServer(err)
	}

	now := s.clock.Now()
	ident, err := s.repoDB.UpsertChallenge(ctx,
		entity.Identity{ID: s.uid.Generate(), Contact: in.Contact},
		entity.OTPChallenge{
			ID:        s.uid.Generate(),
			CodeHash:  string(codeHash),
			IssuedAt:  now,
			ExpiresAt: now.Add(s.otpTTL()),
		},
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert otp challenge", "contact", in.Contact, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.notifier.SendOTP(ctx, OTPNotification{
		IdentityID: ident.ID,
		Contact:    ident.Contact,
		Code:       code,
		ExpiresAt:  now.Add(s.otpTTL()),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to deliver otp", "identity_id", ident.ID, "error", err)
		return goerror.NewUnavailable("Failed to send OTP", err)
	}

	slog.InfoContext(ctx, "otp issued", "identity_id", ident.ID)

	return nil
}
