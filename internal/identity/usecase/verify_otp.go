package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/geotoken/internal/identity/entity"
	"github.com/shandysiswandi/geotoken/internal/pkg/goerror"
	"github.com/shandysiswandi/geotoken/internal/pkg/otp"
	"github.com/shandysiswandi/geotoken/internal/pkg/session"
	"github.com/shandysiswandi/geotoken/internal/pkg/valueobject"
)

var errInvalidOTP = goerror.NewBusiness("Invalid or expired OTP", goerror.CodeInvalidOTP)

type VerifyOTPInput struct {
	Contact   string `validate:"required,contact"`
	OTP       string `validate:"required"`
	Role      string `validate:"omitempty,oneof=producer consumer"`
	IP        string
	UserAgent string
}

type VerifyOTPOutput struct {
	AuthToken string
	IsNewUser bool
	Role      session.Role
	ExpiresAt time.Time
}

// VerifyOTP exchanges a valid code for a session credential. A code is usable
// once: the challenge row is deleted in the same transaction that inserts the
// session, so a concurrent replay finds nothing to delete and fails.
func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*VerifyOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
	defer span.End()

	in.Contact = entity.NormalizeContact(in.Contact)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	// a malformed code can never match
	if !otp.Valid(in.OTP) {
		slog.WarnContext(ctx, "malformed otp", "contact", in.Contact)
		return nil, errInvalidOTP
	}

	role := session.ParseRole(in.Role)
	if !role.Valid() {
		role = s.defaultRole()
	}

	chal, err := s.repoDB.GetChallengeByContact(ctx, in.Contact)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "otp challenge not found", "contact", in.Contact)
		return nil, errInvalidOTP
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get otp challenge", "contact", in.Contact, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	if chal.Expired(now) {
		if err := s.repoDB.DeleteChallenge(ctx, chal.ID); err != nil {
			slog.ErrorContext(ctx, "failed to repo delete expired otp challenge", "challenge_id", chal.ID, "error", err)
		}
		slog.WarnContext(ctx, "otp challenge expired", "identity_id", chal.IdentityID)
		return nil, errInvalidOTP
	}

	if !s.bcrypt.Verify(chal.CodeHash, in.OTP) {
		slog.WarnContext(ctx, "otp mismatch", "identity_id", chal.IdentityID)
		return nil, errInvalidOTP
	}

	token := s.secret.Generate()
	tokenHash, err := s.hmac.Hash(token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash session token", "error", err)
		return nil, goerror.NewServer(err)
	}

	meta := valueobject.JSONMap{}
	meta.SetIfNotEmpty("ip", in.IP)
	meta.SetIfNotEmpty("user_agent", in.UserAgent)

	sess := entity.Session{
		ID:         s.uid.Generate(),
		IdentityID: chal.IdentityID,
		TokenHash:  string(tokenHash),
		Role:       role,
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.sessionTTL()),
		Metadata:   meta,
	}

	err = s.repoDB.ConsumeChallenge(ctx, chal.ID, sess)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "otp challenge already consumed", "identity_id", chal.IdentityID)
		return nil, errInvalidOTP
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo consume otp challenge", "identity_id", chal.IdentityID, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "session issued", "identity_id", chal.IdentityID, "session_id", sess.ID, "role", role.String())

	return &VerifyOTPOutput{
		AuthToken: token,
		IsNewUser: entity.Identity{DisplayName: chal.DisplayName}.IsNew(),
		Role:      role,
		ExpiresAt: sess.ExpiresAt,
	}, nil
}
