package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/geotoken/internal/identity/entity"
	"github.com/shandysiswandi/geotoken/internal/pkg/clock"
	"github.com/shandysiswandi/geotoken/internal/pkg/config"
	"github.com/shandysiswandi/geotoken/internal/pkg/hash"
	"github.com/shandysiswandi/geotoken/internal/pkg/instrument"
	"github.com/shandysiswandi/geotoken/internal/pkg/otp"
	"github.com/shandysiswandi/geotoken/internal/pkg/session"
	"github.com/shandysiswandi/geotoken/internal/pkg/uid"
	"github.com/shandysiswandi/geotoken/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultOTPTTL     = 5 * time.Minute
	defaultSessionTTL = 24 * time.Hour
)

// OTPNotification is what a notifier needs to deliver a code out of band.
type OTPNotification struct {
	IdentityID int64
	Contact    string
	Code       string
	ExpiresAt  time.Time
}

type notifier interface {
	SendOTP(ctx context.Context, msg OTPNotification) error
}

type repoDB interface {
	UpsertChallenge(ctx context.Context, ident entity.Identity, chal entity.OTPChallenge) (*entity.Identity, error)
	GetChallengeByContact(ctx context.Context, contact string) (*entity.ChallengeIdentity, error)
	DeleteChallenge(ctx context.Context, id int64) error
	ConsumeChallenge(ctx context.Context, challengeID int64, sess entity.Session) error

	GetSessionByTokenHash(ctx context.Context, tokenHash string) (*entity.SessionIdentity, error)
	DeleteSession(ctx context.Context, id int64) error
	DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error

	GetIdentityByContact(ctx context.Context, contact string) (*entity.Identity, error)
	UpdateDisplayName(ctx context.Context, id int64, name string) error
}

type Usecase struct {
	repoDB    repoDB
	notifier  notifier
	validator validator.Validator
	cfg       config.Config
	hmac      hash.Hash
	bcrypt    hash.Hash
	otp       otp.Generator
	uid       uid.NumberID
	secret    uid.StringID
	clock     clock.Clocker
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB     repoDB
	Notifier   notifier
	Validator  validator.Validator
	Config     config.Config
	HMAC       hash.Hash
	Bcrypt     hash.Hash
	OTP        otp.Generator
	UID        uid.NumberID
	Secret     uid.StringID
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		notifier:  dep.Notifier,
		validator: dep.Validator,
		cfg:       dep.Config,
		hmac:      dep.HMAC,
		bcrypt:    dep.Bcrypt,
		otp:       dep.OTP,
		uid:       dep.UID,
		secret:    dep.Secret,
		clock:     dep.Clock,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

func (s *Usecase) otpTTL() time.Duration {
	if ttl := s.cfg.GetMinute("modules.identity.otp_ttl_minutes"); ttl > 0 {
		return ttl
	}
	return defaultOTPTTL
}

func (s *Usecase) sessionTTL() time.Duration {
	if ttl := s.cfg.GetMinute("modules.identity.session_ttl_minutes"); ttl > 0 {
		return ttl
	}
	return defaultSessionTTL
}

func (s *Usecase) defaultRole() session.Role {
	if role := session.ParseRole(s.cfg.GetString("modules.identity.default_role")); role.Valid() {
		return role
	}
	return session.RoleProducer
}
