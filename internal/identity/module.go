package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/geotoken/internal/identity/inbound"
	"github.com/shandysiswandi/geotoken/internal/identity/outbound/db"
	"github.com/shandysiswandi/geotoken/internal/identity/outbound/email"
	"github.com/shandysiswandi/geotoken/internal/identity/outbound/mq"
	"github.com/shandysiswandi/geotoken/internal/identity/usecase"
	"github.com/shandysiswandi/geotoken/internal/pkg/clock"
	"github.com/shandysiswandi/geotoken/internal/pkg/config"
	"github.com/shandysiswandi/geotoken/internal/pkg/hash"
	"github.com/shandysiswandi/geotoken/internal/pkg/instrument"
	"github.com/shandysiswandi/geotoken/internal/pkg/mail"
	"github.com/shandysiswandi/geotoken/internal/pkg/messaging"
	"github.com/shandysiswandi/geotoken/internal/pkg/otp"
	"github.com/shandysiswandi/geotoken/internal/pkg/router"
	"github.com/shandysiswandi/geotoken/internal/pkg/session"
	"github.com/shandysiswandi/geotoken/internal/pkg/uid"
	"github.com/shandysiswandi/geotoken/internal/pkg/validator"
)

const (
	DeliveryMail  = "mail"
	DeliveryQueue = "queue"
)

var (
	ErrMailRequired      = errors.New("identity: otp_delivery=mail requires a mail client")
	ErrMessagingRequired = errors.New("identity: otp_delivery=queue requires a messaging client")
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	Secret     uid.StringID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Bcrypt     hash.Hash                  `validate:"required"`
	OTP        otp.Generator              `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`

	// Exactly one of Mail or Messaging is used, chosen by modules.identity.otp_delivery.
	Mail      mail.Mail
	Messaging messaging.Messaging
}

// Module exposes the session registry to other modules.
type Module struct {
	uc *usecase.Usecase
}

func New(dep Dependency) (*Module, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	notifier, err := newNotifier(dep)
	if err != nil {
		return nil, err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:     db.NewDB(dep.DBConn, dep.Instrument),
		Notifier:   notifier,
		Validator:  dep.Validator,
		Config:     dep.Config,
		HMAC:       dep.HMAC,
		Bcrypt:     dep.Bcrypt,
		OTP:        dep.OTP,
		UID:        dep.UID,
		Secret:     dep.Secret,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return &Module{uc: uc}, nil
}

func newNotifier(dep Dependency) (interface {
	SendOTP(ctx context.Context, msg usecase.OTPNotification) error
}, error) {
	switch strings.ToLower(dep.Config.GetString("modules.identity.otp_delivery")) {
	case DeliveryQueue:
		if dep.Messaging == nil {
			return nil, ErrMessagingRequired
		}
		return mq.NewMessaging(dep.Messaging, dep.Instrument), nil
	default:
		if dep.Mail == nil {
			return nil, ErrMailRequired
		}
		return email.NewEmail(dep.Mail, dep.Instrument), nil
	}
}

// Verify resolves a bearer credential, optionally requiring one of roles.
func (m *Module) Verify(ctx context.Context, token string, roles ...session.Role) (*session.Principal, error) {
	return m.uc.Verify(ctx, token, roles...)
}

// Invalidate revokes a session by id.
func (m *Module) Invalidate(ctx context.Context, sessionID int64) error {
	return m.uc.Invalidate(ctx, sessionID)
}
