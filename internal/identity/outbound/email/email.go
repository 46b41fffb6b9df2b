// Package email delivers OTP codes directly over SMTP.
package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shandysiswandi/geotoken/internal/identity/entity"
	"github.com/shandysiswandi/geotoken/internal/identity/usecase"
	"github.com/shandysiswandi/geotoken/internal/pkg/instrument"
	"github.com/shandysiswandi/geotoken/internal/pkg/mail"
	"go.opentelemetry.io/otel/codes"
)

// ErrUndeliverable is returned for contacts that are not email addresses.
var ErrUndeliverable = errors.New("email: contact is not an email address")

const subject = "Your OTP Code"

type Email struct {
	client mail.Mail
	ins    instrument.Instrumentation
}

func NewEmail(client mail.Mail, ins instrument.Instrumentation) *Email {
	return &Email{client: client, ins: ins}
}

func (e *Email) SendOTP(ctx context.Context, msg usecase.OTPNotification) (err error) {
	ctx, span := e.ins.Tracer("identity.outbound.email").Start(ctx, "SendOTP")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if entity.ContactKindOf(msg.Contact) != entity.ContactKindEmail {
		return ErrUndeliverable
	}

	minutes := int(time.Until(msg.ExpiresAt).Round(time.Minute).Minutes())
	if minutes < 1 {
		minutes = 1
	}

	return e.client.Send(ctx, mail.Message{
		To:       []string{msg.Contact},
		Subject:  subject,
		TextBody: fmt.Sprintf("Your OTP is: %s\n\nIt expires in %d minutes.", msg.Code, minutes),
	})
}
