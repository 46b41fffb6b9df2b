package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/geotoken/internal/identity/usecase"
	"github.com/shandysiswandi/geotoken/internal/pkg/instrument"
	"github.com/shandysiswandi/geotoken/internal/pkg/messaging"
	"github.com/shandysiswandi/geotoken/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

// SendOTP publishes an otp_requested event for the notification worker.
func (m *Messaging) SendOTP(ctx context.Context, msg usecase.OTPNotification) error {
	ctx, span := m.ins.Tracer("identity.outbound.mq").Start(ctx, "SendOTP")
	defer span.End()

	body, err := json.Marshal(event.OTPRequestedMessage{
		IdentityID: msg.IdentityID,
		Contact:    msg.Contact,
		Code:       msg.Code,
		ExpiresAt:  msg.ExpiresAt.Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.OTPRequestedDestination, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
