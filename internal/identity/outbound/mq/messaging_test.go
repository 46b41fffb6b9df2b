package mq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shandysiswandi/geotoken/internal/identity/usecase"
	"github.com/shandysiswandi/geotoken/internal/pkg/instrument"
	"github.com/shandysiswandi/geotoken/internal/pkg/messaging"
	"github.com/shandysiswandi/geotoken/internal/shared/event"
)

func TestMessaging_SendOTP(t *testing.T) {
	// Arrange
	broker := messaging.NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan messaging.Message, 1)
	go func() {
		_ = broker.Consume(ctx, event.OTPRequestedDestination, func(_ context.Context, msg messaging.Message) error {
			got <- msg
			return nil
		})
	}()
	time.Sleep(50 * time.Millisecond)

	pub := NewMessaging(broker, instrument.NewNoop())
	expires := time.Unix(1_800_000_000, 0)

	// Act
	err := pub.SendOTP(instrument.SetCorrelationID(ctx, "cid-1"), usecase.OTPNotification{
		IdentityID: 42, Contact: "a@b.com", Code: "123456", ExpiresAt: expires,
	})

	// Assert
	if err != nil {
		t.Fatalf("SendOTP() = %v", err)
	}
	select {
	case msg := <-got:
		var body event.OTPRequestedMessage
		if err := json.Unmarshal(msg.Body(), &body); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if body.IdentityID != 42 || body.Code != "123456" || body.ExpiresAt != expires.Unix() {
			t.Fatalf("body = %+v", body)
		}
		if messaging.HeaderValue(msg, "cID") != "cid-1" {
			t.Fatalf("cID header = %q", messaging.HeaderValue(msg, "cID"))
		}
	case <-time.After(time.Second):
		t.Fatal("event not published")
	}
}
