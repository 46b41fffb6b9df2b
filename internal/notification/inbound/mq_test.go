package inbound

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shandysiswandi/geotoken/internal/notification/usecase"
	"github.com/shandysiswandi/geotoken/internal/pkg/config"
	"github.com/shandysiswandi/geotoken/internal/pkg/goroutine"
	"github.com/shandysiswandi/geotoken/internal/pkg/instrument"
	"github.com/shandysiswandi/geotoken/internal/pkg/messaging"
	"github.com/shandysiswandi/geotoken/internal/shared/event"
)

type fakeUC struct {
	got chan usecase.ConsumeOTPRequestedInput
	cID chan string
}

func (f *fakeUC) ConsumeOTPRequested(ctx context.Context, in usecase.ConsumeOTPRequestedInput) error {
	select {
	case f.cID <- instrument.GetCorrelationID(ctx):
		f.got <- in
	default:
	}
	return nil
}

type fixedUUID string

func (u fixedUUID) Generate() string { return string(u) }

type fakeMessage struct {
	body    []byte
	headers []messaging.Header
}

func (m fakeMessage) Body() []byte                { return m.body }
func (m fakeMessage) Key() []byte                 { return nil }
func (m fakeMessage) Headers() []messaging.Header { return m.headers }
func (m fakeMessage) Topic() string               { return event.OTPRequestedDestination }
func (m fakeMessage) Timestamp() time.Time        { return time.Time{} }
func (m fakeMessage) Ack(context.Context) error   { return nil }
func (m fakeMessage) Nack(context.Context) error  { return nil }

func newFakeUC() *fakeUC {
	return &fakeUC{got: make(chan usecase.ConsumeOTPRequestedInput, 1), cID: make(chan string, 1)}
}

func TestMQHandler_OTPRequestedNotification(t *testing.T) {
	t.Run("decodes payload and keeps correlation id", func(t *testing.T) {
		// Arrange
		uc := newFakeUC()
		h := &MQHandler{uc: uc, uuid: fixedUUID("generated"), ins: instrument.NewNoop()}
		body, _ := json.Marshal(event.OTPRequestedMessage{IdentityID: 7, Contact: "a@b.com", Code: "123456", ExpiresAt: 1_800_000_000})

		// Act
		err := h.OTPRequestedNotification(context.Background(), fakeMessage{
			body:    body,
			headers: []messaging.Header{{Key: "cID", Value: []byte("cid-1")}},
		})

		// Assert
		if err != nil {
			t.Fatalf("handler = %v", err)
		}
		in := <-uc.got
		if in.IdentityID != 7 || in.Code != "123456" || !in.ExpiresAt.Equal(time.Unix(1_800_000_000, 0)) {
			t.Fatalf("input = %+v", in)
		}
		if cID := <-uc.cID; cID != "cid-1" {
			t.Fatalf("cID = %q", cID)
		}
	})

	t.Run("malformed body is acked", func(t *testing.T) {
		uc := newFakeUC()
		h := &MQHandler{uc: uc, uuid: fixedUUID("generated"), ins: instrument.NewNoop()}

		if err := h.OTPRequestedNotification(context.Background(), fakeMessage{body: []byte("{")}); err != nil {
			t.Fatalf("handler = %v", err)
		}
		if len(uc.got) != 0 {
			t.Fatal("usecase must not be called")
		}
	})
}

func TestRegisterMQConsumer(t *testing.T) {
	// Arrange
	cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  notification:\n    consumer_names: otp_requested_notification\n"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	broker := messaging.NewMemory()
	routine := goroutine.NewManager(4)
	ctx, cancel := context.WithCancel(context.Background())
	uc := newFakeUC()

	// Act
	started := RegisterMQConsumer(ctx, cfg, routine, broker, fixedUUID("generated"), uc, instrument.NewNoop())

	// Assert
	if started != 1 {
		t.Fatalf("started = %d", started)
	}

	body, _ := json.Marshal(event.OTPRequestedMessage{IdentityID: 1, Contact: "a@b.com", Code: "654321", ExpiresAt: 1_800_000_000})
	deadline := time.After(2 * time.Second)
	for delivered := false; !delivered; {
		if _, err := broker.Publish(ctx, event.OTPRequestedDestination, messaging.OutgoingMessage{Body: body}); err != nil {
			t.Fatalf("publish: %v", err)
		}
		select {
		case in := <-uc.got:
			if in.Code != "654321" {
				t.Fatalf("input = %+v", in)
			}
			if cID := <-uc.cID; cID != "generated" {
				t.Fatalf("cID = %q", cID)
			}
			delivered = true
		case <-time.After(20 * time.Millisecond):
		case <-deadline:
			t.Fatal("consumer never received the event")
		}
	}

	cancel()
	_ = routine.Wait()
}
