package router

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shandysiswandi/geotoken/internal/pkg/goerror"
	"go.opentelemetry.io/otel/attribute"
)

func TestMasker_HidesSecrets(t *testing.T) {
	// Arrange
	m := newMasker(nil)
	body := []byte(`{"contact":"a@b.com","otp":"123456","session":{"authToken":"S1"},"tokens":[{"OTP":"1"}]}`)

	// Act
	got, ok := m.body(body, false).(map[string]any)

	// Assert
	if !ok {
		t.Fatalf("body = %T, want map", m.body(body, false))
	}
	if got["contact"] != "a@b.com" || got["otp"] != masked {
		t.Fatalf("body = %v", got)
	}
	if got["session"].(map[string]any)["authToken"] != masked {
		t.Fatalf("nested credential leaked: %v", got["session"])
	}
	if got["tokens"].([]any)[0].(map[string]any)["OTP"] != masked {
		t.Fatalf("field match must ignore case: %v", got["tokens"])
	}

	h := m.headers(http.Header{"Authorization": {"Bearer S1"}, "User-Agent": {"geotoken-cli"}})
	if h.Get("Authorization") != masked || h.Get("User-Agent") != "geotoken-cli" {
		t.Fatalf("headers = %v", h)
	}
}

func TestMasker_Body(t *testing.T) {
	m := newMasker(nil)

	tests := []struct {
		name      string
		in        []byte
		truncated bool
		want      any
	}{
		{name: "empty", in: nil, want: nil},
		{name: "text", in: []byte("not json"), want: "not json"},
		{name: "binary", in: []byte{0xff, 0xfe, 0x00}, want: "<binary body omitted>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.body(tt.in, tt.truncated); got != tt.want {
				t.Fatalf("body() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("truncated", func(t *testing.T) {
		got, ok := m.body([]byte("partial"), true).(map[string]any)
		if !ok || got["truncated"] != true || got["body"] != "partial" {
			t.Fatalf("body() = %v", got)
		}
	})
}

func TestPeekBody_KeepsBodyForHandler(t *testing.T) {
	// Arrange
	payload := strings.Repeat("x", maxLoggedBody+10)
	req := httptest.NewRequest(http.MethodPost, "/control-tokens", strings.NewReader(payload))

	// Act
	head, truncated := peekBody(req)
	rest, err := io.ReadAll(req.Body)

	// Assert
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(head) != maxLoggedBody || !truncated {
		t.Fatalf("head = %d bytes, truncated = %v", len(head), truncated)
	}
	if string(rest) != payload {
		t.Fatalf("handler saw %d bytes, want %d", len(rest), len(payload))
	}
}

func TestResponseRecorder_CapsCapturedBody(t *testing.T) {
	// Arrange
	rec := &responseRecorder{ResponseWriter: httptest.NewRecorder()}

	// Act
	_, _ = rec.Write([]byte(strings.Repeat("a", maxLoggedBody-1)))
	_, _ = rec.Write([]byte("bcd"))

	// Assert
	if rec.body.Len() != maxLoggedBody || !rec.truncated {
		t.Fatalf("captured %d bytes, truncated = %v", rec.body.Len(), rec.truncated)
	}
	if rec.size != maxLoggedBody+2 || rec.statusCode() != http.StatusOK {
		t.Fatalf("size = %d, status = %d", rec.size, rec.statusCode())
	}
}

func TestRequestAttrs_ErrorCode(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/get-tokens", nil)

	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "success", wantCode: ""},
		{
			name:     "session expired",
			err:      goerror.NewBusiness("Session expired. Please login again.", goerror.CodeSessionExpired),
			wantCode: goerror.CodeSessionExpired.String(),
		},
		{name: "unknown error", err: errors.New("boom"), wantCode: goerror.CodeInternal.String()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			rec := &responseRecorder{ResponseWriter: httptest.NewRecorder(), err: tt.err}

			// Act
			attrs := requestAttrs(req, "/get-tokens", rec)

			// Assert
			got := ""
			for _, kv := range attrs {
				if kv.Key == attrErrorCode {
					got = kv.Value.AsString()
				}
			}
			if got != tt.wantCode {
				t.Fatalf("error code = %q, want %q", got, tt.wantCode)
			}
			if attrs[1] != attribute.String("http.route", "/get-tokens") {
				t.Fatalf("route attr = %v", attrs[1])
			}
		})
	}
}
