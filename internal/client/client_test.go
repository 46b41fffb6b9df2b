package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, WithToken("tok"), WithRetries(2, time.Millisecond))
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func TestClient_VerifyOTP(t *testing.T) {
	// Arrange
	var got map[string]string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/verify-otp" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"authToken": "abc",
			"isNewUser": true,
			"role":      "producer",
			"expiresAt": "2026-03-01T11:00:00Z",
		})
	})

	// Act
	sess, err := c.VerifyOTP(context.Background(), "a@b.com", "123456", RoleProducer)

	// Assert
	if err != nil {
		t.Fatalf("VerifyOTP() error = %v", err)
	}
	if got["contact"] != "a@b.com" || got["otp"] != "123456" || got["role"] != "producer" {
		t.Fatalf("request body = %v", got)
	}
	want := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	if sess.AuthToken != "abc" || !sess.IsNewUser || sess.Role != RoleProducer || !sess.ExpiresAt.Equal(want) {
		t.Fatalf("session = %+v", sess)
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantExpired   bool
		wantTransient bool
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantExpired: true},
		{name: "forbidden", status: http.StatusForbidden, wantExpired: true},
		{name: "validation", status: http.StatusUnprocessableEntity},
		{name: "unavailable", status: http.StatusServiceUnavailable, wantTransient: true},
		{name: "too many", status: http.StatusTooManyRequests, wantTransient: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, tt.status, map[string]any{
					"success": false,
					"message": "nope",
					"code":    "ERROR_CODE_X",
					"error":   map[string]string{"latitude": "latitude is required"},
				})
			})

			// Act
			_, err := c.StartTokens(context.Background(), Location{Latitude: 1, Longitude: 2}, "")

			// Assert
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if apiErr.Status != tt.status || apiErr.Message != "nope" || apiErr.Fields["latitude"] == "" {
				t.Fatalf("api error = %+v", apiErr)
			}
			if errors.Is(err, ErrSessionExpired) != tt.wantExpired {
				t.Fatalf("expired = %v, want %v", errors.Is(err, ErrSessionExpired), tt.wantExpired)
			}
			if IsTransient(err) != tt.wantTransient {
				t.Fatalf("transient = %v, want %v", IsTransient(err), tt.wantTransient)
			}
		})
	}
}

func TestClient_StartTokensSendsIdempotencyKey(t *testing.T) {
	// Arrange
	var key, auth string
	var body map[string]any
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		key = r.Header.Get("Idempotency-Key")
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Token generated",
			"token":   map[string]any{"id": 7, "timestamp": "2026-03-01T10:00:00Z", "latitude": 12.5, "longitude": 77.1},
		})
	})

	// Act
	res, err := c.StartTokens(context.Background(), Location{Latitude: 12.5, Longitude: 77.1}, "k-1")

	// Assert
	if err != nil {
		t.Fatalf("StartTokens() error = %v", err)
	}
	if key != "k-1" || auth != "Bearer tok" {
		t.Fatalf("headers: key=%q auth=%q", key, auth)
	}
	if body["action"] != "start" || body["latitude"] != 12.5 || body["longitude"] != 77.1 {
		t.Fatalf("body = %v", body)
	}
	if res.Token == nil || res.Token.ID != 7 || res.Message != "Token generated" {
		t.Fatalf("result = %+v", res)
	}
}

func TestClient_ClaimTokensEmpty(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "tokens": nil})
	})

	tokens, err := c.ClaimTokens(context.Background())

	if err != nil || tokens == nil || len(tokens) != 0 {
		t.Fatalf("ClaimTokens() = %v, %v", tokens, err)
	}
}

func TestClient_ListTokensRetriesTransient(t *testing.T) {
	// Arrange
	var calls atomic.Int32
	var query string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"success": false, "message": "busy"})
			return
		}
		query = r.URL.RawQuery
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"tokens":  []map[string]any{{"id": 1, "timestamp": "2026-03-01T10:00:00Z", "claimed": true}},
			"meta":    map[string]any{"total": 41, "limit": 10, "offset": 20},
		})
	})

	// Act
	page, err := c.ListTokens(context.Background(), 10, 20)

	// Assert
	if err != nil {
		t.Fatalf("ListTokens() error = %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
	if query != "limit=10&offset=20" {
		t.Fatalf("query = %q", query)
	}
	if len(page.Tokens) != 1 || !page.Tokens[0].Claimed || page.Total != 41 || page.Limit != 10 || page.Offset != 20 {
		t.Fatalf("page = %+v", page)
	}
}

func TestClient_RequiresToken(t *testing.T) {
	c := New("http://127.0.0.1:1")

	if _, err := c.ClaimTokens(context.Background()); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("ClaimTokens() error = %v", err)
	}
	if err := c.Logout(context.Background()); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("Logout() error = %v", err)
	}
}

func TestClient_NetworkErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()
	c := New(url, WithToken("tok"), WithRetries(0, 0))

	_, err := c.ExportTokens(context.Background())

	if !IsTransient(err) {
		t.Fatalf("IsTransient(%v) = false", err)
	}
}

func TestClient_SendOTPNoBody(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		if len(raw) == 0 {
			t.Error("empty request body")
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "OTP sent"})
	})

	if err := c.SendOTP(context.Background(), "a@b.com"); err != nil {
		t.Fatalf("SendOTP() error = %v", err)
	}
}
