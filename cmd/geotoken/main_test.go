package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/shandysiswandi/geotoken/internal/client"
)

type fakeServer struct {
	mu      sync.Mutex
	calls   []string
	expired bool
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	expired := f.expired
	f.mu.Unlock()

	reply := func(code int, body map[string]any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(body)
	}

	if r.URL.Path != "/send-otp" && r.URL.Path != "/verify-otp" && r.URL.Path != "/check-user" {
		if expired || r.Header.Get("Authorization") != "Bearer tok-1" {
			reply(http.StatusUnauthorized, map[string]any{"success": false, "message": "Session expired", "code": "ERROR_CODE_SESSION_EXPIRED"})
			return
		}
	}

	switch r.URL.Path {
	case "/check-user":
		reply(http.StatusOK, map[string]any{"success": true, "exists": false})
	case "/send-otp":
		reply(http.StatusOK, map[string]any{"success": true, "message": "OTP sent"})
	case "/verify-otp":
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in["otp"] != "123456" {
			reply(http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid or expired OTP", "code": "ERROR_CODE_INVALID_OTP"})
			return
		}
		reply(http.StatusOK, map[string]any{
			"success": true, "authToken": "tok-1", "isNewUser": true, "role": in["role"], "expiresAt": "2026-03-01T11:00:00Z",
		})
	case "/tokens":
		reply(http.StatusOK, map[string]any{
			"success": true,
			"tokens": []map[string]any{
				{"id": 1, "timestamp": "2026-03-01T10:00:00Z", "latitude": 12.5, "longitude": 77.1, "claimed": true},
				{"id": 2, "timestamp": "2026-03-01T10:00:15Z", "latitude": 12.5, "longitude": 77.1, "claimed": false},
			},
			"meta": map[string]any{"total": 2, "limit": 50, "offset": 0},
		})
	default:
		reply(http.StatusNotFound, map[string]any{"success": false, "message": "Not found"})
	}
}

func run(t *testing.T, srvURL, credPath, stdin string, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--server", srvURL, "--credential", credPath}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestCLI_LoginHistoryAndExpiry(t *testing.T) {
	// Arrange
	fake := &fakeServer{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	credPath := filepath.Join(t.TempDir(), "credential.json")
	store := client.NewCredentialStore(credPath)

	// Act: login prompts for the code
	out, _, err := run(t, srv.URL, credPath, "123456\n", "login", "--contact", "a@b.com", "--role", "consumer")

	// Assert
	if err != nil {
		t.Fatalf("login error = %v", err)
	}
	if !strings.Contains(out, "Enter OTP") || !strings.Contains(out, "Logged in as consumer") || !strings.Contains(out, "geotoken register") {
		t.Fatalf("login output = %q", out)
	}
	cred, err := store.Load()
	if err != nil || cred.AuthToken != "tok-1" || cred.Role != client.RoleConsumer || cred.Contact != "a@b.com" {
		t.Fatalf("cached credential = %+v, %v", cred, err)
	}

	// Act: history uses the cached credential
	out, _, err = run(t, srv.URL, credPath, "", "history")

	// Assert
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	if !strings.Contains(out, "showing 1-2 of 2") || !strings.Contains(out, "yes") || !strings.Contains(out, "no") {
		t.Fatalf("history output = %q", out)
	}

	// Act: a rejected session clears the credential
	fake.mu.Lock()
	fake.expired = true
	fake.mu.Unlock()
	_, errOut, err := run(t, srv.URL, credPath, "", "history")

	// Assert
	if !errors.Is(err, client.ErrSessionExpired) {
		t.Fatalf("history error = %v, want ErrSessionExpired", err)
	}
	if !strings.Contains(errOut, "Session expired. Please login again.") {
		t.Fatalf("stderr = %q", errOut)
	}
	if _, err := store.Load(); !errors.Is(err, client.ErrNoCredential) {
		t.Fatalf("credential still cached: %v", err)
	}
}

func TestCLI_LoginWithCodeSkipsSend(t *testing.T) {
	fake := &fakeServer{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	credPath := filepath.Join(t.TempDir(), "credential.json")

	_, _, err := run(t, srv.URL, credPath, "", "login", "--contact", "a@b.com", "--code", "123456")

	if err != nil {
		t.Fatalf("login error = %v", err)
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.calls) != 1 || fake.calls[0] != "POST /verify-otp" {
		t.Fatalf("calls = %v", fake.calls)
	}
}

func TestCLI_RequiresLogin(t *testing.T) {
	credPath := filepath.Join(t.TempDir(), "credential.json")

	_, _, err := run(t, "http://127.0.0.1:1", credPath, "", "export")

	if err == nil || !strings.Contains(err.Error(), "not logged in") {
		t.Fatalf("export error = %v", err)
	}
}

func TestCLI_ProduceNeedsLocation(t *testing.T) {
	credPath := filepath.Join(t.TempDir(), "credential.json")

	_, _, err := run(t, "http://127.0.0.1:1", credPath, "", "produce")

	if err == nil || !strings.Contains(err.Error(), "location is required") {
		t.Fatalf("produce error = %v", err)
	}
}
