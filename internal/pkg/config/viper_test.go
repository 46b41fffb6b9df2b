package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sample = `
app:
  server:
    cors: "http://a.test, http://b.test,"
modules:
  identity:
    otp_ttl_minutes: 5
    session_ttl_minutes: 60
  token:
    idempotency_ttl_seconds: 30
instrument:
  log_mask_fields:
    - otp
    - authToken
mail:
  headers: "X-A:1,X-B:2"
`

func TestNewViperFromBytes(t *testing.T) {
	// Arrange
	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}

	// Act & Assert
	if got := cfg.GetMinute("modules.identity.otp_ttl_minutes"); got != 5*time.Minute {
		t.Fatalf("otp ttl = %v", got)
	}
	if got := cfg.GetSecond("modules.token.idempotency_ttl_seconds"); got != 30*time.Second {
		t.Fatalf("idempotency ttl = %v", got)
	}
	if got := cfg.GetArray("app.server.cors"); len(got) != 2 || got[1] != "http://b.test" {
		t.Fatalf("cors = %#v", got)
	}
	if got := cfg.GetArray("instrument.log_mask_fields"); len(got) != 2 || got[0] != "otp" {
		t.Fatalf("mask fields = %#v", got)
	}
	if got := cfg.GetMap("mail.headers"); got["X-B"] != "2" {
		t.Fatalf("headers = %#v", got)
	}
}

func TestNewViperFromBytes_RequiresType(t *testing.T) {
	if _, err := NewViperFromBytes(" ", nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewViper_EnvOverride(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("GEOTOKEN_MODULES_IDENTITY_SESSION_TTL_MINUTES", "15")

	// Act
	cfg, err := NewViper(path)
	if err != nil {
		t.Fatalf("NewViper() error = %v", err)
	}
	t.Cleanup(func() { _ = cfg.Close() })

	// Assert
	if got := cfg.GetMinute("modules.identity.session_ttl_minutes"); got != 15*time.Minute {
		t.Fatalf("session ttl = %v, want 15m", got)
	}
}
