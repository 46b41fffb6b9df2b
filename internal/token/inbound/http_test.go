package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/geotoken/internal/pkg/goerror"
	"github.com/shandysiswandi/geotoken/internal/pkg/instrument"
	"github.com/shandysiswandi/geotoken/internal/pkg/router"
	"github.com/shandysiswandi/geotoken/internal/pkg/session"
	"github.com/shandysiswandi/geotoken/internal/token/entity"
	"github.com/shandysiswandi/geotoken/internal/token/usecase"
)

// roleVerifier accepts "producer" and "consumer" as bearer tokens.
type roleVerifier struct{}

func (roleVerifier) Verify(_ context.Context, token string, roles ...session.Role) (*session.Principal, error) {
	role := session.ParseRole(token)
	if !role.Valid() {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	if len(roles) > 0 && roles[0] != role {
		return nil, goerror.NewBusiness("Forbidden", goerror.CodeForbidden)
	}
	return &session.Principal{SessionID: 1, IdentityID: 1, Role: role}, nil
}

type fakeUC struct {
	gotControl usecase.ControlTokensInput
	gotList    usecase.ListTokensInput
}

var created = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func (f *fakeUC) ControlTokens(_ context.Context, in usecase.ControlTokensInput) (*usecase.ControlTokensOutput, error) {
	f.gotControl = in
	out := &usecase.ControlTokensOutput{Action: entity.Action(in.Action)}
	if in.Action == "start" {
		out.Token = &entity.Token{ID: 1, CreatedAt: created, Latitude: *in.Latitude, Longitude: *in.Longitude}
	}
	return out, nil
}

func (f *fakeUC) ClaimTokens(context.Context) ([]entity.Token, error) {
	return []entity.Token{{ID: 1, CreatedAt: created, Latitude: 37.7749, Longitude: -122.4194, Claimed: true}}, nil
}

func (f *fakeUC) ListTokens(_ context.Context, in usecase.ListTokensInput) (*usecase.ListTokensOutput, error) {
	f.gotList = in
	return &usecase.ListTokensOutput{Tokens: []entity.Token{{ID: 3, CreatedAt: created}}, Total: 7, Limit: in.Limit, Offset: in.Offset}, nil
}

func (f *fakeUC) ExportTokens(context.Context) (*usecase.ExportTokensOutput, error) {
	return &usecase.ExportTokensOutput{URL: "https://storage.local/x.csv", ExpiresAt: created.Add(15 * time.Minute), Rows: 7}, nil
}

func serve(t *testing.T, uc *fakeUC, method, path, body string, headers map[string]string) (int, map[string]any) {
	t.Helper()

	r := router.NewRouter(router.Config{Instrument: instrument.NewNoop()})
	RegisterHTTPEndpoint(r, uc, roleVerifier{})

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec.Code, out
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestControlTokens(t *testing.T) {
	t.Run("start with idempotency key", func(t *testing.T) {
		// Arrange
		uc := &fakeUC{}
		headers := bearer("producer")
		headers["Idempotency-Key"] = "k-1"

		// Act
		code, out := serve(t, uc, http.MethodPost, "/control-tokens", `{"action":"start","latitude":37.7749,"longitude":-122.4194}`, headers)

		// Assert
		if code != http.StatusOK || out["success"] != true || out["message"] != "Token generated" {
			t.Fatalf("status = %d, body = %v", code, out)
		}
		tok, _ := out["token"].(map[string]any)
		if tok["id"] != float64(1) || tok["timestamp"] != "2026-03-01T10:00:00Z" || tok["claimed"] != false {
			t.Fatalf("token = %v", tok)
		}
		if uc.gotControl.IdempotencyKey != "k-1" {
			t.Fatalf("idempotency key = %q", uc.gotControl.IdempotencyKey)
		}
	})

	t.Run("consumer is forbidden", func(t *testing.T) {
		code, out := serve(t, &fakeUC{}, http.MethodPost, "/control-tokens", `{"action":"stop"}`, bearer("consumer"))
		if code != http.StatusForbidden || out["success"] != false {
			t.Fatalf("status = %d, body = %v", code, out)
		}
	})

	t.Run("missing bearer", func(t *testing.T) {
		code, _ := serve(t, &fakeUC{}, http.MethodPost, "/control-tokens", `{"action":"stop"}`, nil)
		if code != http.StatusUnauthorized {
			t.Fatalf("status = %d", code)
		}
	})
}

func TestGetTokens(t *testing.T) {
	code, out := serve(t, &fakeUC{}, http.MethodGet, "/get-tokens", "", bearer("consumer"))

	if code != http.StatusOK || out["success"] != true {
		t.Fatalf("status = %d, body = %v", code, out)
	}
	tokens, _ := out["tokens"].([]any)
	if len(tokens) != 1 {
		t.Fatalf("tokens = %v", out["tokens"])
	}
	tok := tokens[0].(map[string]any)
	if tok["latitude"] != 37.7749 || tok["longitude"] != -122.4194 || tok["claimed"] != true {
		t.Fatalf("token = %v", tok)
	}

	if code, _ := serve(t, &fakeUC{}, http.MethodGet, "/get-tokens", "", bearer("producer")); code != http.StatusForbidden {
		t.Fatalf("producer status = %d", code)
	}
}

func TestListAndExport(t *testing.T) {
	uc := &fakeUC{}

	code, out := serve(t, uc, http.MethodGet, "/tokens?limit=5&offset=2", "", bearer("producer"))
	if code != http.StatusOK || uc.gotList.Limit != 5 || uc.gotList.Offset != 2 {
		t.Fatalf("status = %d, in = %+v", code, uc.gotList)
	}
	meta, _ := out["meta"].(map[string]any)
	if meta["total"] != float64(7) {
		t.Fatalf("meta = %v", out["meta"])
	}

	if code, _ := serve(t, uc, http.MethodGet, "/tokens?limit=x", "", bearer("producer")); code != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d", code)
	}

	code, out = serve(t, uc, http.MethodPost, "/tokens/export", "", bearer("consumer"))
	if code != http.StatusOK || out["url"] != "https://storage.local/x.csv" || out["expiresAt"] != "2026-03-01T10:15:00Z" {
		t.Fatalf("status = %d, body = %v", code, out)
	}
}
