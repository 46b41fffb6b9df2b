package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shandysiswandi/geotoken/internal/pkg/goerror"
	"github.com/shandysiswandi/geotoken/internal/pkg/instrument"
	"github.com/shandysiswandi/geotoken/internal/pkg/session"
	"github.com/shandysiswandi/geotoken/internal/pkg/validator"
)

type fakeVerifier struct {
	principal *session.Principal
	err       error
	gotRoles  []session.Role
}

func (f *fakeVerifier) Verify(_ context.Context, _ string, roles ...session.Role) (*session.Principal, error) {
	f.gotRoles = roles
	return f.principal, f.err
}

type tokenBody struct {
	Tokens []int `json:"tokens"`
}

type messageBody struct{}

func (messageBody) Message() string { return "done" }

func newTestRouter() *Router {
	return NewRouter(Config{Instrument: instrument.NewNoop()})
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
		}
	}
	return rec, out
}

func TestRouter_SuccessEnvelope(t *testing.T) {
	// Arrange
	r := newTestRouter()
	r.GET("/tokens", func(*Request) (any, error) { return tokenBody{Tokens: []int{1, 2}}, nil })
	r.POST("/msg", func(*Request) (any, error) { return messageBody{}, nil })

	// Act
	rec, out := do(t, r, http.MethodGet, "/tokens", "", nil)
	_, outMsg := do(t, r, http.MethodPost, "/msg", "", nil)

	// Assert
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if out["success"] != true {
		t.Fatalf("missing success: %v", out)
	}
	if toks, _ := out["tokens"].([]any); len(toks) != 2 {
		t.Fatalf("tokens not flattened: %v", out)
	}
	if outMsg["success"] != true || outMsg["message"] != "done" {
		t.Fatalf("unexpected body: %v", outMsg)
	}
	if rec.Header().Get(HeaderCorrelationID) != "" {
		t.Fatal("no uuid generator configured, header must be absent")
	}
}

func TestRouter_ErrorEnvelope(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
		wantErr  string
	}{
		{
			name:     "business",
			err:      goerror.NewBusiness("Invalid or expired OTP", goerror.CodeInvalidOTP),
			wantCode: http.StatusBadRequest,
			wantMsg:  "Invalid or expired OTP",
			wantErr:  "ERROR_CODE_INVALID_OTP",
		},
		{
			name:     "validation",
			err:      goerror.NewInvalidInput(validator.V10ValidationError{"contact": "contact is required"}),
			wantCode: http.StatusUnprocessableEntity,
			wantMsg:  "Validation error",
			wantErr:  "ERROR_CODE_INVALID_INPUT",
		},
		{
			name:     "unknown",
			err:      context.DeadlineExceeded,
			wantCode: http.StatusInternalServerError,
			wantMsg:  "Internal server error",
			wantErr:  "ERROR_CODE_INTERNAL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			r := newTestRouter()
			r.POST("/x", func(*Request) (any, error) { return nil, tt.err })

			// Act
			rec, out := do(t, r, http.MethodPost, "/x", "", nil)

			// Assert
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if out["success"] != false || out["message"] != tt.wantMsg || out["code"] != tt.wantErr {
				t.Fatalf("unexpected body: %v", out)
			}
		})
	}
}

func TestRouter_ValidationFields(t *testing.T) {
	r := newTestRouter()
	r.POST("/x", func(*Request) (any, error) {
		return nil, goerror.NewInvalidInput(validator.V10ValidationError{"latitude": "latitude is required"})
	})

	_, out := do(t, r, http.MethodPost, "/x", "", nil)

	fields, _ := out["error"].(map[string]any)
	if fields["latitude"] != "latitude is required" {
		t.Fatalf("missing field errors: %v", out)
	}
}

func TestAuthenticate(t *testing.T) {
	principal := &session.Principal{SessionID: 9, Role: session.RoleProducer}

	tests := []struct {
		name     string
		header   string
		verifier *fakeVerifier
		wantCode int
	}{
		{
			name:     "missing header",
			verifier: &fakeVerifier{principal: principal},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "not bearer",
			header:   "Basic abc",
			verifier: &fakeVerifier{principal: principal},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "expired",
			header:   "Bearer abc",
			verifier: &fakeVerifier{err: goerror.NewBusiness("Session expired", goerror.CodeSessionExpired)},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "wrong role",
			header:   "Bearer abc",
			verifier: &fakeVerifier{err: goerror.NewBusiness("Forbidden", goerror.CodeForbidden)},
			wantCode: http.StatusForbidden,
		},
		{
			name:     "ok",
			header:   "bearer abc",
			verifier: &fakeVerifier{principal: principal},
			wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			r := newTestRouter()
			var seen *session.Principal
			var seenToken string
			r.POST("/control-tokens", func(req *Request) (any, error) {
				seen = session.GetAuth(req.Context())
				seenToken = session.GetToken(req.Context())
				return nil, nil
			}, Authenticate(tt.verifier, session.RoleProducer))

			// Act
			rec, out := do(t, r, http.MethodPost, "/control-tokens", "", map[string]string{"Authorization": tt.header})

			// Assert
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d, body %v", rec.Code, tt.wantCode, out)
			}
			if tt.wantCode == http.StatusOK {
				if seen != principal || seenToken != "abc" {
					t.Fatal("principal not propagated")
				}
				if len(tt.verifier.gotRoles) != 1 || tt.verifier.gotRoles[0] != session.RoleProducer {
					t.Fatalf("roles = %v", tt.verifier.gotRoles)
				}
			} else if out["success"] != false {
				t.Fatalf("expected failure envelope: %v", out)
			}
		})
	}
}

func TestRouter_RecoversPanic(t *testing.T) {
	r := newTestRouter()
	r.GET("/boom", func(*Request) (any, error) { panic("boom") })

	rec, out := do(t, r, http.MethodGet, "/boom", "", nil)

	if rec.Code != http.StatusInternalServerError || out["message"] != "Internal server error" {
		t.Fatalf("unexpected response %d %v", rec.Code, out)
	}
}

func TestRouter_NotFound(t *testing.T) {
	rec, out := do(t, newTestRouter(), http.MethodGet, "/missing", "", nil)

	if rec.Code != http.StatusNotFound || out["success"] != false {
		t.Fatalf("unexpected response %d %v", rec.Code, out)
	}
}

func TestRequest_DecodeBody(t *testing.T) {
	type in struct {
		Contact string `json:"contact"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "ok", body: `{"contact":"a@b.com"}`},
		{name: "unknown field", body: `{"contact":"a@b.com","x":1}`, wantErr: true},
		{name: "trailing", body: `{"contact":"a@b.com"}{}`, wantErr: true},
		{name: "malformed", body: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &Request{Request: httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))}
			var dst in
			err := req.DecodeBody(&dst)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeBody() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && goerror.CodeOf(err) != goerror.CodeInvalidFormat {
				t.Fatalf("code = %v", goerror.CodeOf(err))
			}
		})
	}
}
