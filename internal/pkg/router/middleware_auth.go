package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/geotoken/internal/pkg/goerror"
	"github.com/shandysiswandi/geotoken/internal/pkg/session"
)

// Authenticate resolves the bearer credential through verifier and stores the
// principal in the request context. With roles, the principal must hold one.
func Authenticate(verifier session.Verifier, roles ...session.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				writeError(r.Context(), w, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized))
				return
			}

			principal, err := verifier.Verify(r.Context(), token, roles...)
			if err != nil {
				if setter, ok := w.(interface{ SetError(error) }); ok {
					setter.SetError(err)
				}
				writeError(r.Context(), w, err)
				return
			}

			ctx := session.SetAuth(r.Context(), principal)
			ctx = session.SetToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the credential from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) string {
	p := strings.Fields(r.Header.Get("Authorization"))
	if len(p) != 2 || !strings.EqualFold(p[0], "Bearer") {
		return ""
	}
	return p[1]
}
