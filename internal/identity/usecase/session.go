package usecase

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/shandysiswandi/geotoken/internal/pkg/goerror"
	"github.com/shandysiswandi/geotoken/internal/pkg/session"
)

var (
	errUnauthenticated = goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	errSessionExpired  = goerror.NewBusiness("Session expired. Please login again.", goerror.CodeSessionExpired)
	errRoleForbidden   = goerror.NewBusiness("Session is not allowed to perform this action", goerror.CodeForbidden)
)

// Verify resolves a bearer credential. Expired sessions are evicted, and a
// session presented for a role it does not hold is revoked. Expiry is never
// extended.
func (s *Usecase) Verify(ctx context.Context, token string, roles ...session.Role) (*session.Principal, error) {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errUnauthenticated
	}

	tokenHash, err := s.hmac.Hash(token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash session token", "error", err)
		return nil, goerror.NewServer(err)
	}

	sess, err := s.repoDB.GetSessionByTokenHash(ctx, string(tokenHash))
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, errUnauthenticated
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get session", "error", err)
		return nil, goerror.NewServer(err)
	}

	if sess.Expired(s.clock.Now()) {
		slog.InfoContext(ctx, "session expired", "session_id", sess.ID)
		if err := s.repoDB.DeleteSession(ctx, sess.ID); err != nil {
			slog.ErrorContext(ctx, "failed to repo evict expired session", "session_id", sess.ID, "error", err)
		}
		return nil, errSessionExpired
	}

	if len(roles) > 0 && !slices.Contains(roles, sess.Role) {
		slog.WarnContext(ctx, "session used for a role it does not hold, revoking",
			"session_id", sess.ID, "role", sess.Role.String())
		if err := s.repoDB.DeleteSession(ctx, sess.ID); err != nil {
			slog.ErrorContext(ctx, "failed to repo revoke session", "session_id", sess.ID, "error", err)
		}
		return nil, errRoleForbidden
	}

	return &session.Principal{
		SessionID:  sess.ID,
		IdentityID: sess.IdentityID,
		Contact:    sess.Contact,
		Role:       sess.Role,
		ExpiresAt:  sess.ExpiresAt,
	}, nil
}

// Revoke deletes the session behind token. Unknown tokens are a no-op.
func (s *Usecase) Revoke(ctx context.Context, token string) error {
	ctx, span := s.startSpan(ctx, "Revoke")
	defer span.End()

	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	tokenHash, err := s.hmac.Hash(token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash session token", "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoDB.DeleteSessionByTokenHash(ctx, string(tokenHash)); err != nil {
		slog.ErrorContext(ctx, "failed to repo revoke session", "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

// Invalidate deletes a session by id. Token operations call it when their
// in-transaction check finds the session expired or holding the wrong role.
func (s *Usecase) Invalidate(ctx context.Context, sessionID int64) error {
	ctx, span := s.startSpan(ctx, "Invalidate")
	defer span.End()

	if err := s.repoDB.DeleteSession(ctx, sessionID); err != nil {
		slog.ErrorContext(ctx, "failed to repo invalidate session", "session_id", sessionID, "error", err)
		return goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "session invalidated", "session_id", sessionID)

	return nil
}
