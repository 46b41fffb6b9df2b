package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/geotoken/internal/pkg/goerror"
	"github.com/shandysiswandi/geotoken/internal/pkg/session"
	"github.com/shandysiswandi/geotoken/internal/token/entity"
)

var (
	errUnauthenticated = goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	errSessionExpired  = goerror.NewBusiness("Session expired. Please login again.", goerror.CodeSessionExpired)
	errRoleForbidden   = goerror.NewBusiness("Session is not allowed to perform this action", goerror.CodeForbidden)
)

func (s *Usecase) caller(ctx context.Context) (entity.Caller, error) {
	auth := session.GetAuth(ctx)
	if auth == nil {
		return entity.Caller{}, errUnauthenticated
	}

	return entity.Caller{
		SessionID:  auth.SessionID,
		IdentityID: auth.IdentityID,
		Role:       auth.Role,
		Now:        s.clock.Now(),
	}, nil
}

// storeError maps a store failure to the client facing error. A session that
// turned out expired or mismatched inside the transaction is revoked.
func (s *Usecase) storeError(ctx context.Context, op string, caller entity.Caller, err error) error {
	switch {
	case errors.Is(err, entity.ErrSessionNotFound):
		return errUnauthenticated
	case errors.Is(err, entity.ErrSessionExpired):
		s.invalidate(ctx, caller.SessionID)
		return errSessionExpired
	case errors.Is(err, entity.ErrRoleMismatch):
		s.invalidate(ctx, caller.SessionID)
		return errRoleForbidden
	}

	slog.ErrorContext(ctx, "failed to repo "+op, "session_id", caller.SessionID, "error", err)
	return goerror.NewServer(err)
}

func (s *Usecase) invalidate(ctx context.Context, sessionID int64) {
	if err := s.sessions.Invalidate(ctx, sessionID); err != nil {
		slog.ErrorContext(ctx, "failed to invalidate session", "session_id", sessionID, "error", err)
	}
}
