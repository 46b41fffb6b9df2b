package usecase

import (
	"context"

	"github.com/shandysiswandi/geotoken/internal/pkg/session"
)

func (s *Usecase) Logout(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	if session.GetAuth(ctx) == nil {
		return errUnauthenticated
	}

	return s.Revoke(ctx, session.GetToken(ctx))
}
