package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/geotoken/internal/pkg/goerror"
	"github.com/shandysiswandi/geotoken/internal/pkg/session"
)

type RegisterInput struct {
	Name string `validate:"required,min=1,max=100"`
}

// Register sets the display name of the authenticated identity.
func (s *Usecase) Register(ctx context.Context, in RegisterInput) error {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	auth := session.GetAuth(ctx)
	if auth == nil {
		return errUnauthenticated
	}

	in.Name = strings.TrimSpace(in.Name)
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	err := s.repoDB.UpdateDisplayName(ctx, auth.IdentityID, in.Name)
	if errors.Is(err, goerror.ErrNotFound) {
		return goerror.NewBusiness("Account not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update display name", "identity_id", auth.IdentityID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
