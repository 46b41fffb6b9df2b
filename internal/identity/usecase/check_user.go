package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/geotoken/internal/identity/entity"
	"github.com/shandysiswandi/geotoken/internal/pkg/goerror"
)

type CheckUserInput struct {
	Contact string `validate:"required,contact"`
}

type CheckUserOutput struct {
	Exists bool
}

// CheckUser reports whether the contact belongs to a registered identity.
func (s *Usecase) CheckUser(ctx context.Context, in CheckUserInput) (*CheckUserOutput, error) {
	ctx, span := s.startSpan(ctx, "CheckUser")
	defer span.End()

	in.Contact = entity.NormalizeContact(in.Contact)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	ident, err := s.repoDB.GetIdentityByContact(ctx, in.Contact)
	if errors.Is(err, goerror.ErrNotFound) {
		return &CheckUserOutput{Exists: false}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get identity", "contact", in.Contact, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &CheckUserOutput{Exists: !ident.IsNew()}, nil
}
