package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/geotoken/internal/pkg/goerror"
	"github.com/shandysiswandi/geotoken/internal/token/entity"
)

type ListTokensInput struct {
	Limit  int32 `validate:"gte=0"`
	Offset int32 `validate:"gte=0"`
}

type ListTokensOutput struct {
	Tokens []entity.Token
	Total  int64
	Limit  int32
	Offset int32
}

// ListTokens returns the token history without claiming anything.
func (s *Usecase) ListTokens(ctx context.Context, in ListTokensInput) (*ListTokensOutput, error) {
	ctx, span := s.startSpan(ctx, "ListTokens")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if _, err := s.caller(ctx); err != nil {
		return nil, err
	}

	if in.Limit == 0 {
		in.Limit = defaultListLimit
	}
	in.Limit = min(in.Limit, s.listMaxLimit())

	tokens, err := s.repoDB.ListTokens(ctx, entity.Page{Limit: in.Limit, Offset: in.Offset})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list tokens", "error", err)
		return nil, goerror.NewServer(err)
	}

	total, err := s.repoDB.CountTokens(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo count tokens", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ListTokensOutput{Tokens: tokens, Total: total, Limit: in.Limit, Offset: in.Offset}, nil
}
