package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/geotoken/internal/token/entity"
)

// ClaimTokens hands every unclaimed token to the calling consumer exactly once.
func (s *Usecase) ClaimTokens(ctx context.Context) ([]entity.Token, error) {
	ctx, span := s.startSpan(ctx, "ClaimTokens")
	defer span.End()

	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	tokens, err := s.repoDB.ClaimTokens(ctx, caller)
	if err != nil {
		return nil, s.storeError(ctx, "claim tokens", caller, err)
	}

	if len(tokens) > 0 {
		slog.InfoContext(ctx, "tokens claimed", "session_id", caller.SessionID, "count", len(tokens))
	}

	return tokens, nil
}
