package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shandysiswandi/geotoken/internal/pkg/goerror"
	"github.com/shandysiswandi/geotoken/internal/token/entity"
)

type ExportTokensOutput struct {
	URL       string
	ExpiresAt time.Time
	Rows      int
}

// ExportTokens uploads the token history as CSV and returns a presigned
// download URL.
func (s *Usecase) ExportTokens(ctx context.Context) (*ExportTokensOutput, error) {
	ctx, span := s.startSpan(ctx, "ExportTokens")
	defer span.End()

	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	if s.exporter == nil {
		return nil, goerror.NewUnavailable("Export is not configured", nil)
	}

	tokens, err := s.repoDB.ListTokens(ctx, entity.Page{Limit: s.exportMaxRows()})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list tokens", "error", err)
		return nil, goerror.NewServer(err)
	}

	key := fmt.Sprintf("exports/%d/%s-%s.csv", caller.IdentityID, caller.Now.Format("20060102T150405Z"), s.uuid.Generate())
	expiry := s.presignExpiry()

	url, err := s.exporter.Export(ctx, key, tokens, expiry)
	if err != nil {
		slog.ErrorContext(ctx, "failed to export tokens", "key", key, "error", err)
		return nil, goerror.NewUnavailable("Failed to export tokens", err)
	}

	slog.InfoContext(ctx, "tokens exported", "key", key, "rows", len(tokens))

	return &ExportTokensOutput{URL: url, ExpiresAt: caller.Now.Add(expiry), Rows: len(tokens)}, nil
}
