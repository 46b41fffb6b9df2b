package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/shandysiswandi/geotoken/internal/pkg/goerror"
	"github.com/shandysiswandi/geotoken/internal/pkg/idempotency"
	"github.com/shandysiswandi/geotoken/internal/token/entity"
)

type ControlTokensInput struct {
	Action         string   `validate:"required,oneof=start stop"`
	Latitude       *float64 `validate:"omitempty,gte=-90,lte=90"`
	Longitude      *float64 `validate:"omitempty,gte=-180,lte=180"`
	IdempotencyKey string   `validate:"omitempty,max=128"`
}

type ControlTokensOutput struct {
	Action entity.Action
	// Token is the appended token; nil for stop and for replayed requests.
	Token *entity.Token
	// Replayed is true when the idempotency key was already completed.
	Replayed bool
}

// ControlTokens handles the producer's start/stop signal. A start appends one
// token at the given location; a stop only acknowledges.
func (s *Usecase) ControlTokens(ctx context.Context, in ControlTokensInput) (*ControlTokensOutput, error) {
	ctx, span := s.startSpan(ctx, "ControlTokens")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if entity.Action(in.Action) == entity.ActionStart && (in.Latitude == nil || in.Longitude == nil) {
		return nil, goerror.NewInvalidInput(nil,
			"latitude", "latitude and longitude are required to start",
			"longitude", "latitude and longitude are required to start",
		)
	}

	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	action := entity.Action(in.Action)
	if action == entity.ActionStop {
		slog.InfoContext(ctx, "producer stopped", "session_id", caller.SessionID)
		return &ControlTokensOutput{Action: action}, nil
	}

	out := &ControlTokensOutput{Action: action}
	appendFn := func(ctx context.Context) error {
		tok, err := s.repoDB.AppendToken(ctx, caller, *in.Latitude, *in.Longitude)
		if err != nil {
			return s.storeError(ctx, "append token", caller, err)
		}
		out.Token = tok
		return nil
	}

	if in.IdempotencyKey == "" {
		if err := appendFn(ctx); err != nil {
			return nil, err
		}
		return out, nil
	}

	key := idempotency.Key("control-tokens", strconv.FormatInt(caller.SessionID, 10), in.IdempotencyKey)
	err = s.idempotency.Exec(ctx, key, appendFn,
		idempotency.WithStateTTL(s.idempotencyTTL()),
		idempotency.WithRetryFailed(),
	)
	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, idempotency.ErrAlreadyCompleted):
		slog.InfoContext(ctx, "control request replayed", "session_id", caller.SessionID)
		return &ControlTokensOutput{Action: action, Replayed: true}, nil
	case errors.Is(err, idempotency.ErrAlreadyInProgress):
		return nil, goerror.NewBusiness("Request with this idempotency key is in progress", goerror.CodeConflict)
	}

	var gerr *goerror.Error
	if errors.As(err, &gerr) {
		return nil, err
	}

	slog.ErrorContext(ctx, "failed to run idempotent append", "session_id", caller.SessionID, "error", err)
	return nil, goerror.NewServer(err)
}
