package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/geotoken/internal/pkg/goerror"
	"github.com/shandysiswandi/geotoken/internal/pkg/instrument"
	"github.com/shandysiswandi/geotoken/internal/pkg/session"
	"github.com/shandysiswandi/geotoken/internal/token/entity"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const queryLockSession = `SELECT role, expires_at FROM sessions WHERE id = $1 FOR SHARE`

type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation

	appended metric.Int64Counter
	claimed  metric.Int64Counter
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	meter := ins.Meter("token.outbound.db")

	appended, err := meter.Int64Counter("token.appended", metric.WithDescription("Tokens appended by producers"))
	if err != nil {
		slog.Warn("failed to create token.appended counter", "error", err)
	}
	claimed, err := meter.Int64Counter("token.claimed", metric.WithDescription("Tokens claimed by consumers"))
	if err != nil {
		slog.Warn("failed to create token.claimed counter", "error", err)
	}

	return &DB{conn: conn, ins: ins, appended: appended, claimed: claimed}
}

func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return goerror.ErrConflict
		case "23503":
			return goerror.ErrNotFound
		}
	}

	return err
}

// lockSession share-locks the caller's session row so it cannot be revoked
// while the surrounding transaction runs, then checks it is still usable.
func (s *DB) lockSession(ctx context.Context, tx pgx.Tx, caller entity.Caller) error {
	var (
		role      int16
		expiresAt time.Time
	)
	if err := tx.QueryRow(ctx, queryLockSession, caller.SessionID).Scan(&role, &expiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.ErrSessionNotFound
		}
		return err
	}

	if caller.Now.After(expiresAt) {
		return entity.ErrSessionExpired
	}
	if session.Role(role) != caller.Role {
		return entity.ErrRoleMismatch
	}

	return nil
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("token.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil &&
		!errors.Is(err, entity.ErrSessionNotFound) &&
		!errors.Is(err, entity.ErrSessionExpired) &&
		!errors.Is(err, entity.ErrRoleMismatch) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *DB) rollback(ctx context.Context, tx pgx.Tx) {
	if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
		slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
	}
}
