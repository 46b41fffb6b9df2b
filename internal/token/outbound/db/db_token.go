package db

import (
	"cmp"
	"context"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/geotoken/internal/token/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	tokenColumns = `id, session_id, identity_id, latitude, longitude, created_at, claimed, claimed_by, claimed_at`

	queryInsertToken = `
INSERT INTO tokens (session_id, identity_id, latitude, longitude, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + tokenColumns

	queryClaimTokens = `
UPDATE tokens
SET claimed = true, claimed_by = $1, claimed_at = $2
WHERE claimed = false
RETURNING ` + tokenColumns

	queryListTokens = `
SELECT ` + tokenColumns + `
FROM tokens
ORDER BY id
LIMIT $1 OFFSET $2`

	queryCountTokens = `SELECT count(*) FROM tokens`
)

// AppendToken inserts one unclaimed token after re-checking the producer
// session inside the same transaction.
func (s *DB) AppendToken(ctx context.Context, caller entity.Caller, lat, lon float64) (_ *entity.Token, err error) {
	ctx, span := s.startSpan(ctx, "AppendToken")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer s.rollback(ctx, tx)

	if err = s.lockSession(ctx, tx, caller); err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, queryInsertToken, caller.SessionID, caller.IdentityID, lat, lon, caller.Now)
	tok, err := scanToken(row)
	if err != nil {
		return nil, s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, s.mapError(err)
	}

	if s.appended != nil {
		s.appended.Add(ctx, 1)
	}

	return tok, nil
}

// ClaimTokens marks every unclaimed token as claimed by the consumer and
// returns them ordered by id. Concurrent claims receive disjoint sets.
func (s *DB) ClaimTokens(ctx context.Context, caller entity.Caller) (_ []entity.Token, err error) {
	ctx, span := s.startSpan(ctx, "ClaimTokens")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer s.rollback(ctx, tx)

	if err = s.lockSession(ctx, tx, caller); err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, queryClaimTokens, caller.IdentityID, caller.Now)
	if err != nil {
		return nil, s.mapError(err)
	}
	tokens, err := scanTokens(rows)
	if err != nil {
		return nil, s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, s.mapError(err)
	}

	slices.SortFunc(tokens, func(a, b entity.Token) int {
		return cmp.Compare(a.ID, b.ID)
	})

	if s.claimed != nil && len(tokens) > 0 {
		s.claimed.Add(ctx, int64(len(tokens)), metric.WithAttributes(attribute.Int64("identity_id", caller.IdentityID)))
	}

	return tokens, nil
}

func (s *DB) ListTokens(ctx context.Context, page entity.Page) (_ []entity.Token, err error) {
	ctx, span := s.startSpan(ctx, "ListTokens")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, queryListTokens, page.Limit, page.Offset)
	if err != nil {
		return nil, s.mapError(err)
	}

	tokens, err := scanTokens(rows)
	if err != nil {
		return nil, s.mapError(err)
	}

	return tokens, nil
}

func (s *DB) CountTokens(ctx context.Context) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "CountTokens")
	defer func() { s.endSpan(span, err) }()

	var total int64
	if err = s.conn.QueryRow(ctx, queryCountTokens).Scan(&total); err != nil {
		return 0, s.mapError(err)
	}

	return total, nil
}

func scanToken(row pgx.Row) (*entity.Token, error) {
	var t entity.Token
	if err := row.Scan(
		&t.ID, &t.SessionID, &t.IdentityID, &t.Latitude, &t.Longitude,
		&t.CreatedAt, &t.Claimed, &t.ClaimedBy, &t.ClaimedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTokens(rows pgx.Rows) ([]entity.Token, error) {
	defer rows.Close()

	tokens := make([]entity.Token, 0)
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, *t)
	}

	return tokens, rows.Err()
}
