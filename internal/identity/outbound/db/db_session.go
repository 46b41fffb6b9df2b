package db

import (
	"context"

	"github.com/shandysiswandi/geotoken/internal/identity/entity"
	"github.com/shandysiswandi/geotoken/internal/pkg/session"
)

const (
	queryGetSessionByTokenHash = `
SELECT s.id, s.identity_id, s.token_hash, s.role, s.issued_at, s.expires_at, s.metadata, i.contact
FROM sessions s
JOIN identities i ON i.id = s.identity_id
WHERE s.token_hash = $1`

	queryDeleteSession            = `DELETE FROM sessions WHERE id = $1`
	queryDeleteSessionByTokenHash = `DELETE FROM sessions WHERE token_hash = $1`
)

func (s *DB) GetSessionByTokenHash(ctx context.Context, tokenHash string) (_ *entity.SessionIdentity, err error) {
	ctx, span := s.startSpan(ctx, "GetSessionByTokenHash")
	defer func() { s.endSpan(span, err) }()

	var (
		out  entity.SessionIdentity
		role int16
	)
	err = s.conn.QueryRow(ctx, queryGetSessionByTokenHash, tokenHash).Scan(
		&out.ID, &out.IdentityID, &out.TokenHash, &role, &out.IssuedAt, &out.ExpiresAt, &out.Metadata, &out.Contact,
	)
	if err != nil {
		return nil, s.mapError(err)
	}
	out.Role = session.Role(role)

	return &out, nil
}

func (s *DB) DeleteSession(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteSession")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryDeleteSession, id)
	return s.mapError(err)
}

func (s *DB) DeleteSessionByTokenHash(ctx context.Context, tokenHash string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteSessionByTokenHash")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryDeleteSessionByTokenHash, tokenHash)
	return s.mapError(err)
}
