package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/geotoken/internal/identity/entity"
	"github.com/shandysiswandi/geotoken/internal/pkg/goerror"
)

const (
	queryUpsertIdentity = `
INSERT INTO identities (id, contact)
VALUES ($1, $2)
ON CONFLICT (contact) DO UPDATE SET updated_at = now()
RETURNING id, contact, display_name, created_at`

	queryUpsertChallenge = `
INSERT INTO otp_challenges (identity_id, id, code_hash, issued_at, expires_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (identity_id) DO UPDATE
SET id = EXCLUDED.id, code_hash = EXCLUDED.code_hash, issued_at = EXCLUDED.issued_at, expires_at = EXCLUDED.expires_at`

	queryGetChallengeByContact = `
SELECT c.id, c.identity_id, c.code_hash, c.issued_at, c.expires_at, i.display_name
FROM otp_challenges c
JOIN identities i ON i.id = c.identity_id
WHERE i.contact = $1`

	queryDeleteChallenge = `DELETE FROM otp_challenges WHERE id = $1`

	queryInsertSession = `
INSERT INTO sessions (id, identity_id, token_hash, role, issued_at, expires_at, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
)

// UpsertChallenge creates the identity on first contact and replaces any
// existing challenge, in one transaction.
func (s *DB) UpsertChallenge(ctx context.Context, ident entity.Identity, chal entity.OTPChallenge) (_ *entity.Identity, err error) {
	ctx, span := s.startSpan(ctx, "UpsertChallenge")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer s.rollback(ctx, tx)

	var out entity.Identity
	if err = tx.QueryRow(ctx, queryUpsertIdentity, ident.ID, ident.Contact).
		Scan(&out.ID, &out.Contact, &out.DisplayName, &out.CreatedAt); err != nil {
		return nil, s.mapError(err)
	}

	if _, err = tx.Exec(ctx, queryUpsertChallenge,
		out.ID, chal.ID, chal.CodeHash, chal.IssuedAt, chal.ExpiresAt,
	); err != nil {
		return nil, s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, s.mapError(err)
	}

	return &out, nil
}

func (s *DB) GetChallengeByContact(ctx context.Context, contact string) (_ *entity.ChallengeIdentity, err error) {
	ctx, span := s.startSpan(ctx, "GetChallengeByContact")
	defer func() { s.endSpan(span, err) }()

	var out entity.ChallengeIdentity
	err = s.conn.QueryRow(ctx, queryGetChallengeByContact, contact).Scan(
		&out.ID, &out.IdentityID, &out.CodeHash, &out.IssuedAt, &out.ExpiresAt, &out.DisplayName,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &out, nil
}

func (s *DB) DeleteChallenge(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteChallenge")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryDeleteChallenge, id)
	return s.mapError(err)
}

// ConsumeChallenge deletes the challenge and inserts the session atomically.
// It returns goerror.ErrNotFound when the challenge was already consumed or
// replaced.
func (s *DB) ConsumeChallenge(ctx context.Context, challengeID int64, sess entity.Session) (err error) {
	ctx, span := s.startSpan(ctx, "ConsumeChallenge")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer s.rollback(ctx, tx)

	tag, err := tx.Exec(ctx, queryDeleteChallenge, challengeID)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	if _, err = tx.Exec(ctx, queryInsertSession,
		sess.ID, sess.IdentityID, sess.TokenHash, int16(sess.Role), sess.IssuedAt, sess.ExpiresAt, sess.Metadata,
	); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}
