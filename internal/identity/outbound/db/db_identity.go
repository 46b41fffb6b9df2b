package db

import (
	"context"

	"github.com/shandysiswandi/geotoken/internal/identity/entity"
	"github.com/shandysiswandi/geotoken/internal/pkg/goerror"
)

const (
	queryGetIdentityByContact = `SELECT id, contact, display_name, created_at FROM identities WHERE contact = $1`
	queryUpdateDisplayName    = `UPDATE identities SET display_name = $2, updated_at = now() WHERE id = $1`
)

func (s *DB) GetIdentityByContact(ctx context.Context, contact string) (_ *entity.Identity, err error) {
	ctx, span := s.startSpan(ctx, "GetIdentityByContact")
	defer func() { s.endSpan(span, err) }()

	var out entity.Identity
	if err = s.conn.QueryRow(ctx, queryGetIdentityByContact, contact).
		Scan(&out.ID, &out.Contact, &out.DisplayName, &out.CreatedAt); err != nil {
		return nil, s.mapError(err)
	}

	return &out, nil
}

func (s *DB) UpdateDisplayName(ctx context.Context, id int64, name string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateDisplayName")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, queryUpdateDisplayName, id, name)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
