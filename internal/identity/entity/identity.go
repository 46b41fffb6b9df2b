package entity

import (
	"strings"
	"time"

	"github.com/shandysiswandi/geotoken/internal/pkg/session"
	"github.com/shandysiswandi/geotoken/internal/pkg/valueobject"
)

type Identity struct {
	ID          int64
	Contact     string
	DisplayName string
	CreatedAt   time.Time
}

// IsNew reports whether the identity has not completed registration yet.
func (i Identity) IsNew() bool {
	return strings.TrimSpace(i.DisplayName) == ""
}

type OTPChallenge struct {
	ID         int64
	IdentityID int64
	CodeHash   string
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// Expired reports whether now is past the challenge expiry.
func (c OTPChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// ChallengeIdentity is a challenge joined with its identity.
type ChallengeIdentity struct {
	OTPChallenge
	DisplayName string
}

type Session struct {
	ID         int64
	IdentityID int64
	TokenHash  string
	Role       session.Role
	IssuedAt   time.Time
	ExpiresAt  time.Time
	Metadata   valueobject.JSONMap
}

// Expired reports whether now is past the session expiry.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// SessionIdentity is a session joined with the contact of its identity.
type SessionIdentity struct {
	Session
	Contact string
}
