// Package entity holds the token domain model.
package entity

import (
	"errors"
	"time"

	"github.com/shandysiswandi/geotoken/internal/pkg/session"
)

// Store outcomes of the in-transaction session check.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrRoleMismatch    = errors.New("session role mismatch")
)

// Token is one location reading published by a producer.
type Token struct {
	ID         int64
	SessionID  int64
	IdentityID int64
	Latitude   float64
	Longitude  float64
	CreatedAt  time.Time
	Claimed    bool
	ClaimedBy  *int64
	ClaimedAt  *time.Time
}

// Caller is the session performing a store operation. The store re-checks
// it inside the write transaction.
type Caller struct {
	SessionID  int64
	IdentityID int64
	Role       session.Role
	Now        time.Time
}

// Action is the producer control verb.
type Action string

const (
	ActionStart Action = "start"
	ActionStop  Action = "stop"
)

// Page bounds a history listing.
type Page struct {
	Limit  int32
	Offset int32
}
