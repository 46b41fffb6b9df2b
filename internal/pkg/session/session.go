// Package session defines the authenticated principal carried through a request
// and the contract used by transports to resolve bearer credentials.
//
// Credentials are opaque random strings. Only their keyed hash is persisted,
// so a credential can be revoked at any time by deleting its row.
package session

import (
	"context"
	"strings"
	"time"
)

// Role is the closed set of capabilities a session can carry.
type Role int16

const (
	// RoleUnknown is the zero value and never authorizes anything.
	RoleUnknown Role = iota
	// RoleProducer may append tokens.
	RoleProducer
	// RoleConsumer may claim tokens.
	RoleConsumer
)

// String returns the wire name of the role.
func (r Role) String() string {
	switch r {
	case RoleProducer:
		return "producer"
	case RoleConsumer:
		return "consumer"
	default:
		return "unknown"
	}
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	return r == RoleProducer || r == RoleConsumer
}

// ParseRole converts a wire name into a Role.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "producer":
		return RoleProducer
	case "consumer":
		return RoleConsumer
	default:
		return RoleUnknown
	}
}

// Principal is the resolved identity behind a bearer credential.
type Principal struct {
	SessionID  int64
	IdentityID int64
	Contact    string
	Role       Role
	ExpiresAt  time.Time
}

// Verifier resolves a bearer credential into a Principal.
//
// When roles are given the principal must hold one of them. Implementations
// return goerror business errors so transports can map them to status codes.
type Verifier interface {
	Verify(ctx context.Context, token string, roles ...Role) (*Principal, error)
}

type ctxKey struct{}

// SetAuth stores the principal in ctx.
func SetAuth(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// GetAuth returns the principal stored in ctx, or nil.
func GetAuth(ctx context.Context) *Principal {
	if p, ok := ctx.Value(ctxKey{}).(*Principal); ok {
		return p
	}
	return nil
}

type tokenKey struct{}

// SetToken stores the raw bearer credential in ctx.
func SetToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// GetToken returns the raw bearer credential stored in ctx.
func GetToken(ctx context.Context) string {
	if t, ok := ctx.Value(tokenKey{}).(string); ok {
		return t
	}
	return ""
}
