package inbound

import (
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/geotoken/internal/token/entity"
)

type Token struct {
	ID        int64   `json:"id"`
	Timestamp string  `json:"timestamp" example:"2026-03-01T10:00:00Z"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Claimed   bool    `json:"claimed"`
}

func toToken(t entity.Token) Token {
	return Token{
		ID:        t.ID,
		Timestamp: t.CreatedAt.UTC().Format(time.RFC3339),
		Latitude:  t.Latitude,
		Longitude: t.Longitude,
		Claimed:   t.Claimed,
	}
}

func toTokens(tokens []entity.Token) []Token {
	return lo.Map(tokens, func(t entity.Token, _ int) Token { return toToken(t) })
}

type ControlTokensRequest struct {
	Action    string   `json:"action" example:"start"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

type ControlTokensResponse struct {
	Token    *Token `json:"token,omitempty"`
	Replayed bool   `json:"replayed,omitempty"`

	msg string
}

func (r ControlTokensResponse) Message() string {
	return r.msg
}

type GetTokensResponse struct {
	Tokens []Token `json:"tokens"`
}

type ListTokensResponse struct {
	Tokens []Token `json:"tokens"`

	total  int64
	limit  int32
	offset int32
}

func (r ListTokensResponse) Meta() map[string]any {
	return map[string]any{
		"total":  r.total,
		"limit":  r.limit,
		"offset": r.offset,
	}
}

type ExportTokensResponse struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expiresAt"`
	Rows      int    `json:"rows"`
}
