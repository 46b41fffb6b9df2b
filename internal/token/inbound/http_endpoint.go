package inbound

import (
	"time"

	"github.com/shandysiswandi/geotoken/internal/pkg/router"
	"github.com/shandysiswandi/geotoken/internal/token/entity"
	"github.com/shandysiswandi/geotoken/internal/token/usecase"
)

const headerIdempotencyKey = "Idempotency-Key"

type HTTPEndpoint struct {
	uc uc
}

// ControlTokens starts or stops token generation for the producer.
// @Summary Control token generation
// @Tags Token
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Deduplicates retried appends"
// @Param request body ControlTokensRequest true "Action and current location"
// @Success 200 {object} ControlTokensResponse
// @Failure 401 {object} router.ErrorResponse
// @Failure 403 {object} router.ErrorResponse
// @Failure 409 {object} router.ErrorResponse "Same idempotency key in progress"
// @Router /control-tokens [post]
func (h *HTTPEndpoint) ControlTokens(r *router.Request) (any, error) {
	var req ControlTokensRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.ControlTokens(r.Context(), usecase.ControlTokensInput{
		Action:         req.Action,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		IdempotencyKey: r.GetHeader(headerIdempotencyKey),
	})
	if err != nil {
		return nil, err
	}

	out := ControlTokensResponse{Replayed: resp.Replayed, msg: "Token generation stopped"}
	if resp.Action == entity.ActionStart {
		out.msg = "Token generated"
	}
	if resp.Token != nil {
		tok := toToken(*resp.Token)
		out.Token = &tok
	}

	return out, nil
}

// GetTokens claims every unclaimed token for the consumer.
// @Summary Claim tokens
// @Tags Token
// @Security BearerAuth
// @Produce json
// @Success 200 {object} GetTokensResponse
// @Failure 401 {object} router.ErrorResponse
// @Failure 403 {object} router.ErrorResponse
// @Router /get-tokens [get]
func (h *HTTPEndpoint) GetTokens(r *router.Request) (any, error) {
	tokens, err := h.uc.ClaimTokens(r.Context())
	if err != nil {
		return nil, err
	}

	return GetTokensResponse{Tokens: toTokens(tokens)}, nil
}

// ListTokens returns token history without claiming.
// @Summary Token history
// @Tags Token
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Rows to skip"
// @Success 200 {object} ListTokensResponse
// @Router /tokens [get]
func (h *HTTPEndpoint) ListTokens(r *router.Request) (any, error) {
	limit, err := r.GetQueryInt32("limit")
	if err != nil {
		return nil, err
	}
	offset, err := r.GetQueryInt32("offset")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.ListTokens(r.Context(), usecase.ListTokensInput{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}

	return ListTokensResponse{
		Tokens: toTokens(resp.Tokens),
		total:  resp.Total,
		limit:  resp.Limit,
		offset: resp.Offset,
	}, nil
}

// ExportTokens uploads the history as CSV and returns a download link.
// @Summary Export token history
// @Tags Token
// @Security BearerAuth
// @Produce json
// @Success 200 {object} ExportTokensResponse
// @Failure 503 {object} router.ErrorResponse
// @Router /tokens/export [post]
func (h *HTTPEndpoint) ExportTokens(r *router.Request) (any, error) {
	resp, err := h.uc.ExportTokens(r.Context())
	if err != nil {
		return nil, err
	}

	return ExportTokensResponse{
		URL:       resp.URL,
		ExpiresAt: resp.ExpiresAt.UTC().Format(time.RFC3339),
		Rows:      resp.Rows,
	}, nil
}
