package inbound

import (
	"context"

	"github.com/shandysiswandi/geotoken/internal/pkg/router"
	"github.com/shandysiswandi/geotoken/internal/pkg/session"
	"github.com/shandysiswandi/geotoken/internal/token/entity"
	"github.com/shandysiswandi/geotoken/internal/token/usecase"
)

type uc interface {
	ControlTokens(ctx context.Context, in usecase.ControlTokensInput) (*usecase.ControlTokensOutput, error)
	ClaimTokens(ctx context.Context) ([]entity.Token, error)
	ListTokens(ctx context.Context, in usecase.ListTokensInput) (*usecase.ListTokensOutput, error)
	ExportTokens(ctx context.Context) (*usecase.ExportTokensOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc, verifier session.Verifier) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/control-tokens", end.ControlTokens, router.Authenticate(verifier, session.RoleProducer))
	r.GET("/get-tokens", end.GetTokens, router.Authenticate(verifier, session.RoleConsumer))

	r.GET("/tokens", end.ListTokens, router.Authenticate(verifier))
	r.POST("/tokens/export", end.ExportTokens, router.Authenticate(verifier))
}
