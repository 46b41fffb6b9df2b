package inbound

import (
	"context"

	"github.com/shandysiswandi/geotoken/internal/identity/usecase"
	"github.com/shandysiswandi/geotoken/internal/pkg/router"
	"github.com/shandysiswandi/geotoken/internal/pkg/session"
)

type uc interface {
	session.Verifier

	SendOTP(ctx context.Context, in usecase.SendOTPInput) error
	VerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error)
	CheckUser(ctx context.Context, in usecase.CheckUserInput) (*usecase.CheckUserOutput, error)

	Register(ctx context.Context, in usecase.RegisterInput) error
	Logout(ctx context.Context) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}
	authenticated := router.Authenticate(uc)

	r.POST("/send-otp", end.SendOTP)
	r.POST("/verify-otp", end.VerifyOTP)
	r.POST("/check-user", end.CheckUser)

	r.POST("/register", end.Register, authenticated)
	r.POST("/logout", end.Logout, authenticated)
}
