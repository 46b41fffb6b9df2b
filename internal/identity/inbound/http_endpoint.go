package inbound

import (
	"time"

	"github.com/shandysiswandi/geotoken/internal/identity/usecase"
	"github.com/shandysiswandi/geotoken/internal/pkg/router"
)

// HTTPEndpoint exposes the OTP login and session endpoints.
type HTTPEndpoint struct {
	uc uc
}

// SendOTP issues a one-time code to the contact.
// @Summary Request an OTP
// @Tags Identity
// @Accept json
// @Produce json
// @Param request body SendOTPRequest true "Contact (email or E.164 phone)"
// @Success 200 {object} SendOTPResponse
// @Failure 422 {object} router.ErrorResponse "Validation error"
// @Failure 503 {object} router.ErrorResponse "OTP could not be delivered"
// @Router /send-otp [post]
func (h *HTTPEndpoint) SendOTP(r *router.Request) (any, error) {
	var req SendOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.SendOTP(r.Context(), usecase.SendOTPInput{Contact: req.Contact}); err != nil {
		return nil, err
	}

	return SendOTPResponse{}, nil
}

// VerifyOTP exchanges a code for a bearer credential.
// @Summary Verify an OTP
// @Tags Identity
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "Contact, code and optional role"
// @Success 200 {object} VerifyOTPResponse
// @Failure 400 {object} router.ErrorResponse "Invalid or expired OTP"
// @Failure 422 {object} router.ErrorResponse "Validation error"
// @Router /verify-otp [post]
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{
		Contact:   req.Contact,
		OTP:       req.OTP,
		Role:      req.Role,
		IP:        r.RemoteAddr,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		return nil, err
	}

	return VerifyOTPResponse{
		AuthToken: resp.AuthToken,
		IsNewUser: resp.IsNewUser,
		Role:      resp.Role.String(),
		ExpiresAt: resp.ExpiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// CheckUser reports whether a contact has completed registration.
// @Summary Check a contact
// @Tags Identity
// @Accept json
// @Produce json
// @Param request body CheckUserRequest true "Contact"
// @Success 200 {object} CheckUserResponse
// @Router /check-user [post]
func (h *HTTPEndpoint) CheckUser(r *router.Request) (any, error) {
	var req CheckUserRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.CheckUser(r.Context(), usecase.CheckUserInput{Contact: req.Contact})
	if err != nil {
		return nil, err
	}

	return CheckUserResponse{Exists: resp.Exists}, nil
}

// Register sets the display name of the authenticated identity.
// @Summary Complete registration
// @Tags Identity
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Display name"
// @Success 200 {object} RegisterResponse
// @Failure 401 {object} router.ErrorResponse
// @Router /register [post]
func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.Register(r.Context(), usecase.RegisterInput{Name: req.Name}); err != nil {
		return nil, err
	}

	return RegisterResponse{}, nil
}

// Logout revokes the presented credential.
// @Summary Logout
// @Tags Identity
// @Security BearerAuth
// @Produce json
// @Success 200 {object} LogoutResponse
// @Failure 401 {object} router.ErrorResponse
// @Router /logout [post]
func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	if err := h.uc.Logout(r.Context()); err != nil {
		return nil, err
	}

	return LogoutResponse{}, nil
}
