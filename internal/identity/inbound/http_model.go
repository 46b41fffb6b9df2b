package inbound

type SendOTPRequest struct {
	Contact string `json:"contact"`
}

type SendOTPResponse struct{}

func (SendOTPResponse) Message() string {
	return "OTP sent"
}

type VerifyOTPRequest struct {
	Contact string `json:"contact"`
	OTP     string `json:"otp"`
	Role    string `json:"role,omitempty"`
}

type VerifyOTPResponse struct {
	AuthToken string `json:"authToken"`
	IsNewUser bool   `json:"isNewUser"`
	Role      string `json:"role"`
	ExpiresAt string `json:"expiresAt"`
}

type CheckUserRequest struct {
	Contact string `json:"contact"`
}

type CheckUserResponse struct {
	Exists bool `json:"exists"`
}

type RegisterRequest struct {
	Name string `json:"name"`
}

type RegisterResponse struct{}

func (RegisterResponse) Message() string {
	return "Registration complete"
}

type LogoutResponse struct{}

func (LogoutResponse) Message() string {
	return "Logged out"
}
