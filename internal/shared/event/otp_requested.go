package event

const OTPRequestedDestination string = "otp_requested"
const OTPRequestedConsumerNotification string = "otp_requested_notification"

type OTPRequestedMessage struct {
	IdentityID int64  `json:"identity_id"`
	Contact    string `json:"contact"`
	Code       string `json:"code"`
	ExpiresAt  int64  `json:"expires_at"`
}
