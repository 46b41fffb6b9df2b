// Package entity holds the notification domain model.
package entity

import "time"

// OTPDelivery is one code to hand to a contact.
type OTPDelivery struct {
	IdentityID int64
	Contact    string
	Code       string
	ExpiresAt  time.Time
}

// MinutesLeft rounds the remaining validity to whole minutes, at least one.
func (d OTPDelivery) MinutesLeft(now time.Time) int {
	minutes := int(d.ExpiresAt.Sub(now).Round(time.Minute).Minutes())
	return max(minutes, 1)
}
