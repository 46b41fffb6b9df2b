// Package otp generates numeric one-time passcodes delivered out of band.
//
// Codes are drawn uniformly from crypto/rand and zero padded with the digit
// formatting from github.com/pquerna/otp, so "000042" is as likely as "999999".
package otp
