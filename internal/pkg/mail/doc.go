// Package mail sends plain and multipart email.
//
// Use cases depend on the Mail interface; SMTP is the only transport.
package mail
