// Package clock provides a tiny time abstraction.
//
// Expiry decisions (OTP challenges, sessions) read time through Clocker so
// tests can move time forward deterministically.
package clock
