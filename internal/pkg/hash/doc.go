// Package hash provides helpers for hashing and verifying secrets.
//
// Two flavours are used: a keyed HMAC for values that must be looked up by
// their digest (session credentials), and bcrypt for short secrets that are
// only ever compared (one-time codes).
package hash
