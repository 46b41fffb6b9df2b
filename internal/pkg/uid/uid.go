// Package uid generates identifiers: sortable numeric ids for rows, UUIDs for
// correlation and idempotency keys, and unguessable secrets for credentials.
package uid

// NumberID generates numeric identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}
