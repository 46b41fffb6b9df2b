package hash

// Hash produces and verifies one-way digests of secrets.
type Hash interface {
	// Hash returns the digest of str.
	Hash(str string) ([]byte, error)
	// Verify reports whether str produces hashed.
	Verify(hashed, str string) bool
}
