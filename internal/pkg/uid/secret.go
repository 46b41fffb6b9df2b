package uid

import (
	"crypto/rand"
	"encoding/hex"
	"io"
)

// DefaultSecretBytes yields 256 bits of entropy.
const DefaultSecretBytes = 32

// Secret generates hex-encoded random strings for bearer credentials.
type Secret struct {
	size int
	rand io.Reader
}

// NewSecret returns a generator reading size bytes from crypto/rand.
// Sizes below 16 bytes are raised to DefaultSecretBytes.
func NewSecret(size int) *Secret {
	if size < 16 {
		size = DefaultSecretBytes
	}
	return &Secret{size: size, rand: rand.Reader}
}

// Generate returns a fresh secret. It panics if the system entropy source
// fails, since no safe fallback exists.
func (s *Secret) Generate() string {
	b := make([]byte, s.size)
	if _, err := io.ReadFull(s.rand, b); err != nil {
		panic("uid: entropy source failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}
