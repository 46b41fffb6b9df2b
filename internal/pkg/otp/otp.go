package otp

import (
	"crypto/rand"
	"io"
	"math/big"

	"github.com/pquerna/otp"
)

// Generator produces one-time codes.
type Generator interface {
	Generate() (string, error)
}

// Numeric draws codes uniformly from [0, 10^digits).
type Numeric struct {
	digits otp.Digits
	max    *big.Int
	rand   io.Reader
}

// NewNumeric returns a generator for six or eight digit codes. Any other
// length falls back to six digits. A nil reader uses crypto/rand.
func NewNumeric(digits otp.Digits, r io.Reader) *Numeric {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}
	if r == nil {
		r = rand.Reader
	}

	limit := big.NewInt(1)
	for range digits.Length() {
		limit.Mul(limit, big.NewInt(10))
	}

	return &Numeric{digits: digits, max: limit, rand: r}
}

// Generate returns a zero padded code.
func (n *Numeric) Generate() (string, error) {
	v, err := rand.Int(n.rand, n.max)
	if err != nil {
		return "", err
	}
	return n.digits.Format(int32(v.Int64())), nil
}

// Valid reports whether code has the shape of a six digit code.
func Valid(code string) bool {
	if len(code) != otp.DigitsSix.Length() {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
