package attendance

import (
	"crypto/rand"
	"fmt"
)

const tokenAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// tokenLength of 16 base36 characters carries ~82 bits of entropy, enough to
// make collisions negligible at any plausible issuance volume.
const tokenLength = 16

// NewToken returns a random opaque code token.
func NewToken() (string, error) {
	raw := make([]byte, tokenLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate code token: %w", err)
	}
	out := make([]byte, tokenLength)
	for i, b := range raw {
		out[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(out), nil
}
