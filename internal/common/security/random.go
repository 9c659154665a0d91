package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

const tokenBlockSize = 32

// NewActionToken returns two concatenated hex-encoded 32-byte random blocks.
func NewActionToken() (string, error) {
	buf := make([]byte, 2*tokenBlockSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf[:tokenBlockSize]) + hex.EncodeToString(buf[tokenBlockSize:]), nil
}

// TokensEqual compares two tokens in constant time.
func TokensEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
