package secrets

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// tokenBytes is the entropy of invite and challenge tokens.
const tokenBytes = 24

// NewToken returns a high-entropy hex bearer token.
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// NewOTP returns a zero-padded 6-digit code drawn from crypto/rand.
func NewOTP() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	n := binary.BigEndian.Uint64(buf[:]) % 1000000
	return fmt.Sprintf("%06d", n), nil
}
