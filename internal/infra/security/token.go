package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	tempAccountPrefix       = "temp_"
	verificationTokenPrefix = "verify_"
)

// RandomHex returns hex(n random bytes).
func RandomHex(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("length must be positive")
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateSecureToken returns a base64 URL-safe random string using the specified number of random bytes.
func GenerateSecureToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		return "", fmt.Errorf("length must be positive")
	}

	buf := make([]byte, byteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashToken calculates a SHA-256 hash of the provided value.
func HashToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// NewTempAccountID returns "temp_" followed by 32 hex characters.
func NewTempAccountID() (string, error) {
	id, err := RandomHex(16)
	if err != nil {
		return "", err
	}
	return tempAccountPrefix + id, nil
}

// NewVerificationCode returns a 6 character upper-case hex code.
func NewVerificationCode() (string, error) {
	code, err := RandomHex(3)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(code), nil
}

// NewVerificationToken returns "verify_" followed by 64 hex characters.
func NewVerificationToken() (string, error) {
	token, err := RandomHex(32)
	if err != nil {
		return "", err
	}
	return verificationTokenPrefix + token, nil
}

// NewSessionToken returns an opaque bearer token.
func NewSessionToken() (string, error) {
	return GenerateSecureToken(32)
}
