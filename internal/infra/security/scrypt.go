package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

var errInvalidScryptHash = errors.New("scrypt: invalid encoded hash format")

// Scrypt derives password digests stored as "salt:hash", both hex encoded.
type Scrypt struct {
	N       int
	R       int
	P       int
	KeyLen  int
	SaltLen int
}

// DefaultScrypt returns the cost parameters used for account passwords.
func DefaultScrypt() Scrypt {
	return Scrypt{N: 16384, R: 8, P: 1, KeyLen: 64, SaltLen: 16}
}

// Hash returns a fresh random salt and the digest of password under it.
func (s Scrypt) Hash(password string) (salt, hash string, err error) {
	raw := make([]byte, s.SaltLen)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("scrypt: generate salt: %w", err)
	}
	salt = hex.EncodeToString(raw)

	key, err := s.derive(password, salt)
	if err != nil {
		return "", "", err
	}
	return salt, hex.EncodeToString(key), nil
}

// Compare recomputes the digest with salt and compares it in constant time.
func (s Scrypt) Compare(password, salt, hash string) bool {
	expected, err := hex.DecodeString(hash)
	if err != nil || len(expected) == 0 {
		return false
	}

	key, err := s.deriveLen(password, salt, len(expected))
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(key, expected) == 1
}

func (s Scrypt) derive(password, salt string) ([]byte, error) {
	return s.deriveLen(password, salt, s.KeyLen)
}

func (s Scrypt) deriveLen(password, salt string, keyLen int) ([]byte, error) {
	key, err := scrypt.Key([]byte(password), []byte(salt), s.N, s.R, s.P, keyLen)
	if err != nil {
		return nil, fmt.Errorf("scrypt: derive key: %w", err)
	}
	return key, nil
}

// ScryptHasher adapts Scrypt to the salt:hash string encoding.
type ScryptHasher struct {
	scrypt Scrypt
}

// NewScryptHasher builds a hasher with the given parameters.
func NewScryptHasher(params Scrypt) *ScryptHasher {
	return &ScryptHasher{scrypt: params}
}

// Hash encodes the digest as salt:hash.
func (h *ScryptHasher) Hash(password string) (string, error) {
	salt, hash, err := h.scrypt.Hash(password)
	if err != nil {
		return "", err
	}
	return salt + ":" + hash, nil
}

// Verify splits encoded and compares.
func (h *ScryptHasher) Verify(password, encoded string) (bool, error) {
	if password == "" || encoded == "" {
		return false, nil
	}

	salt, hash, ok := strings.Cut(encoded, ":")
	if !ok || salt == "" || hash == "" {
		return false, errInvalidScryptHash
	}
	return h.scrypt.Compare(password, salt, hash), nil
}
