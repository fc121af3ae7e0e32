package security

import (
	"fmt"

	"github.com/phamyourfam/blissbite/internal/core/port"
)

// PasswordHasher hashes with the preferred algorithm and verifies either
// supported encoding, so switching algorithms keeps existing accounts working.
type PasswordHasher struct {
	preferred port.PasswordHasher
	scrypt    *ScryptHasher
	argon2    *Argon2Hasher
}

// NewPasswordHasher builds a hasher for algorithm ("scrypt" or "argon2id").
func NewPasswordHasher(algorithm string, argonCfg Argon2Config) (*PasswordHasher, error) {
	argon, err := NewArgon2Hasher(argonCfg)
	if err != nil {
		return nil, err
	}

	h := &PasswordHasher{
		scrypt: NewScryptHasher(DefaultScrypt()),
		argon2: argon,
	}

	switch algorithm {
	case "", "scrypt":
		h.preferred = h.scrypt
	case argon2Variant:
		h.preferred = h.argon2
	default:
		return nil, fmt.Errorf("unsupported password algorithm %q", algorithm)
	}

	return h, nil
}

// Hash encodes password with the preferred algorithm.
func (h *PasswordHasher) Hash(password string) (string, error) {
	return h.preferred.Hash(password)
}

// Verify dispatches on the encoding of the stored hash.
func (h *PasswordHasher) Verify(password, encoded string) (bool, error) {
	if IsArgon2Hash(encoded) {
		return h.argon2.Verify(password, encoded)
	}
	return h.scrypt.Verify(password, encoded)
}

var _ port.PasswordHasher = (*PasswordHasher)(nil)
