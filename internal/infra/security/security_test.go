package security

import (
	"errors"
	"regexp"
	"strings"
	"testing"
)

func fastScrypt() Scrypt {
	return Scrypt{N: 1024, R: 8, P: 1, KeyLen: 64, SaltLen: 16}
}

func TestScryptCompareRoundTrip(t *testing.T) {
	s := fastScrypt()
	password := "Secret123!"

	salt, hash, err := s.Hash(password)
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if len(salt) != 32 || len(hash) != 128 {
		t.Fatalf("unexpected encoding lengths salt=%d hash=%d", len(salt), len(hash))
	}

	if !s.Compare(password, salt, hash) {
		t.Fatalf("expected compare to succeed for original password")
	}
}

func TestScryptCompareRejectsSingleCharacterMutations(t *testing.T) {
	s := fastScrypt()
	password := "Secret123!"

	salt, hash, err := s.Hash(password)
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	runes := []rune(password)
	for i := range runes {
		mutated := make([]rune, len(runes))
		copy(mutated, runes)
		mutated[i]++
		if s.Compare(string(mutated), salt, hash) {
			t.Fatalf("expected mutation at %d (%q) to fail", i, string(mutated))
		}
	}

	if s.Compare(password+"x", salt, hash) {
		t.Fatalf("expected appended character to fail")
	}
	if s.Compare(password[:len(password)-1], salt, hash) {
		t.Fatalf("expected truncated password to fail")
	}
}

func TestScryptCompareRejectsMalformedHash(t *testing.T) {
	if fastScrypt().Compare("pw", "salt", "not-hex") {
		t.Fatalf("expected malformed hash to fail")
	}
}

func TestScryptHasherEncoding(t *testing.T) {
	h := NewScryptHasher(fastScrypt())

	encoded, err := h.Hash("Secret123!")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if strings.Count(encoded, ":") != 1 {
		t.Fatalf("expected salt:hash encoding, got %q", encoded)
	}

	ok, err := h.Verify("Secret123!", encoded)
	if err != nil || !ok {
		t.Fatalf("expected verify success, ok=%v err=%v", ok, err)
	}

	if _, err := h.Verify("Secret123!", "garbage"); !errors.Is(err, errInvalidScryptHash) {
		t.Fatalf("expected errInvalidScryptHash, got %v", err)
	}
}

func TestArgon2HasherRoundTrip(t *testing.T) {
	h, err := NewArgon2Hasher(Argon2Config{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	if err != nil {
		t.Fatalf("NewArgon2Hasher returned error: %v", err)
	}

	encoded, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if !IsArgon2Hash(encoded) {
		t.Fatalf("expected argon2id encoding, got %q", encoded)
	}
	if parts := strings.Split(encoded, "$"); len(parts) != 5 || parts[1] != argon2Version {
		t.Fatalf("unexpected hash format %q", encoded)
	}

	ok, err := h.Verify("correct horse battery staple", encoded)
	if err != nil || !ok {
		t.Fatalf("expected verify success, ok=%v err=%v", ok, err)
	}

	ok, err = h.Verify("Tr0ub4dor&3", encoded)
	if err != nil || ok {
		t.Fatalf("expected verify failure, ok=%v err=%v", ok, err)
	}
}

func TestArgon2ConfigValidation(t *testing.T) {
	if _, err := NewArgon2Hasher(Argon2Config{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}); !errors.Is(err, errInvalidArgon2Config) {
		t.Fatalf("expected errInvalidArgon2Config, got %v", err)
	}
}

func TestPasswordHasherVerifiesBothEncodings(t *testing.T) {
	argonCfg := Argon2Config{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

	scryptFirst, err := NewPasswordHasher("scrypt", argonCfg)
	if err != nil {
		t.Fatalf("NewPasswordHasher returned error: %v", err)
	}
	argonFirst, err := NewPasswordHasher("argon2id", argonCfg)
	if err != nil {
		t.Fatalf("NewPasswordHasher returned error: %v", err)
	}

	legacy, err := argonFirst.Hash("Secret123!")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if ok, err := scryptFirst.Verify("Secret123!", legacy); err != nil || !ok {
		t.Fatalf("expected scrypt-preferred hasher to verify argon2 hash, ok=%v err=%v", ok, err)
	}

	current, err := scryptFirst.Hash("Secret123!")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if IsArgon2Hash(current) {
		t.Fatalf("expected scrypt encoding, got %q", current)
	}
	if ok, err := argonFirst.Verify("Secret123!", current); err != nil || !ok {
		t.Fatalf("expected argon2-preferred hasher to verify scrypt hash, ok=%v err=%v", ok, err)
	}

	if _, err := NewPasswordHasher("bcrypt", argonCfg); err == nil {
		t.Fatalf("expected error for unsupported algorithm")
	}
}

func TestSignupIdentifiers(t *testing.T) {
	temp, err := NewTempAccountID()
	if err != nil {
		t.Fatalf("NewTempAccountID returned error: %v", err)
	}
	if !regexp.MustCompile(`^temp_[0-9a-f]{32}$`).MatchString(temp) {
		t.Fatalf("unexpected temp account id %q", temp)
	}

	code, err := NewVerificationCode()
	if err != nil {
		t.Fatalf("NewVerificationCode returned error: %v", err)
	}
	if !regexp.MustCompile(`^[0-9A-F]{6}$`).MatchString(code) {
		t.Fatalf("unexpected verification code %q", code)
	}

	token, err := NewVerificationToken()
	if err != nil {
		t.Fatalf("NewVerificationToken returned error: %v", err)
	}
	if !regexp.MustCompile(`^verify_[0-9a-f]{64}$`).MatchString(token) {
		t.Fatalf("unexpected verification token %q", token)
	}

	if HashToken("abc") == HashToken("abd") {
		t.Fatalf("expected distinct digests")
	}
}

func TestPasswordPolicy(t *testing.T) {
	policy := NewPasswordPolicy(PasswordPolicyConfig{})

	if err := policy.Validate("Secret123!", "a@b.com"); err != nil {
		t.Fatalf("expected default policy to accept Secret123!, got %v", err)
	}

	assertViolation := func(err error, code string) {
		t.Helper()
		var vErr *PasswordValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected PasswordValidationError, got %v", err)
		}
		if vErr.Code != code {
			t.Fatalf("expected %s, got %s", code, vErr.Code)
		}
	}

	assertViolation(policy.Validate("short"), "min_length")
	assertViolation(policy.Validate("maria.lopez-2024", "maria.lopez@example.com"), "personal_information")

	strict := NewPasswordPolicy(PasswordPolicyConfig{MinLength: 8, MinCharacterClasses: 3, MinStrength: 3})
	assertViolation(strict.Validate("lowercasepassword"), "character_classes")
	assertViolation(strict.Validate("Password123"), "weak_password")
	if err := strict.Validate("C0mplex!Passphrase#2025"); err != nil {
		t.Fatalf("expected strong password to pass, got %v", err)
	}
}
