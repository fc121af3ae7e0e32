package security

import "github.com/phamyourfam/blissbite/internal/core/port"

const defaultMinPasswordLength = 8

// PasswordPolicyConfig tunes the signup password policy.
type PasswordPolicyConfig struct {
	MinLength           int
	MinCharacterClasses int
	// MinStrength is a zxcvbn score between 0 and 4; 0 disables the check.
	MinStrength         int
}

// NewPasswordPolicy returns the validator used at signup.
func NewPasswordPolicy(cfg PasswordPolicyConfig) *PasswordValidator {
	minLength := cfg.MinLength
	if minLength <= 0 {
		minLength = defaultMinPasswordLength
	}

	return NewPasswordValidator(
		MinLengthRule(minLength),
		RequireCharacterClassesRule(cfg.MinCharacterClasses),
		NotDerivedFromInputsRule(),
		RequirePasswordStrengthRule(cfg.MinStrength),
	)
}

var _ port.PasswordPolicyValidator = (*PasswordValidator)(nil)
