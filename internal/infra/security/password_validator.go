package security

import (
	"fmt"
	"strings"
	"unicode"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

// PasswordValidationError represents a single password policy violation.
type PasswordValidationError struct {
	Code    string
	Message string
}

// Error implements error for PasswordValidationError.
func (e *PasswordValidationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// PasswordCandidate is what a rule inspects: the password and the account
// attributes it must not be derived from.
type PasswordCandidate struct {
	Password   string
	UserInputs []string
}

// PasswordRule validates a candidate according to a specific policy rule.
type PasswordRule func(PasswordCandidate) error

// PasswordValidator applies a sequence of password rules.
type PasswordValidator struct {
	rules []PasswordRule
}

// NewPasswordValidator constructs a validator with the provided rules.
func NewPasswordValidator(rules ...PasswordRule) *PasswordValidator {
	copied := make([]PasswordRule, 0, len(rules))
	for _, rule := range rules {
		if rule != nil {
			copied = append(copied, rule)
		}
	}
	return &PasswordValidator{rules: copied}
}

// Validate executes all rules and returns the first encountered violation.
func (v *PasswordValidator) Validate(password string, userInputs ...string) error {
	if v == nil {
		return fmt.Errorf("password validator not configured")
	}

	candidate := PasswordCandidate{Password: password, UserInputs: userInputs}
	for _, rule := range v.rules {
		if err := rule(candidate); err != nil {
			return err
		}
	}
	return nil
}

// MinLengthRule ensures the password has at least min characters.
func MinLengthRule(min int) PasswordRule {
	return func(c PasswordCandidate) error {
		if len([]rune(c.Password)) < min {
			return &PasswordValidationError{
				Code:    "min_length",
				Message: fmt.Sprintf("password must be at least %d characters long", min),
			}
		}
		return nil
	}
}

// RequireCharacterClassesRule ensures the password mixes at least min of upper, lower, digit, symbol.
func RequireCharacterClassesRule(min int) PasswordRule {
	return func(c PasswordCandidate) error {
		if min <= 0 {
			return nil
		}

		seen := map[string]bool{}
		for _, r := range c.Password {
			switch {
			case unicode.IsUpper(r):
				seen["upper"] = true
			case unicode.IsLower(r):
				seen["lower"] = true
			case unicode.IsDigit(r):
				seen["digit"] = true
			case unicode.IsSymbol(r) || unicode.IsPunct(r):
				seen["symbol"] = true
			}
		}

		if len(seen) >= min {
			return nil
		}
		return &PasswordValidationError{
			Code:    "character_classes",
			Message: fmt.Sprintf("password must include at least %d character types", min),
		}
	}
}

// NotDerivedFromInputsRule rejects passwords containing the email local part or a name.
func NotDerivedFromInputsRule() PasswordRule {
	return func(c PasswordCandidate) error {
		lowered := strings.ToLower(c.Password)
		for _, input := range c.UserInputs {
			input = strings.ToLower(strings.TrimSpace(input))
			if local, _, ok := strings.Cut(input, "@"); ok {
				input = local
			}
			if len(input) < 4 {
				continue
			}
			if strings.Contains(lowered, input) {
				return &PasswordValidationError{
					Code:    "personal_information",
					Message: "password must not contain your email or name",
				}
			}
		}
		return nil
	}
}

// RequirePasswordStrengthRule enforces a minimum zxcvbn score to reject weak passwords.
func RequirePasswordStrengthRule(minScore int) PasswordRule {
	return func(c PasswordCandidate) error {
		if minScore <= 0 {
			return nil
		}
		if minScore > 4 {
			minScore = 4
		}

		result := zxcvbn.PasswordStrength(c.Password, c.UserInputs)
		if result.Score >= minScore {
			return nil
		}

		return &PasswordValidationError{
			Code:    "weak_password",
			Message: "password is too weak; choose a more complex value",
		}
	}
}
