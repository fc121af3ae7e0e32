package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	StoreBackendRedis  = "redis"
	StoreBackendMemory = "memory"

	PasswordAlgorithmScrypt = "scrypt"
	PasswordAlgorithmArgon2 = "argon2id"

	minCookieSecretLength = 32
)

// ErrInvalidConfig is returned (wrapped) for every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// IsProduction reports whether the application runs in production mode.
func (c *AppConfig) IsProduction() bool {
	return c != nil && c.App.Env == EnvProduction
}

// Validate checks the loaded configuration and reports the first problem found.
func (c *AppConfig) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}

	switch c.App.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return invalid("app.env must be one of development, production, test (got %q)", c.App.Env)
	}

	if c.App.Port <= 0 || c.App.Port > 65535 {
		return invalid("app.port must be between 1 and 65535 (got %d)", c.App.Port)
	}
	if strings.TrimSpace(c.App.APIVersion) == "" {
		return invalid("app.api_version is required")
	}
	if u, err := url.Parse(c.App.FrontendURL); err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("app.frontend_url must be an absolute URL (got %q)", c.App.FrontendURL)
	}

	if strings.TrimSpace(c.Session.CookieName) == "" {
		return invalid("session.cookie_name is required")
	}
	if c.Session.Duration <= 0 {
		return invalid("session.duration must be positive")
	}
	if c.Session.CookieMaxAge <= 0 {
		return invalid("session.cookie_max_age must be positive")
	}
	if c.IsProduction() && len(c.Session.CookieSecret) < minCookieSecretLength {
		return invalid("session.cookie_secret must be at least %d bytes in production", minCookieSecretLength)
	}
	if c.Session.CookieSecret == "" {
		return invalid("session.cookie_secret is required")
	}

	if c.Signup.TempAccountTTL <= 0 || c.Signup.VerificationCodeTTL <= 0 || c.Signup.MagicLinkTTL <= 0 {
		return invalid("signup TTLs must be positive")
	}
	if c.Signup.VerificationCodeTTL >= c.Signup.TempAccountTTL {
		return invalid("signup.verification_code_ttl (%s) must be shorter than signup.temp_account_ttl (%s)",
			c.Signup.VerificationCodeTTL, c.Signup.TempAccountTTL)
	}
	switch c.Signup.StoreBackend {
	case StoreBackendRedis:
		if !c.Redis.Enabled {
			return invalid("signup.store_backend=redis requires redis.enabled")
		}
	case StoreBackendMemory:
	default:
		return invalid("signup.store_backend must be redis or memory (got %q)", c.Signup.StoreBackend)
	}

	if c.Email.Enabled {
		if strings.TrimSpace(c.Email.SMTPHost) == "" {
			return invalid("email.smtp_host is required when email is enabled")
		}
		if c.Email.SMTPPort <= 0 || c.Email.SMTPPort > 65535 {
			return invalid("email.smtp_port must be between 1 and 65535 (got %d)", c.Email.SMTPPort)
		}
		if strings.TrimSpace(c.Email.SMTPUser) == "" || c.Email.SMTPPass == "" {
			return invalid("email.smtp_user and email.smtp_pass are required when email is enabled")
		}
		if !strings.Contains(c.Email.FromAddress, "@") {
			return invalid("email.from_address must be an email address (got %q)", c.Email.FromAddress)
		}
	}

	if c.Storage.Root == "" || c.Storage.Uploads == "" || c.Storage.Logs == "" {
		return invalid("storage.root, storage.uploads and storage.logs are required")
	}

	if c.Postgres.Host == "" || c.Postgres.Database == "" {
		return invalid("postgres.host and postgres.database are required")
	}
	if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
		return invalid("postgres.port must be between 1 and 65535 (got %d)", c.Postgres.Port)
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return invalid("kafka.brokers is required when kafka is enabled")
	}

	switch c.Password.Algorithm {
	case PasswordAlgorithmScrypt, PasswordAlgorithmArgon2:
	default:
		return invalid("password.algorithm must be scrypt or argon2id (got %q)", c.Password.Algorithm)
	}
	if c.Password.MinStrength < 0 || c.Password.MinStrength > 4 {
		return invalid("password.min_strength must be between 0 and 4 (got %d)", c.Password.MinStrength)
	}

	if c.Telemetry.SamplingRate < 0 || c.Telemetry.SamplingRate > 1 {
		return invalid("telemetry.sampling_rate must be between 0 and 1")
	}

	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
