package app

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/phamyourfam/blissbite/internal/core/port"
	"github.com/phamyourfam/blissbite/internal/infra/config"
	"github.com/phamyourfam/blissbite/internal/infra/database"
	"github.com/phamyourfam/blissbite/internal/infra/mail"
	"github.com/phamyourfam/blissbite/internal/infra/security"
)

// EnsureStorage creates the storage root, upload and log directories.
func EnsureStorage(cfg config.StorageSettings) error {
	for _, dir := range []string{cfg.Root, cfg.Uploads, cfg.Logs} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create storage dir %s: %w", dir, err)
		}
	}
	return nil
}

// Migrate applies every pending schema migration.
func Migrate(cfg config.PostgresSettings, log *zap.Logger) error {
	migrator, err := database.NewMigrator(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrator.Close(); cerr != nil {
			log.Warn("close migrator", zap.Error(cerr))
		}
	}()
	return migrator.Up()
}

// NewPasswordHasher builds the hasher for the configured algorithm.
func NewPasswordHasher(cfg config.PasswordSettings) (*security.PasswordHasher, error) {
	argon := security.DefaultArgon2Config()
	if cfg.Argon2.Memory > 0 {
		argon.Memory = cfg.Argon2.Memory
	}
	if cfg.Argon2.Iterations > 0 {
		argon.Iterations = cfg.Argon2.Iterations
	}
	if cfg.Argon2.Parallelism > 0 {
		argon.Parallelism = cfg.Argon2.Parallelism
	}
	if cfg.Argon2.SaltLength > 0 {
		argon.SaltLength = cfg.Argon2.SaltLength
	}
	if cfg.Argon2.KeyLength > 0 {
		argon.KeyLength = cfg.Argon2.KeyLength
	}

	hasher, err := security.NewPasswordHasher(cfg.Algorithm, argon)
	if err != nil {
		return nil, fmt.Errorf("init password hasher: %w", err)
	}
	return hasher, nil
}

// NewPasswordPolicy builds the signup password rules.
func NewPasswordPolicy(cfg config.PasswordSettings) *security.PasswordValidator {
	return security.NewPasswordPolicy(security.PasswordPolicyConfig{
		MinLength:           cfg.MinLength,
		MinCharacterClasses: cfg.MinCharacterClasses,
		MinStrength:         cfg.MinStrength,
	})
}

// NewMailer returns the SMTP mailer, or a logging mailer when email is disabled.
func NewMailer(cfg config.EmailSettings, log *zap.Logger) (port.Mailer, error) {
	if !cfg.Enabled {
		log.Info("email disabled, signup emails are logged only")
		return mail.NewLoggingMailer(log), nil
	}
	mailer, err := mail.NewSMTPMailer(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("init mailer: %w", err)
	}
	return mailer, nil
}
