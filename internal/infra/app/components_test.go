package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/phamyourfam/blissbite/internal/infra/config"
	"github.com/phamyourfam/blissbite/internal/infra/mail"
)

func TestEnsureStorageCreatesDirectories(t *testing.T) {
	root := filepath.Join(t.TempDir(), "storage")
	cfg := config.StorageSettings{
		Root:    root,
		Uploads: filepath.Join(root, "uploads"),
		Logs:    filepath.Join(root, "logs"),
	}

	if err := EnsureStorage(cfg); err != nil {
		t.Fatalf("ensure storage: %v", err)
	}
	for _, dir := range []string{cfg.Root, cfg.Uploads, cfg.Logs} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s, got %v", dir, err)
		}
	}
}

func TestNewPasswordHasherHonoursAlgorithm(t *testing.T) {
	for _, algorithm := range []string{config.PasswordAlgorithmScrypt, config.PasswordAlgorithmArgon2} {
		hasher, err := NewPasswordHasher(config.PasswordSettings{
			Algorithm: algorithm,
			Argon2:    config.Argon2Settings{Memory: 8 * 1024, Iterations: 1, Parallelism: 1},
		})
		if err != nil {
			t.Fatalf("%s: %v", algorithm, err)
		}
		encoded, err := hasher.Hash("Str0ng!Passw0rd")
		if err != nil {
			t.Fatalf("%s hash: %v", algorithm, err)
		}
		if algorithm == config.PasswordAlgorithmArgon2 && !strings.HasPrefix(encoded, "argon2id$") {
			t.Fatalf("expected argon2id encoding, got %q", encoded)
		}
		ok, err := hasher.Verify("Str0ng!Passw0rd", encoded)
		if err != nil || !ok {
			t.Fatalf("%s verify: ok=%v err=%v", algorithm, ok, err)
		}
	}

	if _, err := NewPasswordHasher(config.PasswordSettings{Algorithm: "md5"}); err == nil {
		t.Fatalf("expected unsupported algorithm error")
	}
}

func TestNewMailerFallsBackToLogging(t *testing.T) {
	mailer, err := NewMailer(config.EmailSettings{Enabled: false}, zap.NewNop())
	if err != nil {
		t.Fatalf("new mailer: %v", err)
	}
	if _, ok := mailer.(*mail.LoggingMailer); !ok {
		t.Fatalf("expected logging mailer, got %T", mailer)
	}
}
