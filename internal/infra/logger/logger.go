package logger

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	lg   *zap.Logger
	once sync.Once
)

// RequestIDKey is used to store a request identifier on the context.
type RequestIDKey struct{}

// TraceIDKey is used to store the trace identifier on the context.
type TraceIDKey struct{}

// New returns a singleton zap.Logger. Outside production the console encoder is
// colourised; when logDir is set, entries are also appended to logDir/api.log.
func New(env, logDir string) (*zap.Logger, error) {
	var err error
	once.Do(func() {
		cfg := zap.NewProductionConfig()
		if env != "production" {
			cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}

		if logDir != "" {
			if mkErr := os.MkdirAll(logDir, 0o755); mkErr != nil {
				err = mkErr
				return
			}
			cfg.OutputPaths = append(cfg.OutputPaths, filepath.Join(logDir, "api.log"))
		}

		lg, err = cfg.Build()
	})

	return lg, err
}

// WithContext attaches request scoped fields to the process logger.
func WithContext(ctx context.Context) *zap.Logger {
	return FromContext(ctx, lg)
}

// FromContext attaches request scoped fields to base.
func FromContext(ctx context.Context, base *zap.Logger) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	if ctx == nil {
		return base
	}

	fields := make([]zap.Field, 0, 2)
	if id, ok := ctx.Value(RequestIDKey{}).(string); ok && id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if id, ok := ctx.Value(TraceIDKey{}).(string); ok && id != "" {
		fields = append(fields, zap.String("trace_id", id))
	}
	return base.With(fields...)
}

var emailRegex = regexp.MustCompile(`^([^@]{1,3})[^@]*(@.+)$`)

// MaskEmail keeps the first three characters and the domain.
// Example: john.doe@example.com -> joh***@example.com
func MaskEmail(email string) string {
	if email == "" {
		return ""
	}

	matches := emailRegex.FindStringSubmatch(email)
	if len(matches) == 3 {
		return matches[1] + "***" + matches[2]
	}

	parts := strings.SplitN(email, "@", 2)
	if len(parts) == 2 {
		return "***@" + parts[1]
	}

	return "***"
}

// MaskIP keeps the first two IPv4 octets or the first four IPv6 groups.
func MaskIP(ip string) string {
	if ip == "" {
		return ""
	}

	if strings.Contains(ip, ".") {
		parts := strings.Split(ip, ".")
		if len(parts) == 4 {
			return parts[0] + "." + parts[1] + ".*.*"
		}
	}

	if strings.Contains(ip, ":") {
		parts := strings.Split(ip, ":")
		if len(parts) >= 4 {
			return strings.Join(parts[:4], ":") + ":*:*:*:*"
		}
	}

	return "***"
}

// MaskToken keeps a recognisable prefix of opaque identifiers such as
// temp_… or verify_… values: "temp_1a2b3c…" -> "temp_1a***".
func MaskToken(token string) string {
	if token == "" {
		return ""
	}

	prefix := ""
	if idx := strings.IndexByte(token, '_'); idx > 0 && idx < len(token)-1 {
		prefix, token = token[:idx+1], token[idx+1:]
	}

	if len(token) <= 4 {
		return prefix + "***"
	}
	return prefix + token[:2] + "***"
}
