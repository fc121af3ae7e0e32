package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Session   SessionSettings   `mapstructure:"session"`
	Signup    SignupSettings    `mapstructure:"signup"`
	Email     EmailSettings     `mapstructure:"email"`
	Storage   StorageSettings   `mapstructure:"storage"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	Telemetry TelemetrySettings `mapstructure:"telemetry"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
	Password  PasswordSettings  `mapstructure:"password"`
	Jobs      JobSettings       `mapstructure:"jobs"`
}

type AppSettings struct {
	Name        string `mapstructure:"name"`
	Env         string `mapstructure:"env"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	APIVersion  string `mapstructure:"api_version"`
	FrontendURL string `mapstructure:"frontend_url"`
}

// SessionSettings configures the session cookie and server-side session rows.
type SessionSettings struct {
	CookieName   string        `mapstructure:"cookie_name"`
	CookieSecret string        `mapstructure:"cookie_secret"`
	CookieMaxAge time.Duration `mapstructure:"cookie_max_age"`
	Duration     time.Duration `mapstructure:"duration"`
	Secure       bool          `mapstructure:"secure"`
}

// SignupSettings configures lifetimes of the ephemeral signup records.
type SignupSettings struct {
	TempAccountTTL      time.Duration `mapstructure:"temp_account_ttl"`
	VerificationCodeTTL time.Duration `mapstructure:"verification_code_ttl"`
	MagicLinkTTL        time.Duration `mapstructure:"magic_link_ttl"`
	StoreBackend        string        `mapstructure:"store_backend"`
	StorePrefix         string        `mapstructure:"store_prefix"`
}

// EmailSettings configures outbound SMTP delivery.
type EmailSettings struct {
	Enabled     bool          `mapstructure:"enabled"`
	SMTPHost    string        `mapstructure:"smtp_host"`
	SMTPPort    int           `mapstructure:"smtp_port"`
	SMTPUser    string        `mapstructure:"smtp_user"`
	SMTPPass    string        `mapstructure:"smtp_pass"`
	FromAddress string        `mapstructure:"from_address"`
	FromName    string        `mapstructure:"from_name"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type StorageSettings struct {
	Root    string `mapstructure:"root"`
	Uploads string `mapstructure:"uploads"`
	Logs    string `mapstructure:"logs"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	Schema            string        `mapstructure:"schema"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	AutoMigrate       bool          `mapstructure:"auto_migrate"`
}

// RedisSettings configures Redis connection and TLS
type RedisSettings struct {
	Enabled         bool   `mapstructure:"enabled"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	DB              int    `mapstructure:"db"`
	Password        string `mapstructure:"password"`
	TLSEnabled      bool   `mapstructure:"tls_enabled"`
	RateLimitPrefix string `mapstructure:"rate_limit_prefix"`
}

// KafkaSettings configures Kafka producer
type KafkaSettings struct {
	Enabled     bool     `mapstructure:"enabled"`
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
}

// RateLimitSettings configures rate limiting windows and max attempts per endpoint
type RateLimitSettings struct {
	WindowDuration    time.Duration `mapstructure:"window_duration"`
	LoginMaxAttempts  int           `mapstructure:"login_max_attempts"`
	SignupMaxAttempts int           `mapstructure:"signup_max_attempts"`
	VerifyMaxAttempts int           `mapstructure:"verify_max_attempts"`
}

// PasswordSettings selects the hashing scheme and the strength policy.
type PasswordSettings struct {
	Algorithm           string         `mapstructure:"algorithm"`
	MinLength           int            `mapstructure:"min_length"`
	MinCharacterClasses int            `mapstructure:"min_character_classes"`
	MinStrength         int            `mapstructure:"min_strength"`
	Argon2              Argon2Settings `mapstructure:"argon2"`
}

// Argon2Settings configures Argon2id password hashing parameters
type Argon2Settings struct {
	Memory      uint32 `mapstructure:"memory"`
	Iterations  uint32 `mapstructure:"iterations"`
	Parallelism uint8  `mapstructure:"parallelism"`
	SaltLength  uint32 `mapstructure:"salt_length"`
	KeyLength   uint32 `mapstructure:"key_length"`
}

type TelemetrySettings struct {
	TracingEnabled bool    `mapstructure:"tracing_enabled"`
	OTLPEndpoint   string  `mapstructure:"otlp_endpoint"`
	ServiceName    string  `mapstructure:"service_name"`
	SamplingRate   float64 `mapstructure:"sampling_rate"`
}

// JobSettings configures background maintenance jobs.
type JobSettings struct {
	SessionSweepSchedule string `mapstructure:"session_sweep_schedule"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(envPrefix)

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"app.api_version",
		"app.frontend_url",
		"session.cookie_name",
		"session.cookie_secret",
		"session.cookie_max_age",
		"session.duration",
		"session.secure",
		"signup.temp_account_ttl",
		"signup.verification_code_ttl",
		"signup.magic_link_ttl",
		"signup.store_backend",
		"signup.store_prefix",
		"email.enabled",
		"email.smtp_host",
		"email.smtp_port",
		"email.smtp_user",
		"email.smtp_pass",
		"email.from_address",
		"email.from_name",
		"email.timeout",
		"storage.root",
		"storage.uploads",
		"storage.logs",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.schema",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"postgres.auto_migrate",
		"redis.enabled",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.rate_limit_prefix",
		"kafka.enabled",
		"kafka.brokers",
		"kafka.topic_prefix",
		"telemetry.tracing_enabled",
		"telemetry.otlp_endpoint",
		"telemetry.service_name",
		"telemetry.sampling_rate",
		"rate_limit.window_duration",
		"rate_limit.login_max_attempts",
		"rate_limit.signup_max_attempts",
		"rate_limit.verify_max_attempts",
		"password.algorithm",
		"password.min_length",
		"password.min_character_classes",
		"password.min_strength",
		"password.argon2.memory",
		"password.argon2.iterations",
		"password.argon2.parallelism",
		"password.argon2.salt_length",
		"password.argon2.key_length",
		"jobs.session_sweep_schedule",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

const envPrefix = "BLISSBITE"

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "blissbite-api")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.api_version", "v1")
	v.SetDefault("app.frontend_url", "http://localhost:3000")

	v.SetDefault("session.cookie_name", "sid")
	v.SetDefault("session.cookie_secret", "development-cookie-secret-change-me")
	v.SetDefault("session.cookie_max_age", "168h")
	v.SetDefault("session.duration", "720h")
	v.SetDefault("session.secure", false)

	v.SetDefault("signup.temp_account_ttl", "24h")
	v.SetDefault("signup.verification_code_ttl", "30m")
	v.SetDefault("signup.magic_link_ttl", "60m")
	v.SetDefault("signup.store_backend", StoreBackendRedis)
	v.SetDefault("signup.store_prefix", "blissbite")

	v.SetDefault("email.enabled", false)
	v.SetDefault("email.smtp_host", "")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.smtp_user", "")
	v.SetDefault("email.smtp_pass", "")
	v.SetDefault("email.from_address", "no-reply@blissbite.local")
	v.SetDefault("email.from_name", "BlissBite")
	v.SetDefault("email.timeout", "30s")

	v.SetDefault("storage.root", "./storage")
	v.SetDefault("storage.uploads", "./storage/uploads")
	v.SetDefault("storage.logs", "./storage/logs")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "blissbite")
	v.SetDefault("postgres.password", "blissbite")
	v.SetDefault("postgres.database", "blissbite")
	v.SetDefault("postgres.schema", "public")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")
	v.SetDefault("postgres.auto_migrate", true)

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)
	v.SetDefault("redis.rate_limit_prefix", "blissbite:rate_limit")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic_prefix", "blissbite")

	v.SetDefault("telemetry.tracing_enabled", false)
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4318")
	v.SetDefault("telemetry.service_name", "blissbite-api")
	v.SetDefault("telemetry.sampling_rate", 1.0)

	v.SetDefault("rate_limit.window_duration", "1m")
	v.SetDefault("rate_limit.login_max_attempts", 5)
	v.SetDefault("rate_limit.signup_max_attempts", 3)
	v.SetDefault("rate_limit.verify_max_attempts", 10)

	v.SetDefault("password.algorithm", PasswordAlgorithmScrypt)
	v.SetDefault("password.min_length", 8)
	v.SetDefault("password.min_character_classes", 0)
	v.SetDefault("password.min_strength", 0)
	v.SetDefault("password.argon2.memory", 65536) // 64 MB
	v.SetDefault("password.argon2.iterations", 3)
	v.SetDefault("password.argon2.parallelism", 4)
	v.SetDefault("password.argon2.salt_length", 16)
	v.SetDefault("password.argon2.key_length", 32)

	v.SetDefault("jobs.session_sweep_schedule", "@every 1h")
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envPrefix+"_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
