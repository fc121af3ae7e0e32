package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/phamyourfam/blissbite/internal/core/port"
	"github.com/phamyourfam/blissbite/internal/infra/config"
	"github.com/phamyourfam/blissbite/internal/infra/database"
	"github.com/phamyourfam/blissbite/internal/infra/jobs"
	kafkainfra "github.com/phamyourfam/blissbite/internal/infra/kafka"
	"github.com/phamyourfam/blissbite/internal/infra/logger"
	redisinfra "github.com/phamyourfam/blissbite/internal/infra/redis"
	"github.com/phamyourfam/blissbite/internal/infra/telemetry"
	"github.com/phamyourfam/blissbite/internal/repository/memory"
	postgresrepo "github.com/phamyourfam/blissbite/internal/repository/postgres"
	redisrepo "github.com/phamyourfam/blissbite/internal/repository/redis"
	"github.com/phamyourfam/blissbite/internal/transport/http/middleware"
	"github.com/phamyourfam/blissbite/internal/transport/http/routes"
	"github.com/phamyourfam/blissbite/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application owns the HTTP server and every long-lived dependency.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
	tracer   *telemetry.TracerProvider
	janitor  *jobs.SessionJanitor
}

// New builds the application. Anything opened before a failure is closed again.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	if err := EnsureStorage(cfg.Storage); err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.App.Env, cfg.Storage.Logs)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &Application{cfg: cfg, logger: log}
	ready := false
	defer func() {
		if !ready {
			a.close(context.Background())
		}
	}()

	if cfg.Telemetry.TracingEnabled {
		tracer, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, cfg.App, log)
		if err != nil {
			return nil, fmt.Errorf("init tracing: %w", err)
		}
		a.tracer = tracer
	}
	metrics := telemetry.NewMetrics()

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	a.pool = pool

	if cfg.Postgres.AutoMigrate {
		if err := Migrate(cfg.Postgres, log); err != nil {
			return nil, err
		}
	}

	repos := postgresrepo.NewRepositories(pool)

	var (
		cache   routes.CacheChecker
		limiter middleware.Limiter
	)
	if cfg.Redis.Enabled {
		client, err := redisinfra.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		a.redis = client
		cache = client
		limiter = middleware.NewRateLimiter(a.rateLimitStore(), log).WithMetrics(metrics)
	} else {
		log.Info("redis disabled, rate limits are kept in process memory")
		limiter = middleware.NewLocalRateLimiter(log).WithMetrics(metrics)
	}

	store, err := a.signupStore()
	if err != nil {
		return nil, err
	}

	publisher := a.eventPublisher()

	mailer, err := NewMailer(cfg.Email, log)
	if err != nil {
		return nil, err
	}

	hasher, err := NewPasswordHasher(cfg.Password)
	if err != nil {
		return nil, err
	}
	policy := NewPasswordPolicy(cfg.Password)

	sessionService := usecase.NewSessionService(repos.Sessions, repos.Accounts, hasher, cfg.Session.Duration, log).
		WithEventPublisher(publisher).
		WithMetrics(metrics)
	signupService := usecase.NewSignupService(repos.Accounts, store, hasher, policy, sessionService, usecase.SignupSettings{
		TempAccountTTL:      cfg.Signup.TempAccountTTL,
		VerificationCodeTTL: cfg.Signup.VerificationCodeTTL,
		MagicLinkTTL:        cfg.Signup.MagicLinkTTL,
		FrontendURL:         cfg.App.FrontendURL,
	}, log).
		WithMailer(mailer).
		WithEventPublisher(publisher).
		WithMetrics(metrics)

	janitor, err := jobs.NewSessionJanitor(sessionService, cfg.Jobs.SessionSweepSchedule, log)
	if err != nil {
		return nil, err
	}
	a.janitor = janitor

	engine, err := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: limiter,
		Registry:    metrics.Registry(),
		Database:    pool,
		Cache:       cache,
		Services: routes.ServiceSet{
			Signup:         signupService,
			Sessions:       sessionService,
			Accounts:       usecase.NewAccountService(repos.Accounts, hasher, policy, log),
			Establishments: usecase.NewEstablishmentService(repos.Accounts, repos.Establishments, log),
			Products:       usecase.NewProductService(repos.Accounts, repos.Establishments, repos.Products, log),
			Reviews:        usecase.NewReviewService(repos.Reviews, repos.Targets),
			Favorites:      usecase.NewFavoriteService(repos.Favorites, repos.Targets),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}
	a.engine = engine

	ready = true
	return a, nil
}

func (a *Application) rateLimitStore() port.RateLimitStore {
	window := a.cfg.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}
	prefix := a.cfg.Redis.RateLimitPrefix
	if prefix == "" {
		prefix = "blissbite:rate-limit"
	}
	return redisrepo.NewRateLimitRepository(a.redis.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: prefix,
		TTL:       2 * window,
	})
}

// signupStore picks the backend holding temporary signups and verification codes.
func (a *Application) signupStore() (port.KeyValueStore, error) {
	switch a.cfg.Signup.StoreBackend {
	case config.StoreBackendRedis:
		if a.redis == nil {
			return nil, errors.New("signup store backend redis requires redis.enabled")
		}
		return redisrepo.NewKeyValueStore(a.redis.Client(), a.cfg.Signup.StorePrefix), nil
	default:
		a.logger.Warn("signup state kept in process memory; pending signups are lost on restart")
		return memory.NewKeyValueStore(), nil
	}
}

func (a *Application) eventPublisher() port.EventPublisher {
	if !a.cfg.Kafka.Enabled {
		a.logger.Info("kafka disabled, domain events are logged only")
		return kafkainfra.NewStubPublisher(a.logger)
	}

	producer, err := kafkainfra.NewProducer(a.cfg.Kafka, a.logger)
	if err != nil {
		a.logger.Warn("kafka producer unavailable, falling back to log publisher", zap.Error(err))
		return kafkainfra.NewStubPublisher(a.logger)
	}
	a.producer = producer
	a.logger.Info("kafka event publisher initialized", zap.Strings("brokers", a.cfg.Kafka.Brokers))
	return kafkainfra.NewEventPublisher(producer, a.cfg.App, a.logger)
}

// Run serves HTTP until ctx is cancelled, then drains connections and
// releases every dependency.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.janitor.Start()

	a.logger.Info("starting BlissBite API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
		zap.String("api_version", a.cfg.App.APIVersion),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-serverErrCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("shutdown server: %w", err)
	}
	a.close(shutdownCtx)
	return runErr
}

func (a *Application) close(ctx context.Context) {
	if a.janitor != nil {
		a.janitor.Stop(ctx)
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("close kafka producer", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("close redis", zap.Error(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.logger.Warn("shutdown tracer", zap.Error(err))
		}
	}
}
