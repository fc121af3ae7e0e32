package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/phamyourfam/blissbite/internal/infra/config"
	"github.com/phamyourfam/blissbite/internal/transport/http/handlers"
	"github.com/phamyourfam/blissbite/internal/transport/http/middleware"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Signup         handlers.SignupFlow
	Sessions       handlers.SessionManager
	Accounts       handlers.AccountManager
	Establishments handlers.EstablishmentManager
	Products       handlers.ProductManager
	Reviews        handlers.ReviewManager
	Favorites      handlers.FavoriteManager
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter middleware.Limiter
	Services    ServiceSet
	Registry    *prometheus.Registry
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with the static route table.
func Register(deps Dependencies) (*gin.Engine, error) {
	cfg := deps.Config
	if cfg.App.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	httpMetrics, err := newHTTPMetrics(deps.Registry)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Telemetry.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}
	r.Use(middleware.RequestID())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(httpMetrics.Handler())
	r.Use(middleware.ErrorHandler(deps.Logger))
	r.Use(middleware.CORS(cfg.App.FrontendURL))
	r.NoRoute(middleware.NotFound())

	registerProbes(r, deps)

	cookie := middleware.NewSessionCookie(middleware.SessionCookieOptions{
		Name:   cfg.Session.CookieName,
		Secret: cfg.Session.CookieSecret,
		MaxAge: cfg.Session.CookieMaxAge,
		Secure: cfg.Session.Secure,
	})
	requireSession := middleware.RequireSession(deps.Services.Sessions, cookie, deps.Logger)

	version := cfg.App.APIVersion
	if version == "" {
		version = "v1"
	}

	api := r.Group("/api/" + version)
	{
		authHandler := handlers.NewAuthenticationHandler(deps.Services.Signup, deps.Services.Sessions, cookie, deps.Logger)
		authHandler.RegisterRoutes(api.Group("/authentication"), requireSession, buildAuthRateLimits(deps))

		accountHandler := handlers.NewAccountHandler(deps.Services.Accounts)
		accountHandler.RegisterRoutes(api.Group("/accounts"), requireSession)

		establishments := api.Group("/establishments", requireSession)
		handlers.NewEstablishmentHandler(deps.Services.Establishments).RegisterRoutes(establishments)
		handlers.NewProductHandler(deps.Services.Products).RegisterRoutes(establishments.Group("/:establishmentId/products"))

		engagementHandler := handlers.NewEngagementHandler(deps.Services.Reviews, deps.Services.Favorites)
		engagementHandler.RegisterRoutes(api, requireSession)
	}

	return r, nil
}

func newHTTPMetrics(registry *prometheus.Registry) (*middleware.HTTPMetrics, error) {
	if registry == nil {
		return nil, nil
	}
	return middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{Registerer: registry})
}

func registerProbes(r *gin.Engine, deps Dependencies) {
	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("postgres", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}
	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	if deps.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{Registry: deps.Registry})))
	}
}

func buildAuthRateLimits(deps Dependencies) handlers.AuthRateLimits {
	limits := deps.Config.RateLimit
	return handlers.AuthRateLimits{
		Login:       ipRateLimit(deps, "auth_login_ip", limits.LoginMaxAttempts, limits.WindowDuration),
		SignupStart: ipRateLimit(deps, "auth_signup_ip", limits.SignupMaxAttempts, limits.WindowDuration),
		VerifyEmail: ipRateLimit(deps, "auth_verify_ip", limits.VerifyMaxAttempts, limits.WindowDuration),
	}
}

func ipRateLimit(deps Dependencies, name string, limit int, window time.Duration) []gin.HandlerFunc {
	if deps.RateLimiter == nil || limit <= 0 {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}
	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
