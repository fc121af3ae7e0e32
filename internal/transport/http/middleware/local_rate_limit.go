package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	appLogger "github.com/phamyourfam/blissbite/internal/infra/logger"
	"github.com/phamyourfam/blissbite/internal/infra/telemetry"
)

const maxLocalLimiters = 10000

// LocalRateLimiter keeps token buckets in process memory. It backs the
// rate limit rules when Redis is disabled.
type LocalRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	logger   *zap.Logger
	metrics  *telemetry.Metrics
}

// NewLocalRateLimiter creates an empty limiter set.
func NewLocalRateLimiter(logger *zap.Logger) *LocalRateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		logger:   logger,
	}
}

// WithMetrics counts rejected requests per rule.
func (l *LocalRateLimiter) WithMetrics(metrics *telemetry.Metrics) *LocalRateLimiter {
	l.metrics = metrics
	return l
}

// RateLimit allows Limit requests per Window with bursts up to Limit.
func (l *LocalRateLimiter) RateLimit(rules ...RateLimitRule) gin.HandlerFunc {
	filtered := make([]RateLimitRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Identifier == nil || rule.Limit <= 0 || rule.Window <= 0 {
			continue
		}
		if rule.Name == "" {
			rule.Name = "default"
		}
		filtered = append(filtered, rule)
	}

	return func(c *gin.Context) {
		for _, rule := range filtered {
			identifier, ok := rule.Identifier(c)
			if !ok || identifier == "" {
				continue
			}

			reservation := l.limiter(rule, identifier).Reserve()
			if delay := reservation.Delay(); delay > 0 {
				reservation.Cancel()
				l.metrics.RateLimitHit(rule.Name)
				l.logger.Info("rate limit exceeded",
					zap.String("rule", rule.Name),
					zap.String("client_ip", appLogger.MaskIP(identifier)),
					zap.String("trace_id", GetTraceID(c)),
				)
				c.Header("Retry-After", retryAfterHeader(delay))
				Fail(c, tooManyRequests(delay))
				return
			}
		}

		c.Next()
	}
}

func (l *LocalRateLimiter) limiter(rule RateLimitRule, identifier string) *rate.Limiter {
	key := rule.Name + ":" + identifier

	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.limiters[key]
	if !exists {
		if len(l.limiters) >= maxLocalLimiters {
			l.limiters = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(rate.Every(rule.Window/time.Duration(rule.Limit)), rule.Limit)
		l.limiters[key] = limiter
	}
	return limiter
}

func retryAfterHeader(delay time.Duration) string {
	seconds := int((delay + time.Second - 1) / time.Second)
	return strconv.Itoa(seconds)
}
