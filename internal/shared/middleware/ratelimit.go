package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/aidash/server/internal/shared/metrics"
	"github.com/aidash/server/internal/shared/ratelimit"
	"github.com/aidash/server/internal/shared/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// RateLimitRemaining is the header for remaining requests.
	RateLimitRemaining = "X-RateLimit-Remaining"
	// RateLimitLimit is the header for the limit.
	RateLimitLimit = "X-RateLimit-Limit"
	// RetryAfter is the header for retry time.
	RetryAfter = "Retry-After"
)

// RateLimitConfig holds rate limit configuration.
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
	// KeyFunc generates the rate limit key. Default uses client IP.
	KeyFunc func(*gin.Context) string
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// RateLimit returns a middleware that limits requests using the given limiter.
// Limiter errors let the request through.
func RateLimit(limiter ratelimit.Limiter, cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *gin.Context) string {
			return "ip:" + c.ClientIP()
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		key := cfg.KeyFunc(c)
		ctx := c.Request.Context()

		allowed, err := limiter.Allow(ctx, key, cfg.Limit, cfg.Window)
		if err != nil {
			cfg.Logger.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		remaining, _ := limiter.Remaining(ctx, key, cfg.Limit, cfg.Window)
		c.Header(RateLimitLimit, strconv.Itoa(cfg.Limit))
		c.Header(RateLimitRemaining, strconv.Itoa(remaining))

		if !allowed {
			if cfg.Metrics != nil {
				cfg.Metrics.RateLimitedTotal.Inc()
			}
			c.Header(RetryAfter, strconv.Itoa(int(cfg.Window.Seconds())))
			c.Abort()
			response.ErrorWithCode(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, please try again later")
			return
		}

		c.Next()
	}
}
