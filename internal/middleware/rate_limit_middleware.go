package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/milanenterprises/cleancare-backend/internal/errors"
)

// RateCounter increments a counter that resets after window
type RateCounter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimiter allows limit requests per client IP and scope within each window.
// A nil counter disables limiting; counter errors let the request through.
func RateLimiter(counter RateCounter, scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if counter == nil || limit <= 0 {
			c.Next()
			return
		}

		key := scope + ":" + c.ClientIP()
		count, err := counter.Incr(c.Request.Context(), key, window)
		if err != nil {
			GetLoggerFromContext(c).Warn("Rate limiter unavailable, allowing request", map[string]interface{}{
				"scope": scope,
				"error": err.Error(),
			})
			c.Next()
			return
		}

		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(limit) {
			GetLoggerFromContext(c).Warn("Rate limit exceeded", map[string]interface{}{
				"scope": scope,
				"count": count,
			})
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			apperrors.TooManyRequests(c)
			c.Abort()
			return
		}

		c.Next()
	}
}
