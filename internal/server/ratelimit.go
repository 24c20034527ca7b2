package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/julianstephens/innerlog/internal/logger"
)

// RateLimiter is a fixed-window counter per user kept in redis
type RateLimiter struct {
	client redis.Cmdable
}

func NewRateLimiter(client redis.Cmdable) *RateLimiter {
	return &RateLimiter{client: client}
}

// Limit allows at most limit requests per window for each user. Requests
// pass through when redis is unreachable.
func (rl *RateLimiter) Limit(keySuffix string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := c.GetString(userIDKey)
		if subject == "" {
			subject = c.ClientIP()
		}
		key := fmt.Sprintf("innerlog:rate_limit:%s:%s", keySuffix, subject)

		count, err := rl.client.Incr(c, key).Result()
		if err != nil {
			logger.Warn("Rate limiter unavailable", "key", key, "error", err)
			c.Next()
			return
		}
		rl.ensureWindow(c, key, count, window)

		if count > int64(limit) {
			ttl, _ := rl.client.TTL(c, key).Result()
			if ttl < 0 {
				ttl = window
			}
			c.Header("Retry-After", fmt.Sprintf("%.0f", ttl.Seconds()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests",
				"retry_after": fmt.Sprintf("%.0f seconds", ttl.Seconds()),
			})
			return
		}
		c.Next()
	}
}

// ensureWindow sets the expiry on a new counter, and again on any counter left
// without one after an earlier Expire failed.
func (rl *RateLimiter) ensureWindow(ctx context.Context, key string, count int64, window time.Duration) {
	if count > 1 {
		ttl, err := rl.client.TTL(ctx, key).Result()
		// -1: the key exists with no expiry
		if err != nil || ttl != -1 {
			return
		}
	}
	if err := rl.client.Expire(ctx, key, window).Err(); err != nil {
		logger.Warn("Failed to set rate limit window", "key", key, "error", err)
	}
}
