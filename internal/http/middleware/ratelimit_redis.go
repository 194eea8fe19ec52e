package middleware

import (
	"net/http"
	"strconv"
	"time"

	"karya/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter is a fixed-window limiter shared by every server instance,
// using INCR/EXPIRE on rl:<window_seconds>:<identity>.
type RedisRateLimiter struct {
	rdb    redis.Cmdable
	max    int
	window time.Duration
}

func NewRedisRateLimiter(rdb redis.Cmdable, maxRequests int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{rdb: rdb, max: maxRequests, window: window}
}

// Handler fails open: when Redis errors the request is let through.
func (l *RedisRateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "rl:" + strconv.FormatInt(int64(l.window.Seconds()), 10) + ":" + identity(c)
		ctx := c.Request.Context()

		val, err := l.rdb.Incr(ctx, key).Result()
		if err != nil {
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}
		if val == 1 {
			l.rdb.Expire(ctx, key, l.window)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(l.max))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(l.max)-val), 10))

		if val > int64(l.max) {
			metrics.RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message":     "Too many requests",
				"error":       "rate limit exceeded",
				"retry_after": int(l.window.Seconds()),
			})
			return
		}

		metrics.RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}

// RateLimit picks the Redis limiter when a client is available.
func RateLimit(rdb *redis.Client, maxRequests int, window time.Duration) gin.HandlerFunc {
	if rdb == nil {
		return NewMemoryRateLimiter(maxRequests, window).Handler()
	}
	return NewRedisRateLimiter(rdb, maxRequests, window).Handler()
}
