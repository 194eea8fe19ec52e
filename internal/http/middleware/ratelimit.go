package middleware

import (
	"net/http"
	"sync"
	"time"

	"karya/internal/metrics"

	"github.com/gin-gonic/gin"
)

type clientInfo struct {
	last  time.Time
	count int
}

// MemoryRateLimiter is the single process fallback used when no Redis is
// configured.
type MemoryRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientInfo
	max     int
	window  time.Duration
}

func NewMemoryRateLimiter(maxRequests int, window time.Duration) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		clients: make(map[string]*clientInfo),
		max:     maxRequests,
		window:  window,
	}
}

func (l *MemoryRateLimiter) allow(ident string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	ci, ok := l.clients[ident]
	if !ok || now.Sub(ci.last) > l.window {
		l.clients[ident] = &clientInfo{last: now, count: 1}
		return true
	}
	ci.count++
	return ci.count <= l.max
}

// Handler blocks clients that send more than max requests per window.
func (l *MemoryRateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(identity(c), time.Now()) {
			metrics.RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests", "error": "rate limit exceeded"})
			return
		}
		metrics.RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}

// identity keys limits by owner when authenticated, by client IP otherwise.
func identity(c *gin.Context) string {
	if owner := OwnerID(c); owner != "" {
		return "owner:" + owner
	}
	return "ip:" + c.ClientIP()
}
