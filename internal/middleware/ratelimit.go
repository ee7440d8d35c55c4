package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xxxsen/askdocs/internal/pkg/response"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimiter struct {
	mu            sync.Mutex
	qps           rate.Limit
	burst         int
	visitors      map[string]*visitor
	sweepInterval time.Duration
	lastSweep     time.Time
	now           func() time.Time
}

// RateLimit applies a per-client-IP token bucket. qps <= 0 disables it.
func RateLimit(qps float64, burst int) gin.HandlerFunc {
	if qps <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	if burst <= 0 {
		burst = 1
	}
	limiter := &rateLimiter{
		qps:           rate.Limit(qps),
		burst:         burst,
		visitors:      make(map[string]*visitor),
		sweepInterval: 3 * time.Minute,
		now:           time.Now,
	}
	return limiter.handle
}

func (l *rateLimiter) handle(c *gin.Context) {
	ip := c.ClientIP()
	if !l.allow(ip) {
		logutil.GetLogger(c.Request.Context()).Warn("rate limit hit", zap.String("ip", ip))
		response.Error(c, http.StatusTooManyRequests, "too_many_requests", http.StatusText(http.StatusTooManyRequests))
		c.Abort()
		return
	}
	c.Next()
}

func (l *rateLimiter) allow(ip string) bool {
	now := l.now()
	l.mu.Lock()
	if now.Sub(l.lastSweep) >= l.sweepInterval {
		l.cleanupExpiredLocked(now)
	}
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.qps, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	lim := v.limiter
	l.mu.Unlock()
	return lim.Allow()
}

func (l *rateLimiter) cleanupExpiredLocked(now time.Time) {
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.sweepInterval {
			delete(l.visitors, ip)
		}
	}
	l.lastSweep = now
}
