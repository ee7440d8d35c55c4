package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestRateLimiterHandle_BlocksWhenBucketDrained(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Now()
	limiter := &rateLimiter{
		qps:           1,
		burst:         1,
		visitors:      make(map[string]*visitor),
		sweepInterval: time.Minute,
		now: func() time.Time {
			return now
		},
	}

	c1, _ := gin.CreateTestContext(httptest.NewRecorder())
	c1.Request = httptest.NewRequest("POST", "/query?q=test", nil)
	limiter.handle(c1)
	require.False(t, c1.IsAborted())

	c2, _ := gin.CreateTestContext(httptest.NewRecorder())
	c2.Request = httptest.NewRequest("POST", "/query?q=test", nil)
	limiter.handle(c2)
	require.True(t, c2.IsAborted())
}

func TestRateLimiterCleanupExpiredLocked_RemovesIdleVisitors(t *testing.T) {
	base := time.Now()
	limiter := &rateLimiter{
		qps:           1,
		burst:         1,
		visitors:      make(map[string]*visitor),
		sweepInterval: time.Minute,
		now:           time.Now,
	}
	limiter.visitors["expired"] = &visitor{
		limiter:  rate.NewLimiter(1, 1),
		lastSeen: base.Add(-2 * time.Minute),
	}
	limiter.visitors["active"] = &visitor{
		limiter:  rate.NewLimiter(1, 1),
		lastSeen: base.Add(-2 * time.Second),
	}

	limiter.mu.Lock()
	limiter.cleanupExpiredLocked(base)
	limiter.mu.Unlock()

	require.NotContains(t, limiter.visitors, "expired")
	require.Contains(t, limiter.visitors, "active")
	require.False(t, limiter.lastSweep.IsZero())
}

func TestRateLimitDisabled_PassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mw := RateLimit(0, 0)
	for i := 0; i < 10; i++ {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("POST", "/query?q=test", nil)
		mw(c)
		require.False(t, c.IsAborted())
	}
}
