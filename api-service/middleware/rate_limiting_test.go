package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func testLimiterConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests:   3,
		TimeWindow:    time.Minute,
		BlockDuration: time.Minute,
	}
}

func TestIsAllowedWithinLimit(t *testing.T) {
	limiter := NewRateLimiter(time.Hour)
	config := testLimiterConfig()

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.isAllowed("login:1.2.3.4", config))
	}
}

func TestIsAllowedBlocksOverLimit(t *testing.T) {
	limiter := NewRateLimiter(time.Hour)
	config := testLimiterConfig()

	for i := 0; i < 3; i++ {
		limiter.isAllowed("login:1.2.3.4", config)
	}
	assert.False(t, limiter.isAllowed("login:1.2.3.4", config))
	assert.False(t, limiter.isAllowed("login:1.2.3.4", config), "blocked keys stay blocked")
}

func TestIsAllowedKeysAreIndependent(t *testing.T) {
	limiter := NewRateLimiter(time.Hour)
	config := testLimiterConfig()

	for i := 0; i < 4; i++ {
		limiter.isAllowed("login:1.2.3.4", config)
	}
	assert.True(t, limiter.isAllowed("login:5.6.7.8", config))
	assert.True(t, limiter.isAllowed("register:1.2.3.4", config),
		"endpoints use separate counters for the same address")
}

func TestIsAllowedUnblocksAfterBlockDuration(t *testing.T) {
	limiter := NewRateLimiter(time.Hour)
	config := RateLimitConfig{
		MaxRequests:   1,
		TimeWindow:    time.Minute,
		BlockDuration: 10 * time.Millisecond,
	}

	limiter.isAllowed("login:1.2.3.4", config)
	assert.False(t, limiter.isAllowed("login:1.2.3.4", config))

	time.Sleep(20 * time.Millisecond)
	assert.True(t, limiter.isAllowed("login:1.2.3.4", config))
}

func TestLoginRateLimitMiddlewareResponds429(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewRateLimiter(time.Hour)
	config := RateLimitConfig{MaxRequests: 1, TimeWindow: time.Minute, BlockDuration: time.Minute}

	router := gin.New()
	router.POST("/login", limiter.LoginRateLimitMiddleware(config), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest("POST", "/login", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest("POST", "/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, second.Body.String(), "Too many login attempts")
}
