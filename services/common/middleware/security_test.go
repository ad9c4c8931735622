package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestRateLimiter_BucketsArePerKey(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Hour), 2, time.Hour)

	assert.True(t, rl.Allow("order-a"))
	assert.True(t, rl.Allow("order-a"))
	assert.False(t, rl.Allow("order-a"))

	assert.True(t, rl.Allow("order-b"))
	assert.Same(t, rl.GetLimiter("order-a"), rl.GetLimiter("order-a"))
}

func TestRateLimiter_SweepsIdleEntries(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Hour), 1, 20*time.Millisecond)

	assert.True(t, rl.Allow("idle"))
	assert.False(t, rl.Allow("idle"))

	time.Sleep(40 * time.Millisecond)
	rl.GetLimiter("fresh")

	rl.mu.Lock()
	_, kept := rl.entries["idle"]
	size := len(rl.entries)
	rl.mu.Unlock()
	assert.False(t, kept)
	assert.Equal(t, 1, size)

	// a swept key starts over with a full bucket
	assert.True(t, rl.Allow("idle"))
}

func TestRateLimit_RejectsExhaustedKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(rate.Every(time.Hour), 1, time.Hour)

	r := gin.New()
	r.GET("/orders/:id", RateLimit(rl, func(c *gin.Context) string { return c.Param("id") }), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	get := func(path string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, get("/orders/1"))
	assert.Equal(t, http.StatusTooManyRequests, get("/orders/1"))
	assert.Equal(t, http.StatusNoContent, get("/orders/2"))
}

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}
