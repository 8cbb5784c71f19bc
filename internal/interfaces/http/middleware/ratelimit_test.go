package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	t.Run("allows burst then rejects", func(t *testing.T) {
		now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
		rl := NewRateLimiter(3, time.Minute)
		rl.now = func() time.Time { return now }

		for i := 0; i < 3; i++ {
			assert.True(t, rl.Allow("client-a"), "request %d", i+1)
		}
		assert.False(t, rl.Allow("client-a"))
		assert.Equal(t, 0, rl.Remaining("client-a"))

		// other keys have their own bucket
		assert.True(t, rl.Allow("client-b"))
		assert.Equal(t, 2, rl.Remaining("client-b"))
	})

	t.Run("refills over time", func(t *testing.T) {
		now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
		rl := NewRateLimiter(2, time.Minute)
		rl.now = func() time.Time { return now }

		assert.True(t, rl.Allow("k"))
		assert.True(t, rl.Allow("k"))
		assert.False(t, rl.Allow("k"))

		now = now.Add(30 * time.Second)
		assert.True(t, rl.Allow("k"))
	})

	t.Run("evicts idle clients", func(t *testing.T) {
		now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
		rl := NewRateLimiter(1, time.Second)
		rl.now = func() time.Time { return now }

		rl.Allow("stale")
		now = now.Add(time.Minute)
		rl.Allow("fresh")
		rl.evictIdle()

		assert.NotContains(t, rl.clients, "stale")
		assert.Contains(t, rl.clients, "fresh")
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)
	r := gin.New()
	r.Use(RateLimit(rl))
	r.POST("/invoices/:number/document", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/invoices/202401/document", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		return w
	}

	first := send()
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, send().Code)

	limited := send()
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))
	assert.Contains(t, limited.Body.String(), "ERR_RATE_LIMITED")
}

func TestRateLimitByKey(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	r := gin.New()
	r.Use(RateLimitByKey(rl, func(c *gin.Context) string { return c.GetHeader("X-Client") }))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, tc := range []struct {
		client string
		want   int
	}{
		{"a", http.StatusOK},
		{"a", http.StatusTooManyRequests},
		{"b", http.StatusOK},
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Client", tc.client)
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.want, w.Code, "client %s", tc.client)
	}
}
