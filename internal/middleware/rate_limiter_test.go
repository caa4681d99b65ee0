package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func resetVisitors() {
	mu.Lock()
	visitors = make(map[string]*visitor)
	mu.Unlock()
}

func TestRateLimiter(t *testing.T) {
	resetVisitors()

	e := echo.New()
	handler := RateLimiterWithConfig(2, 4)(func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Requests within the burst succeed
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.168.1.100:12345"
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		assert.NoError(t, handler(c))
		assert.Equal(t, http.StatusOK, rec.Code, "request %d should succeed", i)
	}

	// Past the burst the limiter kicks in. The limiter sends the envelope
	// itself, so the handler error stays nil.
	rateLimited := false
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.168.1.100:12345"
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		assert.NoError(t, handler(c))
		if rec.Code == http.StatusTooManyRequests {
			rateLimited = true
			break
		}
	}
	assert.True(t, rateLimited, "should be rate limited after exceeding the burst")
}

func TestRateLimiter_SeparateIPsHaveSeparateBudgets(t *testing.T) {
	resetVisitors()

	e := echo.New()
	handler := RateLimiterWithConfig(1, 2)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	// Exhaust the first IP
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "10.0.0.1:1000"
		rec := httptest.NewRecorder()
		assert.NoError(t, handler(e.NewContext(req, rec)))
	}

	// A different IP still has its full budget
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "10.0.0.2:1000"
	rec := httptest.NewRecorder()
	assert.NoError(t, handler(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_ForwardedForTakesPrecedence(t *testing.T) {
	resetVisitors()

	e := echo.New()
	handler := RateLimiterWithConfig(1, 1)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	// Two clients behind different forwarded addresses are tracked separately
	// even when the connection address is the same.
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "127.0.0.1:9999"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		rec := httptest.NewRecorder()

		assert.NoError(t, handler(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
