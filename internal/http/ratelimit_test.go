package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_PerClientBudgets(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 1, CleanupInterval: time.Minute})
	defer rl.Stop()

	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1111"))
	// Same host, different port shares the bucket.
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:2222"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1111"))
	assert.Equal(t, 2, rl.Len())
}

func TestRateLimiter_CleanupDropsIdleClients(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 1, CleanupInterval: time.Hour})
	defer rl.Stop()

	rl.limiterFor("10.0.0.1")
	rl.limiterFor("10.0.0.2")

	rl.cleanup(time.Now().Add(time.Hour))
	assert.Equal(t, 2, rl.Len())

	rl.cleanup(time.Now().Add(3 * time.Hour))
	assert.Equal(t, 0, rl.Len())
}

func TestRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{})
	rl.Stop()
	rl.Stop()

	def := DefaultRateLimiterConfig()
	assert.Equal(t, def.Rate, rl.config.Rate)
	assert.Equal(t, def.Burst, rl.config.Burst)
}

func TestWriteRateLimitResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	writeRateLimitResponse(rec, 0.5)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
}

func TestClientAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[::1]:8080"
	assert.Equal(t, "::1", clientAddr(req))

	req.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", clientAddr(req))
}
