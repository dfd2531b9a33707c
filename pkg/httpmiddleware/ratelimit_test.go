package httpmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, method, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/cart/items", nil)
	req.RemoteAddr = remote
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimit_UnderLimit(t *testing.T) {
	h := RateLimit(t.Context(), RateLimitConfig{Max: 5, Window: time.Minute})(okHandler())

	for i := range 5 {
		w := serve(h, http.MethodPost, "192.168.1.1:12345")
		assert.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}
}

func TestRateLimit_OverLimit(t *testing.T) {
	h := RateLimit(t.Context(), RateLimitConfig{Max: 2, Window: time.Minute})(okHandler())

	for range 2 {
		require.Equal(t, http.StatusOK, serve(h, http.MethodPost, "10.0.0.1:9999").Code)
	}

	w := serve(h, http.MethodPost, "10.0.0.1:9999")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var (
		code    int
		message string
	)
	require.NoError(t, jx.DecodeBytes(w.Body.Bytes()).ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "code":
			code, err = d.Int()
		case "message":
			message, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	}))
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "rate limit exceeded", message)
}

func TestRateLimit_KeysAreIndependent(t *testing.T) {
	h := RateLimit(t.Context(), RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	assert.Equal(t, http.StatusOK, serve(h, http.MethodPost, "10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodPost, "10.0.0.2:1234").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, http.MethodPost, "10.0.0.1:5678").Code)
}

func TestRateLimit_SkipSafeMethods(t *testing.T) {
	h := RateLimit(t.Context(), RateLimitConfig{
		Max:    1,
		Window: time.Minute,
		Skip:   SkipSafeMethods,
	})(okHandler())

	for range 3 {
		w := serve(h, http.MethodGet, "10.0.0.3:1")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
	assert.Equal(t, http.StatusOK, serve(h, http.MethodPost, "10.0.0.3:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, http.MethodPost, "10.0.0.3:1").Code)
}

func TestRateLimit_XForwardedFor(t *testing.T) {
	h := RateLimit(context.Background(), RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "192.168.1.1:4444"
	req.Header.Set("X-Forwarded-For", "203.0.113.50, 70.41.3.18")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "192.168.1.2:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.50")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestLimiter_WindowRollover(t *testing.T) {
	l := newLimiter(RateLimitConfig{Max: 2, Window: time.Minute})
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	_, _, ok := l.take("k", start)
	require.True(t, ok)
	_, _, ok = l.take("k", start.Add(time.Second))
	require.True(t, ok)
	_, _, ok = l.take("k", start.Add(2*time.Second))
	require.False(t, ok)

	// Halfway into the next window the previous one still weighs 1 request.
	remaining, _, ok := l.take("k", start.Add(90*time.Second))
	require.True(t, ok)
	assert.Equal(t, 0, remaining)

	// Two windows later everything is forgotten.
	remaining, _, ok = l.take("k", start.Add(5*time.Minute))
	require.True(t, ok)
	assert.Equal(t, 1, remaining)

	assert.Equal(t, 1, l.sweep(start.Add(10*time.Minute)))
}
