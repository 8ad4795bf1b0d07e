package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"portfolio-backend/pkg/apperror"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	r.Use(mw...)
	r.POST("/v1/contact", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func post(r http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/contact", nil)
	req.RemoteAddr = ip + ":12345"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitInMemory(t *testing.T) {
	rl := NewRateLimiter(ContactRateLimitConfig(2, time.Minute), nil, nil)
	r := newEngine(rl.Middleware())

	assert.Equal(t, http.StatusOK, post(r, "198.51.100.1").Code)
	second := post(r, "198.51.100.1")
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

	blocked := post(r, "198.51.100.1")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))

	// Other clients are unaffected
	assert.Equal(t, http.StatusOK, post(r, "198.51.100.2").Code)
}

func TestRateLimitInMemoryWindowResets(t *testing.T) {
	rl := NewRateLimiter(ContactRateLimitConfig(1, time.Minute), nil, nil)
	now := time.Now()

	count, _ := rl.checkInMemory("k", now)
	assert.Equal(t, 1, count)
	count, _ = rl.checkInMemory("k", now.Add(30*time.Second))
	assert.Equal(t, 2, count)
	count, _ = rl.checkInMemory("k", now.Add(61*time.Second))
	assert.Equal(t, 1, count)
}

func TestRateLimitRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	rl := NewRateLimiter(ContactRateLimitConfig(1, time.Minute), client, nil)
	r := newEngine(rl.Middleware())

	assert.Equal(t, http.StatusOK, post(r, "198.51.100.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, post(r, "198.51.100.1").Code)

	val, err := mr.Get("rl:contact:198.51.100.1")
	require.NoError(t, err)
	assert.Equal(t, "2", val)
	assert.True(t, mr.TTL("rl:contact:198.51.100.1") > 0)
}

func TestRateLimitRedisDownFallsBackToMemory(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	rl := NewRateLimiter(ContactRateLimitConfig(1, time.Minute), client, nil)
	r := newEngine(rl.Middleware())

	assert.Equal(t, http.StatusOK, post(r, "198.51.100.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, post(r, "198.51.100.1").Code)
}

func TestCORS(t *testing.T) {
	r := newEngine(CORSMiddleware(CORSConfig{
		AllowedOrigins: []string{"https://example.com/"},
		PreviewSuffix:  ".vercel.app",
		Production:     true,
	}))

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"https://example.com", true},
		{"https://portfolio-git-main.vercel.app", true},
		{"http://localhost:3000", false},
		{"https://evil.example.net", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/v1/contact", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if tt.allowed {
				assert.Equal(t, http.StatusNoContent, w.Code)
				assert.Equal(t, tt.origin, w.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Equal(t, http.StatusForbidden, w.Code)
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestCORSDevelopmentAllowsLocalhost(t *testing.T) {
	r := newEngine(CORSMiddleware(CORSConfig{}))
	req := httptest.NewRequest(http.MethodOptions, "/v1/contact", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequestID(t *testing.T) {
	r := newEngine()

	w := post(r, "198.51.100.1")
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)

	req := httptest.NewRequest(http.MethodPost, "/v1/contact", nil)
	req.Header.Set(RequestIDHeader, "3f0c2b1e-9d4a-4c8e-8f6b-1a2b3c4d5e6f")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "3f0c2b1e-9d4a-4c8e-8f6b-1a2b3c4d5e6f", w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodPost, "/v1/contact", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "<script>", w.Header().Get(RequestIDHeader))
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler(nil))
	r.GET("/app", func(c *gin.Context) {
		_ = c.Error(apperror.New(http.StatusServiceUnavailable, "Store unavailable", errors.New("dial tcp 10.0.0.5")))
	})
	r.GET("/raw", func(c *gin.Context) {
		_ = c.Error(errors.New("secret internals"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/app", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "Store unavailable")
	assert.NotContains(t, w.Body.String(), "10.0.0.5")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/raw", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "secret internals")
}

func TestSecurityHeaders(t *testing.T) {
	r := newEngine(SecurityHeadersMiddleware())
	w := post(r, "198.51.100.1")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}
