package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func setupMockRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func limitedRouter(limiter Limiter) *gin.Engine {
	r := gin.New()
	r.POST("/generate", RateLimit(limiter, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	r.GET("/list", RateLimit(limiter, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, client := setupMockRedis(t)

	limiters := map[string]Limiter{
		"redis": NewRedisLimiter(client, 10, time.Minute, 5*time.Minute),
		"local": NewLocalLimiter(10, time.Minute, 5*time.Minute),
	}

	for name, limiter := range limiters {
		t.Run(name, func(t *testing.T) {
			r := limitedRouter(limiter)

			for i := 0; i < 10; i++ {
				w := httptest.NewRecorder()
				req, _ := http.NewRequest(http.MethodPost, "/generate", nil)
				r.ServeHTTP(w, req)
				assert.Equal(t, http.StatusCreated, w.Code, "request %d", i+1)
			}

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPost, "/generate", nil)
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusTooManyRequests, w.Code)
			assert.Equal(t, "300", w.Header().Get("Retry-After"))

			var resp struct {
				Status int `json:"status"`
				Data   struct {
					RetryAfter int `json:"retry_after"`
				} `json:"data"`
			}
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, 429, resp.Status)
			assert.Equal(t, 300, resp.Data.RetryAfter)

			// Other routes keep their own budget.
			w = httptest.NewRecorder()
			req, _ = http.NewRequest(http.MethodGet, "/list", nil)
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestRedisLimiter_BlockExpires(t *testing.T) {
	mr, client := setupMockRedis(t)
	l := NewRedisLimiter(client, 1, time.Minute, 5*time.Minute)
	ctx := context.Background()

	allowed, _, err := l.Allow(ctx, "ip:/x")
	assert.NoError(t, err)
	assert.True(t, allowed)

	allowed, retryAfter, err := l.Allow(ctx, "ip:/x")
	assert.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 5*time.Minute, retryAfter)

	mr.FastForward(4 * time.Minute)
	allowed, _, _ = l.Allow(ctx, "ip:/x")
	assert.False(t, allowed)

	mr.FastForward(2 * time.Minute)
	allowed, _, err = l.Allow(ctx, "ip:/x")
	assert.NoError(t, err)
	assert.True(t, allowed)
}

func TestLocalLimiter_BlockExpires(t *testing.T) {
	now := time.Now()
	l := NewLocalLimiter(2, time.Minute, 5*time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, _, _ := l.Allow(ctx, "k")
		assert.True(t, allowed)
	}
	allowed, retryAfter, _ := l.Allow(ctx, "k")
	assert.False(t, allowed)
	assert.Equal(t, 5*time.Minute, retryAfter)

	now = now.Add(time.Minute)
	allowed, retryAfter, _ = l.Allow(ctx, "k")
	assert.False(t, allowed)
	assert.Equal(t, 4*time.Minute, retryAfter)

	now = now.Add(5 * time.Minute)
	allowed, _, _ = l.Allow(ctx, "k")
	assert.True(t, allowed)
}

func TestRateLimit_FailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr, client := setupMockRedis(t)
	mr.Close()

	r := limitedRouter(NewRedisLimiter(client, 1, time.Minute, time.Minute))
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/generate", nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	w = httptest.NewRecorder()
	req.Header.Set("X-Forwarded-Proto", "https")
	r.ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestLoggerRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Logger(zap.NewNop()), Metrics())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	r.ServeHTTP(w, req)
	_, err := uuid.Parse(w.Header().Get("X-Request-ID"))
	assert.NoError(t, err)
	assert.Equal(t, w.Header().Get("X-Request-ID"), w.Body.String())

	id := uuid.New().String()
	w = httptest.NewRecorder()
	req.Header.Set("X-Request-ID", id)
	r.ServeHTTP(w, req)
	assert.Equal(t, id, w.Header().Get("X-Request-ID"))
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(zap.NewNop()))
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
