package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"mixologue-backend/internal/metrics"
	"mixologue-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Limiter decides whether a client key may proceed. retryAfter is set when
// the key is blocked.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// RedisLimiter is a fixed-window counter shared by every instance. A key
// that goes over the limit is blocked for the block duration.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	block  time.Duration
}

func NewRedisLimiter(client *redis.Client, limit int, window, block time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window, block: block}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	blockKey := "ratelimit:block:" + key
	ttl, err := l.client.PTTL(ctx, blockKey).Result()
	if err != nil {
		return true, 0, err
	}
	if ttl > 0 {
		return false, ttl, nil
	}

	countKey := "ratelimit:count:" + key
	count, err := l.client.Incr(ctx, countKey).Result()
	if err != nil {
		return true, 0, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, countKey, l.window).Err(); err != nil {
			return true, 0, err
		}
	}

	if count > int64(l.limit) {
		if err := l.client.Set(ctx, blockKey, 1, l.block).Err(); err != nil {
			return false, l.block, err
		}
		l.client.Del(ctx, countKey)
		return false, l.block, nil
	}
	return true, 0, nil
}

type localEntry struct {
	limiter      *rate.Limiter
	blockedUntil time.Time
	lastSeen     time.Time
}

// LocalLimiter keeps one token bucket per key in process memory. The bucket
// holds limit tokens and refills one every window/limit.
type LocalLimiter struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	limit   int
	window  time.Duration
	block   time.Duration
	now     func() time.Time
}

func NewLocalLimiter(limit int, window, block time.Duration) *LocalLimiter {
	return &LocalLimiter{
		entries: make(map[string]*localEntry),
		limit:   limit,
		window:  window,
		block:   block,
		now:     time.Now,
	}
}

func (l *LocalLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.entries) > 10000 {
		l.sweep(now)
	}

	e, ok := l.entries[key]
	if !ok {
		e = &localEntry{limiter: rate.NewLimiter(rate.Every(l.window/time.Duration(l.limit)), l.limit)}
		l.entries[key] = e
	}
	e.lastSeen = now

	if now.Before(e.blockedUntil) {
		return false, e.blockedUntil.Sub(now), nil
	}
	if !e.limiter.AllowN(now, 1) {
		e.blockedUntil = now.Add(l.block)
		return false, l.block, nil
	}
	return true, 0, nil
}

func (l *LocalLimiter) sweep(now time.Time) {
	idle := l.window + l.block
	for key, e := range l.entries {
		if now.Sub(e.lastSeen) > idle && !now.Before(e.blockedUntil) {
			delete(l.entries, key)
		}
	}
}

// RateLimit rejects clients that exceed the limiter for the current route.
// Limiter errors let the request through.
func RateLimit(limiter Limiter, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		key := c.ClientIP() + ":" + c.FullPath()
		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn("Rate limiter unavailable, allowing request", zap.String("key", key), zap.Error(err))
		}
		if allowed {
			c.Next()
			return
		}

		metrics.RateLimitRejects.Inc()
		seconds := int(math.Ceil(retryAfter.Seconds()))
		log.Warn("Rate limit exceeded", zap.String("key", key), zap.Int("retry_after", seconds))

		c.Header("Retry-After", strconv.Itoa(seconds))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, utils.Response{
			Status:  http.StatusTooManyRequests,
			Message: fmt.Sprintf("Too many requests, retry in %d seconds", seconds),
			Data:    gin.H{"retry_after": seconds},
		})
	}
}
