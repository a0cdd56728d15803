package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gartstein/placement/internal/placement/auth"
	"github.com/gartstein/placement/internal/placement/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter()
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("a", 2, time.Minute))
	assert.True(t, limiter.Allow("a", 2, time.Minute))
	assert.False(t, limiter.Allow("a", 2, time.Minute))
	assert.True(t, limiter.Allow("b", 2, time.Minute), "keys are counted separately")

	now = now.Add(time.Minute + time.Second)
	assert.True(t, limiter.Allow("a", 2, time.Minute), "a new window starts after expiry")
}

func TestRateLimiter_DropsExpiredBuckets(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter()
	limiter.now = func() time.Time { return now }

	for i := 0; i < 100; i++ {
		limiter.Allow(fmt.Sprintf("ip:10.0.0.%d", i), 5, time.Minute)
	}
	assert.Len(t, limiter.buckets, 100)

	now = now.Add(2 * time.Minute)
	assert.True(t, limiter.Allow("ip:10.0.1.1", 5, time.Minute))
	assert.Len(t, limiter.buckets, 1, "expired buckets are dropped")

	now = now.Add(10 * time.Second)
	limiter.Allow("ip:10.0.1.2", 5, time.Minute)
	assert.Len(t, limiter.buckets, 2, "live buckets survive")
}

// fakeScripter counts script runs per key the way the Lua script does.
type fakeScripter struct {
	redis.Scripter
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (f *fakeScripter) EvalSha(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewCmdResult(nil, f.err)
	}
	f.counts[keys[0]]++
	if f.counts[keys[0]] > int64(args[1].(int)) {
		return redis.NewCmdResult(int64(0), nil)
	}
	return redis.NewCmdResult(int64(1), nil)
}

func TestRedisLimiter_Allow(t *testing.T) {
	assert.Nil(t, NewRedisLimiter(nil, "p:"))

	scripter := &fakeScripter{counts: map[string]int64{}}
	limiter := NewRedisLimiter(scripter, "p:")

	assert.True(t, limiter.Allow("user:1", 2, time.Minute))
	assert.True(t, limiter.Allow("user:1", 2, time.Minute))
	assert.False(t, limiter.Allow("user:1", 2, time.Minute))
	assert.Equal(t, int64(3), scripter.counts["p:user:1"])

	assert.True(t, limiter.Allow("user:1", 0, time.Minute), "a zero limit disables limiting")

	failing := NewRedisLimiter(&fakeScripter{err: errors.New("connection refused")}, "p:")
	assert.True(t, failing.Allow("user:1", 1, time.Minute), "redis errors let requests through")
}

func TestRateLimit(t *testing.T) {
	limiter := NewRateLimiter()
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := RateLimit(limiter, CallerKey(false), 1, time.Minute)(ok)

	request := func(remote string) int {
		r := httptest.NewRequest(http.MethodGet, "/v1/offers", nil)
		r.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, request("10.0.0.1:5000"))
	assert.Equal(t, http.StatusTooManyRequests, request("10.0.0.1:5001"))
	assert.Equal(t, http.StatusOK, request("10.0.0.2:5000"))

	unlimited := RateLimit(nil, CallerKey(false), 1, time.Minute)(ok)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		unlimited.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestCallerKey(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "ip:192.0.2.1", CallerKey(false)(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "ip:192.0.2.1", CallerKey(false)(r), "forwarded header ignored without a trusted proxy")
	assert.Equal(t, "ip:203.0.113.7", CallerKey(true)(r))

	r = r.WithContext(auth.WithIdentity(r.Context(), models.Identity{UserID: 8, Role: models.RoleStudent}))
	assert.Equal(t, "user:8", CallerKey(false)(r))
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "not-an-address"
	assert.Equal(t, "not-an-address", ClientIP(r, false))

	r.RemoteAddr = "198.51.100.4:5555"
	r.Header.Set("X-Forwarded-For", " , 10.0.0.1")
	assert.Equal(t, "198.51.100.4", ClientIP(r, true), "empty first hop falls back to the peer")

	r.Header.Set("X-Forwarded-For", "spoofed")
	assert.Equal(t, "198.51.100.4", ClientIP(r, false))
	assert.Equal(t, "spoofed", ClientIP(r, true))
}
