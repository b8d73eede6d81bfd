package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newLimiter(t *testing.T, r rate.Limit, b int) *IPRateLimiter {
	t.Helper()
	l := NewIPRateLimiter(r, b)
	t.Cleanup(l.Stop)
	return l
}

func request(remote string, headers map[string]string) *http.Request {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = remote
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

func TestIPRateLimiter_PerAddress(t *testing.T) {
	limiter := newLimiter(t, 10, 20)

	a := limiter.GetLimiter("192.168.1.1")
	assert.Same(t, a, limiter.GetLimiter("192.168.1.1"))
	assert.NotSame(t, a, limiter.GetLimiter("192.168.1.2"))
	assert.Equal(t, 2, limiter.Len())
	assert.Equal(t, 20, a.Burst())
}

func TestIPRateLimiter_Burst(t *testing.T) {
	limiter := newLimiter(t, 1, 2)

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"), "burst exhausted")
	assert.True(t, limiter.Allow("10.0.0.2"), "other addresses keep their own budget")
}

func TestIPRateLimiter_Refill(t *testing.T) {
	limiter := newLimiter(t, 20, 1)

	require.True(t, limiter.Allow("10.0.0.1"))
	require.False(t, limiter.Allow("10.0.0.1"))

	time.Sleep(100 * time.Millisecond)
	assert.True(t, limiter.Allow("10.0.0.1"))
}

func TestIPRateLimiter_Concurrency(t *testing.T) {
	limiter := newLimiter(t, 0.001, 25)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Allow("192.168.1.1") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 25, allowed)
	assert.Equal(t, 1, limiter.Len())
}

func TestIPRateLimiter_EvictIdle(t *testing.T) {
	limiter := newLimiter(t, 10, 1)

	limiter.Allow("10.0.0.1")
	limiter.Allow("10.0.0.2")

	limiter.mu.Lock()
	limiter.visitors["10.0.0.1"].lastSeen = time.Now().Add(-time.Hour)
	limiter.mu.Unlock()

	limiter.evictIdle(time.Now().Add(-idleTTL))

	assert.Equal(t, 1, limiter.Len())
	assert.True(t, limiter.Allow("10.0.0.1"), "evicted address starts with a fresh burst")
}

func TestGetIP(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"remote addr without port", "192.168.1.1:12345", nil, "192.168.1.1"},
		{"remote addr ipv6", "[::1]:8080", nil, "::1"},
		{"remote addr unparseable", "pipe", nil, "pipe"},
		{"forwarded for", "192.168.1.1:12345", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "1.2.3.4"},
		{"forwarded chain", "192.168.1.1:12345", map[string]string{"X-Forwarded-For": " 1.2.3.4 , 10.0.0.1"}, "1.2.3.4"},
		{"real ip", "192.168.1.1:12345", map[string]string{"X-Real-IP": "5.6.7.8"}, "5.6.7.8"},
		{"forwarded wins", "192.168.1.1:12345", map[string]string{"X-Forwarded-For": "1.2.3.4", "X-Real-IP": "5.6.7.8"}, "1.2.3.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getIP(request(tt.remote, tt.headers)))
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := newLimiter(t, 1, 1)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handlers := map[string]http.Handler{
		"middleware": RateLimitMiddleware(limiter)(ok),
		"func":       RateLimitFunc(limiter, ok),
	}
	remote := map[string]string{"middleware": "192.168.1.1:1", "func": "192.168.1.2:1"}

	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
				w := httptest.NewRecorder()
				h.ServeHTTP(w, request(remote[name], nil))
				assert.Equal(t, want, w.Code, "request %d", i+1)
			}
		})
	}
}

func TestRateLimitGin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := newLimiter(t, 1, 1)

	r := gin.New()
	r.GET("/", RateLimitGin(limiter), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, request("192.168.1.3:1", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, request("192.168.1.3:1", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"Too many requests, please try again later."}`, w.Body.String())
}
