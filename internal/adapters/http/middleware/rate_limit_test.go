package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestDefaultRateLimitConfig(t *testing.T) {
	config := DefaultRateLimitConfig()

	assert.Equal(t, 100, config.Limit)
	assert.Equal(t, time.Minute, config.Window)
	assert.NotNil(t, config.KeyFunc)
	assert.Nil(t, config.OnLimitReached)
}

func TestRateLimit_AllowsRequestsUnderLimit(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(&RateLimitConfig{
		Limit:  5,
		Window: time.Minute,
		KeyFunc: func(c *gin.Context) string {
			return "test-key"
		},
	}))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// Make 5 requests - all should succeed
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "Request %d should succeed", i+1)
	}
}

func TestRateLimit_BlocksRequestsOverLimit(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(&RateLimitConfig{
		Limit:  3,
		Window: time.Minute,
		KeyFunc: func(c *gin.Context) string {
			return "test-key"
		},
	}))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	// 4th request over the limit
	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "TOO_MANY_REQUESTS")
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimit_SetsHeaders(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(&RateLimitConfig{
		Limit:  10,
		Window: time.Minute,
		KeyFunc: func(c *gin.Context) string {
			return "test-key"
		},
	}))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "10", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "9", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
}

func TestRateLimit_SeparateKeysSeparateBuckets(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(&RateLimitConfig{
		Limit:  1,
		Window: time.Minute,
		KeyFunc: func(c *gin.Context) string {
			return c.GetHeader("X-Test-Key")
		},
	}))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// Key A uses its single token
	reqA := httptest.NewRequest("GET", "/test", nil)
	reqA.Header.Set("X-Test-Key", "a")
	wA := httptest.NewRecorder()
	router.ServeHTTP(wA, reqA)
	assert.Equal(t, http.StatusOK, wA.Code)

	// Key B has its own bucket
	reqB := httptest.NewRequest("GET", "/test", nil)
	reqB.Header.Set("X-Test-Key", "b")
	wB := httptest.NewRecorder()
	router.ServeHTTP(wB, reqB)
	assert.Equal(t, http.StatusOK, wB.Code)

	// Key A is exhausted
	reqA2 := httptest.NewRequest("GET", "/test", nil)
	reqA2.Header.Set("X-Test-Key", "a")
	wA2 := httptest.NewRecorder()
	router.ServeHTTP(wA2, reqA2)
	assert.Equal(t, http.StatusTooManyRequests, wA2.Code)
}

func TestRateLimit_WindowReset(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(&RateLimitConfig{
		Limit:  1,
		Window: 50 * time.Millisecond,
		KeyFunc: func(c *gin.Context) string {
			return "test-key"
		},
	}))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req2 := httptest.NewRequest("GET", "/test", nil)
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusTooManyRequests, w2.Code)

	// После окна лимит сбрасывается
	time.Sleep(60 * time.Millisecond)

	req3 := httptest.NewRequest("GET", "/test", nil)
	w3 := httptest.NewRecorder()
	router.ServeHTTP(w3, req3)
	assert.Equal(t, http.StatusOK, w3.Code)
}

func TestRateLimit_OnLimitReachedCallback(t *testing.T) {
	var mu sync.Mutex
	callbackCalled := false

	router := gin.New()
	router.Use(RateLimit(&RateLimitConfig{
		Limit:  1,
		Window: time.Minute,
		KeyFunc: func(c *gin.Context) string {
			return "test-key"
		},
		OnLimitReached: func(c *gin.Context) {
			mu.Lock()
			callbackCalled = true
			mu.Unlock()
		},
	}))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, callbackCalled)
}

func TestRateLimit_NilConfigUsesDefaults(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(nil))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "100", w.Header().Get("X-RateLimit-Limit"))
}

func TestOperationRateLimit_KeyIncludesPath(t *testing.T) {
	router := gin.New()
	router.Use(OperationRateLimit())
	router.POST("/api/v1/wallet/topup", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.POST("/api/v1/wallet/spend", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// Выжимаем окно для topup
	for i := 0; i < 30; i++ {
		req := httptest.NewRequest("POST", "/api/v1/wallet/topup", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	req := httptest.NewRequest("POST", "/api/v1/wallet/topup", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// spend лимитируется отдельно
	reqSpend := httptest.NewRequest("POST", "/api/v1/wallet/spend", nil)
	wSpend := httptest.NewRecorder()
	router.ServeHTTP(wSpend, reqSpend)
	assert.Equal(t, http.StatusOK, wSpend.Code)
}

func TestItoa(t *testing.T) {
	tests := []struct {
		input    int
		expected string
	}{
		{0, "0"},
		{1, "1"},
		{42, "42"},
		{100, "100"},
		{-5, "-5"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, itoa(tt.input))
	}
}
