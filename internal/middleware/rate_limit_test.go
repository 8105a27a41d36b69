package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pageza/modelhistory/internal/middleware"
	"github.com/pageza/modelhistory/internal/testhelpers"
	"github.com/stretchr/testify/assert"
)

func TestRateLimitMiddleware(t *testing.T) {
	client := testhelpers.SetupRedis(t)
	gin.SetMode(gin.TestMode)

	limiter := middleware.NewRateLimiter(client, middleware.RateLimitConfig{
		Window:    time.Hour,
		Limit:     2,
		KeyPrefix: "test:" + uuid.NewString(),
	})

	userID := uuid.New()
	r := gin.New()
	r.POST("/archive", func(c *gin.Context) { c.Set("user_id", userID) }, limiter.RateLimitMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})

	codes := make([]int, 3)
	for i := range codes {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/archive", nil)
		r.ServeHTTP(w, req)
		codes[i] = w.Code
	}
	assert.Equal(t, []int{http.StatusAccepted, http.StatusAccepted, http.StatusTooManyRequests}, codes)
}

func TestRateLimitRequiresUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := middleware.NewArchiveRateLimiter(nil)

	r := gin.New()
	r.POST("/archive", limiter.RateLimitMiddleware(), func(c *gin.Context) { c.Status(http.StatusAccepted) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/archive", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
