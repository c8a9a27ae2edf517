package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitRejectsAfterQuota(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limit, err := RateLimit("2-M", nil, nil)
	require.NoError(t, err)

	router := gin.New()
	router.POST("/upload", limit, func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/upload", nil)
		req.RemoteAddr = "10.0.0.7:5000"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if i == 2 {
			assert.Equal(t, "60", rec.Header().Get("Retry-After"))
			assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
		}
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestRateLimitDisabledAndInvalid(t *testing.T) {
	limit, err := RateLimit("", nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, limit)

	_, err = RateLimit("lots", nil, nil)
	assert.Error(t, err)
}
