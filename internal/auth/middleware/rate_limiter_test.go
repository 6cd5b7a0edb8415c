package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/lk2023060901/media-path/internal/auth"
)

func TestBuildRateLimitKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := RateLimiterConfig{Strategy: "user", Scope: "media_upload"}

	newContext := func(remoteAddr string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/media/upload", nil)
		c.Request.RemoteAddr = remoteAddr
		return c
	}

	c := newContext("[::ffff:10.0.0.7]:5000")
	assert.Equal(t, "rate_limit:media_upload:ip:10.0.0.7", buildRateLimitKey(c, cfg))

	c = newContext("10.0.0.7:5000")
	c.Set(accountKey, &auth.Account{UserID: "u-1"})
	assert.Equal(t, "rate_limit:media_upload:user:u-1", buildRateLimitKey(c, cfg))

	cfg.Strategy = "ip"
	assert.Equal(t, "rate_limit:media_upload:ip:10.0.0.7", buildRateLimitKey(c, cfg))
}
