package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/media-path/internal/auth"
	"github.com/lk2023060901/media-path/internal/pkg/logger"
)

func newRouter(m *auth.JWTManager, guards ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(OptionalJWTAuth(m, logger.NewNop()))
	handlers := append(guards, func(c *gin.Context) {
		account := auth.AccountFromContext(c.Request.Context())
		c.String(http.StatusOK, account.UserID)
	})
	r.GET("/whoami", handlers...)
	return r
}

func do(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestOptionalJWTAuth(t *testing.T) {
	m := auth.NewJWTManager("secret", "media-path")
	r := newRouter(m)

	w := do(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	token, err := m.GenerateAccessToken("42", nil, time.Minute)
	require.NoError(t, err)
	w = do(r, token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "42", w.Body.String())

	w = do(r, "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequirePermission(t *testing.T) {
	m := auth.NewJWTManager("secret", "media-path")
	r := newRouter(m, RequirePermission("administer media types"))

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)

	plain, err := m.GenerateAccessToken("1", []string{"edit own document media"}, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, do(r, plain).Code)

	admin, err := m.GenerateAccessToken("2", []string{"administer media types"}, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, do(r, admin).Code)
}

func TestRequireAuth(t *testing.T) {
	m := auth.NewJWTManager("secret", "media-path")
	r := newRouter(m, RequireAuth())

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)

	token, err := m.GenerateAccessToken("3", nil, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, do(r, token).Code)
}
