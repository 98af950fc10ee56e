package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crossviz/go-viewer-backend/internal/token"
)

func authRouter(t *testing.T, secret string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(BearerAuth(secret, zap.NewNop()))
	handle := func(c *gin.Context) { c.String(http.StatusOK, "ok") }
	r.GET("/data", handle)
	r.OPTIONS("/data", handle)
	return r
}

func TestBearerAuthAcceptsValidToken(t *testing.T) {
	r := authRouter(t, "s3cret")
	tok, err := token.Mint("s3cret", "cfg", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/data", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBearerAuthRejectsMissingHeader(t *testing.T) {
	r := authRouter(t, "s3cret")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/data", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Authorization header required")
}

func TestBearerAuthRejectsBadFormat(t *testing.T) {
	r := authRouter(t, "s3cret")
	req := httptest.NewRequest(http.MethodGet, "/data", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid authorization header format")
}

func TestBearerAuthRejectsInvalidToken(t *testing.T) {
	r := authRouter(t, "s3cret")
	tok, err := token.Mint("other-secret", "cfg", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/data", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid token")
}

func TestBearerAuthPassesOptionsThrough(t *testing.T) {
	r := authRouter(t, "s3cret")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/data", nil))

	// CORS preflight must not require credentials.
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoggerPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Logger(zap.NewNop()))
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
