package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"showtime/internal/shared/config"
	"showtime/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newEngine(cfg *config.Config, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{JWTAuthWithConfig(cfg)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		id, _ := CurrentUserID(c)
		c.String(http.StatusOK, id)
	})
	r.GET("/me", handlers...)
	return r
}

func TestJWTAuth(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret"}}

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantBody string
	}{
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Token abc", http.StatusUnauthorized, ""},
		{"bad signature", "Bearer " + signToken(t, "other", jwt.MapClaims{"user_id": "u1", "type": "access"}), http.StatusUnauthorized, ""},
		{"refresh token", "Bearer " + signToken(t, "test-secret", jwt.MapClaims{"user_id": "u1", "type": "refresh"}), http.StatusUnauthorized, ""},
		{"valid", "Bearer " + signToken(t, "test-secret", jwt.MapClaims{"user_id": "u1", "type": "access", "role": "USER"}), http.StatusOK, "u1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			newEngine(cfg).ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret"}}
	r := newEngine(cfg, RequireAdmin())

	userToken := signToken(t, "test-secret", jwt.MapClaims{"user_id": "u1", "type": "access", "role": RoleUser})
	adminToken := signToken(t, "test-secret", jwt.MapClaims{"user_id": "a1", "type": "access", "role": RoleAdmin})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a1", w.Body.String())
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.GET("/ping", RequestID(logger.NewWithWriter(&buf)), func(c *gin.Context) {
		logger.FromGin(c).Info("handled")
		c.Status(http.StatusNoContent)
	})

	t.Run("echoes caller id", func(t *testing.T) {
		buf.Reset()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(HeaderRequestID, "req-123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "req-123", w.Header().Get(HeaderRequestID))
		assert.Contains(t, buf.String(), `"request_id":"req-123"`)
	})

	t.Run("generates one when missing", func(t *testing.T) {
		buf.Reset()
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		id := w.Header().Get(HeaderRequestID)
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), `"request_id":"`+id+`"`)
	})
}

func TestAuthAddsUserToRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret"}}
	var buf bytes.Buffer
	r := gin.New()
	r.GET("/me", RequestID(logger.NewWithWriter(&buf)), JWTAuthWithConfig(cfg), func(c *gin.Context) {
		logger.FromGin(c).Info("handled")
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(HeaderRequestID, "req-9")
	req.Header.Set("Authorization", "Bearer "+signToken(t, "test-secret", jwt.MapClaims{"user_id": "u7", "type": "access"}))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, buf.String(), `"request_id":"req-9"`)
	assert.Contains(t, buf.String(), `"user_id":"u7"`)
}
