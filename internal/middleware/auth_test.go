package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexfield/filings-backend/internal/utils"
)

func newAuthRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chain := append(handlers, func(c *gin.Context) {
		userID, _ := c.Get("user_id")
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	r.GET("/protected", chain...)
	return r
}

func authGet(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequiredAcceptsValidToken(t *testing.T) {
	r := newAuthRouter(AuthRequired())

	userID := uuid.New()
	token, err := utils.GenerateJWT(userID, "user@example.com", "applicant", 1)
	require.NoError(t, err)

	w := authGet(r, token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
}

func TestAuthRequiredRejectsMissingHeader(t *testing.T) {
	r := newAuthRouter(AuthRequired())
	w := authGet(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequiredRejectsGarbageToken(t *testing.T) {
	r := newAuthRouter(AuthRequired())
	w := authGet(r, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequiredRejectsMalformedHeader(t *testing.T) {
	r := newAuthRouter(AuthRequired())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "token-without-scheme")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRequiredRejectsNonAdmin(t *testing.T) {
	r := newAuthRouter(AuthRequired(), AdminRequired())

	token, err := utils.GenerateJWT(uuid.New(), "user@example.com", "applicant", 1)
	require.NoError(t, err)

	w := authGet(r, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminRequiredAcceptsAdmin(t *testing.T) {
	r := newAuthRouter(AuthRequired(), AdminRequired())

	token, err := utils.GenerateJWT(uuid.New(), "admin@example.com", "admin", 1)
	require.NoError(t, err)

	w := authGet(r, token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthFailureUsesErrorEnvelope(t *testing.T) {
	r := newAuthRouter(AuthRequired())
	w := authGet(r, "not-a-jwt")

	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
	assert.Equal(t, "Invalid or expired token", resp.Error.Message)
}

func TestAdminFailureUsesErrorEnvelope(t *testing.T) {
	r := newAuthRouter(AuthRequired(), AdminRequired())

	token, err := utils.GenerateJWT(uuid.New(), "user@example.com", "applicant", 1)
	require.NoError(t, err)

	w := authGet(r, token)

	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "FORBIDDEN", resp.Error.Code)
}

func TestOptionalAuthPassesThroughWithoutToken(t *testing.T) {
	r := newAuthRouter(OptionalAuth())
	w := authGet(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
}
