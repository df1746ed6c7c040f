package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usermanagement/internal/domain/entity"
	"usermanagement/pkg/helpers"
)

func newGateRouter(tm *helpers.TokenManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", RequireAuth(tm), func(c *gin.Context) {
		ident, _ := IdentityFrom(c)
		c.JSON(http.StatusOK, gin.H{"uid": ident.UserID, "role": string(ident.Role)})
	})
	r.GET("/admin", RequireAdmin(tm), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func doGet(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	tm := helpers.NewTokenManager("s", time.Hour, time.Hour)
	w := doGet(newGateRouter(tm), "/me", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "no token provided")
}

func TestRequireAuth_WrongScheme(t *testing.T) {
	tm := helpers.NewTokenManager("s", time.Hour, time.Hour)
	token, _, err := tm.Issue("u1", entity.RoleUser)
	require.NoError(t, err)

	// Only "Bearer " is accepted; "Token <jwt>" and a bare token are not.
	for _, header := range []string{"Token " + token, token, "bearer " + token} {
		w := doGet(newGateRouter(tm), "/me", header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	expired := helpers.NewTokenManager("s", -time.Minute, -time.Minute)
	token, _, err := expired.Issue("u1", entity.RoleUser)
	require.NoError(t, err)

	tm := helpers.NewTokenManager("s", time.Hour, time.Hour)
	w := doGet(newGateRouter(tm), "/me", "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token has expired")
}

func TestRequireAuth_ValidToken(t *testing.T) {
	tm := helpers.NewTokenManager("s", time.Hour, time.Hour)
	token, _, err := tm.Issue("u1", entity.RoleUser)
	require.NoError(t, err)

	w := doGet(newGateRouter(tm), "/me", "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"uid":"u1"`)
	assert.Contains(t, w.Body.String(), `"role":"user"`)
}

func TestRequireAdmin_UserTokenIsForbidden(t *testing.T) {
	tm := helpers.NewTokenManager("s", time.Hour, time.Hour)
	token, _, err := tm.Issue("u1", entity.RoleUser)
	require.NoError(t, err)

	w := doGet(newGateRouter(tm), "/admin", "Bearer "+token)

	// Authenticated but not allowed: 403, not 401.
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "admin access required")
}

func TestRequireAdmin_BadTokenIsUnauthorized(t *testing.T) {
	tm := helpers.NewTokenManager("s", time.Hour, time.Hour)

	w := doGet(newGateRouter(tm), "/admin", "Bearer garbage")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin_AdminTokenPasses(t *testing.T) {
	tm := helpers.NewTokenManager("s", time.Hour, time.Hour)
	token, _, err := tm.Issue("a1", entity.RoleAdmin)
	require.NoError(t, err)

	w := doGet(newGateRouter(tm), "/admin", "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
}
