package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fxops/confirmhub/internal/auth"
)

const testSecret = "middleware-test-secret"

func protectedRouter(permission string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/guarded", JWTAuth(testSecret, permission), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"client": c.GetString("clientID")})
	})
	return router
}

func issueToken(t *testing.T, permissions ...string) string {
	t.Helper()
	svc := auth.NewService(testSecret)
	svc.RegisterAPICredentials("key", "secret", permissions...)
	token, err := svc.GenerateToken(auth.Credentials{APIKey: "key", APISecret: "secret"})
	require.NoError(t, err)
	return token.Token
}

func TestJWTAuthRejectsMissingHeader(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	protectedRouter(auth.PermissionOps).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthRejectsWrongSecret(t *testing.T) {
	svc := auth.NewService("some-other-secret")
	svc.RegisterAPICredentials("key", "secret")
	token, err := svc.GenerateToken(auth.Credentials{APIKey: "key", APISecret: "secret"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+token.Token)
	protectedRouter(auth.PermissionOps).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthEnforcesPermission(t *testing.T) {
	opsOnly := issueToken(t, auth.PermissionOps)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+opsOnly)
	protectedRouter(auth.PermissionInternal).ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code, "an ops token must not reach internal endpoints")
}

func TestJWTAuthAcceptsMatchingPermission(t *testing.T) {
	token := issueToken(t, auth.PermissionOps, auth.PermissionInternal)

	for _, permission := range []string{auth.PermissionOps, auth.PermissionInternal} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		protectedRouter(permission).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, permission)
		assert.Contains(t, w.Body.String(), `"client":"key"`)
	}
}
