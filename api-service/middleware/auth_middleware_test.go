package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classtrack-backend/shared/database/models"
	utils "classtrack-backend/shared/utils/auth"
)

func authTestRouter(extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	chain := append([]gin.HandlerFunc{AuthMiddleware()}, extra...)
	chain = append(chain, func(c *gin.Context) {
		userID, _ := CurrentUserID(c)
		c.JSON(http.StatusOK, gin.H{
			"userId": userID.String(),
			"role":   c.GetString(ContextUserRole),
		})
	})
	router.GET("/protected", chain...)
	return router
}

func doRequest(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	userID := uuid.New()
	token, err := utils.GenerateJWT(userID, models.UserTypeTeacher)
	require.NoError(t, err)

	recorder := doRequest(authTestRouter(), "Bearer "+token)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), userID.String())
	assert.Contains(t, recorder.Body.String(), models.UserTypeTeacher)
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	recorder := doRequest(authTestRouter(), "")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestAuthMiddlewareRejectsBadFormat(t *testing.T) {
	for _, header := range []string{"Token abc", "Bearer", "abc"} {
		recorder := doRequest(authTestRouter(), header)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code, header)
	}
}

func TestAuthMiddlewareRejectsInvalidToken(t *testing.T) {
	recorder := doRequest(authTestRouter(), "Bearer not-a-real-token")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestRequireRoleAllowsListedRole(t *testing.T) {
	token, err := utils.GenerateJWT(uuid.New(), models.UserTypeAdmin)
	require.NoError(t, err)

	router := authTestRouter(RequireRole(models.UserTypeAdmin, models.UserTypeTeacher))
	recorder := doRequest(router, "Bearer "+token)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestRequireRoleRejectsOtherRoles(t *testing.T) {
	token, err := utils.GenerateJWT(uuid.New(), models.UserTypeStudent)
	require.NoError(t, err)

	router := authTestRouter(RequireRole(models.UserTypeAdmin))
	recorder := doRequest(router, "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, recorder.Code)
}
