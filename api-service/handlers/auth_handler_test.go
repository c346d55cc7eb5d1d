package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"classtrack-backend/api-service/services"
	"classtrack-backend/shared/database/models"
)

// loginTestStore is a single-account AccountStore for endpoint tests.
type loginTestStore struct {
	user      *models.User
	updateErr error
}

func (s *loginTestStore) FindActiveByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.user != nil && s.user.Email == email {
		copied := *s.user
		return &copied, nil
	}
	return nil, nil
}

func (s *loginTestStore) UpdateTelemetry(ctx context.Context, id uuid.UUID, now time.Time) (*models.User, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	s.user.LastLoginAt = &now
	s.user.LoginCount++
	s.user.FailedLoginAttempts = 0
	copied := *s.user
	return &copied, nil
}

func (s *loginTestStore) IncrementFailedAttempts(ctx context.Context, id uuid.UUID) error {
	s.user.FailedLoginAttempts++
	return nil
}

func (s *loginTestStore) TelemetryColumns(ctx context.Context) (map[string]bool, error) {
	return map[string]bool{
		"last_login_at":         true,
		"login_count":           true,
		"failed_login_attempts": true,
	}, nil
}

type noopAuditTrail struct{}

func (noopAuditTrail) Append(ctx context.Context, actorID *uuid.UUID, action, entity, entityID string, changes models.JSONMap) error {
	return nil
}

type emptyGroupDirectory struct{}

func (emptyGroupDirectory) ListGroupsForUser(ctx context.Context, userID uuid.UUID) ([]services.GroupInfo, error) {
	return nil, nil
}

type staticTokenIssuer struct{}

func (staticTokenIssuer) Sign(userID uuid.UUID, role string) (string, error) {
	return "test-token", nil
}

func loginTestRouter(store *loginTestStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	service := services.NewLoginService(store, noopAuditTrail{}, emptyGroupDirectory{}, staticTokenIssuer{})
	handler := NewAuthHandler(nil, service)

	router := gin.New()
	router.POST("/api/auth/login", handler.Login)
	return router
}

func storeWithUser(t *testing.T) *loginTestStore {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	return &loginTestStore{user: &models.User{
		ID:       uuid.New(),
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: string(hash),
		Type:     models.UserTypeStudent,
	}}
}

func postLogin(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestLoginEndpointSuccess(t *testing.T) {
	router := loginTestRouter(storeWithUser(t))

	recorder := postLogin(router, `{"email":"alice@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusOK, recorder.Code)

	body := recorder.Body.String()
	assert.Contains(t, body, `"token":"test-token"`)
	assert.Contains(t, body, `"email":"alice@example.com"`)
	assert.Contains(t, body, `"loginCount":1`)
	assert.Contains(t, body, `"groups":[]`)
	assert.NotContains(t, body, "password", "password hash must never leave the API")
}

func TestLoginEndpointMissingFields(t *testing.T) {
	router := loginTestRouter(storeWithUser(t))

	for _, body := range []string{
		`{}`,
		`{"email":"alice@example.com"}`,
		`{"password":"password123"}`,
		``,
		`not json`,
	} {
		recorder := postLogin(router, body)
		assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code, body)
		assert.Contains(t, recorder.Body.String(), "email and password required")
	}
}

func TestLoginEndpointInvalidCredentials(t *testing.T) {
	router := loginTestRouter(storeWithUser(t))

	wrong := postLogin(router, `{"email":"alice@example.com","password":"nope"}`)
	unknown := postLogin(router, `{"email":"nobody@example.com","password":"whatever"}`)

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, wrong.Body.String())
	assert.JSONEq(t, wrong.Body.String(), unknown.Body.String(),
		"unknown email and wrong password must be indistinguishable")
}

func TestLoginEndpointInternalError(t *testing.T) {
	store := storeWithUser(t)
	store.updateErr = errors.New("connection reset")
	router := loginTestRouter(store)

	recorder := postLogin(router, `{"email":"alice@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.JSONEq(t, `{"error":"Unable to finalize login"}`, recorder.Body.String())
}
