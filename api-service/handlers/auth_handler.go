package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"classtrack-backend/api-service/services"
)

type AuthHandler struct {
	db    *gorm.DB
	login *services.LoginService
}

func NewAuthHandler(db *gorm.DB, login *services.LoginService) *AuthHandler {
	return &AuthHandler{db: db, login: login}
}

// Login Request struct
type LoginRequest struct {
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"password123"`
}

// POST /api/auth/login
// @Summary User login
// @Description Authenticate a user and return a JWT with the user profile
// @Tags auth
// @Accept json
// @Produce json
// @Param login body LoginRequest true "Login credentials"
// @Success 200 {object} services.LoginResult "Successful login"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Failure 422 {object} map[string]string "Missing email or password"
// @Failure 429 {object} map[string]string "Too many login attempts"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	// Malformed or empty bodies fall through to the required-field check.
	_ = c.ShouldBindJSON(&req)

	result, err := h.login.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	switch {
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "email and password required"})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case err != nil:
		log.Printf("Login failed for request from %s: %v", c.ClientIP(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to finalize login"})
	default:
		c.JSON(http.StatusOK, result)
	}
}
