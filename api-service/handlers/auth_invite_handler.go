package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"classtrack-backend/api-service/middleware"
	"classtrack-backend/shared/config"
	"classtrack-backend/shared/database/models"
	"classtrack-backend/shared/database/models/auth"
	utils "classtrack-backend/shared/utils/auth"
)

type InviteRequest struct {
	Email string `json:"email" example:"new.teacher@example.com"`
	Role  string `json:"role" example:"Teacher"`
}

type InviteResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
	DevToken  string    `json:"devToken,omitempty"`
}

type AcceptInviteRequest struct {
	Token    string `json:"token"`
	Name     string `json:"name" example:"New Teacher"`
	Password string `json:"password" example:"securepassword123"`
}

// POST /api/auth/invite
// @Summary Invite a user
// @Description Create an invitation for a new staff account (admin only)
// @Tags auth
// @Accept json
// @Produce json
// @Param invite body InviteRequest true "Invitee email and role"
// @Success 201 {object} InviteResponse "Invitation created"
// @Failure 409 {object} map[string]string "Email already registered"
// @Failure 422 {object} map[string]string "Missing or invalid fields"
// @Security BearerAuth
// @Router /auth/invite [post]
func (h *AuthHandler) Invite(c *gin.Context) {
	var req InviteRequest
	_ = c.ShouldBindJSON(&req)

	email := utils.NormalizeEmail(req.Email)
	if email == "" || req.Role == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "email and role required"})
		return
	}
	if err := utils.ValidateEmail(email); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid email address"})
		return
	}
	if !models.ValidUserType(req.Role) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid role"})
		return
	}

	var existing int64
	if err := h.db.Model(&models.User{}).
		Where("email = ? AND deleted_at IS NULL", email).
		Count(&existing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check existing accounts"})
		return
	}
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}

	rawToken, err := utils.GenerateRandomToken(32)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create invitation"})
		return
	}

	cfg := config.GetConfig()
	invite := auth.Invite{
		Email:     email,
		Role:      req.Role,
		TokenHash: utils.HashToken(rawToken),
		ExpiresAt: time.Now().Add(time.Duration(cfg.GetInviteExpiryDays()) * 24 * time.Hour),
	}
	if actorID, ok := middleware.CurrentUserID(c); ok {
		invite.InviterUserID = &actorID
	}

	if err := h.db.Create(&invite).Error; err != nil {
		log.Printf("Failed to store invitation for %s: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create invitation"})
		return
	}

	resp := InviteResponse{
		ID:        invite.ID.String(),
		Email:     invite.Email,
		Role:      invite.Role,
		ExpiresAt: invite.ExpiresAt,
	}
	if !cfg.IsProduction() {
		resp.DevToken = rawToken
	}
	c.JSON(http.StatusCreated, resp)
}

// POST /api/auth/accept-invite
// @Summary Accept an invitation
// @Description Create the invited account and return a session
// @Tags auth
// @Accept json
// @Produce json
// @Param accept body AcceptInviteRequest true "Invite token, name and password"
// @Success 201 {object} map[string]interface{} "Account created"
// @Failure 400 {object} map[string]string "Invalid or expired invitation"
// @Failure 409 {object} map[string]string "Email already registered"
// @Failure 422 {object} map[string]string "Missing fields"
// @Router /auth/accept-invite [post]
func (h *AuthHandler) AcceptInvite(c *gin.Context) {
	var req AcceptInviteRequest
	_ = c.ShouldBindJSON(&req)

	if req.Token == "" || req.Name == "" || req.Password == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "token, name and password required"})
		return
	}

	var invite auth.Invite
	err := h.db.Where("token_hash = ? AND accepted_at IS NULL AND expires_at > ?",
		utils.HashToken(req.Token), time.Now()).First(&invite).Error
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired invitation"})
		return
	}

	var existing int64
	if err := h.db.Model(&models.User{}).
		Where("email = ? AND deleted_at IS NULL", invite.Email).
		Count(&existing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check existing accounts"})
		return
	}
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}

	user := models.User{
		Email:    invite.Email,
		Name:     req.Name,
		Password: hashedPassword,
		Type:     invite.Role,
	}
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		now := time.Now()
		return tx.Model(&auth.Invite{}).
			Where("id = ?", invite.ID).
			Update("accepted_at", &now).Error
	})
	if err != nil {
		log.Printf("Failed to accept invitation for %s: %v", invite.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	h.respondWithSession(c, &user)
}
