package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"classtrack-backend/shared/config"
	"classtrack-backend/shared/database/models"
	"classtrack-backend/shared/database/models/auth"
	utils "classtrack-backend/shared/utils/auth"
)

type PasswordResetRequest struct {
	Email string `json:"email" example:"alice@example.com"`
}

type PasswordResetConfirm struct {
	Token    string `json:"token"`
	Password string `json:"password" example:"newsecurepassword"`
}

// POST /api/auth/request-reset
// @Summary Request a password reset
// @Description Issue a reset token for the given email. The response is identical whether or not the address exists.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body PasswordResetRequest true "Account email"
// @Success 200 {object} map[string]interface{} "Request accepted"
// @Failure 422 {object} map[string]string "Missing email"
// @Failure 429 {object} map[string]string "Too many reset attempts"
// @Router /auth/request-reset [post]
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req PasswordResetRequest
	_ = c.ShouldBindJSON(&req)

	email := utils.NormalizeEmail(req.Email)
	if email == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "email required"})
		return
	}

	cfg := config.GetConfig()
	resp := gin.H{"ok": true}

	var user models.User
	err := h.db.Where("email = ? AND deleted_at IS NULL", email).First(&user).Error
	if err != nil {
		// Unknown addresses get the same answer to avoid account enumeration.
		c.JSON(http.StatusOK, resp)
		return
	}

	rawToken, err := utils.GenerateRandomToken(32)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create reset token"})
		return
	}

	resetToken := auth.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: utils.HashToken(rawToken),
		ExpiresAt: time.Now().Add(time.Duration(cfg.GetPasswordResetExpiryMinutes()) * time.Minute),
	}
	if err := h.db.Create(&resetToken).Error; err != nil {
		log.Printf("Failed to store reset token for %s: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create reset token"})
		return
	}

	if !cfg.IsProduction() {
		resp["devToken"] = rawToken
	}
	c.JSON(http.StatusOK, resp)
}

// POST /api/auth/reset
// @Summary Reset password
// @Description Set a new password using a previously issued reset token
// @Tags auth
// @Accept json
// @Produce json
// @Param reset body PasswordResetConfirm true "Reset token and new password"
// @Success 200 {object} map[string]bool "Password updated"
// @Failure 400 {object} map[string]string "Invalid or expired token"
// @Failure 422 {object} map[string]string "Missing fields"
// @Router /auth/reset [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req PasswordResetConfirm
	_ = c.ShouldBindJSON(&req)

	if req.Token == "" || req.Password == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "token and password required"})
		return
	}

	var resetToken auth.PasswordResetToken
	err := h.db.Where("token_hash = ? AND used_at IS NULL AND expires_at > ?",
		utils.HashToken(req.Token), time.Now()).First(&resetToken).Error
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired token"})
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).
			Where("id = ?", resetToken.UserID).
			Update("password", hashedPassword).Error; err != nil {
			return err
		}
		now := time.Now()
		return tx.Model(&auth.PasswordResetToken{}).
			Where("id = ?", resetToken.ID).
			Update("used_at", &now).Error
	})
	if err != nil {
		log.Printf("Failed to reset password for user %s: %v", resetToken.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
