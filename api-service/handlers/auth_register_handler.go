package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"classtrack-backend/shared/config"
	"classtrack-backend/shared/database/models"
	"classtrack-backend/shared/database/models/auth"
	utils "classtrack-backend/shared/utils/auth"
)

// Register Request structs
type RegisterRequest struct {
	Email        string   `json:"email" example:"new.student@example.com"`
	Name         string   `json:"name" example:"New Student"`
	Phone        *string  `json:"phone"`
	Password     string   `json:"password" example:"securepassword123"`
	Type         string   `json:"type" example:"Student"`
	GroupIDs     []string `json:"groupIds"`
	StudentEmail string   `json:"studentEmail"`
}

type RegisterRequestResponse struct {
	TokenID   uuid.UUID `json:"tokenId"`
	ExpiresAt time.Time `json:"expiresAt"`
	DevOTP    string    `json:"devOtp,omitempty"`
}

type RegisterVerifyRequest struct {
	TokenID string `json:"tokenId"`
	OTP     string `json:"otp" example:"482913"`
}

// POST /api/auth/register/request
// @Summary Start registration
// @Description Validate a registration request and issue a one-time verification code
// @Tags auth
// @Accept json
// @Produce json
// @Param register body RegisterRequest true "Registration details"
// @Success 201 {object} RegisterRequestResponse "Verification code issued"
// @Failure 404 {object} map[string]string "Unknown group"
// @Failure 409 {object} map[string]string "Email already registered"
// @Failure 422 {object} map[string]string "Missing or invalid fields"
// @Router /auth/register/request [post]
func (h *AuthHandler) RegisterRequest(c *gin.Context) {
	var req RegisterRequest
	_ = c.ShouldBindJSON(&req)

	req.Email = utils.NormalizeEmail(req.Email)
	if req.Email == "" || req.Name == "" || req.Password == "" || req.Type == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "email, name, password and type required"})
		return
	}
	if err := utils.ValidateEmail(req.Email); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid email address"})
		return
	}
	switch req.Type {
	case models.UserTypeStudent, models.UserTypeTeacher, models.UserTypeParent:
	default:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid account type"})
		return
	}
	if req.Type == models.UserTypeParent && utils.NormalizeEmail(req.StudentEmail) == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "studentEmail required for parent accounts"})
		return
	}

	var existing int64
	if err := h.db.Model(&models.User{}).
		Where("email = ? AND deleted_at IS NULL", req.Email).
		Count(&existing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check existing accounts"})
		return
	}
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}

	groupIDs, ok := h.resolveGroupIDs(c, req.GroupIDs)
	if !ok {
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}

	otp, err := utils.GenerateNumericCode(6)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate verification code"})
		return
	}

	cfg := config.GetConfig()
	token := auth.VerificationToken{
		Email:   req.Email,
		OTPHash: utils.HashToken(otp),
		Payload: models.JSONMap{
			"name":           req.Name,
			"phone":          req.Phone,
			"type":           req.Type,
			"hashedPassword": hashedPassword,
			"groupIds":       groupIDs,
			"studentEmail":   utils.NormalizeEmail(req.StudentEmail),
		},
		ExpiresAt: time.Now().Add(time.Duration(cfg.GetRegisterOTPExpiryMinutes()) * time.Minute),
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		// A new request supersedes any pending code for the same address.
		if err := tx.Where("email = ? AND consumed_at IS NULL", req.Email).
			Delete(&auth.VerificationToken{}).Error; err != nil {
			return err
		}
		return tx.Create(&token).Error
	})
	if err != nil {
		log.Printf("Failed to create verification token for %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start registration"})
		return
	}

	resp := RegisterRequestResponse{TokenID: token.ID, ExpiresAt: token.ExpiresAt}
	if !cfg.IsProduction() {
		resp.DevOTP = otp
	}
	c.JSON(http.StatusCreated, resp)
}

// POST /api/auth/register/verify
// @Summary Complete registration
// @Description Verify the one-time code and create the account
// @Tags auth
// @Accept json
// @Produce json
// @Param verify body RegisterVerifyRequest true "Token and one-time code"
// @Success 201 {object} map[string]interface{} "Account created"
// @Failure 400 {object} map[string]string "Invalid or expired code"
// @Failure 404 {object} map[string]string "Student account not found"
// @Failure 409 {object} map[string]string "Email already registered"
// @Router /auth/register/verify [post]
func (h *AuthHandler) RegisterVerify(c *gin.Context) {
	var req RegisterVerifyRequest
	_ = c.ShouldBindJSON(&req)

	if req.TokenID == "" || req.OTP == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "tokenId and otp required"})
		return
	}
	tokenID, err := uuid.Parse(req.TokenID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired code"})
		return
	}

	var token auth.VerificationToken
	err = h.db.Where("id = ? AND consumed_at IS NULL AND expires_at > ?", tokenID, time.Now()).
		First(&token).Error
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired code"})
		return
	}
	if utils.HashToken(req.OTP) != token.OTPHash {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired code"})
		return
	}

	var existing int64
	if err := h.db.Model(&models.User{}).
		Where("email = ? AND deleted_at IS NULL", token.Email).
		Count(&existing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check existing accounts"})
		return
	}
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}

	user := models.User{
		Email:    token.Email,
		Name:     payloadString(token.Payload, "name"),
		Password: payloadString(token.Payload, "hashedPassword"),
		Type:     payloadString(token.Payload, "type"),
	}
	if phone := payloadString(token.Payload, "phone"); phone != "" {
		user.Phone = &phone
	}

	if user.Type == models.UserTypeParent {
		studentEmail := payloadString(token.Payload, "studentEmail")
		var student models.User
		err := h.db.Where("email = ? AND type = ? AND deleted_at IS NULL",
			studentEmail, models.UserTypeStudent).First(&student).Error
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Student account not found"})
			return
		}
		user.StudentID = &student.ID
	}

	groupIDs := payloadUUIDs(token.Payload, "groupIds")
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		for _, groupID := range groupIDs {
			membership := models.GroupMembership{GroupID: groupID, UserID: user.ID, Role: "Member"}
			if err := tx.Create(&membership).Error; err != nil {
				return err
			}
		}
		now := time.Now()
		return tx.Model(&auth.VerificationToken{}).
			Where("id = ?", token.ID).
			Update("consumed_at", &now).Error
	})
	if err != nil {
		log.Printf("Failed to create account for %s: %v", token.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	h.respondWithSession(c, &user)
}

// respondWithSession issues a JWT for a freshly created account and returns
// the same payload shape as login.
func (h *AuthHandler) respondWithSession(c *gin.Context, user *models.User) {
	jwtToken, err := utils.GenerateJWT(user.ID, user.Type)
	if err != nil {
		log.Printf("Failed to issue token for %s: %v", user.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}
	groups := fetchGroupsForUsers(h.db, []uuid.UUID{user.ID})[user.ID]
	c.JSON(http.StatusCreated, gin.H{
		"token": jwtToken,
		"user":  toUserResponse(user, groups),
	})
}

// resolveGroupIDs validates that every requested group exists. It writes the
// error response itself and reports success through the bool.
func (h *AuthHandler) resolveGroupIDs(c *gin.Context, raw []string) ([]string, bool) {
	if len(raw) == 0 {
		return []string{}, true
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		id, err := uuid.Parse(value)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown group"})
			return nil, false
		}
		ids = append(ids, id)
	}
	var count int64
	if err := h.db.Model(&models.Group{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check groups"})
		return nil, false
	}
	if count != int64(len(ids)) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown group"})
		return nil, false
	}
	return raw, true
}

func payloadString(payload models.JSONMap, key string) string {
	if value, ok := payload[key].(string); ok {
		return value
	}
	return ""
}

func payloadUUIDs(payload models.JSONMap, key string) []uuid.UUID {
	values, ok := payload[key].([]interface{})
	if !ok {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(values))
	for _, value := range values {
		str, ok := value.(string)
		if !ok {
			continue
		}
		if id, err := uuid.Parse(str); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
