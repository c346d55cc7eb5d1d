package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"classtrack-backend/api-service/middleware"
	"classtrack-backend/shared/database"
	"classtrack-backend/shared/database/models"
	"classtrack-backend/shared/database/models/audit"
	utils "classtrack-backend/shared/utils/auth"
	"classtrack-backend/shared/utils/query"
)

// CreateUserRequest represents request body for creating a user
type CreateUserRequest struct {
	Name         string  `json:"name" binding:"required"`
	Email        string  `json:"email" binding:"required"`
	Password     string  `json:"password" binding:"required"`
	Phone        *string `json:"phone"`
	Type         string  `json:"type" binding:"required"`
	StudentID    *string `json:"studentId"`
	StudentEmail string  `json:"studentEmail"`
}

// UpdateUserRequest represents request body for updating a user
type UpdateUserRequest struct {
	Name         *string `json:"name"`
	Email        *string `json:"email"`
	Password     *string `json:"password"`
	Phone        *string `json:"phone"`
	Type         *string `json:"type"`
	StudentID    *string `json:"studentId"`
	StudentEmail string  `json:"studentEmail"`
}

// GetUsers retrieves users visible to the caller
// @Summary List users
// @Description Admins see every live account (cursor-paginated); teachers see members of their groups; parents see themselves and their linked student; students see themselves
// @Tags users
// @Produce json
// @Param limit query int false "Page size for admins (default 50, max 100)"
// @Param cursor query string false "Opaque cursor from a previous page"
// @Param role query string false "Filter by account type (admins only)"
// @Param search query string false "Search across name and email (admins only)"
// @Success 200 {object} map[string]interface{} "User list"
// @Failure 403 {object} map[string]string "Forbidden"
// @Security BearerAuth
// @Router /users [get]
func GetUsers(c *gin.Context) {
	db := database.GetDB()
	viewerID, _ := middleware.CurrentUserID(c)
	role := c.GetString(middleware.ContextUserRole)

	switch role {
	case models.UserTypeAdmin:
		params := query.ParseCursorParams(c, 50)
		q := db.Model(&models.User{}).Where("users.deleted_at IS NULL")
		if roleFilter := c.Query("role"); roleFilter != "" {
			q = q.Where("users.type = ?", roleFilter)
		}
		if search := c.Query("search"); search != "" {
			pattern := "%" + search + "%"
			q = q.Where("users.name ILIKE ? OR users.email ILIKE ?", pattern, pattern)
		}
		q = query.ApplyCursor(q, "users", params.Cursor)
		q = query.OrderForCursor(q, "users")

		var users []models.User
		if err := q.Limit(params.Limit + 1).Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
			return
		}
		users, nextCursor := query.TrimPage(users, params.Limit, func(u models.User) uuid.UUID { return u.ID })
		c.JSON(http.StatusOK, gin.H{
			"items":      shapeUsers(c, users),
			"nextCursor": nextCursor,
		})

	case models.UserTypeTeacher:
		memberIDs, err := groupMemberIDs(viewerID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
			return
		}
		if len(memberIDs) == 0 {
			memberIDs = []uuid.UUID{viewerID}
		}
		var users []models.User
		err = db.Where("id IN ? AND deleted_at IS NULL", memberIDs).
			Order("created_at DESC").Find(&users).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": shapeUsers(c, users)})

	case models.UserTypeParent:
		var viewer models.User
		if err := db.First(&viewer, "id = ?", viewerID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
			return
		}
		ids := []uuid.UUID{viewerID}
		if viewer.StudentID != nil {
			ids = append(ids, *viewer.StudentID)
		}
		var users []models.User
		if err := db.Where("id IN ? AND deleted_at IS NULL", ids).Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": shapeUsers(c, users)})

	case models.UserTypeStudent:
		var viewer models.User
		if err := db.First(&viewer, "id = ? AND deleted_at IS NULL", viewerID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": shapeUsers(c, []models.User{viewer})})

	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	}
}

// CreateUser creates a new account (admin only)
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Param user body CreateUserRequest true "New account"
// @Success 201 {object} UserResponse
// @Failure 404 {object} map[string]string "Student account not found"
// @Failure 409 {object} map[string]string "Email already registered"
// @Failure 422 {object} map[string]string "Missing or invalid fields"
// @Security BearerAuth
// @Router /users [post]
func CreateUser(c *gin.Context) {
	db := database.GetDB()

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "name, email, password and type required"})
		return
	}
	email := utils.NormalizeEmail(req.Email)
	if err := utils.ValidateEmail(email); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid email address"})
		return
	}
	if !models.ValidUserType(req.Type) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid account type"})
		return
	}

	var existing int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check existing accounts"})
		return
	}
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}

	user := models.User{
		Name:  req.Name,
		Email: email,
		Phone: req.Phone,
		Type:  req.Type,
	}

	if req.Type == models.UserTypeParent {
		studentID, ok := resolveStudentLink(c, req.StudentID, req.StudentEmail)
		if !ok {
			return
		}
		user.StudentID = studentID
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}
	user.Password = hashedPassword

	if err := db.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	actorID, _ := middleware.CurrentUserID(c)
	writeAudit(c, &actorID, audit.ActionCreate, "user", user.ID.String(), models.JSONMap{"type": user.Type})

	c.JSON(http.StatusCreated, toUserResponse(&user, nil))
}

// UpdateUser updates an existing account (admin only)
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param user body UpdateUserRequest true "Fields to change"
// @Success 200 {object} UserResponse
// @Failure 404 {object} map[string]string "User not found"
// @Security BearerAuth
// @Router /users/{id} [put]
func UpdateUser(c *gin.Context) {
	db := database.GetDB()

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var user models.User
	if err := db.First(&user, "id = ? AND deleted_at IS NULL", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid request body"})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Email != nil {
		email := utils.NormalizeEmail(*req.Email)
		if err := utils.ValidateEmail(email); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid email address"})
			return
		}
		updates["email"] = email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Type != nil {
		if !models.ValidUserType(*req.Type) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid account type"})
			return
		}
		updates["type"] = *req.Type
	}
	if req.StudentID != nil || req.StudentEmail != "" {
		studentID, ok := resolveStudentLink(c, req.StudentID, req.StudentEmail)
		if !ok {
			return
		}
		updates["student_id"] = studentID
	}
	if req.Password != nil {
		hashedPassword, err := utils.HashPassword(*req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
			return
		}
		updates["password"] = hashedPassword
	}

	if len(updates) > 0 {
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
			return
		}
	}

	groups := fetchGroupsForUsers(db, []uuid.UUID{user.ID})[user.ID]
	c.JSON(http.StatusOK, toUserResponse(&user, groups))
}

// DeleteUser soft-deletes an account (admin only)
// @Summary Delete user
// @Tags users
// @Param id path string true "User ID"
// @Success 204 "Deleted"
// @Failure 404 {object} map[string]string "User not found"
// @Security BearerAuth
// @Router /users/{id} [delete]
func DeleteUser(c *gin.Context) {
	db := database.GetDB()

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	result := db.Model(&models.User{}).
		Where("id = ? AND deleted_at IS NULL", userID).
		Update("deleted_at", time.Now())
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	actorID, _ := middleware.CurrentUserID(c)
	writeAudit(c, &actorID, audit.ActionSoftDelete, "user", userID.String(), nil)

	c.Status(http.StatusNoContent)
}

func shapeUsers(c *gin.Context, users []models.User) []UserResponse {
	db := database.GetDB()
	ids := make([]uuid.UUID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	groups := fetchGroupsForUsers(db, ids)

	responses := make([]UserResponse, len(users))
	for i := range users {
		responses[i] = toUserResponse(&users[i], groups[users[i].ID])
	}
	return responses
}

// groupMemberIDs returns the distinct user ids sharing a group with the
// given user.
func groupMemberIDs(userID uuid.UUID) ([]uuid.UUID, error) {
	db := database.GetDB()
	var ids []uuid.UUID
	err := db.Table("group_memberships").
		Distinct("user_id").
		Where("group_id IN (?)", db.Table("group_memberships").
			Select("group_id").Where("user_id = ?", userID)).
		Pluck("user_id", &ids).Error
	return ids, err
}

// resolveStudentLink turns a studentId or studentEmail into the id of a live
// student account, writing the error response itself on failure.
func resolveStudentLink(c *gin.Context, studentID *string, studentEmail string) (*uuid.UUID, bool) {
	db := database.GetDB()

	if studentID != nil && *studentID != "" {
		id, err := uuid.Parse(*studentID)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid studentId"})
			return nil, false
		}
		var student models.User
		err = db.First(&student, "id = ? AND type = ? AND deleted_at IS NULL",
			id, models.UserTypeStudent).Error
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Student account not found"})
			return nil, false
		}
		return &student.ID, true
	}

	email := utils.NormalizeEmail(studentEmail)
	if email == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "studentId or studentEmail required for parent accounts"})
		return nil, false
	}
	var student models.User
	err := db.First(&student, "email = ? AND type = ? AND deleted_at IS NULL",
		email, models.UserTypeStudent).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student account not found"})
		return nil, false
	}
	return &student.ID, true
}
