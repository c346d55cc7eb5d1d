package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"classtrack-backend/api-service/middleware"
	"classtrack-backend/shared/database"
	"classtrack-backend/shared/database/models"
	"classtrack-backend/shared/database/models/audit"
)

// CreateGroupRequest represents request body for creating a group
type CreateGroupRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

// UpdateGroupRequest represents request body for updating a group
type UpdateGroupRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

// AssignMemberRequest represents request body for adding a group member
type AssignMemberRequest struct {
	UserID string `json:"userId" binding:"required"`
	Role   string `json:"role"`
}

// GetGroups lists all groups with their members
// @Summary List groups
// @Tags groups
// @Produce json
// @Success 200 {object} map[string]interface{} "Group list"
// @Security BearerAuth
// @Router /groups [get]
func GetGroups(c *gin.Context) {
	db := database.GetDB()

	var groups []models.Group
	err := db.Preload("Members.User").Order("created_at DESC").Find(&groups).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch groups"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": groups})
}

// CreateGroup creates a group (admin only)
// @Summary Create group
// @Tags groups
// @Accept json
// @Produce json
// @Param group body CreateGroupRequest true "Group name and color"
// @Success 201 {object} models.Group
// @Failure 422 {object} map[string]string "Missing name"
// @Security BearerAuth
// @Router /groups [post]
func CreateGroup(c *gin.Context) {
	db := database.GetDB()

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "name required"})
		return
	}

	group := models.Group{Name: req.Name}
	if req.Color != "" {
		group.Color = req.Color
	}
	if err := db.Create(&group).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create group"})
		return
	}

	actorID, _ := middleware.CurrentUserID(c)
	writeAudit(c, &actorID, audit.ActionCreate, "group", group.ID.String(), models.JSONMap{"name": group.Name})

	c.JSON(http.StatusCreated, group)
}

// UpdateGroup updates a group (admin only)
// @Summary Update group
// @Tags groups
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param group body UpdateGroupRequest true "Fields to change"
// @Success 200 {object} models.Group
// @Failure 404 {object} map[string]string "Group not found"
// @Security BearerAuth
// @Router /groups/{id} [put]
func UpdateGroup(c *gin.Context) {
	db := database.GetDB()

	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	var group models.Group
	if err := db.First(&group, "id = ?", groupID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	var req UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid request body"})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Color != nil {
		updates["color"] = *req.Color
	}
	if len(updates) > 0 {
		if err := db.Model(&group).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update group"})
			return
		}
	}

	c.JSON(http.StatusOK, group)
}

// DeleteGroup removes a group and its memberships (admin only)
// @Summary Delete group
// @Tags groups
// @Param id path string true "Group ID"
// @Success 204 "Deleted"
// @Failure 404 {object} map[string]string "Group not found"
// @Security BearerAuth
// @Router /groups/{id} [delete]
func DeleteGroup(c *gin.Context) {
	db := database.GetDB()

	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	var group models.Group
	if err := db.First(&group, "id = ?", groupID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", groupID).Delete(&models.GroupMembership{}).Error; err != nil {
			return err
		}
		return tx.Delete(&group).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete group"})
		return
	}

	actorID, _ := middleware.CurrentUserID(c)
	writeAudit(c, &actorID, audit.ActionSoftDelete, "group", groupID.String(), nil)

	c.Status(http.StatusNoContent)
}

// AssignGroupMember adds or updates a membership (admin only)
// @Summary Add group member
// @Tags groups
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param member body AssignMemberRequest true "User and role"
// @Success 200 {object} models.GroupMembership
// @Failure 404 {object} map[string]string "Group or user not found"
// @Security BearerAuth
// @Router /groups/{id}/members [post]
func AssignGroupMember(c *gin.Context) {
	db := database.GetDB()

	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	var req AssignMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "userId required"})
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid userId"})
		return
	}

	var group models.Group
	if err := db.First(&group, "id = ?", groupID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}
	var user models.User
	if err := db.First(&user, "id = ? AND deleted_at IS NULL", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	role := req.Role
	if role == "" {
		role = "Member"
	}

	membership := models.GroupMembership{GroupID: groupID, UserID: userID, Role: role}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "group_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(&membership).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member"})
		return
	}

	c.JSON(http.StatusOK, membership)
}

// RemoveGroupMember removes a membership (admin only)
// @Summary Remove group member
// @Tags groups
// @Param id path string true "Group ID"
// @Param userId path string true "User ID"
// @Success 204 "Removed"
// @Failure 404 {object} map[string]string "Membership not found"
// @Security BearerAuth
// @Router /groups/{id}/members/{userId} [delete]
func RemoveGroupMember(c *gin.Context) {
	db := database.GetDB()

	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	result := db.Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMembership{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Membership not found"})
		return
	}

	c.Status(http.StatusNoContent)
}
