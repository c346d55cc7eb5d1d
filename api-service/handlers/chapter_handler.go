package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"classtrack-backend/api-service/middleware"
	"classtrack-backend/shared/database"
	"classtrack-backend/shared/database/models"
	"classtrack-backend/shared/database/models/audit"
)

// CreateChapterRequest represents request body for creating a chapter
type CreateChapterRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Status      string `json:"status"`
	OrderIndex  int    `json:"orderIndex"`
}

// UpdateChapterRequest represents request body for updating a chapter
type UpdateChapterRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	OrderIndex  *int    `json:"orderIndex"`
}

// normalizeChapterStatus accepts dashed client values like "in-progress".
func normalizeChapterStatus(status string) (string, bool) {
	normalized := strings.ReplaceAll(strings.TrimSpace(status), "-", "_")
	switch normalized {
	case models.ChapterStatusPending, models.ChapterStatusInProgress, models.ChapterStatusCompleted:
		return normalized, true
	}
	return "", false
}

// GetChapters lists live chapters in curriculum order
// @Summary List chapters
// @Tags chapters
// @Produce json
// @Success 200 {object} map[string]interface{} "Chapter list"
// @Security BearerAuth
// @Router /chapters [get]
func GetChapters(c *gin.Context) {
	db := database.GetDB()

	var chapters []models.Chapter
	err := db.Where("deleted_at IS NULL").
		Order("order_index ASC, created_at ASC").
		Find(&chapters).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch chapters"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": chapters})
}

// CreateChapter creates a chapter (admin only)
// @Summary Create chapter
// @Tags chapters
// @Accept json
// @Produce json
// @Param chapter body CreateChapterRequest true "Chapter"
// @Success 201 {object} models.Chapter
// @Failure 422 {object} map[string]string "Missing title or invalid status"
// @Security BearerAuth
// @Router /chapters [post]
func CreateChapter(c *gin.Context) {
	db := database.GetDB()

	var req CreateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "title required"})
		return
	}

	status := models.ChapterStatusPending
	if req.Status != "" {
		normalized, ok := normalizeChapterStatus(req.Status)
		if !ok {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid status"})
			return
		}
		status = normalized
	}

	chapter := models.Chapter{
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		OrderIndex:  req.OrderIndex,
	}
	if err := db.Create(&chapter).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create chapter"})
		return
	}

	actorID, _ := middleware.CurrentUserID(c)
	writeAudit(c, &actorID, audit.ActionCreate, "chapter", chapter.ID.String(), models.JSONMap{"title": chapter.Title})

	c.JSON(http.StatusCreated, chapter)
}

// UpdateChapter updates a chapter (admin only)
// @Summary Update chapter
// @Tags chapters
// @Accept json
// @Produce json
// @Param id path string true "Chapter ID"
// @Param chapter body UpdateChapterRequest true "Fields to change"
// @Success 200 {object} models.Chapter
// @Failure 404 {object} map[string]string "Chapter not found"
// @Security BearerAuth
// @Router /chapters/{id} [put]
func UpdateChapter(c *gin.Context) {
	db := database.GetDB()

	chapterID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chapter ID"})
		return
	}

	var chapter models.Chapter
	if err := db.First(&chapter, "id = ? AND deleted_at IS NULL", chapterID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Chapter not found"})
		return
	}

	var req UpdateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid request body"})
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Status != nil {
		normalized, ok := normalizeChapterStatus(*req.Status)
		if !ok {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid status"})
			return
		}
		updates["status"] = normalized
	}
	if req.OrderIndex != nil {
		updates["order_index"] = *req.OrderIndex
	}

	if len(updates) > 0 {
		if err := db.Model(&chapter).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update chapter"})
			return
		}
	}

	c.JSON(http.StatusOK, chapter)
}

// DeleteChapter soft-deletes a chapter (admin only)
// @Summary Delete chapter
// @Tags chapters
// @Param id path string true "Chapter ID"
// @Success 204 "Deleted"
// @Failure 404 {object} map[string]string "Chapter not found"
// @Security BearerAuth
// @Router /chapters/{id} [delete]
func DeleteChapter(c *gin.Context) {
	db := database.GetDB()

	chapterID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chapter ID"})
		return
	}

	result := db.Model(&models.Chapter{}).
		Where("id = ? AND deleted_at IS NULL", chapterID).
		Update("deleted_at", time.Now())
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete chapter"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Chapter not found"})
		return
	}

	actorID, _ := middleware.CurrentUserID(c)
	writeAudit(c, &actorID, audit.ActionSoftDelete, "chapter", chapterID.String(), nil)

	c.Status(http.StatusNoContent)
}
