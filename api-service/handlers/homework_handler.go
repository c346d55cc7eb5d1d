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
)

// SubmitHomeworkRequest represents request body for submitting homework
type SubmitHomeworkRequest struct {
	Chapter        string `json:"chapter" binding:"required"`
	Content        string `json:"content" binding:"required"`
	SubmissionDate string `json:"submissionDate"`
}

// CommentHomeworkRequest represents request body for a teacher comment
type CommentHomeworkRequest struct {
	CommentType    string `json:"comment_type" binding:"required"`
	CommentContent string `json:"comment_content" binding:"required"`
}

// GetHomework lists homework visible to the caller
// @Summary List homework
// @Description Students see their own submissions, parents their student's, teachers their group members', admins everything
// @Tags homework
// @Produce json
// @Success 200 {object} map[string]interface{} "Homework list"
// @Failure 403 {object} map[string]string "Forbidden"
// @Security BearerAuth
// @Router /homework [get]
func GetHomework(c *gin.Context) {
	db := database.GetDB()
	viewerID, _ := middleware.CurrentUserID(c)
	role := c.GetString(middleware.ContextUserRole)

	q := db.Model(&models.Homework{}).Where("homework.deleted_at IS NULL")

	switch role {
	case models.UserTypeStudent:
		q = q.Where("homework.student_id = ?", viewerID)
	case models.UserTypeParent:
		var viewer models.User
		if err := db.First(&viewer, "id = ?", viewerID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch homework"})
			return
		}
		if viewer.StudentID == nil {
			c.JSON(http.StatusOK, gin.H{"items": []models.Homework{}})
			return
		}
		q = q.Where("homework.student_id = ?", *viewer.StudentID)
	case models.UserTypeTeacher:
		memberIDs, err := groupMemberIDs(viewerID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch homework"})
			return
		}
		if len(memberIDs) == 0 {
			c.JSON(http.StatusOK, gin.H{"items": []models.Homework{}})
			return
		}
		q = q.Where("homework.student_id IN ?", memberIDs)
	case models.UserTypeAdmin:
		// Admins see everything.
	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	var homework []models.Homework
	if err := q.Order("submission_date DESC, created_at DESC").Find(&homework).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch homework"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": homework})
}

// SubmitHomework creates a submission for the calling student
// @Summary Submit homework
// @Tags homework
// @Accept json
// @Produce json
// @Param homework body SubmitHomeworkRequest true "Submission"
// @Success 201 {object} models.Homework
// @Failure 422 {object} map[string]string "Missing chapter or content"
// @Security BearerAuth
// @Router /homework [post]
func SubmitHomework(c *gin.Context) {
	db := database.GetDB()
	studentID, _ := middleware.CurrentUserID(c)

	var req SubmitHomeworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "chapter and content required"})
		return
	}

	submissionDate := time.Now()
	if req.SubmissionDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.SubmissionDate)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid submissionDate"})
			return
		}
		submissionDate = parsed
	}

	homework := models.Homework{
		StudentID:      studentID,
		Chapter:        req.Chapter,
		Content:        req.Content,
		SubmissionDate: submissionDate,
	}
	if err := db.Create(&homework).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit homework"})
		return
	}

	writeAudit(c, &studentID, audit.ActionCreate, "homework", homework.ID.String(),
		models.JSONMap{"chapter": homework.Chapter})

	c.JSON(http.StatusCreated, homework)
}

// CommentHomework records a teacher comment on a submission
// @Summary Comment on homework
// @Tags homework
// @Accept json
// @Produce json
// @Param id path string true "Homework ID"
// @Param comment body CommentHomeworkRequest true "Comment"
// @Success 200 {object} models.Homework
// @Failure 404 {object} map[string]string "Homework not found"
// @Failure 422 {object} map[string]string "Missing comment fields"
// @Security BearerAuth
// @Router /homework/{id}/comment [put]
func CommentHomework(c *gin.Context) {
	db := database.GetDB()
	teacherID, _ := middleware.CurrentUserID(c)

	homeworkID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid homework ID"})
		return
	}

	var req CommentHomeworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "comment_type and comment_content required"})
		return
	}

	var homework models.Homework
	if err := db.First(&homework, "id = ? AND deleted_at IS NULL", homeworkID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Homework not found"})
		return
	}

	updates := map[string]interface{}{
		"comment_type":       req.CommentType,
		"comment_content":    req.CommentContent,
		"comment_teacher_id": teacherID,
	}
	if err := db.Model(&homework).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save comment"})
		return
	}

	writeAudit(c, &teacherID, audit.ActionComment, "homework", homework.ID.String(),
		models.JSONMap{"comment_type": req.CommentType})

	c.JSON(http.StatusOK, homework)
}

// DeleteHomework soft-deletes a submission (teacher or admin)
// @Summary Delete homework
// @Tags homework
// @Param id path string true "Homework ID"
// @Success 204 "Deleted"
// @Failure 404 {object} map[string]string "Homework not found"
// @Security BearerAuth
// @Router /homework/{id} [delete]
func DeleteHomework(c *gin.Context) {
	db := database.GetDB()
	actorID, _ := middleware.CurrentUserID(c)

	homeworkID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid homework ID"})
		return
	}

	result := db.Model(&models.Homework{}).
		Where("id = ? AND deleted_at IS NULL", homeworkID).
		Update("deleted_at", time.Now())
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete homework"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Homework not found"})
		return
	}

	writeAudit(c, &actorID, audit.ActionSoftDelete, "homework", homeworkID.String(), nil)

	c.Status(http.StatusNoContent)
}
