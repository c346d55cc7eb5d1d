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

// CreateReportRequest represents request body for creating a progress report
type CreateReportRequest struct {
	StudentID string `json:"studentId" binding:"required"`
	Type      string `json:"type" binding:"required"`
	Content   string `json:"content" binding:"required"`
	Date      string `json:"date"`
}

// GetReports lists reports visible to the caller
// @Summary List reports
// @Description Students see reports about themselves, parents their student's, teachers the ones they wrote, admins everything
// @Tags reports
// @Produce json
// @Success 200 {object} map[string]interface{} "Report list"
// @Failure 403 {object} map[string]string "Forbidden"
// @Security BearerAuth
// @Router /reports [get]
func GetReports(c *gin.Context) {
	db := database.GetDB()
	viewerID, _ := middleware.CurrentUserID(c)
	role := c.GetString(middleware.ContextUserRole)

	q := db.Model(&models.Report{}).Where("reports.deleted_at IS NULL")

	switch role {
	case models.UserTypeStudent:
		q = q.Where("reports.student_id = ?", viewerID)
	case models.UserTypeParent:
		var viewer models.User
		if err := db.First(&viewer, "id = ?", viewerID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reports"})
			return
		}
		if viewer.StudentID == nil {
			c.JSON(http.StatusOK, gin.H{"items": []models.Report{}})
			return
		}
		q = q.Where("reports.student_id = ?", *viewer.StudentID)
	case models.UserTypeTeacher:
		q = q.Where("reports.teacher_id = ?", viewerID)
	case models.UserTypeAdmin:
		// Admins see everything.
	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	var reports []models.Report
	if err := q.Order("date DESC, created_at DESC").Find(&reports).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reports"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": reports})
}

// CreateReport records a progress report about a student in one of the
// teacher's groups
// @Summary Create report
// @Tags reports
// @Accept json
// @Produce json
// @Param report body CreateReportRequest true "Report"
// @Success 201 {object} models.Report
// @Failure 403 {object} map[string]string "Student not in your groups"
// @Failure 404 {object} map[string]string "Student account not found"
// @Failure 422 {object} map[string]string "Missing or invalid fields"
// @Security BearerAuth
// @Router /reports [post]
func CreateReport(c *gin.Context) {
	db := database.GetDB()
	teacherID, _ := middleware.CurrentUserID(c)

	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "studentId, type and content required"})
		return
	}
	if req.Type != models.ReportTypeText && req.Type != models.ReportTypeVoice {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid report type"})
		return
	}
	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid studentId"})
		return
	}

	var student models.User
	err = db.First(&student, "id = ? AND type = ? AND deleted_at IS NULL",
		studentID, models.UserTypeStudent).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student account not found"})
		return
	}

	// Admins skip the shared-group check.
	if c.GetString(middleware.ContextUserRole) == models.UserTypeTeacher {
		shared, err := sharesGroup(teacherID, studentID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create report"})
			return
		}
		if !shared {
			c.JSON(http.StatusForbidden, gin.H{"error": "Student not in your groups"})
			return
		}
	}

	date := time.Now()
	if req.Date != "" {
		parsed, err := time.Parse(time.RFC3339, req.Date)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid date"})
			return
		}
		date = parsed
	}

	report := models.Report{
		StudentID: studentID,
		TeacherID: teacherID,
		Date:      date,
		Type:      req.Type,
		Content:   req.Content,
	}
	if err := db.Create(&report).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create report"})
		return
	}

	writeAudit(c, &teacherID, audit.ActionCreate, "report", report.ID.String(),
		models.JSONMap{"type": report.Type, "studentId": studentID.String()})

	c.JSON(http.StatusCreated, report)
}

// DeleteReport soft-deletes a report the caller wrote
// @Summary Delete report
// @Tags reports
// @Param id path string true "Report ID"
// @Success 204 "Deleted"
// @Failure 403 {object} map[string]string "Not the author"
// @Failure 404 {object} map[string]string "Report not found"
// @Security BearerAuth
// @Router /reports/{id} [delete]
func DeleteReport(c *gin.Context) {
	db := database.GetDB()
	actorID, _ := middleware.CurrentUserID(c)
	role := c.GetString(middleware.ContextUserRole)

	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report ID"})
		return
	}

	var report models.Report
	if err := db.First(&report, "id = ? AND deleted_at IS NULL", reportID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
		return
	}
	if role != models.UserTypeAdmin && report.TeacherID != actorID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the author can delete a report"})
		return
	}

	err = db.Model(&report).Update("deleted_at", time.Now()).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete report"})
		return
	}

	writeAudit(c, &actorID, audit.ActionSoftDelete, "report", report.ID.String(), nil)

	c.Status(http.StatusNoContent)
}

// sharesGroup reports whether two users have at least one group in common.
func sharesGroup(a, b uuid.UUID) (bool, error) {
	db := database.GetDB()
	var count int64
	err := db.Table("group_memberships AS gm_a").
		Joins("JOIN group_memberships AS gm_b ON gm_a.group_id = gm_b.group_id").
		Where("gm_a.user_id = ? AND gm_b.user_id = ?", a, b).
		Count(&count).Error
	return count > 0, err
}
