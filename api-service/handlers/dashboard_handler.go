package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"classtrack-backend/api-service/middleware"
	"classtrack-backend/shared/database"
	"classtrack-backend/shared/database/models"
	"classtrack-backend/shared/database/models/audit"
)

// GetDashboard returns role-scoped summary figures
// @Summary Dashboard
// @Description Aggregated counts tailored to the caller's role
// @Tags dashboard
// @Produce json
// @Success 200 {object} map[string]interface{} "Dashboard data"
// @Failure 403 {object} map[string]string "Forbidden"
// @Security BearerAuth
// @Router /dashboard [get]
func GetDashboard(c *gin.Context) {
	db := database.GetDB()
	viewerID, _ := middleware.CurrentUserID(c)
	role := c.GetString(middleware.ContextUserRole)

	var data gin.H
	var err error

	switch role {
	case models.UserTypeStudent:
		data, err = studentDashboard(db, viewerID)
	case models.UserTypeParent:
		var viewer models.User
		if err := db.First(&viewer, "id = ?", viewerID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build dashboard"})
			return
		}
		if viewer.StudentID == nil {
			data = gin.H{"student": nil}
		} else {
			data, err = studentDashboard(db, *viewer.StudentID)
		}
	case models.UserTypeTeacher:
		data, err = teacherDashboard(db, viewerID)
	case models.UserTypeAdmin:
		data, err = adminDashboard(db)
	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build dashboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": data,
		"meta": gin.H{"generatedAt": time.Now().UTC()},
	})
}

func studentDashboard(db *gorm.DB, studentID uuid.UUID) (gin.H, error) {
	chapters := gin.H{}
	for _, status := range []string{
		models.ChapterStatusPending,
		models.ChapterStatusInProgress,
		models.ChapterStatusCompleted,
	} {
		var count int64
		err := db.Model(&models.Chapter{}).
			Where("status = ? AND deleted_at IS NULL", status).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		chapters[status] = count
	}

	var homeworkCount int64
	err := db.Model(&models.Homework{}).
		Where("student_id = ? AND deleted_at IS NULL", studentID).
		Count(&homeworkCount).Error
	if err != nil {
		return nil, err
	}

	var recentReports []models.Report
	err = db.Where("student_id = ? AND deleted_at IS NULL", studentID).
		Order("date DESC").Limit(5).Find(&recentReports).Error
	if err != nil {
		return nil, err
	}

	return gin.H{
		"chapters":      chapters,
		"homeworkCount": homeworkCount,
		"recentReports": recentReports,
	}, nil
}

func teacherDashboard(db *gorm.DB, teacherID uuid.UUID) (gin.H, error) {
	var groupCount int64
	err := db.Model(&models.GroupMembership{}).
		Where("user_id = ?", teacherID).
		Count(&groupCount).Error
	if err != nil {
		return nil, err
	}

	memberIDs, err := groupMemberIDs(teacherID)
	if err != nil {
		return nil, err
	}

	var studentCount int64
	var pendingHomework int64
	recentHomework := []models.Homework{}
	if len(memberIDs) > 0 {
		err = db.Model(&models.User{}).
			Where("id IN ? AND type = ? AND deleted_at IS NULL", memberIDs, models.UserTypeStudent).
			Count(&studentCount).Error
		if err != nil {
			return nil, err
		}
		// Submissions still waiting for a comment.
		err = db.Model(&models.Homework{}).
			Where("student_id IN ? AND comment_content IS NULL AND deleted_at IS NULL", memberIDs).
			Count(&pendingHomework).Error
		if err != nil {
			return nil, err
		}
		err = db.Where("student_id IN ? AND deleted_at IS NULL", memberIDs).
			Order("submission_date DESC").
			Limit(5).
			Find(&recentHomework).Error
		if err != nil {
			return nil, err
		}
	}

	var reportCount int64
	err = db.Model(&models.Report{}).
		Where("teacher_id = ? AND deleted_at IS NULL", teacherID).
		Count(&reportCount).Error
	if err != nil {
		return nil, err
	}

	var recentReports []models.Report
	err = db.Where("teacher_id = ? AND deleted_at IS NULL", teacherID).
		Order("created_at DESC").
		Limit(5).
		Find(&recentReports).Error
	if err != nil {
		return nil, err
	}

	return gin.H{
		"groupCount":      groupCount,
		"studentCount":    studentCount,
		"pendingHomework": pendingHomework,
		"reportCount":     reportCount,
		"recentHomework":  recentHomework,
		"recentReports":   recentReports,
	}, nil
}

func adminDashboard(db *gorm.DB) (gin.H, error) {
	usersByType := gin.H{}
	for _, userType := range []string{
		models.UserTypeStudent,
		models.UserTypeTeacher,
		models.UserTypeParent,
		models.UserTypeAdmin,
	} {
		var count int64
		err := db.Model(&models.User{}).
			Where("type = ? AND deleted_at IS NULL", userType).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		usersByType[userType] = count
	}

	var groupCount int64
	if err := db.Model(&models.Group{}).Count(&groupCount).Error; err != nil {
		return nil, err
	}
	var chapterCount int64
	err := db.Model(&models.Chapter{}).Where("deleted_at IS NULL").Count(&chapterCount).Error
	if err != nil {
		return nil, err
	}
	var homeworkCount int64
	err = db.Model(&models.Homework{}).Where("deleted_at IS NULL").Count(&homeworkCount).Error
	if err != nil {
		return nil, err
	}
	var reportCount int64
	err = db.Model(&models.Report{}).Where("deleted_at IS NULL").Count(&reportCount).Error
	if err != nil {
		return nil, err
	}

	// Login activity over the last 24 hours.
	var recentLogins int64
	err = db.Model(&audit.AuditLog{}).
		Where("action = ? AND created_at > ?", audit.ActionLogin, time.Now().Add(-24*time.Hour)).
		Count(&recentLogins).Error
	if err != nil {
		return nil, err
	}

	return gin.H{
		"usersByType":   usersByType,
		"groupCount":    groupCount,
		"chapterCount":  chapterCount,
		"homeworkCount": homeworkCount,
		"reportCount":   reportCount,
		"recentLogins":  recentLogins,
	}, nil
}
