package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"classtrack-backend/api-service/services"
	"classtrack-backend/shared/database"
	"classtrack-backend/shared/database/models"
	"classtrack-backend/shared/database/models/audit"
	"classtrack-backend/shared/utils/query"
)

// GetAuditLogs lists audit entries, newest first (admin only)
// @Summary List audit logs
// @Description Cursor-paginated audit trail with optional filters
// @Tags admin
// @Produce json
// @Param limit query int false "Page size (default 50, max 100)"
// @Param cursor query string false "Opaque cursor from a previous page"
// @Param actor query string false "Filter by actor user ID"
// @Param action query string false "Filter by action"
// @Param entity query string false "Filter by entity type"
// @Param entityId query string false "Filter by entity ID"
// @Param from query string false "Only entries at or after this RFC3339 timestamp"
// @Param to query string false "Only entries before this RFC3339 timestamp"
// @Param search query string false "Search across entity and entity ID"
// @Success 200 {object} map[string]interface{} "Audit entries"
// @Security BearerAuth
// @Router /admin/audit-logs [get]
func GetAuditLogs(c *gin.Context) {
	db := database.GetDB()
	params := query.ParseCursorParams(c, 50)

	q := db.Model(&audit.AuditLog{}).Preload("Actor")

	if actor := c.Query("actor"); actor != "" {
		actorID, err := uuid.Parse(actor)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid actor ID"})
			return
		}
		q = q.Where("audit_logs.actor_user_id = ?", actorID)
	}
	if action := c.Query("action"); action != "" {
		q = q.Where("audit_logs.action = ?", action)
	}
	if entity := c.Query("entity"); entity != "" {
		q = q.Where("audit_logs.entity = ?", entity)
	}
	if entityID := c.Query("entityId"); entityID != "" {
		q = q.Where("audit_logs.entity_id = ?", entityID)
	}
	if from := c.Query("from"); from != "" {
		parsed, err := time.Parse(time.RFC3339, from)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from timestamp"})
			return
		}
		q = q.Where("audit_logs.created_at >= ?", parsed)
	}
	if to := c.Query("to"); to != "" {
		parsed, err := time.Parse(time.RFC3339, to)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to timestamp"})
			return
		}
		q = q.Where("audit_logs.created_at < ?", parsed)
	}
	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		q = q.Where("audit_logs.entity ILIKE ? OR audit_logs.entity_id ILIKE ?", pattern, pattern)
	}

	q = query.ApplyCursor(q, "audit_logs", params.Cursor)
	q = query.OrderForCursor(q, "audit_logs")

	var entries []audit.AuditLog
	if err := q.Limit(params.Limit + 1).Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch audit logs"})
		return
	}

	entries, nextCursor := query.TrimPage(entries, params.Limit, func(e audit.AuditLog) uuid.UUID { return e.ID })
	c.JSON(http.StatusOK, gin.H{
		"items":      entries,
		"nextCursor": nextCursor,
	})
}

type monitorUserRow struct {
	ID                  uuid.UUID  `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	Type                string     `json:"type"`
	LastLoginAt         *time.Time `json:"lastLoginAt"`
	LoginCount          int        `json:"loginCount"`
	FailedLoginAttempts int        `json:"failedLoginAttempts"`
}

// GetUserMonitorOverview summarizes account activity (admin only)
// @Summary User monitor overview
// @Description Per-account login telemetry plus aggregate counters
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{} "Monitor overview"
// @Security BearerAuth
// @Router /admin/monitor/users [get]
func GetUserMonitorOverview(c *gin.Context) {
	db := database.GetDB()

	// Legacy deployments may lack the telemetry columns; fall back to the
	// base columns so the overview still loads.
	columns := "id, name, email, type, last_login_at, login_count, failed_login_attempts"
	order := "last_login_at DESC NULLS LAST"
	present, err := services.NewGormAccountStore(db).TelemetryColumns(c.Request.Context())
	if err != nil || !present["last_login_at"] || !present["login_count"] || !present["failed_login_attempts"] {
		columns = "id, name, email, type"
		order = "created_at DESC"
	}

	var rows []monitorUserRow
	err = db.Model(&models.User{}).
		Select(columns).
		Where("deleted_at IS NULL").
		Order(order).
		Scan(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user activity"})
		return
	}

	var totalLogins int64
	usersByType := map[string]int64{}
	highRisk := []monitorUserRow{}
	for _, row := range rows {
		totalLogins += int64(row.LoginCount)
		usersByType[row.Type]++
		if row.FailedLoginAttempts >= 3 {
			highRisk = append(highRisk, row)
		}
	}
	avgLoginCount := float64(0)
	if len(rows) > 0 {
		avgLoginCount = float64(totalLogins) / float64(len(rows))
	}

	since := time.Now().Add(-24 * time.Hour)

	type actionCountRow struct {
		Action string `json:"action"`
		Count  int64  `json:"count"`
	}
	var actionCounts []actionCountRow
	err = db.Model(&audit.AuditLog{}).
		Select("action, COUNT(*) AS count").
		Where("created_at > ?", since).
		Group("action").
		Scan(&actionCounts).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user activity"})
		return
	}

	var loginsLast24h int64
	for _, ac := range actionCounts {
		if ac.Action == audit.ActionLogin {
			loginsLast24h = ac.Count
		}
	}

	var recentLogins []audit.AuditLog
	err = db.Preload("Actor").
		Where("action = ?", audit.ActionLogin).
		Order("created_at DESC").
		Limit(10).
		Find(&recentLogins).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user activity"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":        rows,
		"highRisk":     highRisk,
		"recentLogins": recentLogins,
		"summary": gin.H{
			"totalUsers":    len(rows),
			"totalLogins":   totalLogins,
			"avgLoginCount": avgLoginCount,
			"usersByType":   usersByType,
			"loginsLast24h": loginsLast24h,
			"actionCounts":  actionCounts,
		},
	})
}
