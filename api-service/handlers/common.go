package handlers

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"classtrack-backend/api-service/services"
	"classtrack-backend/shared/database"
	"classtrack-backend/shared/database/models"
)

// UserResponse is the client-facing shape of a user account. Telemetry
// fields are zero-valued when the deployment runs without the telemetry
// columns.
type UserResponse struct {
	ID                  uuid.UUID            `json:"id"`
	Name                string               `json:"name"`
	Email               string               `json:"email"`
	Phone               *string              `json:"phone"`
	Type                string               `json:"type"`
	StudentID           *uuid.UUID           `json:"studentId"`
	LastLoginAt         *time.Time           `json:"lastLoginAt"`
	LoginCount          int                  `json:"loginCount"`
	FailedLoginAttempts int                  `json:"failedLoginAttempts"`
	CreatedAt           time.Time            `json:"createdAt"`
	Groups              []services.GroupInfo `json:"groups"`
}

func toUserResponse(u *models.User, groups []services.GroupInfo) UserResponse {
	if groups == nil {
		groups = []services.GroupInfo{}
	}
	return UserResponse{
		ID:                  u.ID,
		Name:                u.Name,
		Email:               u.Email,
		Phone:               u.Phone,
		Type:                u.Type,
		StudentID:           u.StudentID,
		LastLoginAt:         u.LastLoginAt,
		LoginCount:          u.LoginCount,
		FailedLoginAttempts: u.FailedLoginAttempts,
		CreatedAt:           u.CreatedAt,
		Groups:              groups,
	}
}

type membershipRow struct {
	UserID uuid.UUID
	ID     uuid.UUID
	Name   string
	Color  string
	Role   string
}

// fetchGroupsForUsers resolves group memberships for a set of users in one
// query. Lookup failures degrade to empty group lists.
func fetchGroupsForUsers(db *gorm.DB, userIDs []uuid.UUID) map[uuid.UUID][]services.GroupInfo {
	result := make(map[uuid.UUID][]services.GroupInfo, len(userIDs))
	if len(userIDs) == 0 {
		return result
	}

	var rows []membershipRow
	err := db.Table("group_memberships").
		Select("group_memberships.user_id, groups.id, groups.name, groups.color, group_memberships.role").
		Joins("JOIN groups ON groups.id = group_memberships.group_id").
		Where("group_memberships.user_id IN ?", userIDs).
		Scan(&rows).Error
	if err != nil {
		log.Printf("Warning: failed to resolve group memberships: %v", err)
		return result
	}

	for _, row := range rows {
		result[row.UserID] = append(result[row.UserID], services.GroupInfo{
			ID:    row.ID,
			Name:  row.Name,
			Color: row.Color,
			Role:  row.Role,
		})
	}
	return result
}

// writeAudit appends a best-effort audit entry; failures are logged and
// never surfaced to the client.
func writeAudit(c *gin.Context, actorID *uuid.UUID, action, entity, entityID string, changes models.JSONMap) {
	trail := services.NewGormAuditTrail(database.GetDB())
	if err := trail.Append(c.Request.Context(), actorID, action, entity, entityID, changes); err != nil {
		log.Printf("Warning: failed to write %s audit entry for %s %s: %v", action, entity, entityID, err)
	}
}
