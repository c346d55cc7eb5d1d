package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"classtrack-backend/shared/database/models"
	"classtrack-backend/shared/database/models/audit"
	utils "classtrack-backend/shared/utils/auth"
)

// GormAccountStore backs AccountStore with the users table.
type GormAccountStore struct {
	db *gorm.DB
}

func NewGormAccountStore(db *gorm.DB) *GormAccountStore {
	return &GormAccountStore{db: db}
}

func (s *GormAccountStore) FindActiveByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ? AND deleted_at IS NULL", email).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *GormAccountStore) UpdateTelemetry(ctx context.Context, id uuid.UUID, now time.Time) (*models.User, error) {
	var updated models.User
	// Update and re-fetch in one transaction so the returned row is the
	// post-update state the login response promises.
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.User{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"last_login_at":         now,
				"login_count":           gorm.Expr("login_count + 1"),
				"failed_login_attempts": 0,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("id = ?", id).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *GormAccountStore) IncrementFailedAttempts(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("failed_login_attempts", gorm.Expr("failed_login_attempts + 1")).Error
}

func (s *GormAccountStore) TelemetryColumns(ctx context.Context) (map[string]bool, error) {
	var columns []string
	err := s.db.WithContext(ctx).Raw(`
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = current_schema()
		  AND table_name = 'users'
		  AND column_name IN ('last_login_at', 'login_count', 'failed_login_attempts')
	`).Scan(&columns).Error
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(columns))
	for _, column := range columns {
		present[column] = true
	}
	return present, nil
}

// GormAuditTrail appends rows to the audit_logs table.
type GormAuditTrail struct {
	db *gorm.DB
}

func NewGormAuditTrail(db *gorm.DB) *GormAuditTrail {
	return &GormAuditTrail{db: db}
}

func (t *GormAuditTrail) Append(ctx context.Context, actorID *uuid.UUID, action, entity, entityID string, changes models.JSONMap) error {
	entry := audit.AuditLog{
		ActorUserID: actorID,
		Action:      action,
		Entity:      entity,
		EntityID:    entityID,
		Changes:     changes,
	}
	return t.db.WithContext(ctx).Create(&entry).Error
}

// GormGroupDirectory resolves memberships via a join on groups.
type GormGroupDirectory struct {
	db *gorm.DB
}

func NewGormGroupDirectory(db *gorm.DB) *GormGroupDirectory {
	return &GormGroupDirectory{db: db}
}

func (d *GormGroupDirectory) ListGroupsForUser(ctx context.Context, userID uuid.UUID) ([]GroupInfo, error) {
	var groups []GroupInfo
	err := d.db.WithContext(ctx).
		Table("group_memberships").
		Select("groups.id, groups.name, groups.color, group_memberships.role").
		Joins("JOIN groups ON groups.id = group_memberships.group_id").
		Where("group_memberships.user_id = ?", userID).
		Scan(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// JWTTokenIssuer signs session tokens with the shared JWT helper.
type JWTTokenIssuer struct{}

func (JWTTokenIssuer) Sign(userID uuid.UUID, role string) (string, error) {
	return utils.GenerateJWT(userID, role)
}
