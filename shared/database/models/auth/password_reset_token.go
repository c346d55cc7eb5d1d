package auth

import (
	"time"

	"github.com/google/uuid"

	"classtrack-backend/shared/database/models"
)

// PasswordResetToken stores the SHA-256 hash of a reset token. The raw
// token only ever travels in the (non-production) response or an email.
type PasswordResetToken struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID  `json:"userId" gorm:"type:uuid;not null;index"`
	TokenHash string     `json:"-" gorm:"size:64;uniqueIndex;not null"`
	ExpiresAt time.Time  `json:"expiresAt" gorm:"not null"`
	UsedAt    *time.Time `json:"usedAt"`
	CreatedAt time.Time  `json:"createdAt"`

	// Relations
	User models.User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
