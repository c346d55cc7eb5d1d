package auth

import (
	"time"

	"github.com/google/uuid"
)

// Invite is an admin-issued invitation to create an account with a fixed
// role. Accepting it consumes the token.
type Invite struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email         string     `json:"email" gorm:"size:255;not null;index"`
	Role          string     `json:"role" gorm:"size:20;not null"`
	TokenHash     string     `json:"-" gorm:"size:64;uniqueIndex;not null"`
	InviterUserID *uuid.UUID `json:"inviterUserId" gorm:"type:uuid"`
	ExpiresAt     time.Time  `json:"expiresAt" gorm:"not null"`
	AcceptedAt    *time.Time `json:"acceptedAt"`
	CreatedAt     time.Time  `json:"createdAt"`
}
