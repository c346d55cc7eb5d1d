package auth

import (
	"time"

	"github.com/google/uuid"

	"classtrack-backend/shared/database/models"
)

// VerificationToken holds a pending registration. The OTP itself is never
// stored, only its SHA-256 hash; the registration payload (name, hashed
// password, requested groups, ...) rides along as jsonb until verified.
type VerificationToken struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email      string         `json:"email" gorm:"size:255;not null;index"`
	OTPHash    string         `json:"-" gorm:"size:64;not null"`
	Payload    models.JSONMap `json:"-" gorm:"type:jsonb"`
	ExpiresAt  time.Time      `json:"expiresAt" gorm:"not null"`
	ConsumedAt *time.Time     `json:"consumedAt"`
	CreatedAt  time.Time      `json:"createdAt"`
}
