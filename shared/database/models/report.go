package models

import (
	"time"

	"github.com/google/uuid"
)

// Report types
const (
	ReportTypeText  = "text"
	ReportTypeVoice = "voice"
)

// Report is a teacher-authored progress note about a student. Voice
// reports carry the audio object URL in Content.
type Report struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StudentID uuid.UUID  `json:"studentId" gorm:"type:uuid;not null;index"`
	TeacherID uuid.UUID  `json:"teacherId" gorm:"type:uuid;not null;index"`
	Date      time.Time  `json:"date" gorm:"not null;index"`
	Type      string     `json:"type" gorm:"size:10;not null"`
	Content   string     `json:"content" gorm:"type:text;not null"`
	DeletedAt *time.Time `json:"deletedAt" gorm:"index"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}
