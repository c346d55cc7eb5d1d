package models

import (
	"time"

	"github.com/google/uuid"
)

// Chapter statuses
const (
	ChapterStatusPending    = "pending"
	ChapterStatusInProgress = "in_progress"
	ChapterStatusCompleted  = "completed"
)

// Chapter is a unit of the shared curriculum, ordered by OrderIndex.
type Chapter struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title       string     `json:"title" gorm:"size:300;not null"`
	Description string     `json:"description" gorm:"type:text"`
	Status      string     `json:"status" gorm:"size:20;not null;default:'pending'"`
	OrderIndex  int        `json:"orderIndex" gorm:"not null;default:0;index"`
	DeletedAt   *time.Time `json:"deletedAt" gorm:"index"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
