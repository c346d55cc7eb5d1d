package models

import (
	"time"

	"github.com/google/uuid"
)

// Homework is a student submission, optionally annotated by a teacher
// comment. The comment trio stays empty until a teacher reviews it.
type Homework struct {
	ID               uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StudentID        uuid.UUID  `json:"studentId" gorm:"type:uuid;not null;index"`
	Chapter          string     `json:"chapter" gorm:"size:300;not null"`
	Content          string     `json:"content" gorm:"type:text;not null"`
	SubmissionDate   time.Time  `json:"submissionDate" gorm:"not null;index"`
	CommentType      *string    `json:"comment_type" gorm:"size:50"`
	CommentContent   *string    `json:"comment_content" gorm:"type:text"`
	CommentTeacherID *uuid.UUID `json:"comment_teacherId" gorm:"type:uuid"`
	DeletedAt        *time.Time `json:"deletedAt" gorm:"index"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// TableName returns the table name for Homework
func (Homework) TableName() string {
	return "homework"
}
