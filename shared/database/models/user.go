package models

import (
	"time"

	"github.com/google/uuid"
)

// User types
const (
	UserTypeStudent = "Student"
	UserTypeTeacher = "Teacher"
	UserTypeParent  = "Parent"
	UserTypeAdmin   = "Admin"
)

// ValidUserType reports whether t is one of the known user types.
func ValidUserType(t string) bool {
	switch t {
	case UserTypeStudent, UserTypeTeacher, UserTypeParent, UserTypeAdmin:
		return true
	}
	return false
}

// User is an account row. The three telemetry columns (last_login_at,
// login_count, failed_login_attempts) are optional at the schema level:
// older deployments run without them and the login path detects their
// presence at runtime.
type User struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string     `json:"name" gorm:"size:200;not null"`
	Email     string     `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Password  string     `json:"-" gorm:"not null"`
	Phone     *string    `json:"phone" gorm:"size:30"`
	Type      string     `json:"type" gorm:"size:20;not null;index"`
	StudentID *uuid.UUID `json:"studentId" gorm:"type:uuid"` // Parent accounts link to their student

	// Login telemetry (optional columns, runtime-detected)
	LastLoginAt         *time.Time `json:"lastLoginAt"`
	LoginCount          int        `json:"loginCount" gorm:"default:0"`
	FailedLoginAttempts int        `json:"failedLoginAttempts" gorm:"default:0"`

	DeletedAt *time.Time `json:"deletedAt" gorm:"index"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// TableName returns the table name for User
func (User) TableName() string {
	return "users"
}
