package models

import (
	"time"

	"github.com/google/uuid"
)

// Group is a named cohort of users (a class, a tutoring circle, ...).
type Group struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"size:200;not null"`
	Color     string    `json:"color" gorm:"size:20;not null;default:'#2563eb'"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	Members []GroupMembership `json:"members,omitempty" gorm:"foreignKey:GroupID"`
}

// GroupMembership connects a user to a group with a membership role
// ("Member", "Lead", ...). One row per (group, user) pair.
type GroupMembership struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	GroupID   uuid.UUID `json:"groupId" gorm:"type:uuid;not null;uniqueIndex:idx_group_user"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_group_user"`
	Role      string    `json:"role" gorm:"size:50;not null;default:'Member'"`
	CreatedAt time.Time `json:"createdAt"`

	// Relations
	Group Group `json:"group,omitempty" gorm:"foreignKey:GroupID"`
	User  User  `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// TableName returns the table name for GroupMembership
func (GroupMembership) TableName() string {
	return "group_memberships"
}
