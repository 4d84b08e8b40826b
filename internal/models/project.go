package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type Project struct {
	Base
	Name        string    `json:"name" gorm:"not null;size:255"`
	Description *string   `json:"description"`
	OwnerID     uuid.UUID `json:"owner_id" gorm:"type:uuid;not null;index"`
	IsActive    bool      `json:"is_active" gorm:"not null;default:true"`

	Owner   *User           `json:"-" gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	Members []ProjectMember `json:"members,omitempty" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Tasks   []Task          `json:"-" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

// ProjectMember grants a user one role inside one project.
// (project_id, user_id) is unique.
type ProjectMember struct {
	Base
	ProjectID uuid.UUID  `json:"project_id" gorm:"type:uuid;not null;uniqueIndex:idx_project_member"`
	UserID    uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_project_member;index"`
	Role      MemberRole `json:"role" gorm:"size:20;not null;default:member"`
	JoinedAt  time.Time  `json:"joined_at" gorm:"not null"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (ProjectMember) TableName() string { return "project_members" }

// IsOwner reports whether userID is the project's owner reference.
func (p *Project) IsOwner(userID uuid.UUID) bool {
	return p.OwnerID == userID
}
