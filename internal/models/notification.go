package models

import (
	"github.com/gofrs/uuid"
	"gorm.io/datatypes"
)

// Well-known notification types. The column is free-form and accepts any
// other non-empty value.
const (
	NotificationTaskAssigned        = "task_assigned"
	NotificationTaskUpdated         = "task_updated"
	NotificationTaskCompleted       = "task_completed"
	NotificationProjectInvitation   = "project_invitation"
	NotificationProjectMemberJoined = "project_member_joined"
	NotificationProjectMemberLeft   = "project_member_left"
)

type Notification struct {
	Base
	UserID  uuid.UUID      `json:"user_id" gorm:"type:uuid;not null;index"`
	Type    string         `json:"type" gorm:"size:50;not null"`
	Title   string         `json:"title" gorm:"size:255;not null"`
	Message *string        `json:"message"`
	Data    datatypes.JSON `json:"data,omitempty"`
	IsRead  bool           `json:"is_read" gorm:"not null;default:false;index"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
