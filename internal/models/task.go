package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type Task struct {
	Base
	Title       string     `json:"title" gorm:"not null;size:255"`
	Description *string    `json:"description"`
	Status      TaskStatus `json:"status" gorm:"size:20;not null;default:todo;index"`
	ProjectID   uuid.UUID  `json:"project_id" gorm:"type:uuid;not null;index"`
	AssigneeID  *uuid.UUID `json:"assignee_id" gorm:"type:uuid;index"`
	CreatedBy   uuid.UUID  `json:"created_by" gorm:"type:uuid;not null;index"`
	DueDate     *time.Time `json:"due_date" gorm:"index"`

	Project  *Project `json:"project,omitempty" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Assignee *User    `json:"assignee,omitempty" gorm:"foreignKey:AssigneeID;constraint:OnDelete:SET NULL"`
	Creator  *User    `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`
}

// CanModify reports whether userID is the creator or the current assignee.
func (t *Task) CanModify(userID uuid.UUID) bool {
	if t.CreatedBy == userID {
		return true
	}
	return t.AssigneeID != nil && *t.AssigneeID == userID
}
