package models

type User struct {
	Base
	Email          string  `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Name           string  `json:"name" gorm:"not null;size:255"`
	HashedPassword *string `json:"-" gorm:"size:255"`
	AvatarURL      *string `json:"avatar_url" gorm:"size:500"`
	ExternalID     *string `json:"-" gorm:"uniqueIndex;size:255"`
	IsActive       bool    `json:"is_active" gorm:"not null;default:true"`
}

func (u *User) HasPassword() bool {
	return u.HashedPassword != nil && *u.HashedPassword != ""
}
