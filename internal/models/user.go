package models

import (
	"time"
)

type User struct {
	ID                   uint        `gorm:"primaryKey" json:"id"`
	Username             string      `gorm:"size:100;uniqueIndex;not null" json:"username"`
	PasswordHash         string      `gorm:"size:255;not null" json:"-"`
	AvatarURL            string      `gorm:"size:500" json:"avatar_url"`
	IsAdmin              bool        `json:"is_admin"`
	IsSubAdmin           bool        `json:"is_sub_admin"`
	IsActive             bool        `json:"is_active"`
	XP                   int         `gorm:"not null;default:0" json:"xp"`
	Level                int         `gorm:"not null;default:1" json:"level"`
	EquippedDecorationID *uint       `gorm:"index" json:"equipped_decoration_id"` // weak reference
	EquippedDecoration   *Decoration `gorm:"foreignKey:EquippedDecorationID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"equipped_decoration,omitempty"`
	EquippedTitleID      *uint       `gorm:"index" json:"equipped_title_id"` // weak reference
	EquippedTitle        *Title      `gorm:"foreignKey:EquippedTitleID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"equipped_title,omitempty"`
	HideReadingList      bool        `json:"hide_reading_list"`
	FollowChangelog      bool        `json:"follow_changelog"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

// NewUser 新注册用户的默认状态
// Bool columns carry no gorm default so that false survives Create.
func NewUser(username, passwordHash string) *User {
	return &User{
		Username:        username,
		PasswordHash:    passwordHash,
		IsActive:        true,
		FollowChangelog: true,
		Level:           1,
	}
}

// IsStaff reports whether the user may moderate content.
func (u *User) IsStaff() bool {
	return u.IsAdmin || u.IsSubAdmin
}
