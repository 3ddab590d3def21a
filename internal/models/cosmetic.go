package models

import (
	"time"
)

// Decoration 头像挂件
type Decoration struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Name             string    `gorm:"size:100;not null" json:"name"`
	ImageURL         string    `gorm:"size:500;not null" json:"image_url"`
	LevelRequirement int       `gorm:"not null;default:1;index" json:"level_requirement"`
	IsAnimated       bool      `json:"is_animated"`
	IsLocked         bool      `json:"is_locked"` // only grantable by admin award
	CreatedAt        time.Time `json:"created_at"`
}

// Title 用户称号
type Title struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Name             string    `gorm:"size:100;not null" json:"name"`
	Color            string    `gorm:"size:20;not null;default:'#ffffff'" json:"color"`
	LevelRequirement int       `gorm:"not null;default:1;index" json:"level_requirement"`
	IsLocked         bool      `json:"is_locked"`
	CreatedAt        time.Time `json:"created_at"`
}

// UnlockedDecoration is an append-only grant, unique per (user, decoration).
type UnlockedDecoration struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	UserID       uint        `gorm:"not null;uniqueIndex:idx_unlocked_decoration" json:"user_id"`
	User         *User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	DecorationID uint        `gorm:"not null;uniqueIndex:idx_unlocked_decoration" json:"decoration_id"`
	Decoration   *Decoration `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"decoration,omitempty"`
	UnlockedAt   time.Time   `json:"unlocked_at"`
}

// UnlockedTitle is an append-only grant, unique per (user, title).
type UnlockedTitle struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_unlocked_title" json:"user_id"`
	User       *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	TitleID    uint      `gorm:"not null;uniqueIndex:idx_unlocked_title" json:"title_id"`
	Title      *Title    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"title,omitempty"`
	UnlockedAt time.Time `json:"unlocked_at"`
}
