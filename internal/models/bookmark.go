package models

import (
	"time"
)

type BookmarkStatus int

const (
	BookmarkPlanToRead BookmarkStatus = iota
	BookmarkReading
	BookmarkCompleted
	BookmarkOnHold
	BookmarkDropped
)

// Valid reports whether s is one of the known reading states.
func (s BookmarkStatus) Valid() bool {
	return s >= BookmarkPlanToRead && s <= BookmarkDropped
}

// Bookmark 收藏模型 - 用户的阅读列表条目
type Bookmark struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index;uniqueIndex:idx_user_manga" json:"user_id"`
	MangaID   uint           `gorm:"not null;index;uniqueIndex:idx_user_manga" json:"manga_id"`
	Manga     *Manga         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"manga,omitempty"`
	Status    BookmarkStatus `gorm:"not null;default:0" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type Rating struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_rating_user_manga" json:"user_id"`
	MangaID   uint      `gorm:"not null;uniqueIndex:idx_rating_user_manga;index" json:"manga_id"`
	Rating    int       `gorm:"not null" json:"rating"` // 1-5
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
