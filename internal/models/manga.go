package models

import (
	"strconv"
	"time"
)

type Manga struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Title           string     `gorm:"size:200;not null" json:"title"`
	Description     string     `gorm:"size:1000" json:"description"`
	ImageURL        string     `gorm:"size:500" json:"image_url"`
	BannerURL       string     `gorm:"size:500" json:"banner_url"`
	Author          string     `gorm:"size:200" json:"author"`
	Artist          string     `gorm:"size:200" json:"artist"`
	Status          string     `gorm:"size:50;index" json:"status"` // Ongoing, Completed, Hiatus
	Type            string     `gorm:"size:100" json:"type"`
	Genre           string     `gorm:"size:500" json:"genre"` // comma separated
	Rating          *int       `json:"rating"`                // average * 10
	IsFeatured      bool       `json:"is_featured"`
	LastChapterDate *time.Time `json:"last_chapter_date"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `gorm:"index" json:"updated_at"`

	Chapters []Chapter `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"chapters,omitempty"`
}

type Chapter struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	MangaID       uint          `gorm:"not null;index" json:"manga_id"`
	Manga         *Manga        `json:"manga,omitempty"`
	Number        float64       `gorm:"not null" json:"number"` // 1, 1.5, 4.5 ...
	Title         string        `gorm:"size:300" json:"title"`
	Description   string        `gorm:"size:1000" json:"description"`
	CoverImageURL string        `gorm:"size:500" json:"cover_image_url"`
	ViewCount     int           `gorm:"not null;default:0" json:"view_count"`
	ReleasedAt    time.Time     `json:"released_at"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	Pages         []ChapterPage `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"pages,omitempty"`
}

// Label renders the chapter number without trailing zeros ("12", "4.5").
func (c *Chapter) Label() string {
	return strconv.FormatFloat(c.Number, 'f', -1, 64)
}

type ChapterPage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ChapterID  uint      `gorm:"not null;index" json:"chapter_id"`
	PageNumber int       `gorm:"not null" json:"page_number"`
	ImageURL   string    `gorm:"size:500;not null" json:"image_url"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	CreatedAt  time.Time `json:"created_at"`
}

// ChapterView 已登录用户的首次阅读记录，(user, chapter) 唯一
type ChapterView struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_view_user_chapter" json:"user_id"`
	ChapterID uint      `gorm:"not null;uniqueIndex:idx_view_user_chapter;index" json:"chapter_id"`
	ViewedAt  time.Time `gorm:"autoCreateTime" json:"viewed_at"`
}
