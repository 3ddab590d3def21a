package models

import (
	"time"
)

type NotificationType int

const (
	NotificationComic     NotificationType = iota // new chapter
	NotificationCommunity                         // like, reply
	NotificationSystem                            // level up, changelog
	NotificationReward                            // decoration/title unlock
)

func (t NotificationType) String() string {
	switch t {
	case NotificationComic:
		return "comic"
	case NotificationCommunity:
		return "community"
	case NotificationSystem:
		return "system"
	case NotificationReward:
		return "reward"
	}
	return "unknown"
}

// Notification is created only by the fan-out; afterwards only IsRead changes.
// Related* ids are weak references and carry no foreign key.
type Notification struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	UserID           uint             `gorm:"not null;index" json:"user_id"` // Receiver
	User             *User            `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Type             NotificationType `gorm:"not null;index" json:"type"`
	Message          string           `gorm:"size:500;not null" json:"message"`
	IsRead           bool             `gorm:"index" json:"is_read"`
	RelatedMangaID   *uint            `json:"related_manga_id"`
	RelatedChapterID *uint            `json:"related_chapter_id"`
	RelatedCommentID *uint            `gorm:"index" json:"related_comment_id"`
	TriggerUserID    *uint            `gorm:"index" json:"trigger_user_id"` // Sender
	TriggerUser      *User            `gorm:"foreignKey:TriggerUserID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	CreatedAt        time.Time        `gorm:"index" json:"created_at"`
}
