package models

import (
	"time"
)

// Comment belongs to a chapter. ParentID, when set, always points at a root
// comment: replies are flattened to a single level on write.
type Comment struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ChapterID       uint      `gorm:"not null;index" json:"chapter_id"`
	Chapter         *Chapter  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"chapter,omitempty"`
	UserID          uint      `gorm:"not null;index" json:"user_id"`
	User            *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user,omitempty"`
	ParentID        *uint     `gorm:"index" json:"parent_id"` // Nullable for root comments
	Parent          *Comment  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	RepliedToUserID *uint     `gorm:"index" json:"replied_to_user_id"`
	RepliedToUser   *User     `gorm:"foreignKey:RepliedToUserID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"replied_to_user,omitempty"`
	Content         string    `gorm:"type:text;not null" json:"content"`
	CreatedAt       time.Time `json:"created_at"`
}

// IsReply reports whether the comment hangs under a root.
func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}

// Reaction 一个用户对一条评论最多一条记录
type Reaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CommentID uint      `gorm:"not null;uniqueIndex:idx_reaction_comment_user" json:"comment_id"`
	Comment   *Comment  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_reaction_comment_user;index" json:"user_id"`
	IsLike    bool      `json:"is_like"` // true = like, false = dislike
	CreatedAt time.Time `json:"created_at"`
}
