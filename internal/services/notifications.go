package services

import (
	"context"
	"time"

	"mangareader/internal/models"

	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// NotificationRefs 通知的弱引用，全部可选
type NotificationRefs struct {
	MangaID       *uint
	ChapterID     *uint
	CommentID     *uint
	TriggerUserID *uint
}

// NotificationView is the cycle-free shape returned to clients: the trigger
// user is reduced to a name and an avatar.
type NotificationView struct {
	ID               uint                    `json:"id"`
	Type             models.NotificationType `json:"type"`
	Category         string                  `json:"category"`
	Message          string                  `json:"message"`
	IsRead           bool                    `json:"is_read"`
	CreatedAt        time.Time               `json:"created_at"`
	RelatedMangaID   *uint                   `json:"related_manga_id"`
	RelatedChapterID *uint                   `json:"related_chapter_id"`
	RelatedCommentID *uint                   `json:"related_comment_id"`
	TriggerUserID    *uint                   `json:"trigger_user_id"`
	TriggerUsername  string                  `json:"trigger_username,omitempty"`
	TriggerAvatarURL string                  `json:"trigger_avatar_url,omitempty"`
}

// 批量已读的分组
const (
	TabAll       = "all"
	TabSystem    = "system"
	TabSeries    = "series"
	TabCommunity = "community"
)

// TabTypes returns the categories a tab covers; nil means every category.
// System and Reward share the "system" tab.
func TabTypes(tab string) []models.NotificationType {
	switch tab {
	case TabSystem:
		return []models.NotificationType{models.NotificationSystem, models.NotificationReward}
	case TabSeries:
		return []models.NotificationType{models.NotificationComic}
	case TabCommunity:
		return []models.NotificationType{models.NotificationCommunity}
	}
	return nil
}

// Notify writes one unread notification. There is no deduplication; callers
// decide whether an event fires.
func Notify(tx *gorm.DB, recipientID uint, kind models.NotificationType, message string, refs NotificationRefs) error {
	n := models.Notification{
		UserID:           recipientID,
		Type:             kind,
		Message:          message,
		RelatedMangaID:   refs.MangaID,
		RelatedChapterID: refs.ChapterID,
		RelatedCommentID: refs.CommentID,
		TriggerUserID:    refs.TriggerUserID,
	}
	if err := tx.Create(&n).Error; err != nil {
		return errors.Wrap(err, "create notification")
	}
	return nil
}

// ListNotifications returns the newest notifications of a user.
func (s *Service) ListNotifications(ctx context.Context, userID uint) ([]NotificationView, error) {
	var rows []models.Notification
	if err := s.db.WithContext(ctx).
		Preload("TriggerUser", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "username", "avatar_url")
		}).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(s.notificationLimit).
		Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list notifications")
	}

	views := make([]NotificationView, 0, len(rows))
	if err := copier.Copy(&views, &rows); err != nil {
		return nil, errors.Wrap(err, "project notifications")
	}
	for i := range views {
		views[i].Category = rows[i].Type.String()
		if u := rows[i].TriggerUser; u != nil {
			views[i].TriggerUsername = u.Username
			views[i].TriggerAvatarURL = u.AvatarURL
		}
	}
	return views, nil
}

// UnreadCount 未读数，优先读 redis
func (s *Service) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	if n, ok := s.counter.Get(ctx, userID); ok {
		return n, nil
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "count unread notifications")
	}
	s.counter.Set(ctx, userID, count)
	return count, nil
}

// MarkRead marks one of the user's notifications as read.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID uint) error {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if res.Error != nil {
		return errors.Wrap(res.Error, "mark notification read")
	}
	if res.RowsAffected == 0 {
		// 已读的记录也算成功
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Notification{}).
			Where("id = ? AND user_id = ?", notificationID, userID).Count(&count).Error; err != nil {
			return errors.Wrap(err, "check notification")
		}
		if count == 0 {
			return ErrNotificationNotFound
		}
	}
	s.counter.Invalidate(ctx, userID)
	return nil
}

// MarkAllRead marks every unread notification in a tab as read and returns
// how many changed.
func (s *Service) MarkAllRead(ctx context.Context, userID uint, tab string) (int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false)
	if types := TabTypes(tab); types != nil {
		q = q.Where("type IN ?", types)
	}
	res := q.Update("is_read", true)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "mark all notifications read")
	}
	s.counter.Invalidate(ctx, userID)
	return res.RowsAffected, nil
}

// DeleteNotification 仅本人或管理员可删除
func (s *Service) DeleteNotification(ctx context.Context, actor *models.User, notificationID uint) error {
	var n models.Notification
	if err := s.db.WithContext(ctx).First(&n, notificationID).Error; err != nil {
		return notFound(err, ErrNotificationNotFound, "load notification")
	}
	if n.UserID != actor.ID && !actor.IsAdmin {
		return ErrPermissionDenied
	}
	if err := s.db.WithContext(ctx).Delete(&n).Error; err != nil {
		return errors.Wrap(err, "delete notification")
	}
	s.counter.Invalidate(ctx, n.UserID)
	return nil
}
