package services

import (
	"context"
	"fmt"
	"time"

	"mangareader/internal/models"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ReactionResult 操作后的计数与当前用户状态
type ReactionResult struct {
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
	// Current is nil when the user has no reaction left on the comment.
	Current *bool `json:"current"`
}

// React toggles the user's reaction: a new reaction is created, the same
// polarity again removes it, the opposite polarity flips it in place.
// Only a brand-new like on someone else's comment notifies the author.
func (s *Service) React(ctx context.Context, commentID, userID uint, isLike bool) (*ReactionResult, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}

	result := &ReactionResult{}
	var notified *uint
	var chapterID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.Preload("Chapter.Manga").First(&comment, commentID).Error; err != nil {
			return notFound(err, ErrCommentNotFound, "load comment")
		}
		chapterID = comment.ChapterID

		var existing models.Reaction
		err := tx.Where("comment_id = ? AND user_id = ?", commentID, userID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			reaction := models.Reaction{CommentID: commentID, UserID: userID, IsLike: isLike}
			err := tx.Transaction(func(sp *gorm.DB) error {
				return sp.Create(&reaction).Error
			})
			switch {
			case isDuplicate(err):
				// 并发重复提交，保持已有记录
				logrus.WithFields(logrus.Fields{"comment_id": commentID, "user_id": userID}).
					Warn("Duplicate reaction ignored")
				var kept models.Reaction
				if err := tx.Where("comment_id = ? AND user_id = ?", commentID, userID).First(&kept).Error; err != nil {
					return errors.Wrap(err, "reload reaction")
				}
				result.Current = &kept.IsLike
			case err != nil:
				return errors.Wrap(err, "create reaction")
			default:
				result.Current = &isLike
				if isLike && comment.UserID != userID {
					notified = notifyLike(tx, &comment, userID)
				}
			}
		case err != nil:
			return errors.Wrap(err, "load reaction")
		case existing.IsLike == isLike:
			if err := tx.Delete(&existing).Error; err != nil {
				return errors.Wrap(err, "delete reaction")
			}
		default:
			if err := tx.Model(&existing).Updates(map[string]interface{}{
				"is_like":    isLike,
				"created_at": time.Now(),
			}).Error; err != nil {
				return errors.Wrap(err, "flip reaction")
			}
			result.Current = &isLike
		}

		likes, dislikes, err := reactionCounts(tx, commentID)
		if err != nil {
			return err
		}
		result.Likes, result.Dislikes = likes, dislikes
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Delete(commentsCacheKey(chapterID))
	if notified != nil {
		s.counter.Invalidate(ctx, *notified)
	}
	return result, nil
}

func reactionCounts(tx *gorm.DB, commentID uint) (int64, int64, error) {
	var likes, dislikes int64
	if err := tx.Model(&models.Reaction{}).Where("comment_id = ? AND is_like = ?", commentID, true).
		Count(&likes).Error; err != nil {
		return 0, 0, errors.Wrap(err, "count likes")
	}
	if err := tx.Model(&models.Reaction{}).Where("comment_id = ? AND is_like = ?", commentID, false).
		Count(&dislikes).Error; err != nil {
		return 0, 0, errors.Wrap(err, "count dislikes")
	}
	return likes, dislikes, nil
}

func notifyLike(tx *gorm.DB, comment *models.Comment, reactorID uint) *uint {
	var reactor models.User
	if err := tx.Select("id", "username").First(&reactor, reactorID).Error; err != nil {
		logrus.WithField("user_id", reactorID).WithError(err).Error("Failed to load reactor for notification")
		return nil
	}

	mangaTitle, chapterLabel := "", ""
	refs := NotificationRefs{CommentID: &comment.ID, TriggerUserID: &reactor.ID}
	if ch := comment.Chapter; ch != nil {
		chapterLabel = ch.Label()
		refs.ChapterID = &ch.ID
		refs.MangaID = &ch.MangaID
		if ch.Manga != nil {
			mangaTitle = ch.Manga.Title
		}
	}

	message := fmt.Sprintf("%s liked your comment on %s - Ch. %s", reactor.Username, mangaTitle, chapterLabel)
	err := tx.Transaction(func(sp *gorm.DB) error {
		return Notify(sp, comment.UserID, models.NotificationCommunity, message, refs)
	})
	if err != nil {
		logrus.WithField("comment_id", comment.ID).WithError(err).Error("Failed to send like notification")
		return nil
	}
	return &comment.UserID
}
