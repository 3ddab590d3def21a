package services

import (
	"context"
	"fmt"

	"mangareader/internal/models"
	"mangareader/internal/utils"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 经验动作
const (
	ActionRootComment = "first comment on chapter"
	ActionReply       = "first reply on chapter"
	ActionChapterView = "first chapter view"
)

// ChapterViewXP 首次阅读一章的经验
const ChapterViewXP = 10

// MaxCommentXP caps the length bonus of a single comment.
const MaxCommentXP = 100

// LevelUp describes what an XP award changed.
type LevelUp struct {
	UserID      uint
	OldLevel    int
	NewLevel    int
	XP          int
	Decorations []models.Decoration
	Titles      []models.Title
}

// Leveled reports whether the award crossed at least one threshold.
func (l *LevelUp) Leveled() bool {
	return l != nil && l.NewLevel > l.OldLevel
}

// ApplyXP adds amount and resolves every level-up it pays for. The result
// always satisfies xp < XPThreshold(level). Non-positive amounts are a no-op.
func ApplyXP(xp, level, amount int) (int, int) {
	if amount <= 0 {
		return xp, level
	}
	if level < 1 {
		level = 1
	}
	xp += amount
	for xp >= utils.XPThreshold(level) {
		xp -= utils.XPThreshold(level)
		level++
	}
	return xp, level
}

// CommentXP 评论经验: 10 + 去除 markdown 后字数/10，最多 100
func CommentXP(content string) int {
	n := len([]rune(utils.StripMarkdown(content)))
	xp := 10 + n/10
	if xp > MaxCommentXP {
		return MaxCommentXP
	}
	return xp
}

// AwardXP grants XP in its own transaction.
func (s *Service) AwardXP(ctx context.Context, userID uint, amount int, action string) (*LevelUp, error) {
	var result *LevelUp
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = awardXP(tx, userID, amount, action)
		return err
	})
	if err != nil {
		return nil, err
	}
	if result.Leveled() {
		s.counter.Invalidate(ctx, userID)
	}
	return result, nil
}

// awardXP updates the user's XP and level, writes the XP log, and on a
// level-up persists unlock grants and the System/Reward notifications. It
// runs on the caller's transaction so the whole unit commits or rolls back
// together.
func awardXP(tx *gorm.DB, userID uint, amount int, action string) (*LevelUp, error) {
	if amount <= 0 {
		return nil, nil
	}

	var user models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id", "xp", "level").First(&user, userID).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound, "load user for xp")
	}

	xp, level := ApplyXP(user.XP, user.Level, amount)
	result := &LevelUp{UserID: userID, OldLevel: user.Level, NewLevel: level, XP: xp}

	if err := tx.Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{"xp": xp, "level": level}).Error; err != nil {
		return nil, errors.Wrap(err, "update user xp")
	}

	if err := tx.Create(&models.XPLog{UserID: userID, Amount: amount, Action: action}).Error; err != nil {
		return nil, errors.Wrap(err, "write xp log")
	}

	if !result.Leveled() {
		return result, nil
	}

	unlocks, err := ResolveUnlocks(tx, userID, result.OldLevel, result.NewLevel)
	if err != nil {
		return nil, err
	}
	result.Decorations = unlocks.Decorations
	result.Titles = unlocks.Titles

	refs := NotificationRefs{TriggerUserID: &userID}
	if err := Notify(tx, userID, models.NotificationSystem,
		fmt.Sprintf("Congratulations! You reached Level %d!", level), refs); err != nil {
		return nil, err
	}
	if unlocks.Count() > 0 {
		if err := Notify(tx, userID, models.NotificationReward,
			fmt.Sprintf("You unlocked %d decorations and %d titles!", len(unlocks.Decorations), len(unlocks.Titles)), refs); err != nil {
			return nil, err
		}
	}

	logrus.WithFields(logrus.Fields{
		"user_id":   userID,
		"old_level": result.OldLevel,
		"new_level": result.NewLevel,
		"unlocked":  unlocks.Count(),
	}).Info("User leveled up")

	return result, nil
}

// tryAwardXP runs awardXP inside a savepoint. A failure rolls back only the
// XP unit and is logged; the surrounding action still commits.
func tryAwardXP(tx *gorm.DB, userID uint, amount int, action string) *LevelUp {
	var result *LevelUp
	err := tx.Transaction(func(sp *gorm.DB) error {
		var err error
		result, err = awardXP(sp, userID, amount, action)
		return err
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"amount":  amount,
			"action":  action,
		}).WithError(err).Error("Failed to award XP")
		return nil
	}
	return result
}
