package services

import (
	"context"
	"fmt"
	"time"

	"mangareader/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Unlocks 一次升级新获得的挂件与称号
type Unlocks struct {
	Decorations []models.Decoration
	Titles      []models.Title
}

// Count returns the total number of new grants.
func (u *Unlocks) Count() int {
	return len(u.Decorations) + len(u.Titles)
}

// ResolveUnlocks grants every unlocked-by-level item whose requirement lies
// in (oldLevel, newLevel] and that the user does not own yet. Locked items
// are skipped; only an admin award can grant them.
func ResolveUnlocks(tx *gorm.DB, userID uint, oldLevel, newLevel int) (*Unlocks, error) {
	result := &Unlocks{}
	if newLevel <= oldLevel {
		return result, nil
	}
	now := time.Now()

	var ownedDecorations []uint
	if err := tx.Model(&models.UnlockedDecoration{}).Where("user_id = ?", userID).
		Pluck("decoration_id", &ownedDecorations).Error; err != nil {
		return nil, errors.Wrap(err, "load unlocked decorations")
	}
	var decorations []models.Decoration
	if err := tx.Where("level_requirement > ? AND level_requirement <= ? AND is_locked = ?", oldLevel, newLevel, false).
		Order("level_requirement, id").Find(&decorations).Error; err != nil {
		return nil, errors.Wrap(err, "load eligible decorations")
	}
	owned := toSet(ownedDecorations)
	for _, d := range decorations {
		if owned[d.ID] {
			continue
		}
		grant := models.UnlockedDecoration{UserID: userID, DecorationID: d.ID, UnlockedAt: now}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&grant)
		if res.Error != nil {
			return nil, errors.Wrap(res.Error, "grant decoration")
		}
		// 并发授予时冲突跳过，不计入本次解锁
		if res.RowsAffected == 1 {
			result.Decorations = append(result.Decorations, d)
		}
	}

	var ownedTitles []uint
	if err := tx.Model(&models.UnlockedTitle{}).Where("user_id = ?", userID).
		Pluck("title_id", &ownedTitles).Error; err != nil {
		return nil, errors.Wrap(err, "load unlocked titles")
	}
	var titles []models.Title
	if err := tx.Where("level_requirement > ? AND level_requirement <= ? AND is_locked = ?", oldLevel, newLevel, false).
		Order("level_requirement, id").Find(&titles).Error; err != nil {
		return nil, errors.Wrap(err, "load eligible titles")
	}
	owned = toSet(ownedTitles)
	for _, t := range titles {
		if owned[t.ID] {
			continue
		}
		grant := models.UnlockedTitle{UserID: userID, TitleID: t.ID, UnlockedAt: now}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&grant)
		if res.Error != nil {
			return nil, errors.Wrap(res.Error, "grant title")
		}
		if res.RowsAffected == 1 {
			result.Titles = append(result.Titles, t)
		}
	}

	return result, nil
}

func toSet(ids []uint) map[uint]bool {
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func hasDecoration(tx *gorm.DB, userID, decorationID uint) (bool, error) {
	var count int64
	err := tx.Model(&models.UnlockedDecoration{}).
		Where("user_id = ? AND decoration_id = ?", userID, decorationID).Count(&count).Error
	return count > 0, errors.Wrap(err, "check unlocked decoration")
}

func hasTitle(tx *gorm.DB, userID, titleID uint) (bool, error) {
	var count int64
	err := tx.Model(&models.UnlockedTitle{}).
		Where("user_id = ? AND title_id = ?", userID, titleID).Count(&count).Error
	return count > 0, errors.Wrap(err, "check unlocked title")
}

// AwardDecoration 管理员直接授予挂件，锁定的也可以
func (s *Service) AwardDecoration(ctx context.Context, userID, decorationID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id", "username").First(&user, userID).Error; err != nil {
			return notFound(err, ErrUserNotFound, "load user")
		}
		var decoration models.Decoration
		if err := tx.First(&decoration, decorationID).Error; err != nil {
			return notFound(err, ErrDecorationNotFound, "load decoration")
		}

		owned, err := hasDecoration(tx, userID, decorationID)
		if err != nil {
			return err
		}
		if owned {
			return &AlreadyOwnedError{Username: user.Username, Kind: "decoration", Item: decoration.Name}
		}

		grant := models.UnlockedDecoration{UserID: userID, DecorationID: decorationID, UnlockedAt: time.Now()}
		if err := tx.Create(&grant).Error; err != nil {
			if isDuplicate(err) {
				return &AlreadyOwnedError{Username: user.Username, Kind: "decoration", Item: decoration.Name}
			}
			return errors.Wrap(err, "award decoration")
		}

		return Notify(tx, userID, models.NotificationReward,
			fmt.Sprintf("You have been awarded the decoration '%s'!", decoration.Name), NotificationRefs{})
	})
	if err == nil {
		s.counter.Invalidate(ctx, userID)
	}
	return err
}

// AwardTitle 管理员直接授予称号
func (s *Service) AwardTitle(ctx context.Context, userID, titleID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id", "username").First(&user, userID).Error; err != nil {
			return notFound(err, ErrUserNotFound, "load user")
		}
		var title models.Title
		if err := tx.First(&title, titleID).Error; err != nil {
			return notFound(err, ErrTitleNotFound, "load title")
		}

		owned, err := hasTitle(tx, userID, titleID)
		if err != nil {
			return err
		}
		if owned {
			return &AlreadyOwnedError{Username: user.Username, Kind: "title", Item: title.Name}
		}

		grant := models.UnlockedTitle{UserID: userID, TitleID: titleID, UnlockedAt: time.Now()}
		if err := tx.Create(&grant).Error; err != nil {
			if isDuplicate(err) {
				return &AlreadyOwnedError{Username: user.Username, Kind: "title", Item: title.Name}
			}
			return errors.Wrap(err, "award title")
		}

		return Notify(tx, userID, models.NotificationReward,
			fmt.Sprintf("You have been awarded the title '%s'!", title.Name), NotificationRefs{})
	})
	if err == nil {
		s.counter.Invalidate(ctx, userID)
	}
	return err
}
