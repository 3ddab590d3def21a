package services

import (
	"context"

	"mangareader/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// CheckEquip allows an item when the level requirement is met on an
// unlocked item, or when the user holds a grant for it.
func CheckEquip(kind string, level, requirement int, locked, granted bool) error {
	if granted || (level >= requirement && !locked) {
		return nil
	}
	if locked {
		return &EquipDeniedError{Reason: ErrItemLocked, Kind: kind, RequiredLevel: requirement}
	}
	return &EquipDeniedError{Reason: ErrLevelTooLow, Kind: kind, RequiredLevel: requirement}
}

// EquipDecoration equips a decoration; nil or 0 unequips. Equipping is
// refused while the site has decorations switched off.
func (s *Service) EquipDecoration(ctx context.Context, userID uint, decorationID *uint) error {
	if decorationID != nil && *decorationID != 0 && !s.SettingEnabled(ctx, SettingEnableDecorations) {
		return ErrFeatureDisabled
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id", "level").First(&user, userID).Error; err != nil {
			return notFound(err, ErrUserNotFound, "load user")
		}

		if decorationID == nil || *decorationID == 0 {
			return errors.Wrap(tx.Model(&user).Update("equipped_decoration_id", nil).Error, "unequip decoration")
		}

		var decoration models.Decoration
		if err := tx.First(&decoration, *decorationID).Error; err != nil {
			return notFound(err, ErrDecorationNotFound, "load decoration")
		}
		granted, err := hasDecoration(tx, userID, decoration.ID)
		if err != nil {
			return err
		}
		if err := CheckEquip("decoration", user.Level, decoration.LevelRequirement, decoration.IsLocked, granted); err != nil {
			return err
		}

		return errors.Wrap(tx.Model(&user).Update("equipped_decoration_id", decoration.ID).Error, "equip decoration")
	})
}

// EquipTitle equips a title; nil or 0 unequips.
func (s *Service) EquipTitle(ctx context.Context, userID uint, titleID *uint) error {
	if titleID != nil && *titleID != 0 && !s.SettingEnabled(ctx, SettingEnableTitles) {
		return ErrFeatureDisabled
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id", "level").First(&user, userID).Error; err != nil {
			return notFound(err, ErrUserNotFound, "load user")
		}

		if titleID == nil || *titleID == 0 {
			return errors.Wrap(tx.Model(&user).Update("equipped_title_id", nil).Error, "unequip title")
		}

		var title models.Title
		if err := tx.First(&title, *titleID).Error; err != nil {
			return notFound(err, ErrTitleNotFound, "load title")
		}
		granted, err := hasTitle(tx, userID, title.ID)
		if err != nil {
			return err
		}
		if err := CheckEquip("title", user.Level, title.LevelRequirement, title.IsLocked, granted); err != nil {
			return err
		}

		return errors.Wrap(tx.Model(&user).Update("equipped_title_id", title.ID).Error, "equip title")
	})
}

// CosmeticItem 个人页展示用：目录条目加上当前用户的状态
type CosmeticItem struct {
	ID               uint   `json:"id"`
	Name             string `json:"name"`
	ImageURL         string `json:"image_url,omitempty"`
	Color            string `json:"color,omitempty"`
	LevelRequirement int    `json:"level_requirement"`
	IsLocked         bool   `json:"is_locked"`
	Owned            bool   `json:"owned"`
	Equippable       bool   `json:"equippable"`
	Equipped         bool   `json:"equipped"`
}

// Cosmetics is the user's view of the decoration and title catalog.
type Cosmetics struct {
	Decorations []CosmeticItem `json:"decorations"`
	Titles      []CosmeticItem `json:"titles"`
}

// ListCosmetics returns the whole catalog annotated for one user.
func (s *Service) ListCosmetics(ctx context.Context, userID uint) (*Cosmetics, error) {
	conn := s.db.WithContext(ctx)
	var user models.User
	if err := conn.First(&user, userID).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound, "load user")
	}

	var decorations []models.Decoration
	if err := conn.Order("level_requirement, id").Find(&decorations).Error; err != nil {
		return nil, errors.Wrap(err, "list decorations")
	}
	var titles []models.Title
	if err := conn.Order("level_requirement, id").Find(&titles).Error; err != nil {
		return nil, errors.Wrap(err, "list titles")
	}

	var ownedD, ownedT []uint
	if err := conn.Model(&models.UnlockedDecoration{}).Where("user_id = ?", userID).Pluck("decoration_id", &ownedD).Error; err != nil {
		return nil, errors.Wrap(err, "list unlocked decorations")
	}
	if err := conn.Model(&models.UnlockedTitle{}).Where("user_id = ?", userID).Pluck("title_id", &ownedT).Error; err != nil {
		return nil, errors.Wrap(err, "list unlocked titles")
	}
	dSet, tSet := toSet(ownedD), toSet(ownedT)

	out := &Cosmetics{Decorations: []CosmeticItem{}, Titles: []CosmeticItem{}}
	for _, d := range decorations {
		out.Decorations = append(out.Decorations, CosmeticItem{
			ID:               d.ID,
			Name:             d.Name,
			ImageURL:         d.ImageURL,
			LevelRequirement: d.LevelRequirement,
			IsLocked:         d.IsLocked,
			Owned:            dSet[d.ID],
			Equippable:       CheckEquip("decoration", user.Level, d.LevelRequirement, d.IsLocked, dSet[d.ID]) == nil,
			Equipped:         user.EquippedDecorationID != nil && *user.EquippedDecorationID == d.ID,
		})
	}
	for _, t := range titles {
		out.Titles = append(out.Titles, CosmeticItem{
			ID:               t.ID,
			Name:             t.Name,
			Color:            t.Color,
			LevelRequirement: t.LevelRequirement,
			IsLocked:         t.IsLocked,
			Owned:            tSet[t.ID],
			Equippable:       CheckEquip("title", user.Level, t.LevelRequirement, t.IsLocked, tSet[t.ID]) == nil,
			Equipped:         user.EquippedTitleID != nil && *user.EquippedTitleID == t.ID,
		})
	}
	return out, nil
}
