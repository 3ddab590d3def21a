package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"mangareader/internal/models"
	"mangareader/internal/utils"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Register creates an active account with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if n := utf8.RuneCountInString(username); n < 3 || n > 100 {
		return nil, ErrInvalidUsername
	}
	if len(password) < 6 {
		return nil, ErrPasswordTooShort
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	user := models.NewUser(username, hash)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return errors.Wrap(err, "check username")
		}
		if count > 0 {
			return ErrUsernameTaken
		}
		if err := tx.Create(user).Error; err != nil {
			if isDuplicate(err) {
				return ErrUsernameTaken
			}
			return errors.Wrap(err, "create user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks credentials. Inactive accounts cannot log in.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "load user")
	}
	if !user.IsActive || !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// GetActiveUser loads the session user with equipped cosmetics. Inactive or
// missing accounts yield ErrUnauthorized.
func (s *Service) GetActiveUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).
		Preload("EquippedDecoration").
		Preload("EquippedTitle").
		First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, errors.Wrap(err, "load session user")
	}
	if !user.IsActive {
		return nil, ErrUnauthorized
	}
	return &user, nil
}

// UpdatePreferences 更新隐私设置
func (s *Service) UpdatePreferences(ctx context.Context, userID uint, hideReadingList bool) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Update("hide_reading_list", hideReadingList)
	if res.Error != nil {
		return errors.Wrap(res.Error, "update preferences")
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ToggleFollowChangelog flips the preference and returns the new value.
func (s *Service) ToggleFollowChangelog(ctx context.Context, userID uint) (bool, error) {
	var following bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id", "follow_changelog").First(&user, userID).Error; err != nil {
			return notFound(err, ErrUserNotFound, "load user")
		}
		following = !user.FollowChangelog
		return errors.Wrap(tx.Model(&user).Update("follow_changelog", following).Error, "toggle follow changelog")
	})
	return following, err
}

// SetUserActive 管理员封禁/解封
func (s *Service) SetUserActive(ctx context.Context, actor *models.User, userID uint, active bool) error {
	if actor == nil || !actor.IsAdmin {
		return ErrPermissionDenied
	}
	if actor.ID == userID {
		return ErrPermissionDenied
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("is_active", active)
	if res.Error != nil {
		return errors.Wrap(res.Error, "set user active")
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
