package services

import (
	"context"

	"mangareader/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm/clause"
)

// SetBookmark adds the manga to the user's list or changes its status.
func (s *Service) SetBookmark(ctx context.Context, userID, mangaID uint, status models.BookmarkStatus) (*models.Bookmark, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	conn := s.db.WithContext(ctx)

	var count int64
	if err := conn.Model(&models.Manga{}).Where("id = ?", mangaID).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "check manga")
	}
	if count == 0 {
		return nil, ErrMangaNotFound
	}

	bookmark := models.Bookmark{UserID: userID, MangaID: mangaID, Status: status}
	if err := conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "manga_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(&bookmark).Error; err != nil {
		return nil, errors.Wrap(err, "save bookmark")
	}

	var saved models.Bookmark
	if err := conn.Where("user_id = ? AND manga_id = ?", userID, mangaID).First(&saved).Error; err != nil {
		return nil, errors.Wrap(err, "reload bookmark")
	}
	return &saved, nil
}

// RemoveBookmark 取消收藏
func (s *Service) RemoveBookmark(ctx context.Context, userID, mangaID uint) error {
	res := s.db.WithContext(ctx).Where("user_id = ? AND manga_id = ?", userID, mangaID).Delete(&models.Bookmark{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "remove bookmark")
	}
	if res.RowsAffected == 0 {
		return ErrBookmarkNotFound
	}
	return nil
}

// GetBookmark returns the user's bookmark for a manga, or nil.
func (s *Service) GetBookmark(ctx context.Context, userID, mangaID uint) (*models.Bookmark, error) {
	var bookmarks []models.Bookmark
	if err := s.db.WithContext(ctx).Where("user_id = ? AND manga_id = ?", userID, mangaID).
		Limit(1).Find(&bookmarks).Error; err != nil {
		return nil, errors.Wrap(err, "load bookmark")
	}
	if len(bookmarks) == 0 {
		return nil, nil
	}
	return &bookmarks[0], nil
}

// ListBookmarks returns a reading list. Another user's hidden list reads as
// permission denied.
func (s *Service) ListBookmarks(ctx context.Context, viewerID, ownerID uint) ([]models.Bookmark, error) {
	conn := s.db.WithContext(ctx)
	if viewerID != ownerID {
		var owner models.User
		if err := conn.Select("id", "hide_reading_list").First(&owner, ownerID).Error; err != nil {
			return nil, notFound(err, ErrUserNotFound, "load user")
		}
		if owner.HideReadingList {
			return nil, ErrPermissionDenied
		}
	}

	bookmarks := []models.Bookmark{}
	if err := conn.Preload("Manga").Where("user_id = ?", ownerID).
		Order("updated_at DESC").Find(&bookmarks).Error; err != nil {
		return nil, errors.Wrap(err, "list bookmarks")
	}
	return bookmarks, nil
}
