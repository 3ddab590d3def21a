package services

import (
	"context"
	"strings"

	"mangareader/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// MangaPage 分页结果
type MangaPage struct {
	Items    []models.Manga `json:"items"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// ListMangas returns the catalog, most recently updated first. query
// filters by title.
func (s *Service) ListMangas(ctx context.Context, query string, page, pageSize int) (*MangaPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 24
	}

	q := s.db.WithContext(ctx).Model(&models.Manga{})
	if query = strings.TrimSpace(query); query != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(query)+"%")
	}

	out := &MangaPage{Page: page, PageSize: pageSize}
	if err := q.Count(&out.Total).Error; err != nil {
		return nil, errors.Wrap(err, "count mangas")
	}
	if err := q.Order("updated_at DESC, id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&out.Items).Error; err != nil {
		return nil, errors.Wrap(err, "list mangas")
	}
	if out.Items == nil {
		out.Items = []models.Manga{}
	}
	return out, nil
}

// GetManga loads a manga with its chapters, newest chapter first.
func (s *Service) GetManga(ctx context.Context, mangaID uint) (*models.Manga, error) {
	var manga models.Manga
	if err := s.db.WithContext(ctx).
		Preload("Chapters", func(db *gorm.DB) *gorm.DB {
			return db.Order("number DESC")
		}).
		First(&manga, mangaID).Error; err != nil {
		return nil, notFound(err, ErrMangaNotFound, "load manga")
	}
	return &manga, nil
}

// CreateManga 管理员新增作品
func (s *Service) CreateManga(ctx context.Context, manga *models.Manga) error {
	manga.Title = strings.TrimSpace(manga.Title)
	if manga.Title == "" {
		return ErrTitleRequired
	}
	if manga.Status == "" {
		manga.Status = "Ongoing"
	}
	return errors.Wrap(s.db.WithContext(ctx).Create(manga).Error, "create manga")
}
