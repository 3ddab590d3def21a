package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mangareader/internal/db"
	"mangareader/internal/models"
	"mangareader/internal/utils"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ViewResult 阅读记录结果
type ViewResult struct {
	FirstView bool     `json:"first_view"`
	XPAwarded int      `json:"xp_awarded"`
	LevelUp   *LevelUp `json:"-"`
}

// RecordView counts an authenticated read. Only the first view of a chapter
// by a user inserts the view row, bumps the view count and awards XP; a
// concurrent duplicate hits the unique pair and becomes a no-op.
func (s *Service) RecordView(ctx context.Context, userID, chapterID uint) (*ViewResult, error) {
	result := &ViewResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Chapter{}).Where("id = ?", chapterID).Count(&count).Error; err != nil {
			return errors.Wrap(err, "check chapter")
		}
		if count == 0 {
			return ErrChapterNotFound
		}

		view := models.ChapterView{UserID: userID, ChapterID: chapterID}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&view)
		if res.Error != nil {
			return errors.Wrap(res.Error, "record chapter view")
		}
		if res.RowsAffected == 0 {
			return nil
		}
		result.FirstView = true

		if err := incrementViewCount(tx, chapterID); err != nil {
			return err
		}

		up, err := awardXP(tx, userID, ChapterViewXP, ActionChapterView)
		if err != nil {
			return err
		}
		result.XPAwarded = ChapterViewXP
		result.LevelUp = up
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.LevelUp.Leveled() {
		s.counter.Invalidate(ctx, userID)
	}
	return result, nil
}

// RecordAnonymousView bumps the view count; the caller deduplicates per
// session.
func (s *Service) RecordAnonymousView(ctx context.Context, chapterID uint) error {
	return incrementViewCount(s.db.WithContext(ctx), chapterID)
}

func incrementViewCount(tx *gorm.DB, chapterID uint) error {
	res := tx.Model(&models.Chapter{}).Where("id = ?", chapterID).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if res.Error != nil {
		return errors.Wrap(res.Error, "increment view count")
	}
	if res.RowsAffected == 0 {
		return ErrChapterNotFound
	}
	return nil
}

// ChapterDetail 阅读页数据
type ChapterDetail struct {
	Chapter     *models.Chapter `json:"chapter"`
	PrevChapter *uint           `json:"prev_chapter_id"`
	NextChapter *uint           `json:"next_chapter_id"`
}

// GetChapter loads a chapter with its manga, its pages in order and the
// neighbouring chapter ids.
func (s *Service) GetChapter(ctx context.Context, chapterID uint) (*ChapterDetail, error) {
	conn := s.db.WithContext(ctx)
	var chapter models.Chapter
	if err := conn.Preload("Manga").
		Preload("Pages", func(db *gorm.DB) *gorm.DB {
			return db.Order("page_number ASC")
		}).
		First(&chapter, chapterID).Error; err != nil {
		return nil, notFound(err, ErrChapterNotFound, "load chapter")
	}

	detail := &ChapterDetail{Chapter: &chapter}
	var prev, next models.Chapter
	if err := conn.Select("id").Where("manga_id = ? AND number < ?", chapter.MangaID, chapter.Number).
		Order("number DESC").Limit(1).Find(&prev).Error; err == nil && prev.ID != 0 {
		detail.PrevChapter = &prev.ID
	}
	if err := conn.Select("id").Where("manga_id = ? AND number > ?", chapter.MangaID, chapter.Number).
		Order("number ASC").Limit(1).Find(&next).Error; err == nil && next.ID != 0 {
		detail.NextChapter = &next.ID
	}
	return detail, nil
}

// CreateChapterInput 新章节
type CreateChapterInput struct {
	MangaID       uint
	Number        float64
	Title         string
	Description   string
	CoverImageURL string
	PageURLs      []string
}

// CreateChapter stores a chapter with its pages and tells every user who
// bookmarked the manga. The whole write is one transaction, re-run on
// transient connection failures.
func (s *Service) CreateChapter(ctx context.Context, in CreateChapterInput) (*models.Chapter, error) {
	var pages []string
	for _, u := range in.PageURLs {
		if u = strings.TrimSpace(u); u != "" {
			pages = append(pages, u)
		}
	}
	if len(pages) == 0 {
		return nil, ErrNoPages
	}

	var chapter *models.Chapter
	var recipients []uint
	err := db.WithRetry(ctx, s.db, s.maxRetries, func(tx *gorm.DB) error {
		var manga models.Manga
		if err := tx.First(&manga, in.MangaID).Error; err != nil {
			return notFound(err, ErrMangaNotFound, "load manga")
		}

		now := time.Now()
		chapter = &models.Chapter{
			MangaID:       manga.ID,
			Number:        in.Number,
			Title:         in.Title,
			Description:   in.Description,
			CoverImageURL: in.CoverImageURL,
			ReleasedAt:    now,
		}
		if err := tx.Create(chapter).Error; err != nil {
			return errors.Wrap(err, "create chapter")
		}

		rows := make([]models.ChapterPage, 0, len(pages))
		for i, u := range pages {
			rows = append(rows, models.ChapterPage{ChapterID: chapter.ID, PageNumber: i + 1, ImageURL: u})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return errors.Wrap(err, "create chapter pages")
		}
		chapter.Pages = rows

		if err := tx.Model(&manga).Updates(map[string]interface{}{
			"updated_at":        now,
			"last_chapter_date": now,
		}).Error; err != nil {
			return errors.Wrap(err, "touch manga")
		}

		recipients = recipients[:0]
		if err := tx.Model(&models.Bookmark{}).Where("manga_id = ?", manga.ID).
			Pluck("user_id", &recipients).Error; err != nil {
			return errors.Wrap(err, "load bookmarking users")
		}
		message := fmt.Sprintf("New chapter released: %s - Ch. %s", manga.Title, chapter.Label())
		for _, uid := range recipients {
			if err := Notify(tx, uid, models.NotificationComic, message, NotificationRefs{
				MangaID:   &manga.ID,
				ChapterID: &chapter.ID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"manga_id":   in.MangaID,
		"chapter_id": chapter.ID,
		"pages":      len(pages),
		"notified":   len(recipients),
	}).Info("Chapter created")
	s.counter.Invalidate(ctx, recipients...)
	return chapter, nil
}

// Progress 用户等级进度
type Progress struct {
	Level       int `json:"level"`
	XP          int `json:"xp"`
	NextLevelXP int `json:"next_level_xp"`
	Percent     int `json:"percent"`
}

// GetProgress returns the user's level, XP and the XP the next level needs.
func (s *Service) GetProgress(ctx context.Context, userID uint) (*Progress, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Select("id", "xp", "level").First(&user, userID).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound, "load user")
	}
	return &Progress{
		Level:       user.Level,
		XP:          user.XP,
		NextLevelXP: utils.XPThreshold(user.Level),
		Percent:     utils.LevelProgress(user.XP, user.Level),
	}, nil
}
