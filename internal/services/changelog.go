package services

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"mangareader/internal/models"
	"mangareader/internal/utils"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ChangelogView 更新日志展示
type ChangelogView struct {
	ID          uint          `json:"id"`
	Title       string        `json:"title"`
	Content     string        `json:"content"`
	ContentHTML template.HTML `json:"content_html"`
	CreatedAt   time.Time     `json:"created_at"`
}

// CreateChangelog stores an entry and sends a System notification to every
// user following the changelog, in one transaction.
func (s *Service) CreateChangelog(ctx context.Context, title, content string) (*models.ChangelogEntry, int, error) {
	title, content = strings.TrimSpace(title), strings.TrimSpace(content)
	if title == "" || content == "" {
		return nil, 0, ErrTitleRequired
	}

	entry := &models.ChangelogEntry{Title: title, Content: content}
	var followers []uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return errors.Wrap(err, "create changelog entry")
		}
		var err error
		followers, err = broadcastChangelog(tx, entry)
		return err
	})
	if err != nil {
		return nil, 0, err
	}

	logrus.WithFields(logrus.Fields{
		"changelog_id": entry.ID,
		"followers":    len(followers),
	}).Info("Changelog published")
	s.counter.Invalidate(ctx, followers...)
	return entry, len(followers), nil
}

func broadcastChangelog(tx *gorm.DB, entry *models.ChangelogEntry) ([]uint, error) {
	var followers []uint
	if err := tx.Model(&models.User{}).Where("follow_changelog = ?", true).
		Pluck("id", &followers).Error; err != nil {
		return nil, errors.Wrap(err, "load changelog followers")
	}
	if len(followers) == 0 {
		return nil, nil
	}

	message := fmt.Sprintf("New Update: %s", entry.Title)
	rows := make([]models.Notification, 0, len(followers))
	for _, id := range followers {
		rows = append(rows, models.Notification{
			UserID:  id,
			Type:    models.NotificationSystem,
			Message: message,
		})
	}
	if err := tx.CreateInBatches(&rows, 200).Error; err != nil {
		return nil, errors.Wrap(err, "broadcast changelog")
	}
	return followers, nil
}

// ListChangelog returns entries newest first with rendered markdown.
func (s *Service) ListChangelog(ctx context.Context) ([]ChangelogView, error) {
	var entries []models.ChangelogEntry
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&entries).Error; err != nil {
		return nil, errors.Wrap(err, "list changelog")
	}
	views := make([]ChangelogView, 0, len(entries))
	for _, e := range entries {
		views = append(views, ChangelogView{
			ID:          e.ID,
			Title:       e.Title,
			Content:     e.Content,
			ContentHTML: utils.RenderMarkdown(e.Content),
			CreatedAt:   e.CreatedAt,
		})
	}
	return views, nil
}
