package services

import (
	"context"
	"math"

	"mangareader/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RatingSummary 评分结果
type RatingSummary struct {
	Average    float64 `json:"average"`
	UserRating int     `json:"user_rating"`
	Count      int64   `json:"count"`
}

// RateManga stores the user's 1..5 rating and refreshes the manga's
// aggregate, kept as round(average*10).
func (s *Service) RateManga(ctx context.Context, userID, mangaID uint, rating int) (*RatingSummary, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrRatingOutOfRange
	}

	summary := &RatingSummary{UserRating: rating}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var manga models.Manga
		if err := tx.Select("id").First(&manga, mangaID).Error; err != nil {
			return notFound(err, ErrMangaNotFound, "load manga")
		}

		row := models.Rating{UserID: userID, MangaID: mangaID, Rating: rating}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "manga_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "updated_at"}),
		}).Create(&row).Error; err != nil {
			return errors.Wrap(err, "save rating")
		}

		var agg struct {
			Avg   float64
			Count int64
		}
		if err := tx.Model(&models.Rating{}).Select("AVG(rating) AS avg, COUNT(*) AS count").
			Where("manga_id = ?", mangaID).Scan(&agg).Error; err != nil {
			return errors.Wrap(err, "aggregate ratings")
		}
		summary.Average = math.Round(agg.Avg*10) / 10
		summary.Count = agg.Count

		stored := int(math.Round(agg.Avg * 10))
		return errors.Wrap(tx.Model(&manga).UpdateColumn("rating", stored).Error, "update manga rating")
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}
