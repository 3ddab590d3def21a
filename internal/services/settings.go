package services

import (
	"context"
	"strings"
	"time"

	"mangareader/internal/models"
	"mangareader/internal/utils"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm/clause"
)

// 站点开关
const (
	SettingEnableDecorations = "EnableDecorations"
	SettingEnableTitles      = "EnableTitles"
)

var settingDefaults = map[string]string{
	SettingEnableDecorations: "true",
	SettingEnableTitles:      "true",
}

const settingsCacheTTL = 5 * time.Minute

func settingCacheKey(key string) string {
	return "setting:" + key
}

// Setting returns a site setting. A missing row, a missing table or any
// read failure yields the default so a partially migrated schema degrades
// instead of failing the request.
func (s *Service) Setting(ctx context.Context, key string) string {
	if v, ok := utils.Lookup[string](s.cache, settingCacheKey(key)); ok {
		return v
	}

	value := settingDefaults[key]
	var row models.SiteSetting
	err := s.db.WithContext(ctx).Where(&models.SiteSetting{Key: key}).Limit(1).Find(&row).Error
	switch {
	case err != nil:
		logrus.WithField("key", key).WithError(err).Warn("Failed to read site setting, using default")
		return value
	case row.Key != "":
		value = row.Value
	}

	s.cache.Set(settingCacheKey(key), value, settingsCacheTTL)
	return value
}

// SettingEnabled interprets a setting as a boolean switch.
func (s *Service) SettingEnabled(ctx context.Context, key string) bool {
	return strings.EqualFold(s.Setting(ctx, key), "true")
}

// Settings 返回所有已知开关的当前值
func (s *Service) Settings(ctx context.Context) map[string]string {
	out := make(map[string]string, len(settingDefaults))
	for key := range settingDefaults {
		out[key] = s.Setting(ctx, key)
	}
	return out
}

// UpdateSetting upserts a known setting and drops its cached value.
func (s *Service) UpdateSetting(ctx context.Context, key, value string) error {
	if _, ok := settingDefaults[key]; !ok {
		return ErrUnknownSetting
	}
	row := models.SiteSetting{Key: key, Value: value}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&row).Error; err != nil {
		return errors.Wrap(err, "update site setting")
	}
	s.cache.Delete(settingCacheKey(key))
	return nil
}
