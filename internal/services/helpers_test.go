package services

import (
	"testing"

	"mangareader/internal/db"
	"mangareader/internal/models"
	"mangareader/internal/utils"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestService 每个测试一个独立的内存库
func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	return newTestServiceWith(t, Options{})
}

// newTestServiceWith opens a fresh database and applies opts on top of a
// private local cache.
func newTestServiceWith(t *testing.T, opts Options) (*Service, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	opts.Cache = utils.NewLocalCache(100)
	return New(conn, opts), conn
}

func createUser(t *testing.T, conn *gorm.DB, username string) *models.User {
	t.Helper()
	u := models.NewUser(username, "hash")
	if err := conn.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func setLevel(t *testing.T, conn *gorm.DB, userID uint, level, xp int) {
	t.Helper()
	if err := conn.Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{"level": level, "xp": xp}).Error; err != nil {
		t.Fatalf("set level: %v", err)
	}
}

func reloadUser(t *testing.T, conn *gorm.DB, userID uint) models.User {
	t.Helper()
	var u models.User
	if err := conn.First(&u, userID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	return u
}

func createChapter(t *testing.T, conn *gorm.DB, title string, number float64) *models.Chapter {
	t.Helper()
	manga := models.Manga{Title: title, Status: "Ongoing"}
	if err := conn.Create(&manga).Error; err != nil {
		t.Fatalf("create manga: %v", err)
	}
	return addChapter(t, conn, manga.ID, number)
}

func addChapter(t *testing.T, conn *gorm.DB, mangaID uint, number float64) *models.Chapter {
	t.Helper()
	ch := models.Chapter{MangaID: mangaID, Number: number}
	if err := conn.Create(&ch).Error; err != nil {
		t.Fatalf("create chapter: %v", err)
	}
	return &ch
}

func notificationsFor(t *testing.T, conn *gorm.DB, userID uint) []models.Notification {
	t.Helper()
	var list []models.Notification
	if err := conn.Where("user_id = ?", userID).Order("id").Find(&list).Error; err != nil {
		t.Fatalf("load notifications: %v", err)
	}
	return list
}

func uintPtr(v uint) *uint {
	return &v
}
