package db

import (
	"mangareader/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Init opens the postgres connection, migrates and seeds the catalog.
func Init(dsn string) {
	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}

	logrus.Info("Database connection established")

	if err := Migrate(DB); err != nil {
		logrus.Fatalf("Failed to migrate database: %v", err)
	}
	logrus.Info("Database migration completed")

	// Seed initial cosmetics
	if err := SeedCosmetics(DB); err != nil {
		logrus.WithError(err).Warn("Failed to seed cosmetics")
	}
}

// Migrate creates or updates every table the application uses.
func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&models.Decoration{},
		&models.Title{},
		&models.User{},
		&models.Manga{},
		&models.Chapter{},
		&models.ChapterPage{},
		&models.ChapterView{},
		&models.Comment{},
		&models.Reaction{},
		&models.Notification{},
		&models.UnlockedDecoration{},
		&models.UnlockedTitle{},
		&models.XPLog{},
		&models.Bookmark{},
		&models.Rating{},
		&models.ChangelogEntry{},
		&models.SiteSetting{},
	)
}

// SeedCosmetics 首次启动时写入默认挂件与称号
func SeedCosmetics(conn *gorm.DB) error {
	var count int64
	conn.Model(&models.Decoration{}).Count(&count)
	if count > 0 {
		logrus.Debug("Cosmetics already seeded, skipping")
		return nil
	}

	decorations := []models.Decoration{
		{Name: "Leaf Ring", ImageURL: "/img/decorations/leaf.png", LevelRequirement: 2},
		{Name: "Ink Splash", ImageURL: "/img/decorations/ink.png", LevelRequirement: 5},
		{Name: "Sakura Wreath", ImageURL: "/img/decorations/sakura.gif", LevelRequirement: 10, IsAnimated: true},
		{Name: "Golden Frame", ImageURL: "/img/decorations/gold.png", LevelRequirement: 20},
		{Name: "Staff Halo", ImageURL: "/img/decorations/staff.gif", LevelRequirement: 1, IsAnimated: true, IsLocked: true},
	}
	titles := []models.Title{
		{Name: "Reader", Color: "#9ca3af", LevelRequirement: 2},
		{Name: "Bookworm", Color: "#60a5fa", LevelRequirement: 5},
		{Name: "Otaku", Color: "#f472b6", LevelRequirement: 10},
		{Name: "Legend", Color: "#facc15", LevelRequirement: 20},
		{Name: "Translator", Color: "#34d399", LevelRequirement: 1, IsLocked: true},
	}

	return conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&decorations).Error; err != nil {
			return err
		}
		if err := tx.Create(&titles).Error; err != nil {
			return err
		}
		logrus.Info("Initial cosmetics created successfully")
		return nil
	})
}
