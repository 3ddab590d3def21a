package main

import (
	"context"
	"time"

	"mangareader/internal/cache"
	"mangareader/internal/config"
	"mangareader/internal/db"
	"mangareader/internal/middleware"
	"mangareader/internal/router"
	"mangareader/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	cfg.SetupLogger()
	gin.SetMode(cfg.GinMode)

	// Initialize Database
	db.Init(cfg.DatabaseURL)

	// 未读数缓存可选，Redis 不可用时直接查库
	counter := cache.NewUnreadCounter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if counter != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := counter.Ping(ctx); err != nil {
			logrus.WithError(err).Warn("Redis unavailable, unread counts will not be cached")
			counter.Close()
			counter = nil
		}
		cancel()
	}
	defer counter.Close()

	svc := services.New(db.DB, services.Options{
		Counter:           counter,
		NotificationLimit: cfg.NotificationLimit,
		MaxRetries:        cfg.DBMaxRetries,
	})

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	// Setup Sessions
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 86400 * 30, HttpOnly: true})
	r.Use(sessions.Sessions("mangareader_session", store))

	r.Use(middleware.LoadUser(svc))
	router.RegisterRoutes(r, svc)

	logrus.Infof("Manga reader starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		logrus.Fatal(err)
	}
}
