package router

import (
	"mangareader/internal/handlers"
	"mangareader/internal/middleware"
	"mangareader/internal/services"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册全部 JSON 接口，调用方需先挂好 sessions 与 LoadUser
func RegisterRoutes(r *gin.Engine, svc *services.Service) {
	authHandler := handlers.NewAuthHandler(svc)
	mangaHandler := handlers.NewMangaHandler(svc)
	commentHandler := handlers.NewCommentHandler(svc)
	bookmarkHandler := handlers.NewBookmarkHandler(svc)
	userHandler := handlers.NewUserHandler(svc)
	notificationHandler := handlers.NewNotificationHandler(svc)
	adminHandler := handlers.NewAdminHandler(svc)

	api := r.Group("/api")

	// 公共路由 (Public Routes)
	api.GET("/mangas", mangaHandler.List)                  // 作品目录
	api.GET("/mangas/:id", mangaHandler.Detail)            // 作品详情与章节
	api.GET("/chapters/:id", mangaHandler.Read)            // 阅读章节，记录浏览
	api.GET("/chapters/:id/comments", commentHandler.List) // 章节评论
	api.GET("/users/:id/bookmarks", bookmarkHandler.List)  // 用户书架
	api.GET("/changelog", mangaHandler.Changelog)          // 更新日志

	api.POST("/signup", authHandler.Register) // 注册
	api.POST("/login", authHandler.Login)     // 登录
	api.POST("/logout", authHandler.Logout)   // 退出登录
	api.GET("/me", authHandler.Me)            // 当前用户

	// 受保护路由 (Protected Routes)
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/chapters/:id/comments", commentHandler.Create) // 发表评论或回复
		authorized.PUT("/comments/:id", commentHandler.Update)           // 编辑评论
		authorized.DELETE("/comments/:id", commentHandler.Delete)        // 删除评论
		authorized.POST("/comments/:id/react", commentHandler.React)     // 点赞/点踩

		authorized.POST("/mangas/:id/rate", mangaHandler.Rate)            // 评分
		authorized.PUT("/mangas/:id/bookmark", bookmarkHandler.Set)       // 加入书架
		authorized.DELETE("/mangas/:id/bookmark", bookmarkHandler.Remove) // 移出书架

		authorized.GET("/notifications", notificationHandler.List) // 通知列表，?tab=
		authorized.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		authorized.POST("/notifications/read-all", notificationHandler.ReadAll) // 全部标记已读
		authorized.POST("/notifications/:id/read", notificationHandler.Read)    // 标记单条已读
		authorized.DELETE("/notifications/:id", notificationHandler.Delete)     // 删除单条通知

		authorized.GET("/me/progress", userHandler.Progress)             // 等级进度
		authorized.GET("/me/cosmetics", userHandler.Cosmetics)           // 装饰与称号
		authorized.PUT("/me/decoration", userHandler.EquipDecoration)    // 佩戴装饰
		authorized.PUT("/me/title", userHandler.EquipTitle)              // 佩戴称号
		authorized.PUT("/me/preferences", userHandler.UpdatePreferences) // 隐私设置
		authorized.POST("/me/follow-changelog", userHandler.ToggleFollowChangelog)
	}

	// 管理路由 (Staff / Admin Routes)
	staff := api.Group("/admin")
	staff.Use(middleware.AuthRequired(), middleware.StaffRequired())
	{
		staff.POST("/changelog", adminHandler.CreateChangelog)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	{
		admin.POST("/mangas", adminHandler.CreateManga)
		admin.POST("/mangas/:id/chapters", adminHandler.CreateChapter)
		admin.POST("/decorations/award", adminHandler.AwardDecoration)
		admin.POST("/titles/award", adminHandler.AwardTitle)
		admin.PUT("/users/:id/active", adminHandler.SetUserActive)
		admin.GET("/settings", adminHandler.Settings)
		admin.PUT("/settings", adminHandler.UpdateSetting)
	}
}
