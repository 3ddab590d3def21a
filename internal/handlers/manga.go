package handlers

import (
	"fmt"

	"mangareader/internal/services"
	"mangareader/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type MangaHandler struct {
	svc *services.Service
}

func NewMangaHandler(svc *services.Service) *MangaHandler {
	return &MangaHandler{svc: svc}
}

// List 作品目录，?q= 按标题搜索
func (h *MangaHandler) List(c *gin.Context) {
	page := utils.StringToInt(c.DefaultQuery("page", "1"))
	size := utils.StringToInt(c.DefaultQuery("page_size", "24"))
	result, err := h.svc.ListMangas(c.Request.Context(), c.Query("q"), page, size)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, "", gin.H{"mangas": result})
}

func (h *MangaHandler) Detail(c *gin.Context) {
	mangaID, valid := idParam(c, "id")
	if !valid {
		return
	}
	manga, err := h.svc.GetManga(c.Request.Context(), mangaID)
	if err != nil {
		fail(c, err)
		return
	}

	extra := gin.H{"manga": manga}
	if user := currentUser(c); user != nil {
		bookmark, err := h.svc.GetBookmark(c.Request.Context(), user.ID, mangaID)
		if err != nil {
			fail(c, err)
			return
		}
		extra["bookmark"] = bookmark
	}
	success(c, "", extra)
}

// Read returns a chapter and records the view. Logged-in readers earn XP
// on their first view; anonymous readers count once per session.
func (h *MangaHandler) Read(c *gin.Context) {
	chapterID, valid := idParam(c, "id")
	if !valid {
		return
	}
	ctx := c.Request.Context()

	detail, err := h.svc.GetChapter(ctx, chapterID)
	if err != nil {
		fail(c, err)
		return
	}

	extra := gin.H{"chapter": detail.Chapter, "prev_chapter_id": detail.PrevChapter, "next_chapter_id": detail.NextChapter}
	if user := currentUser(c); user != nil {
		view, err := h.svc.RecordView(ctx, user.ID, chapterID)
		if err != nil {
			fail(c, err)
			return
		}
		extra["xp_awarded"] = view.XPAwarded
		if view.LevelUp.Leveled() {
			extra["new_level"] = view.LevelUp.NewLevel
		}
	} else {
		session := sessions.Default(c)
		key := fmt.Sprintf("viewed_chapter_%d", chapterID)
		if session.Get(key) == nil {
			if err := h.svc.RecordAnonymousView(ctx, chapterID); err != nil {
				logrus.WithField("chapter_id", chapterID).WithError(err).Warn("Failed to count anonymous view")
			} else {
				session.Set(key, true)
				session.Save()
			}
		}
	}
	success(c, "", extra)
}

func (h *MangaHandler) Rate(c *gin.Context) {
	mangaID, valid := idParam(c, "id")
	if !valid {
		return
	}
	var req struct {
		Rating int `json:"rating"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}

	summary, err := h.svc.RateManga(c.Request.Context(), currentUser(c).ID, mangaID, req.Rating)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, "Thanks for rating!", gin.H{
		"average":     summary.Average,
		"user_rating": summary.UserRating,
		"count":       summary.Count,
	})
}

// Changelog 更新日志，公开
func (h *MangaHandler) Changelog(c *gin.Context) {
	entries, err := h.svc.ListChangelog(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	success(c, "", gin.H{"changelog": entries})
}
