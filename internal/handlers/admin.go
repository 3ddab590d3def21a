package handlers

import (
	"mangareader/internal/models"
	"mangareader/internal/services"

	"github.com/gin-gonic/gin"
)

// AdminHandler 后台管理，路由层负责 StaffRequired / AdminRequired
type AdminHandler struct {
	svc *services.Service
}

func NewAdminHandler(svc *services.Service) *AdminHandler {
	return &AdminHandler{svc: svc}
}

type createMangaRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"max=1000"`
	ImageURL    string `json:"image_url" binding:"omitempty,url"`
	BannerURL   string `json:"banner_url" binding:"omitempty,url"`
	Author      string `json:"author"`
	Artist      string `json:"artist"`
	Status      string `json:"status" binding:"omitempty,oneof=Ongoing Completed Hiatus"`
	Type        string `json:"type"`
	Genre       string `json:"genre"`
	IsFeatured  bool   `json:"is_featured"`
}

func (h *AdminHandler) CreateManga(c *gin.Context) {
	var req createMangaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}

	manga := &models.Manga{
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		BannerURL:   req.BannerURL,
		Author:      req.Author,
		Artist:      req.Artist,
		Status:      req.Status,
		Type:        req.Type,
		Genre:       req.Genre,
		IsFeatured:  req.IsFeatured,
	}
	if err := h.svc.CreateManga(c.Request.Context(), manga); err != nil {
		fail(c, err)
		return
	}
	success(c, "Manga created.", gin.H{"manga": manga})
}

func (h *AdminHandler) CreateChapter(c *gin.Context) {
	mangaID, valid := idParam(c, "id")
	if !valid {
		return
	}
	var req struct {
		Number        float64  `json:"number" binding:"gte=0"`
		Title         string   `json:"title" binding:"max=300"`
		Description   string   `json:"description" binding:"max=1000"`
		CoverImageURL string   `json:"cover_image_url"`
		Pages         []string `json:"pages" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}

	chapter, err := h.svc.CreateChapter(c.Request.Context(), services.CreateChapterInput{
		MangaID:       mangaID,
		Number:        req.Number,
		Title:         req.Title,
		Description:   req.Description,
		CoverImageURL: req.CoverImageURL,
		PageURLs:      req.Pages,
	})
	if err != nil {
		fail(c, err)
		return
	}
	success(c, "Chapter published.", gin.H{"chapter": chapter})
}

type awardRequest struct {
	UserID uint `json:"user_id" binding:"required"`
	ItemID uint `json:"item_id" binding:"required"`
}

// AwardDecoration 手动发放装饰，不受等级与锁定限制
func (h *AdminHandler) AwardDecoration(c *gin.Context) {
	var req awardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	if err := h.svc.AwardDecoration(c.Request.Context(), req.UserID, req.ItemID); err != nil {
		fail(c, err)
		return
	}
	success(c, "Decoration awarded.", nil)
}

func (h *AdminHandler) AwardTitle(c *gin.Context) {
	var req awardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	if err := h.svc.AwardTitle(c.Request.Context(), req.UserID, req.ItemID); err != nil {
		fail(c, err)
		return
	}
	success(c, "Title awarded.", nil)
}

func (h *AdminHandler) SetUserActive(c *gin.Context) {
	userID, valid := idParam(c, "id")
	if !valid {
		return
	}
	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	if err := h.svc.SetUserActive(c.Request.Context(), currentUser(c), userID, *req.Active); err != nil {
		fail(c, err)
		return
	}
	success(c, "User updated.", nil)
}

func (h *AdminHandler) Settings(c *gin.Context) {
	success(c, "", gin.H{"settings": h.svc.Settings(c.Request.Context())})
}

func (h *AdminHandler) UpdateSetting(c *gin.Context) {
	var req struct {
		Key   string `json:"key" binding:"required"`
		Value string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	if err := h.svc.UpdateSetting(c.Request.Context(), req.Key, req.Value); err != nil {
		fail(c, err)
		return
	}
	success(c, "Setting saved.", nil)
}

// CreateChangelog 发布更新日志并通知关注者
func (h *AdminHandler) CreateChangelog(c *gin.Context) {
	var req struct {
		Title   string `json:"title" binding:"required,max=200"`
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}

	entry, notified, err := h.svc.CreateChangelog(c.Request.Context(), req.Title, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, "Changelog published.", gin.H{"entry": entry, "notified": notified})
}
