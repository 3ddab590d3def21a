package handlers

import (
	"mangareader/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	svc *services.Service
}

func NewUserHandler(svc *services.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

// Progress 等级进度条
func (h *UserHandler) Progress(c *gin.Context) {
	progress, err := h.svc.GetProgress(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, "", gin.H{"progress": progress})
}

func (h *UserHandler) Cosmetics(c *gin.Context) {
	items, err := h.svc.ListCosmetics(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, "", gin.H{"decorations": items.Decorations, "titles": items.Titles})
}

// equipRequest carries the item to equip; null or 0 unequips.
type equipRequest struct {
	ID *uint `json:"id"`
}

func (h *UserHandler) EquipDecoration(c *gin.Context) {
	var req equipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	if err := h.svc.EquipDecoration(c.Request.Context(), currentUser(c).ID, req.ID); err != nil {
		fail(c, err)
		return
	}
	success(c, "Decoration updated.", nil)
}

func (h *UserHandler) EquipTitle(c *gin.Context) {
	var req equipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	if err := h.svc.EquipTitle(c.Request.Context(), currentUser(c).ID, req.ID); err != nil {
		fail(c, err)
		return
	}
	success(c, "Title updated.", nil)
}

func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	var req struct {
		HideReadingList bool `json:"hide_reading_list"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	if err := h.svc.UpdatePreferences(c.Request.Context(), currentUser(c).ID, req.HideReadingList); err != nil {
		fail(c, err)
		return
	}
	success(c, "Preferences saved.", nil)
}

func (h *UserHandler) ToggleFollowChangelog(c *gin.Context) {
	following, err := h.svc.ToggleFollowChangelog(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	message := "You will no longer be notified about updates."
	if following {
		message = "You will be notified about updates."
	}
	success(c, message, gin.H{"following": following})
}
