package handlers

import (
	"mangareader/internal/models"
	"mangareader/internal/services"

	"github.com/gin-gonic/gin"
)

type BookmarkHandler struct {
	svc *services.Service
}

func NewBookmarkHandler(svc *services.Service) *BookmarkHandler {
	return &BookmarkHandler{svc: svc}
}

// Set 加入书架或修改阅读状态
func (h *BookmarkHandler) Set(c *gin.Context) {
	mangaID, valid := idParam(c, "id")
	if !valid {
		return
	}
	var req struct {
		Status models.BookmarkStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}

	bookmark, err := h.svc.SetBookmark(c.Request.Context(), currentUser(c).ID, mangaID, req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, "Bookmark saved.", gin.H{"bookmark": bookmark})
}

func (h *BookmarkHandler) Remove(c *gin.Context) {
	mangaID, valid := idParam(c, "id")
	if !valid {
		return
	}
	if err := h.svc.RemoveBookmark(c.Request.Context(), currentUser(c).ID, mangaID); err != nil {
		fail(c, err)
		return
	}
	success(c, "Bookmark removed.", nil)
}

// List shows a user's reading list unless they hid it.
func (h *BookmarkHandler) List(c *gin.Context) {
	ownerID, valid := idParam(c, "id")
	if !valid {
		return
	}
	var viewerID uint
	if user := currentUser(c); user != nil {
		viewerID = user.ID
	}

	bookmarks, err := h.svc.ListBookmarks(c.Request.Context(), viewerID, ownerID)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, "", gin.H{"bookmarks": bookmarks})
}
