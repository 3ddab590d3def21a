package handlers

import (
	"mangareader/internal/services"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	svc *services.Service
}

func NewNotificationHandler(svc *services.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) List(c *gin.Context) {
	user := currentUser(c)
	list, err := h.svc.ListNotifications(c.Request.Context(), user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	unread, err := h.svc.UnreadCount(c.Request.Context(), user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, "", gin.H{"notifications": list, "unread_count": unread})
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	unread, err := h.svc.UnreadCount(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, "", gin.H{"unread_count": unread})
}

func (h *NotificationHandler) Read(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	if err := h.svc.MarkRead(c.Request.Context(), currentUser(c).ID, id); err != nil {
		fail(c, err)
		return
	}
	success(c, "Marked as read.", nil)
}

// ReadAll 按分组全部已读: ?tab=system|series|community，缺省为全部
func (h *NotificationHandler) ReadAll(c *gin.Context) {
	changed, err := h.svc.MarkAllRead(c.Request.Context(), currentUser(c).ID, c.DefaultQuery("tab", services.TabAll))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, "All caught up!", gin.H{"updated": changed})
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	if err := h.svc.DeleteNotification(c.Request.Context(), currentUser(c), id); err != nil {
		fail(c, err)
		return
	}
	success(c, "Notification deleted.", nil)
}
