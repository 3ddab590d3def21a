package handlers

import (
	"fmt"

	"mangareader/internal/services"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	svc *services.Service
}

func NewCommentHandler(svc *services.Service) *CommentHandler {
	return &CommentHandler{svc: svc}
}

type commentRequest struct {
	Content  string `json:"content"`
	ParentID *uint  `json:"parent_id"`
}

// List 章节评论（树形，一层）
func (h *CommentHandler) List(c *gin.Context) {
	chapterID, valid := idParam(c, "id")
	if !valid {
		return
	}
	threads, err := h.svc.ListChapterComments(c.Request.Context(), chapterID)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, "", gin.H{"comments": threads})
}

// Create posts a root comment or a reply.
func (h *CommentHandler) Create(c *gin.Context) {
	chapterID, valid := idParam(c, "id")
	if !valid {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}

	user := currentUser(c)
	res, err := h.svc.PostComment(c.Request.Context(), services.PostCommentInput{
		ChapterID: chapterID,
		UserID:    user.ID,
		Content:   req.Content,
		ParentID:  req.ParentID,
	})
	if err != nil {
		fail(c, err)
		return
	}

	message := "Comment posted!"
	if res.XPAwarded > 0 {
		message = fmt.Sprintf("Comment posted! +%d XP", res.XPAwarded)
	}
	extra := gin.H{"comment": res.Comment, "xp_awarded": res.XPAwarded}
	if res.LevelUp.Leveled() {
		extra["new_level"] = res.LevelUp.NewLevel
	}
	success(c, message, extra)
}

func (h *CommentHandler) Update(c *gin.Context) {
	commentID, valid := idParam(c, "id")
	if !valid {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}

	comment, err := h.svc.UpdateComment(c.Request.Context(), currentUser(c), commentID, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, "Comment updated.", gin.H{"comment": comment})
}

func (h *CommentHandler) Delete(c *gin.Context) {
	commentID, valid := idParam(c, "id")
	if !valid {
		return
	}
	if err := h.svc.DeleteComment(c.Request.Context(), currentUser(c), commentID); err != nil {
		fail(c, err)
		return
	}
	success(c, "Comment deleted.", nil)
}

// React 点赞/点踩，重复提交同一种即取消
func (h *CommentHandler) React(c *gin.Context) {
	commentID, valid := idParam(c, "id")
	if !valid {
		return
	}
	var req struct {
		IsLike *bool `json:"is_like" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}

	res, err := h.svc.React(c.Request.Context(), commentID, currentUser(c).ID, *req.IsLike)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, "", gin.H{"likes": res.Likes, "dislikes": res.Dislikes, "current": res.Current})
}
