package services

import (
	"context"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"mangareader/internal/models"
	"mangareader/internal/utils"

	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MaxCommentLength 评论最大字符数（按 rune 计）
const MaxCommentLength = 1000

const commentsCacheTTL = time.Minute

// PostCommentInput is the request to add a comment to a chapter. ParentID
// may point at any comment of the chapter, root or reply.
type PostCommentInput struct {
	ChapterID uint
	UserID    uint
	Content   string
	ParentID  *uint
}

// PostCommentResult reports what posting a comment caused.
type PostCommentResult struct {
	Comment     *models.Comment
	XPAwarded   int
	LevelUp     *LevelUp
	NotifiedID  *uint // recipient of the reply notification, if any
	RootComment *models.Comment
}

// CommentAuthor 评论作者的展示信息
type CommentAuthor struct {
	ID                 uint               `json:"id"`
	Username           string             `json:"username"`
	AvatarURL          string             `json:"avatar_url"`
	Level              int                `json:"level"`
	EquippedTitle      *models.Title      `json:"equipped_title,omitempty"`
	EquippedDecoration *models.Decoration `json:"equipped_decoration,omitempty"`
}

// CommentView is a comment as shown under a chapter.
type CommentView struct {
	ID                uint          `json:"id"`
	ChapterID         uint          `json:"chapter_id"`
	ParentID          *uint         `json:"parent_id"`
	Content           string        `json:"content"`
	ContentHTML       template.HTML `json:"content_html"`
	CreatedAt         time.Time     `json:"created_at"`
	Author            CommentAuthor `json:"author"`
	RepliedToUsername string        `json:"replied_to_username,omitempty"`
	Likes             int64         `json:"likes"`
	Dislikes          int64         `json:"dislikes"`
}

// CommentThread is a root comment with its flattened replies.
type CommentThread struct {
	CommentView
	Replies []CommentView `json:"replies"`
}

// ValidateContent trims content and enforces the length bounds.
func ValidateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrContentEmpty
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return "", ErrContentTooLong
	}
	return content, nil
}

// ResolveThread returns where a reply to target attaches and whom it
// addresses. Replies to replies attach to the original root so nesting
// never exceeds one level; the addressed user is always the target's author.
func ResolveThread(target *models.Comment) (parentID uint, repliedToUserID uint) {
	if target.ParentID != nil {
		return *target.ParentID, target.UserID
	}
	return target.ID, target.UserID
}

// ReplyRecipient picks at most one user to notify about a new comment.
// The addressed user wins when it is someone else; otherwise the root author
// is told about activity in their thread.
func ReplyRecipient(posterID uint, repliedToUserID *uint, rootAuthorID *uint) (recipient uint, toRoot bool, ok bool) {
	if repliedToUserID != nil && *repliedToUserID != posterID {
		return *repliedToUserID, false, true
	}
	if rootAuthorID != nil && *rootAuthorID != posterID &&
		(repliedToUserID == nil || *rootAuthorID != *repliedToUserID) {
		return *rootAuthorID, true, true
	}
	return 0, false, false
}

func commentsCacheKey(chapterID uint) string {
	return fmt.Sprintf("comments:chapter:%d", chapterID)
}

// PostComment validates, flattens and stores a comment, then awards
// first-activity XP and emits the reply notification. XP and notification
// failures are logged and do not undo the comment.
func (s *Service) PostComment(ctx context.Context, in PostCommentInput) (*PostCommentResult, error) {
	if in.UserID == 0 {
		return nil, ErrUnauthorized
	}
	content, err := ValidateContent(in.Content)
	if err != nil {
		return nil, err
	}

	result := &PostCommentResult{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var author models.User
		if err := tx.Select("id", "username").First(&author, in.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnauthorized
			}
			return errors.Wrap(err, "load comment author")
		}

		var chapter models.Chapter
		if err := tx.Preload("Manga").First(&chapter, in.ChapterID).Error; err != nil {
			return notFound(err, ErrChapterNotFound, "load chapter")
		}

		comment := &models.Comment{
			ChapterID: chapter.ID,
			UserID:    in.UserID,
			Content:   content,
		}

		if in.ParentID != nil {
			var target models.Comment
			if err := tx.First(&target, *in.ParentID).Error; err != nil {
				return notFound(err, ErrCommentNotFound, "load parent comment")
			}
			if target.ChapterID != chapter.ID {
				return ErrInvalidParent
			}
			parentID, repliedTo := ResolveThread(&target)
			comment.ParentID = &parentID
			comment.RepliedToUserID = &repliedTo

			if target.ParentID == nil {
				result.RootComment = &target
			} else {
				var root models.Comment
				if err := tx.First(&root, parentID).Error; err != nil {
					return notFound(err, ErrCommentNotFound, "load root comment")
				}
				result.RootComment = &root
			}
		}

		// 先判断资格，再写入，避免把本条算作"之前的"评论
		eligible, err := firstActivityEligible(tx, comment)
		if err != nil {
			return err
		}

		if err := tx.Create(comment).Error; err != nil {
			return errors.Wrap(err, "create comment")
		}
		result.Comment = comment

		if eligible {
			action := ActionRootComment
			if comment.IsReply() {
				action = ActionReply
			}
			amount := CommentXP(content)
			if up := tryAwardXP(tx, in.UserID, amount, action); up != nil {
				result.XPAwarded = amount
				result.LevelUp = up
			}
		}

		result.NotifiedID = notifyCommentBestEffort(tx, comment, &author, &chapter, result.RootComment)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Delete(commentsCacheKey(in.ChapterID))
	if result.NotifiedID != nil {
		s.counter.Invalidate(ctx, *result.NotifiedID)
	}
	if result.LevelUp.Leveled() {
		s.counter.Invalidate(ctx, in.UserID)
	}
	return result, nil
}

// firstActivityEligible decides XP for a comment that is not stored yet.
// Roots earn XP once per user and chapter. Replies earn XP once per user
// and chapter, never for addressing oneself.
func firstActivityEligible(tx *gorm.DB, c *models.Comment) (bool, error) {
	var count int64
	if !c.IsReply() {
		if err := tx.Model(&models.Comment{}).
			Where("chapter_id = ? AND user_id = ? AND parent_id IS NULL", c.ChapterID, c.UserID).
			Count(&count).Error; err != nil {
			return false, errors.Wrap(err, "count prior root comments")
		}
		return count == 0, nil
	}

	if c.RepliedToUserID != nil && *c.RepliedToUserID == c.UserID {
		return false, nil
	}
	if err := tx.Model(&models.Comment{}).
		Where("chapter_id = ? AND user_id = ? AND parent_id IS NOT NULL AND replied_to_user_id <> ?",
			c.ChapterID, c.UserID, c.UserID).
		Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "count prior replies")
	}
	return count == 0, nil
}

func notifyCommentBestEffort(tx *gorm.DB, c *models.Comment, author *models.User, chapter *models.Chapter, root *models.Comment) *uint {
	var rootAuthor *uint
	if root != nil {
		rootAuthor = &root.UserID
	}
	recipient, toRoot, ok := ReplyRecipient(c.UserID, c.RepliedToUserID, rootAuthor)
	if !ok {
		return nil
	}

	mangaTitle := ""
	if chapter.Manga != nil {
		mangaTitle = chapter.Manga.Title
	}
	message := fmt.Sprintf("%s replied to your comment on %s - Ch. %s", author.Username, mangaTitle, chapter.Label())
	if toRoot {
		message = fmt.Sprintf("%s commented on your post on %s - Ch. %s", author.Username, mangaTitle, chapter.Label())
	}

	refs := NotificationRefs{
		MangaID:       &chapter.MangaID,
		ChapterID:     &chapter.ID,
		CommentID:     &c.ID,
		TriggerUserID: &c.UserID,
	}
	err := tx.Transaction(func(sp *gorm.DB) error {
		return Notify(sp, recipient, models.NotificationCommunity, message, refs)
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"comment_id": c.ID,
			"recipient":  recipient,
		}).WithError(err).Error("Failed to send reply notification")
		return nil
	}
	return &recipient
}

// UpdateComment 修改评论内容，本人或管理员
func (s *Service) UpdateComment(ctx context.Context, actor *models.User, commentID uint, content string) (*models.Comment, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	content, err := ValidateContent(content)
	if err != nil {
		return nil, err
	}

	var comment models.Comment
	if err := s.db.WithContext(ctx).First(&comment, commentID).Error; err != nil {
		return nil, notFound(err, ErrCommentNotFound, "load comment")
	}
	if comment.UserID != actor.ID && !actor.IsStaff() {
		return nil, ErrPermissionDenied
	}

	if err := s.db.WithContext(ctx).Model(&comment).Update("content", content).Error; err != nil {
		return nil, errors.Wrap(err, "update comment")
	}
	s.cache.Delete(commentsCacheKey(comment.ChapterID))
	return &comment, nil
}

// DeleteComment removes a comment and its reactions. A root that still has
// replies cannot be deleted, so replies are never orphaned. Notifications
// that pointed at the comment keep their text but lose the reference.
func (s *Service) DeleteComment(ctx context.Context, actor *models.User, commentID uint) error {
	if actor == nil {
		return ErrUnauthorized
	}
	var chapterID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.First(&comment, commentID).Error; err != nil {
			return notFound(err, ErrCommentNotFound, "load comment")
		}
		if comment.UserID != actor.ID && !actor.IsStaff() {
			return ErrPermissionDenied
		}
		chapterID = comment.ChapterID

		if !comment.IsReply() {
			var replies int64
			if err := tx.Model(&models.Comment{}).Where("parent_id = ?", comment.ID).Count(&replies).Error; err != nil {
				return errors.Wrap(err, "count replies")
			}
			if replies > 0 {
				return ErrCommentHasReplies
			}
		}

		if err := tx.Where("comment_id = ?", comment.ID).Delete(&models.Reaction{}).Error; err != nil {
			return errors.Wrap(err, "delete reactions")
		}
		if err := tx.Model(&models.Notification{}).Where("related_comment_id = ?", comment.ID).
			Update("related_comment_id", nil).Error; err != nil {
			return errors.Wrap(err, "clear notification references")
		}
		if err := tx.Delete(&comment).Error; err != nil {
			return errors.Wrap(err, "delete comment")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.cache.Delete(commentsCacheKey(chapterID))
	return nil
}

// BuildThreads groups flat comments into threads: roots newest first, each
// root's replies oldest first. Replies whose root is absent are dropped.
func BuildThreads(comments []CommentView) []CommentThread {
	var roots []CommentView
	replies := make(map[uint][]CommentView)
	for _, c := range comments {
		if c.ParentID == nil {
			roots = append(roots, c)
		} else {
			replies[*c.ParentID] = append(replies[*c.ParentID], c)
		}
	}

	sort.SliceStable(roots, func(i, j int) bool {
		if roots[i].CreatedAt.Equal(roots[j].CreatedAt) {
			return roots[i].ID > roots[j].ID
		}
		return roots[i].CreatedAt.After(roots[j].CreatedAt)
	})

	threads := make([]CommentThread, 0, len(roots))
	for _, root := range roots {
		rs := replies[root.ID]
		sort.SliceStable(rs, func(i, j int) bool {
			if rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
				return rs[i].ID < rs[j].ID
			}
			return rs[i].CreatedAt.Before(rs[j].CreatedAt)
		})
		if rs == nil {
			rs = []CommentView{}
		}
		threads = append(threads, CommentThread{CommentView: root, Replies: rs})
	}
	return threads
}

type reactionCount struct {
	CommentID uint
	Likes     int64
	Dislikes  int64
}

// ListChapterComments returns the threads of a chapter with reaction counts,
// author profiles and rendered markdown. Only the comment shape is cached;
// author level and cosmetics are read fresh so equips and site switches show
// up immediately.
func (s *Service) ListChapterComments(ctx context.Context, chapterID uint) ([]CommentThread, error) {
	threads, err := utils.Fetch(s.cache, commentsCacheKey(chapterID), commentsCacheTTL, func() ([]CommentThread, error) {
		return s.loadChapterThreads(ctx, chapterID)
	})
	if err != nil {
		return nil, err
	}
	return s.withAuthors(ctx, threads)
}

func (s *Service) loadChapterThreads(ctx context.Context, chapterID uint) ([]CommentThread, error) {
	conn := s.db.WithContext(ctx)
	var count int64
	if err := conn.Model(&models.Chapter{}).Where("id = ?", chapterID).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "check chapter")
	}
	if count == 0 {
		return nil, ErrChapterNotFound
	}

	var rows []models.Comment
	if err := conn.
		Preload("RepliedToUser", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "username")
		}).
		Where("chapter_id = ?", chapterID).
		Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list comments")
	}

	ids := make([]uint, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	counts := make(map[uint]reactionCount)
	if len(ids) > 0 {
		var rc []reactionCount
		if err := conn.Model(&models.Reaction{}).
			Select("comment_id, SUM(CASE WHEN is_like THEN 1 ELSE 0 END) AS likes, SUM(CASE WHEN is_like THEN 0 ELSE 1 END) AS dislikes").
			Where("comment_id IN ?", ids).
			Group("comment_id").
			Scan(&rc).Error; err != nil {
			return nil, errors.Wrap(err, "count reactions")
		}
		for _, c := range rc {
			counts[c.CommentID] = c
		}
	}

	views := make([]CommentView, 0, len(rows))
	for _, r := range rows {
		var v CommentView
		if err := copier.Copy(&v, &r); err != nil {
			return nil, errors.Wrap(err, "project comment")
		}
		v.ContentHTML = utils.RenderMarkdown(r.Content)
		v.Author = CommentAuthor{ID: r.UserID}
		if r.RepliedToUser != nil {
			v.RepliedToUsername = r.RepliedToUser.Username
		}
		v.Likes = counts[r.ID].Likes
		v.Dislikes = counts[r.ID].Dislikes
		views = append(views, v)
	}
	return BuildThreads(views), nil
}

// withAuthors copies the cached threads and fills in each author's current
// profile, hiding cosmetics the site has switched off.
func (s *Service) withAuthors(ctx context.Context, cached []CommentThread) ([]CommentThread, error) {
	seen := make(map[uint]bool)
	var ids []uint
	for _, th := range cached {
		for _, v := range append([]CommentView{th.CommentView}, th.Replies...) {
			if !seen[v.Author.ID] {
				seen[v.Author.ID] = true
				ids = append(ids, v.Author.ID)
			}
		}
	}

	authors := make(map[uint]CommentAuthor, len(ids))
	if len(ids) > 0 {
		var users []models.User
		if err := s.db.WithContext(ctx).
			Select("id", "username", "avatar_url", "level", "equipped_title_id", "equipped_decoration_id").
			Preload("EquippedTitle").
			Preload("EquippedDecoration").
			Where("id IN ?", ids).
			Find(&users).Error; err != nil {
			return nil, errors.Wrap(err, "load comment authors")
		}

		showTitles := s.SettingEnabled(ctx, SettingEnableTitles)
		showDecorations := s.SettingEnabled(ctx, SettingEnableDecorations)
		for i := range users {
			var a CommentAuthor
			if err := copier.Copy(&a, &users[i]); err != nil {
				return nil, errors.Wrap(err, "project comment author")
			}
			if !showTitles {
				a.EquippedTitle = nil
			}
			if !showDecorations {
				a.EquippedDecoration = nil
			}
			authors[a.ID] = a
		}
	}

	author := func(v CommentView) CommentView {
		if a, ok := authors[v.Author.ID]; ok {
			v.Author = a
		}
		return v
	}
	out := make([]CommentThread, 0, len(cached))
	for _, th := range cached {
		replies := make([]CommentView, 0, len(th.Replies))
		for _, r := range th.Replies {
			replies = append(replies, author(r))
		}
		out = append(out, CommentThread{CommentView: author(th.CommentView), Replies: replies})
	}
	return out, nil
}
