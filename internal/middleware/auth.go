package middleware

import (
	"net/http"

	"mangareader/internal/models"
	"mangareader/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const CheckUserKey = "user"
const UnreadCountKey = "unread_count"

// SessionUserKey is the session field holding the logged-in user id.
const SessionUserKey = "user_id"

// AuthRequired ensures a user is logged in
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(CheckUserKey); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": services.ErrUnauthorized.Error(),
			})
			return
		}
		c.Next()
	}
}

// StaffRequired 管理员或副管理员
func StaffRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.IsStaff() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": services.ErrPermissionDenied.Error(),
			})
			return
		}
		c.Next()
	}
}

// AdminRequired 仅管理员
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": services.ErrPermissionDenied.Error(),
			})
			return
		}
		c.Next()
	}
}

// LoadUser retrieves user from session and sets to context. Inactive or
// deleted accounts are dropped from the session and treated as anonymous.
func LoadUser(svc *services.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(SessionUserKey).(uint)

		if ok && userID != 0 {
			user, err := svc.GetActiveUser(c.Request.Context(), userID)
			switch {
			case err == nil:
				c.Set(CheckUserKey, user)

				// Fetch Unread Notification Count
				if count, err := svc.UnreadCount(c.Request.Context(), user.ID); err == nil {
					c.Set(UnreadCountKey, count)
				}
			case err == services.ErrUnauthorized:
				session.Delete(SessionUserKey)
				if err := session.Save(); err != nil {
					logrus.WithError(err).Warn("Failed to clear stale session")
				}
			default:
				logrus.WithField("user_id", userID).WithError(err).Error("Failed to load session user")
			}
		}
		c.Next()
	}
}

// CurrentUser returns the logged-in user or nil.
func CurrentUser(c *gin.Context) *models.User {
	if u, exists := c.Get(CheckUserKey); exists {
		if user, ok := u.(*models.User); ok {
			return user
		}
	}
	return nil
}
