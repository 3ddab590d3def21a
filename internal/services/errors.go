package services

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	ErrContentEmpty     = errors.New("Comment cannot be empty.")
	ErrContentTooLong   = errors.New("Comment is too long (max 1000 characters).")
	ErrInvalidParent    = errors.New("The comment you replied to belongs to another chapter.")
	ErrRatingOutOfRange = errors.New("Rating must be between 1 and 5.")
	ErrInvalidStatus    = errors.New("Unknown reading status.")
	ErrInvalidUsername  = errors.New("Username must be between 3 and 100 characters.")
	ErrPasswordTooShort = errors.New("Password must be at least 6 characters.")
	ErrTitleRequired    = errors.New("Title and content are required.")
	ErrNoPages          = errors.New("A chapter needs at least one page.")
	ErrUnknownSetting   = errors.New("Unknown site setting.")

	ErrChapterNotFound      = errors.New("Chapter not found.")
	ErrCommentNotFound      = errors.New("Comment not found.")
	ErrUserNotFound         = errors.New("User not found.")
	ErrMangaNotFound        = errors.New("Manga not found.")
	ErrDecorationNotFound   = errors.New("Decoration not found.")
	ErrTitleNotFound        = errors.New("Title not found.")
	ErrNotificationNotFound = errors.New("Notification not found.")
	ErrBookmarkNotFound     = errors.New("Bookmark not found.")

	ErrPermissionDenied = errors.New("You don't have permission to do that.")
	ErrItemLocked       = errors.New("This item is locked and you haven't unlocked it yet!")
	ErrLevelTooLow      = errors.New("Your level is too low to equip this!")
	ErrFeatureDisabled  = errors.New("This feature is currently disabled.")

	ErrAlreadyUnlocked   = errors.New("User already owns this item.")
	ErrCommentHasReplies = errors.New("Delete the replies before deleting this comment.")
	ErrUsernameTaken     = errors.New("Username is already taken.")

	ErrUnauthorized       = errors.New("Please log in.")
	ErrInvalidCredentials = errors.New("Invalid username or password.")
	ErrUnexpected         = errors.New("Something went wrong, please try again later.")
)

// ErrorMap 业务错误到 HTTP 状态码
var ErrorMap = map[error]int{
	ErrContentEmpty:     http.StatusBadRequest,
	ErrContentTooLong:   http.StatusBadRequest,
	ErrInvalidParent:    http.StatusBadRequest,
	ErrRatingOutOfRange: http.StatusBadRequest,
	ErrInvalidStatus:    http.StatusBadRequest,
	ErrInvalidUsername:  http.StatusBadRequest,
	ErrPasswordTooShort: http.StatusBadRequest,
	ErrTitleRequired:    http.StatusBadRequest,
	ErrNoPages:          http.StatusBadRequest,
	ErrUnknownSetting:   http.StatusBadRequest,

	ErrChapterNotFound:      http.StatusNotFound,
	ErrCommentNotFound:      http.StatusNotFound,
	ErrUserNotFound:         http.StatusNotFound,
	ErrMangaNotFound:        http.StatusNotFound,
	ErrDecorationNotFound:   http.StatusNotFound,
	ErrTitleNotFound:        http.StatusNotFound,
	ErrNotificationNotFound: http.StatusNotFound,
	ErrBookmarkNotFound:     http.StatusNotFound,

	ErrPermissionDenied: http.StatusForbidden,
	ErrItemLocked:       http.StatusForbidden,
	ErrLevelTooLow:      http.StatusForbidden,
	ErrFeatureDisabled:  http.StatusForbidden,

	ErrAlreadyUnlocked:   http.StatusConflict,
	ErrCommentHasReplies: http.StatusConflict,
	ErrUsernameTaken:     http.StatusConflict,

	ErrUnauthorized:       http.StatusUnauthorized,
	ErrInvalidCredentials: http.StatusUnauthorized,
	ErrUnexpected:         http.StatusInternalServerError,
}

// EquipDeniedError explains why an equip was rejected. It unwraps to
// ErrItemLocked or ErrLevelTooLow.
type EquipDeniedError struct {
	Reason        error
	Kind          string // "decoration" or "title"
	RequiredLevel int
}

func (e *EquipDeniedError) Error() string {
	if e.Reason == ErrItemLocked {
		return fmt.Sprintf("This %s is locked and you haven't unlocked it yet!", e.Kind)
	}
	return fmt.Sprintf("You need to be level %d to equip this!", e.RequiredLevel)
}

func (e *EquipDeniedError) Unwrap() error {
	return e.Reason
}

// AlreadyOwnedError names the user and item in an admin award conflict.
type AlreadyOwnedError struct {
	Username string
	Kind     string
	Item     string
}

func (e *AlreadyOwnedError) Error() string {
	return fmt.Sprintf("%s already has the %s '%s'.", e.Username, e.Kind, e.Item)
}

func (e *AlreadyOwnedError) Unwrap() error {
	return ErrAlreadyUnlocked
}

// Classify 返回 HTTP 状态码和可以展示给用户的消息
// Unknown errors collapse to ErrUnexpected so storage details never leak.
func Classify(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}

	var denied *EquipDeniedError
	if errors.As(err, &denied) {
		return http.StatusForbidden, denied.Error()
	}
	var owned *AlreadyOwnedError
	if errors.As(err, &owned) {
		return http.StatusConflict, owned.Error()
	}

	for sentinel, code := range ErrorMap {
		if errors.Is(err, sentinel) {
			return code, sentinel.Error()
		}
	}
	return http.StatusInternalServerError, ErrUnexpected.Error()
}

// notFound maps gorm's record-not-found onto a domain sentinel and wraps
// anything else as a storage failure.
func notFound(err error, sentinel error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return errors.Wrap(err, msg)
}

// isDuplicate reports a unique-constraint violation (gorm TranslateError).
func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
