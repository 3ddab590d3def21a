package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"mangareader/internal/middleware"
	"mangareader/internal/models"
	"mangareader/internal/services"
	"mangareader/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// success writes {success: true, message, ...extra}
func success(c *gin.Context, message string, extra gin.H) {
	body := gin.H{"success": true, "message": message}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// fail maps an error onto a status code and a message safe to show.
func fail(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request."})
		return
	}

	var unmarshalTypeError *json.UnmarshalTypeError
	var syntaxError *json.SyntaxError
	if errors.As(err, &unmarshalTypeError) || errors.As(err, &syntaxError) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid JSON."})
		return
	}

	code, message := services.Classify(err)
	if code >= http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).WithError(err).Error("Request failed")
	}
	c.JSON(code, gin.H{"success": false, "message": message})
}

// idParam parses a positive id path parameter, answering 400 itself.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, valid := utils.ParseID(c.Param(name))
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid id."})
		return 0, false
	}
	return id, true
}

// currentUser is only nil on routes without AuthRequired.
func currentUser(c *gin.Context) *models.User {
	return middleware.CurrentUser(c)
}
