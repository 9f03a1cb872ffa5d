package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/haraherri/LMS-System/internal/app_errors"
)

// respondError translates service errors to HTTP. Anything unmapped is a
// 500 with a generic body; the logging middleware sees the real error via
// c.Error.
func respondError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, app_errors.ErrUserExists),
		errors.Is(err, app_errors.ErrAlreadyPurchased):
		status = http.StatusConflict
	case errors.Is(err, app_errors.ErrUserNotFound),
		errors.Is(err, app_errors.ErrIncorrectPassword):
		status = http.StatusUnauthorized
	case errors.Is(err, app_errors.ErrTokenNotFound),
		errors.Is(err, app_errors.ErrTokenExpired):
		status = http.StatusUnauthorized
	case errors.Is(err, app_errors.ErrCourseNotFound),
		errors.Is(err, app_errors.ErrSectionNotFound),
		errors.Is(err, app_errors.ErrLectureNotFound),
		errors.Is(err, app_errors.ErrPurchaseNotFound),
		errors.Is(err, app_errors.ErrProgressNotFound),
		errors.Is(err, app_errors.ErrNoVideo):
		status = http.StatusNotFound
	case errors.Is(err, app_errors.ErrNotCourseCreator),
		errors.Is(err, app_errors.ErrCourseNotPurchased):
		status = http.StatusForbidden
	case errors.Is(err, app_errors.ErrCourseNotPublished),
		errors.Is(err, app_errors.ErrOwnCoursePurchase),
		errors.Is(err, app_errors.ErrTitleRequired),
		errors.Is(err, app_errors.ErrNegativePrice),
		errors.Is(err, app_errors.ErrNotVideo),
		errors.Is(err, app_errors.ErrFileSize):
		status = http.StatusBadRequest
	case errors.Is(err, app_errors.ErrInvalidSignature):
		status = http.StatusBadRequest
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
