package controllers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/haraherri/LMS-System/internal/app_errors"
)

func TestRespondError_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"own course purchase", app_errors.ErrOwnCoursePurchase, http.StatusBadRequest},
		{"already purchased", app_errors.ErrAlreadyPurchased, http.StatusConflict},
		{"missing title", app_errors.ErrTitleRequired, http.StatusBadRequest},
		{"negative price", app_errors.ErrNegativePrice, http.StatusBadRequest},
		{"unpublished course", app_errors.ErrCourseNotPublished, http.StatusBadRequest},
		{"not the creator", app_errors.ErrNotCourseCreator, http.StatusForbidden},
		{"course not found", app_errors.ErrCourseNotFound, http.StatusNotFound},
		{"duplicate user", app_errors.ErrUserExists, http.StatusConflict},
		{"unmapped error", errors.New("pool exhausted"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)

			respondError(c, tt.err)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusInternalServerError {
				// Internal details stay out of the response body.
				if strings.Contains(rec.Body.String(), "pool exhausted") {
					t.Errorf("response leaks internal error: %s", rec.Body.String())
				}
			} else if !strings.Contains(rec.Body.String(), tt.err.Error()) {
				t.Errorf("body %q does not carry %q", rec.Body.String(), tt.err.Error())
			}
		})
	}
}
