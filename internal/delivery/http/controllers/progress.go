package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/haraherri/LMS-System/internal/models"
	"github.com/haraherri/LMS-System/pkg/logger"
)

type ProgressService interface {
	RecordView(ctx context.Context, userID, courseID, lectureID uuid.UUID) (*models.CourseProgress, error)
	Progress(ctx context.Context, userID, courseID uuid.UUID) (*models.CourseProgress, error)
	MarkCompleted(ctx context.Context, userID, courseID uuid.UUID) (*models.CourseProgress, error)
	MarkIncomplete(ctx context.Context, userID, courseID uuid.UUID) (*models.CourseProgress, error)
}

type ProgressHandler struct {
	ProgressService ProgressService
	log             logger.Log
}

func NewProgressHandler(l logger.Log, progressService ProgressService) *ProgressHandler {
	return &ProgressHandler{ProgressService: progressService, log: l}
}

func (h *ProgressHandler) RecordView(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}
	lectureID, ok := uuidParam(c, "lecture_id")
	if !ok {
		return
	}
	userID, ok := clientID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	progress, err := h.ProgressService.RecordView(c.Request.Context(), userID, courseID, lectureID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (h *ProgressHandler) Progress(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}
	userID, ok := clientID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	progress, err := h.ProgressService.Progress(c.Request.Context(), userID, courseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (h *ProgressHandler) MarkCompleted(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}
	userID, ok := clientID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	progress, err := h.ProgressService.MarkCompleted(c.Request.Context(), userID, courseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (h *ProgressHandler) MarkIncomplete(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}
	userID, ok := clientID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	progress, err := h.ProgressService.MarkIncomplete(c.Request.Context(), userID, courseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}
