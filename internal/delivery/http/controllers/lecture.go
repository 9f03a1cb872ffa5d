package controllers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/haraherri/LMS-System/internal/models"
	"github.com/haraherri/LMS-System/pkg/logger"
)

type LectureService interface {
	CreateLecture(ctx context.Context, creatorID uuid.UUID, lecture models.Lecture) (*models.Lecture, error)
	UpdateLecture(ctx context.Context, creatorID uuid.UUID, lecture models.Lecture) (*models.Lecture, error)
	DeleteLecture(ctx context.Context, creatorID, lectureID uuid.UUID) error
	Lecture(ctx context.Context, lectureID uuid.UUID) (*models.Lecture, error)
	UploadVideo(ctx context.Context, creatorID, lectureID uuid.UUID, filename string, reader io.Reader, size int64, contentType string) (*models.VideoInfo, error)
}

type LectureAccess interface {
	AuthorizeLecture(ctx context.Context, userID uuid.UUID, lecture *models.Lecture) (*models.Lecture, error)
}

type LectureHandler struct {
	LectureService LectureService
	Access         LectureAccess
	log            logger.Log
}

func NewLectureHandler(l logger.Log, lectureService LectureService, access LectureAccess) *LectureHandler {
	return &LectureHandler{
		LectureService: lectureService,
		Access:         access,
		log:            l,
	}
}

type lectureRequest struct {
	Title         string `json:"title" binding:"required"`
	IsPreviewFree bool   `json:"is_preview_free"`
}

func (h *LectureHandler) CreateLecture(c *gin.Context) {
	sectionID, ok := uuidParam(c, "section_id")
	if !ok {
		return
	}
	var input lectureRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	creatorID, ok := clientID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	lecture, err := h.LectureService.CreateLecture(c.Request.Context(), creatorID, models.Lecture{
		SectionID:     sectionID,
		Title:         input.Title,
		IsPreviewFree: input.IsPreviewFree,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, lecture)
}

func (h *LectureHandler) UpdateLecture(c *gin.Context) {
	lectureID, ok := uuidParam(c, "lecture_id")
	if !ok {
		return
	}
	var input lectureRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	creatorID, ok := clientID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	lecture, err := h.LectureService.UpdateLecture(c.Request.Context(), creatorID, models.Lecture{
		ID:            lectureID,
		Title:         input.Title,
		IsPreviewFree: input.IsPreviewFree,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lecture)
}

func (h *LectureHandler) DeleteLecture(c *gin.Context) {
	lectureID, ok := uuidParam(c, "lecture_id")
	if !ok {
		return
	}
	creatorID, ok := clientID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err := h.LectureService.DeleteLecture(c.Request.Context(), creatorID, lectureID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// Lecture serves one lecture with a video URL valid for at least the
// refresh threshold, after the purchase gate.
func (h *LectureHandler) Lecture(c *gin.Context) {
	lectureID, ok := uuidParam(c, "lecture_id")
	if !ok {
		return
	}
	userID, _ := clientID(c)

	lecture, err := h.LectureService.Lecture(c.Request.Context(), lectureID)
	if err != nil {
		respondError(c, err)
		return
	}
	lecture, err = h.Access.AuthorizeLecture(c.Request.Context(), userID, lecture)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lecture)
}

func (h *LectureHandler) UploadVideo(c *gin.Context) {
	lectureID, ok := uuidParam(c, "lecture_id")
	if !ok {
		return
	}
	creatorID, ok := clientID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileHeader, err := c.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "video file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	info, err := h.LectureService.UploadVideo(
		c.Request.Context(),
		creatorID,
		lectureID,
		fileHeader.Filename,
		file,
		fileHeader.Size,
		fileHeader.Header.Get("Content-Type"),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}
