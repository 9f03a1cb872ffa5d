package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/haraherri/LMS-System/internal/models"
	"github.com/haraherri/LMS-System/pkg/logger"
)

type CourseService interface {
	CreateCourse(ctx context.Context, course models.Course) (*models.Course, error)
	UpdateCourse(ctx context.Context, creatorID uuid.UUID, course models.Course) (*models.Course, error)
	Publish(ctx context.Context, id, creatorID uuid.UUID) error
	Unpublish(ctx context.Context, id, creatorID uuid.UUID) error
	DeleteCourse(ctx context.Context, id, creatorID uuid.UUID) error
	ListPublished(ctx context.Context, limit, offset int) ([]models.Course, int, error)
	MyCourses(ctx context.Context, creatorID uuid.UUID) ([]models.Course, error)
	Search(ctx context.Context, query string, limit, offset int) ([]models.Course, int, error)
	Structure(ctx context.Context, courseID uuid.UUID) ([]models.CourseStructure, error)
	CreateSection(ctx context.Context, creatorID uuid.UUID, section models.Section) (*models.Section, error)
	RenameSection(ctx context.Context, creatorID, sectionID uuid.UUID, title string) error
	DeleteSection(ctx context.Context, creatorID, sectionID uuid.UUID) error
}

type AccessService interface {
	CourseDetail(ctx context.Context, userID, courseID uuid.UUID) (*models.CourseDetail, bool, error)
	PurchasedCourses(ctx context.Context, userID uuid.UUID) ([]models.PurchasedCourse, error)
}

type CourseHandler struct {
	CourseService CourseService
	AccessService AccessService
	log           logger.Log
}

func NewCourseHandler(l logger.Log, courseService CourseService, accessService AccessService) *CourseHandler {
	return &CourseHandler{
		CourseService: courseService,
		AccessService: accessService,
		log:           l,
	}
}

func courseIDParam(c *gin.Context) (uuid.UUID, bool) {
	return uuidParam(c, "course_id")
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	raw, ok := c.Params.Get(name)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " is required"})
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	return limit, offset
}

type courseRequest struct {
	Title        string `json:"title" binding:"required"`
	Subtitle     string `json:"subtitle"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	Level        string `json:"level"`
	PriceCents   int64  `json:"price_cents"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var input courseRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	creatorID, ok := clientID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	course, err := h.CourseService.CreateCourse(c.Request.Context(), models.Course{
		Title:        input.Title,
		Subtitle:     input.Subtitle,
		Description:  input.Description,
		Category:     input.Category,
		Level:        input.Level,
		PriceCents:   input.PriceCents,
		ThumbnailURL: input.ThumbnailURL,
		CreatorID:    creatorID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, course)
}

func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}
	var input courseRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	creatorID, ok := clientID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	course, err := h.CourseService.UpdateCourse(c.Request.Context(), creatorID, models.Course{
		ID:           courseID,
		Title:        input.Title,
		Subtitle:     input.Subtitle,
		Description:  input.Description,
		Category:     input.Category,
		Level:        input.Level,
		PriceCents:   input.PriceCents,
		ThumbnailURL: input.ThumbnailURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *CourseHandler) PublishCourse(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}
	creatorID, ok := clientID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err := h.CourseService.Publish(c.Request.Context(), courseID, creatorID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *CourseHandler) UnpublishCourse(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}
	creatorID, ok := clientID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err := h.CourseService.Unpublish(c.Request.Context(), courseID, creatorID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}
	creatorID, ok := clientID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err := h.CourseService.DeleteCourse(c.Request.Context(), courseID, creatorID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *CourseHandler) ListCourses(c *gin.Context) {
	limit, offset := pagination(c)

	if query := c.Query("q"); query != "" {
		courses, total, err := h.CourseService.Search(c.Request.Context(), query, limit, offset)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"courses": courses, "total": total})
		return
	}

	courses, total, err := h.CourseService.ListPublished(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses, "total": total})
}

// CourseDetail resolves the caller's view: creator and purchasers get
// lectures with video references, everyone else the redacted version.
func (h *CourseHandler) CourseDetail(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}
	userID, _ := clientID(c)

	detail, purchased, err := h.AccessService.CourseDetail(c.Request.Context(), userID, courseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": detail, "purchased": purchased})
}

func (h *CourseHandler) CourseStructure(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}
	structure, err := h.CourseService.Structure(c.Request.Context(), courseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sections": structure})
}

func (h *CourseHandler) MyCourses(c *gin.Context) {
	creatorID, ok := clientID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	courses, err := h.CourseService.MyCourses(c.Request.Context(), creatorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

func (h *CourseHandler) PurchasedCourses(c *gin.Context) {
	userID, ok := clientID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	courses, err := h.AccessService.PurchasedCourses(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

type sectionRequest struct {
	Title string `json:"title" binding:"required"`
}

func (h *CourseHandler) CreateSection(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}
	var input sectionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	creatorID, ok := clientID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	section, err := h.CourseService.CreateSection(c.Request.Context(), creatorID, models.Section{
		CourseID: courseID,
		Title:    input.Title,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, section)
}

func (h *CourseHandler) RenameSection(c *gin.Context) {
	sectionID, ok := uuidParam(c, "section_id")
	if !ok {
		return
	}
	var input sectionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	creatorID, ok := clientID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err := h.CourseService.RenameSection(c.Request.Context(), creatorID, sectionID, input.Title); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *CourseHandler) DeleteSection(c *gin.Context) {
	sectionID, ok := uuidParam(c, "section_id")
	if !ok {
		return
	}
	creatorID, ok := clientID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err := h.CourseService.DeleteSection(c.Request.Context(), creatorID, sectionID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
