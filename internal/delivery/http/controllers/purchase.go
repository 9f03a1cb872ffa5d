package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/haraherri/LMS-System/internal/app_errors"
	"github.com/haraherri/LMS-System/internal/models"
	"github.com/haraherri/LMS-System/internal/payment"
	"github.com/haraherri/LMS-System/pkg/logger"
)

type PurchaseService interface {
	CreateCheckoutSession(ctx context.Context, userID, courseID uuid.UUID) (*payment.Session, error)
	HandleWebhook(ctx context.Context, body []byte, sigHeader string) error
	Revenue(ctx context.Context, creatorID uuid.UUID) ([]models.CourseRevenue, error)
	EnrolledStudents(ctx context.Context, creatorID, courseID uuid.UUID) ([]uuid.UUID, error)
}

type PurchaseAccess interface {
	HasPurchased(ctx context.Context, userID, courseID uuid.UUID) (bool, error)
}

type PurchaseHandler struct {
	PurchaseService PurchaseService
	Access          PurchaseAccess
	log             logger.Log
}

func NewPurchaseHandler(l logger.Log, purchaseService PurchaseService, access PurchaseAccess) *PurchaseHandler {
	return &PurchaseHandler{
		PurchaseService: purchaseService,
		Access:          access,
		log:             l,
	}
}

func (h *PurchaseHandler) CreateCheckoutSession(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}
	userID, ok := clientID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	session, err := h.PurchaseService.CreateCheckoutSession(c.Request.Context(), userID, courseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": session.ID, "url": session.URL})
}

// Webhook receives provider deliveries. The raw body is what was signed,
// so it is read before any decoding. Handler errors return non-2xx so the
// provider retries; replays of settled purchases return 200.
func (h *PurchaseHandler) Webhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read body"})
		return
	}

	err = h.PurchaseService.HandleWebhook(c.Request.Context(), body, c.GetHeader("Webhook-Signature"))
	if err != nil {
		if errors.Is(err, app_errors.ErrInvalidSignature) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook processing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *PurchaseHandler) PurchaseStatus(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}
	userID, ok := clientID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	purchased, err := h.Access.HasPurchased(c.Request.Context(), userID, courseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"purchased": purchased})
}

func (h *PurchaseHandler) EnrolledStudents(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}
	creatorID, ok := clientID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	students, err := h.PurchaseService.EnrolledStudents(c.Request.Context(), creatorID, courseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

func (h *PurchaseHandler) Revenue(c *gin.Context) {
	creatorID, ok := clientID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	revenue, err := h.PurchaseService.Revenue(c.Request.Context(), creatorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"revenue": revenue})
}
