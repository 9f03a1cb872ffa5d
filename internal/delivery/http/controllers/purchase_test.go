package controllers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/haraherri/LMS-System/internal/app_errors"
	"github.com/haraherri/LMS-System/internal/models"
	"github.com/haraherri/LMS-System/internal/payment"
	"github.com/haraherri/LMS-System/pkg/logger"
)

type mockPurchaseService struct {
	handleWebhookFn func(ctx context.Context, body []byte, sigHeader string) error
	gotBody         []byte
	gotSig          string
}

func (m *mockPurchaseService) CreateCheckoutSession(ctx context.Context, userID, courseID uuid.UUID) (*payment.Session, error) {
	return &payment.Session{ID: "cs_1", URL: "https://pay.example/cs_1"}, nil
}

func (m *mockPurchaseService) HandleWebhook(ctx context.Context, body []byte, sigHeader string) error {
	m.gotBody = body
	m.gotSig = sigHeader
	if m.handleWebhookFn != nil {
		return m.handleWebhookFn(ctx, body, sigHeader)
	}
	return nil
}

func (m *mockPurchaseService) Revenue(ctx context.Context, creatorID uuid.UUID) ([]models.CourseRevenue, error) {
	return nil, nil
}

func (m *mockPurchaseService) EnrolledStudents(ctx context.Context, creatorID, courseID uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

type mockPurchaseAccess struct{}

func (mockPurchaseAccess) HasPurchased(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	return false, nil
}

func webhookRouter(svc *mockPurchaseService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewPurchaseHandler(logger.Discard(), svc, mockPurchaseAccess{})
	r := gin.New()
	r.POST("/v1/purchase/webhook", h.Webhook)
	return r
}

func postWebhook(r *gin.Engine, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/purchase/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("Webhook-Signature", signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhook_PassesRawBodyAndSignature(t *testing.T) {
	svc := &mockPurchaseService{}
	r := webhookRouter(svc)

	body := `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1"}}}`
	w := postWebhook(r, body, "t=1,v1=abc")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if string(svc.gotBody) != body {
		t.Errorf("body reached the service altered: %q", svc.gotBody)
	}
	if svc.gotSig != "t=1,v1=abc" {
		t.Errorf("signature header = %q", svc.gotSig)
	}
	if !strings.Contains(w.Body.String(), `"received":true`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestWebhook_BadSignatureIsRejectedWithoutRetry(t *testing.T) {
	svc := &mockPurchaseService{
		handleWebhookFn: func(ctx context.Context, body []byte, sigHeader string) error {
			return app_errors.ErrInvalidSignature
		},
	}
	r := webhookRouter(svc)

	w := postWebhook(r, `{}`, "t=1,v1=bogus")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 so the provider does not retry", w.Code)
	}
}

func TestWebhook_ProcessingFailureAsksForRetry(t *testing.T) {
	svc := &mockPurchaseService{
		handleWebhookFn: func(ctx context.Context, body []byte, sigHeader string) error {
			return fmt.Errorf("database unavailable")
		},
	}
	r := webhookRouter(svc)

	w := postWebhook(r, `{}`, "t=1,v1=abc")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 so the provider retries", w.Code)
	}
}
