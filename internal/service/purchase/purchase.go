package purchase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/haraherri/LMS-System/internal/app_errors"
	"github.com/haraherri/LMS-System/internal/metrics"
	"github.com/haraherri/LMS-System/internal/models"
	"github.com/haraherri/LMS-System/internal/payment"
	"github.com/haraherri/LMS-System/pkg/logger"
)

type purchaseRepo interface {
	CreatePurchase(ctx context.Context, purchase models.Purchase) (*models.Purchase, error)
	PurchaseByPaymentRef(ctx context.Context, paymentRef string) (*models.Purchase, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, status string) (bool, error)
	SuccessfulPurchase(ctx context.Context, userID, courseID uuid.UUID) (*models.Purchase, error)
	RevenueByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.CourseRevenue, error)
}

type enrollmentRepo interface {
	AddUserEnrollment(ctx context.Context, userID, courseID uuid.UUID) error
	AddCourseEnrollment(ctx context.Context, courseID, userID uuid.UUID) error
	CourseEnrolledUsers(ctx context.Context, courseID uuid.UUID) ([]uuid.UUID, error)
	FindMismatches(ctx context.Context) ([][2]uuid.UUID, error)
}

type courseRepo interface {
	CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
}

type checkoutClient interface {
	CreateCheckoutSession(ctx context.Context, p payment.CheckoutParams) (*payment.Session, error)
}

// PurchaseService owns checkout session creation and webhook
// reconciliation. Purchase rows are keyed by the provider session ID so a
// delivered event maps to exactly one row; status moves out of Pending at
// most once, which makes webhook deliveries idempotent.
type PurchaseService struct {
	log            logger.Log
	purchaseRepo   purchaseRepo
	enrollmentRepo enrollmentRepo
	courseRepo     courseRepo
	checkout       checkoutClient
	metrics        metrics.Collector
	webhookSecret  string
	currency       string
	clientURL      string
}

func NewPurchaseService(log logger.Log, pRepo purchaseRepo, eRepo enrollmentRepo,
	cRepo courseRepo, checkout checkoutClient, m metrics.Collector,
	webhookSecret, currency, clientURL string) *PurchaseService {
	return &PurchaseService{
		log:            log,
		purchaseRepo:   pRepo,
		enrollmentRepo: eRepo,
		courseRepo:     cRepo,
		checkout:       checkout,
		metrics:        m,
		webhookSecret:  webhookSecret,
		currency:       currency,
		clientURL:      clientURL,
	}
}

// CreateCheckoutSession opens a payment session for the course and records
// a Pending purchase carrying the session ID and a price snapshot. A user
// abandoning checkout and starting over simply accumulates Pending rows;
// only a completed event ever turns one into an entitlement.
func (s *PurchaseService) CreateCheckoutSession(ctx context.Context, userID, courseID uuid.UUID) (*payment.Session, error) {
	course, err := s.courseRepo.CourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.IsPublished {
		return nil, app_errors.ErrCourseNotPublished
	}
	if course.CreatorID == userID {
		return nil, app_errors.ErrOwnCoursePurchase
	}
	if existing, err := s.purchaseRepo.SuccessfulPurchase(ctx, userID, courseID); err == nil && existing != nil {
		return nil, app_errors.ErrAlreadyPurchased
	} else if err != nil && !errors.Is(err, app_errors.ErrPurchaseNotFound) {
		return nil, err
	}

	session, err := s.checkout.CreateCheckoutSession(ctx, payment.CheckoutParams{
		CourseID:     courseID.String(),
		Title:        course.Title,
		Description:  course.Subtitle,
		ThumbnailURL: course.ThumbnailURL,
		AmountCents:  course.PriceCents,
		Currency:     s.currency,
		SuccessURL:   s.clientURL + "/courses/" + courseID.String() + "?purchase=success",
		CancelURL:    s.clientURL + "/courses/" + courseID.String() + "?purchase=cancelled",
	})
	if err != nil {
		return nil, fmt.Errorf("checkout session creation failed: %w", err)
	}

	_, err = s.purchaseRepo.CreatePurchase(ctx, models.Purchase{
		UserID:     userID,
		CourseID:   courseID,
		PriceCents: course.PriceCents,
		PaymentRef: session.ID,
		Status:     models.PurchasePending,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordCheckoutSession()
	return session, nil
}

// HandleWebhook verifies and applies one webhook delivery. Replayed or
// out-of-order deliveries for an already-settled purchase are ignored.
func (s *PurchaseService) HandleWebhook(ctx context.Context, body []byte, sigHeader string) error {
	event, err := payment.ConstructEvent(body, sigHeader, s.webhookSecret)
	if err != nil {
		s.metrics.RecordWebhookEvent("unknown", metrics.OutcomeRejected)
		return err
	}

	switch event.Type {
	case payment.EventCheckoutCompleted:
		return s.settle(ctx, event, models.PurchaseSuccess)
	case payment.EventCheckoutExpired:
		return s.settle(ctx, event, models.PurchaseFailed)
	default:
		s.log.Debug("ignoring webhook event", "event_type", event.Type)
		s.metrics.RecordWebhookEvent(event.Type, metrics.OutcomeIgnored)
		return nil
	}
}

func (s *PurchaseService) settle(ctx context.Context, event payment.Event, status string) error {
	var data payment.CheckoutSessionData
	if err := event.UnmarshalData(&data); err != nil {
		s.metrics.RecordWebhookEvent(event.Type, metrics.OutcomeFailed)
		return fmt.Errorf("bad checkout session payload: %w", err)
	}

	purchase, err := s.purchaseRepo.PurchaseByPaymentRef(ctx, data.ID)
	if err != nil {
		s.metrics.RecordWebhookEvent(event.Type, metrics.OutcomeFailed)
		return err
	}

	changed, err := s.purchaseRepo.TransitionStatus(ctx, purchase.ID, status)
	if err != nil {
		s.metrics.RecordWebhookEvent(event.Type, metrics.OutcomeFailed)
		return err
	}
	if !changed {
		s.log.Info("webhook for already settled purchase ignored",
			"payment_ref", data.ID, "status", purchase.Status)
		s.metrics.RecordWebhookEvent(event.Type, metrics.OutcomeIgnored)
		return nil
	}

	if status == models.PurchaseSuccess {
		if err := s.enroll(ctx, purchase.UserID, purchase.CourseID); err != nil {
			// The purchase stays Success: the user paid. The failed
			// membership side is reported for reconciliation instead.
			s.metrics.RecordWebhookEvent(event.Type, metrics.OutcomeFailed)
			return err
		}
	}

	s.log.Info("purchase settled",
		"payment_ref", data.ID, "purchase_id", purchase.ID.String(), "status", status)
	s.metrics.RecordWebhookEvent(event.Type, metrics.OutcomeProcessed)
	return nil
}

// enroll performs the dual membership write. The two sides are independent
// inserts; a failure on either one surfaces as an InconsistencyError naming
// the side that is missing.
func (s *PurchaseService) enroll(ctx context.Context, userID, courseID uuid.UUID) error {
	var firstErr error

	if err := s.enrollmentRepo.AddUserEnrollment(ctx, userID, courseID); err != nil {
		incErr := &app_errors.InconsistencyError{
			Side: app_errors.UserSide, UserID: userID, CourseID: courseID, Cause: err,
		}
		s.log.ErrorErr("enrollment inconsistency", incErr)
		s.metrics.RecordEnrollmentInconsistency()
		firstErr = incErr
	}

	if err := s.enrollmentRepo.AddCourseEnrollment(ctx, courseID, userID); err != nil {
		incErr := &app_errors.InconsistencyError{
			Side: app_errors.CourseSide, UserID: userID, CourseID: courseID, Cause: err,
		}
		s.log.ErrorErr("enrollment inconsistency", incErr)
		s.metrics.RecordEnrollmentInconsistency()
		if firstErr == nil {
			firstErr = incErr
		}
	}

	return firstErr
}

func (s *PurchaseService) Revenue(ctx context.Context, creatorID uuid.UUID) ([]models.CourseRevenue, error) {
	return s.purchaseRepo.RevenueByCreator(ctx, creatorID)
}

// EnrolledStudents lists the user IDs enrolled in the creator's course.
func (s *PurchaseService) EnrolledStudents(ctx context.Context, creatorID, courseID uuid.UUID) ([]uuid.UUID, error) {
	course, err := s.courseRepo.CourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.CreatorID != creatorID {
		return nil, app_errors.ErrNotCourseCreator
	}
	return s.enrollmentRepo.CourseEnrolledUsers(ctx, courseID)
}

// AuditEnrollments logs any one-sided enrollment rows. Run at startup as a
// safety net behind the inconsistency metric.
func (s *PurchaseService) AuditEnrollments(ctx context.Context) {
	pairs, err := s.enrollmentRepo.FindMismatches(ctx)
	if err != nil {
		s.log.ErrorErr("enrollment audit failed", err)
		return
	}
	for _, p := range pairs {
		s.log.Error("enrollment mismatch needs reconciliation",
			"user_id", p[0].String(), "course_id", p[1].String())
	}
}
