package progress

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/haraherri/LMS-System/internal/app_errors"
	"github.com/haraherri/LMS-System/internal/models"
	"github.com/haraherri/LMS-System/pkg/logger"
)

type progressRepo interface {
	ProgressByUserCourse(ctx context.Context, userID, courseID uuid.UUID) (*models.CourseProgress, error)
	UpsertLectureViewed(ctx context.Context, userID, courseID, lectureID uuid.UUID) error
	SetCompleted(ctx context.Context, userID, courseID uuid.UUID, completed bool) error
	BulkSetViewed(ctx context.Context, userID, courseID uuid.UUID, viewed bool) error
}

type courseRepo interface {
	CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
	CountLectures(ctx context.Context, courseID uuid.UUID) (int, error)
}

type lectureRepo interface {
	LectureByID(ctx context.Context, id uuid.UUID) (*models.Lecture, error)
}

type purchaseRepo interface {
	SuccessfulPurchase(ctx context.Context, userID, courseID uuid.UUID) (*models.Purchase, error)
}

// ProgressService tracks per-lecture view state. The course-level completed
// flag is derived: it holds only while every lecture the course currently
// has is viewed, so adding a lecture to a finished course reopens it on the
// next read or view event.
type ProgressService struct {
	log          logger.Log
	progressRepo progressRepo
	courseRepo   courseRepo
	lectureRepo  lectureRepo
	purchaseRepo purchaseRepo
}

func NewProgressService(log logger.Log, pRepo progressRepo, cRepo courseRepo,
	lRepo lectureRepo, purRepo purchaseRepo) *ProgressService {
	return &ProgressService{
		log:          log,
		progressRepo: pRepo,
		courseRepo:   cRepo,
		lectureRepo:  lRepo,
		purchaseRepo: purRepo,
	}
}

// RecordView marks a lecture viewed and reconciles the completed flag.
// Marking an already-viewed lecture changes nothing but still reconciles.
func (s *ProgressService) RecordView(ctx context.Context, userID, courseID, lectureID uuid.UUID) (*models.CourseProgress, error) {
	if err := s.requireEntitlement(ctx, userID, courseID); err != nil {
		return nil, err
	}

	lecture, err := s.lectureRepo.LectureByID(ctx, lectureID)
	if err != nil {
		return nil, err
	}
	if lecture.CourseID != courseID {
		return nil, app_errors.ErrLectureNotFound
	}

	if err := s.progressRepo.UpsertLectureViewed(ctx, userID, courseID, lectureID); err != nil {
		return nil, err
	}

	return s.reconciled(ctx, userID, courseID)
}

// Progress returns the user's progress, reconciling the completed flag
// against the live lecture count. Users who never viewed anything get an
// empty progress, not an error.
func (s *ProgressService) Progress(ctx context.Context, userID, courseID uuid.UUID) (*models.CourseProgress, error) {
	if err := s.requireEntitlement(ctx, userID, courseID); err != nil {
		return nil, err
	}

	p, err := s.reconciled(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, app_errors.ErrProgressNotFound) {
			return &models.CourseProgress{UserID: userID, CourseID: courseID}, nil
		}
		return nil, err
	}
	return p, nil
}

// MarkCompleted force-completes: every current lecture becomes viewed.
func (s *ProgressService) MarkCompleted(ctx context.Context, userID, courseID uuid.UUID) (*models.CourseProgress, error) {
	if err := s.requireEntitlement(ctx, userID, courseID); err != nil {
		return nil, err
	}
	if err := s.progressRepo.BulkSetViewed(ctx, userID, courseID, true); err != nil {
		return nil, err
	}
	return s.progressRepo.ProgressByUserCourse(ctx, userID, courseID)
}

// MarkIncomplete resets every lecture to unviewed.
func (s *ProgressService) MarkIncomplete(ctx context.Context, userID, courseID uuid.UUID) (*models.CourseProgress, error) {
	if err := s.requireEntitlement(ctx, userID, courseID); err != nil {
		return nil, err
	}
	if err := s.progressRepo.BulkSetViewed(ctx, userID, courseID, false); err != nil {
		return nil, err
	}
	return s.progressRepo.ProgressByUserCourse(ctx, userID, courseID)
}

// reconciled loads the progress and repairs the completed flag when it no
// longer matches the live lecture count.
func (s *ProgressService) reconciled(ctx context.Context, userID, courseID uuid.UUID) (*models.CourseProgress, error) {
	p, err := s.progressRepo.ProgressByUserCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	total, err := s.courseRepo.CountLectures(ctx, courseID)
	if err != nil {
		return nil, err
	}

	shouldComplete := total > 0 && p.ViewedCount() >= total
	if p.Completed != shouldComplete {
		if err := s.progressRepo.SetCompleted(ctx, userID, courseID, shouldComplete); err != nil {
			return nil, err
		}
		p.Completed = shouldComplete
	}
	return p, nil
}

func (s *ProgressService) requireEntitlement(ctx context.Context, userID, courseID uuid.UUID) error {
	course, err := s.courseRepo.CourseByID(ctx, courseID)
	if err != nil {
		return err
	}
	if course.CreatorID == userID {
		return nil
	}
	if _, err := s.purchaseRepo.SuccessfulPurchase(ctx, userID, courseID); err != nil {
		if errors.Is(err, app_errors.ErrPurchaseNotFound) {
			return app_errors.ErrCourseNotPurchased
		}
		return err
	}
	return nil
}
