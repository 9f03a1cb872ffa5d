package access

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/haraherri/LMS-System/internal/app_errors"
	"github.com/haraherri/LMS-System/internal/models"
	"github.com/haraherri/LMS-System/pkg/logger"
)

type purchaseRepo interface {
	SuccessfulPurchase(ctx context.Context, userID, courseID uuid.UUID) (*models.Purchase, error)
	ListSuccessfulByUser(ctx context.Context, userID uuid.UUID) ([]models.Purchase, error)
}

type courseRepo interface {
	CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
}

type userRepo interface {
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type lectureRepo interface {
	LecturesByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Lecture, error)
}

type urlFreshener interface {
	Freshen(ctx context.Context, lectures []models.Lecture) []models.Lecture
}

type detailCache interface {
	Detail(ctx context.Context, courseID uuid.UUID) (*models.CourseDetail, error)
	SetDetail(ctx context.Context, detail *models.CourseDetail) error
}

// AccessService answers "may this user see this content". Entitlement
// comes from Success purchase rows only; enrollment membership is a
// derived convenience and never consulted here.
type AccessService struct {
	log          logger.Log
	purchaseRepo purchaseRepo
	courseRepo   courseRepo
	userRepo     userRepo
	lectureRepo  lectureRepo
	freshener    urlFreshener
	cache        detailCache
}

func NewAccessService(log logger.Log, pRepo purchaseRepo, cRepo courseRepo,
	uRepo userRepo, lRepo lectureRepo, freshener urlFreshener, cache detailCache) *AccessService {
	return &AccessService{
		log:          log,
		purchaseRepo: pRepo,
		courseRepo:   cRepo,
		userRepo:     uRepo,
		lectureRepo:  lRepo,
		freshener:    freshener,
		cache:        cache,
	}
}

// HasPurchased reports whether the user holds a Success purchase for the
// course. Pending and Failed rows never grant access.
func (s *AccessService) HasPurchased(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	_, err := s.purchaseRepo.SuccessfulPurchase(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, app_errors.ErrPurchaseNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CourseDetail returns the course view appropriate to the caller. The
// creator and purchasers see full lectures with fresh video URLs; everyone
// else gets the redacted view with only preview-free videos.
func (s *AccessService) CourseDetail(ctx context.Context, userID, courseID uuid.UUID) (*models.CourseDetail, bool, error) {
	course, err := s.courseRepo.CourseByID(ctx, courseID)
	if err != nil {
		return nil, false, err
	}

	purchased := course.CreatorID == userID
	if !purchased && userID != uuid.Nil {
		purchased, err = s.HasPurchased(ctx, userID, courseID)
		if err != nil {
			return nil, false, err
		}
	}

	if !purchased {
		if !course.IsPublished {
			return nil, false, app_errors.ErrCourseNotFound
		}
		detail, err := s.publicDetail(ctx, course)
		return detail, false, err
	}

	detail, err := s.fullDetail(ctx, course)
	return detail, true, err
}

func (s *AccessService) fullDetail(ctx context.Context, course *models.Course) (*models.CourseDetail, error) {
	lectures, err := s.lectureRepo.LecturesByCourse(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	lectures = s.freshener.Freshen(ctx, lectures)

	creator, err := s.creator(ctx, course.CreatorID)
	if err != nil {
		return nil, err
	}
	return &models.CourseDetail{Course: *course, Creator: *creator, Lectures: lectures}, nil
}

// publicDetail serves the redacted view, cached because it is identical
// for every anonymous and non-purchasing caller.
func (s *AccessService) publicDetail(ctx context.Context, course *models.Course) (*models.CourseDetail, error) {
	if cached, err := s.cache.Detail(ctx, course.ID); err != nil {
		s.log.ErrorErr("course cache read failed", err)
	} else if cached != nil {
		return cached, nil
	}

	lectures, err := s.lectureRepo.LecturesByCourse(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	redacted := make([]models.Lecture, 0, len(lectures))
	for _, l := range lectures {
		redacted = append(redacted, l.Redacted())
	}
	redacted = s.freshener.Freshen(ctx, redacted)

	creator, err := s.creator(ctx, course.CreatorID)
	if err != nil {
		return nil, err
	}

	detail := &models.CourseDetail{Course: *course, Creator: *creator, Lectures: redacted}
	if err := s.cache.SetDetail(ctx, detail); err != nil {
		s.log.ErrorErr("course cache write failed", err)
	}
	return detail, nil
}

// AuthorizeLecture gates a single lecture behind the purchase check.
// Preview-free lectures pass for anyone who can see the course.
func (s *AccessService) AuthorizeLecture(ctx context.Context, userID uuid.UUID, lecture *models.Lecture) (*models.Lecture, error) {
	course, err := s.courseRepo.CourseByID(ctx, lecture.CourseID)
	if err != nil {
		return nil, err
	}
	if course.CreatorID == userID {
		return lecture, nil
	}
	if lecture.IsPreviewFree {
		if !course.IsPublished {
			return nil, app_errors.ErrLectureNotFound
		}
		return lecture, nil
	}
	purchased, err := s.HasPurchased(ctx, userID, lecture.CourseID)
	if err != nil {
		return nil, err
	}
	if !purchased {
		return nil, app_errors.ErrCourseNotPurchased
	}
	return lecture, nil
}

// PurchasedCourses lists the user's entitlements with course details.
func (s *AccessService) PurchasedCourses(ctx context.Context, userID uuid.UUID) ([]models.PurchasedCourse, error) {
	purchases, err := s.purchaseRepo.ListSuccessfulByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]models.PurchasedCourse, 0, len(purchases))
	for _, p := range purchases {
		course, err := s.courseRepo.CourseByID(ctx, p.CourseID)
		if err != nil {
			// A course deleted between listing the purchases and this read
			// is skipped rather than failing the whole listing.
			s.log.ErrorErr("purchased course missing", err, "course_id", p.CourseID.String())
			continue
		}
		creator, err := s.creator(ctx, course.CreatorID)
		if err != nil {
			return nil, err
		}
		result = append(result, models.PurchasedCourse{
			Purchase: p,
			Course:   models.CourseDetail{Course: *course, Creator: *creator},
		})
	}
	return result, nil
}

func (s *AccessService) creator(ctx context.Context, id uuid.UUID) (*models.Creator, error) {
	user, err := s.userRepo.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.Creator{
		ID:       user.ID,
		Name:     user.Name,
		Email:    user.Email,
		PhotoURL: user.PhotoURL,
	}, nil
}
