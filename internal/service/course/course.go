package course

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/haraherri/LMS-System/internal/app_errors"
	"github.com/haraherri/LMS-System/internal/models"
	"github.com/haraherri/LMS-System/pkg/logger"
)

type courseRepo interface {
	CreateCourse(ctx context.Context, course models.Course) (*models.Course, error)
	CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
	UpdateCourse(ctx context.Context, course models.Course) (*models.Course, error)
	SetPublished(ctx context.Context, id uuid.UUID, published bool) error
	DeleteCourse(ctx context.Context, id uuid.UUID) error
	ListPublishedCourses(ctx context.Context, limit, offset int) ([]models.Course, error)
	CountPublishedCourses(ctx context.Context) (int, error)
	ListCoursesByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.Course, error)
	CourseStructure(ctx context.Context, courseID uuid.UUID) ([]models.CourseStructure, error)
}

type lectureRepo interface {
	LecturesByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Lecture, error)
	LecturesBySection(ctx context.Context, sectionID uuid.UUID) ([]models.Lecture, error)
	CreateSection(ctx context.Context, section models.Section) (*models.Section, error)
	SectionByID(ctx context.Context, id uuid.UUID) (*models.Section, error)
	UpdateSectionTitle(ctx context.Context, id uuid.UUID, title string) error
	DeleteSection(ctx context.Context, id uuid.UUID) error
}

type searchRepo interface {
	Index(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, size, from int) ([]uuid.UUID, error)
	Count(ctx context.Context, query string) (int, error)
}

type videoRepo interface {
	DeleteVideo(ctx context.Context, objectKey string) error
}

type detailCache interface {
	InvalidateDetail(ctx context.Context, courseID uuid.UUID) error
}

type CourseService struct {
	log         logger.Log
	courseRepo  courseRepo
	lectureRepo lectureRepo
	searchRepo  searchRepo
	videoRepo   videoRepo
	cache       detailCache
}

func NewCourseService(log logger.Log, cRepo courseRepo, lRepo lectureRepo,
	sRepo searchRepo, vRepo videoRepo, cache detailCache) *CourseService {
	return &CourseService{
		log:         log,
		courseRepo:  cRepo,
		lectureRepo: lRepo,
		searchRepo:  sRepo,
		videoRepo:   vRepo,
		cache:       cache,
	}
}

func (s *CourseService) CreateCourse(ctx context.Context, course models.Course) (*models.Course, error) {
	if course.Title == "" {
		return nil, app_errors.ErrTitleRequired
	}
	if course.PriceCents < 0 {
		return nil, app_errors.ErrNegativePrice
	}
	return s.courseRepo.CreateCourse(ctx, course)
}

func (s *CourseService) CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	return s.courseRepo.CourseByID(ctx, id)
}

func (s *CourseService) UpdateCourse(ctx context.Context, creatorID uuid.UUID, course models.Course) (*models.Course, error) {
	existing, err := s.courseRepo.CourseByID(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	if existing.CreatorID != creatorID {
		return nil, app_errors.ErrNotCourseCreator
	}
	if course.PriceCents < 0 {
		return nil, app_errors.ErrNegativePrice
	}
	// Ownership and publish state are not editable here.
	course.CreatorID = existing.CreatorID
	course.IsPublished = existing.IsPublished
	course.CreatedAt = existing.CreatedAt

	updated, err := s.courseRepo.UpdateCourse(ctx, course)
	if err != nil {
		return nil, err
	}

	if updated.IsPublished {
		if err := s.searchRepo.Update(ctx, updated); err != nil {
			s.log.ErrorErr("failed to update search index", err)
		}
	}
	s.invalidate(ctx, updated.ID)
	return updated, nil
}

func (s *CourseService) Publish(ctx context.Context, id, creatorID uuid.UUID) error {
	course, err := s.courseRepo.CourseByID(ctx, id)
	if err != nil {
		return err
	}
	if course.CreatorID != creatorID {
		return app_errors.ErrNotCourseCreator
	}
	if err := s.courseRepo.SetPublished(ctx, id, true); err != nil {
		return err
	}
	if err := s.searchRepo.Index(ctx, course); err != nil {
		s.log.ErrorErr("error indexing course", err)
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *CourseService) Unpublish(ctx context.Context, id, creatorID uuid.UUID) error {
	course, err := s.courseRepo.CourseByID(ctx, id)
	if err != nil {
		return err
	}
	if course.CreatorID != creatorID {
		return app_errors.ErrNotCourseCreator
	}
	if err := s.courseRepo.SetPublished(ctx, id, false); err != nil {
		return err
	}
	if err := s.searchRepo.Delete(ctx, id); err != nil {
		s.log.ErrorErr("error removing course from search index", err)
	}
	s.invalidate(ctx, id)
	return nil
}

// DeleteCourse removes the row, the search document and every stored video.
// Purchases, enrollments and progress cascade away with the row. Video
// objects left behind after a failed removal are logged for cleanup, not
// treated as a failure.
func (s *CourseService) DeleteCourse(ctx context.Context, id, creatorID uuid.UUID) error {
	course, err := s.courseRepo.CourseByID(ctx, id)
	if err != nil {
		return err
	}
	if course.CreatorID != creatorID {
		return app_errors.ErrNotCourseCreator
	}

	lectures, err := s.lectureRepo.LecturesByCourse(ctx, id)
	if err != nil {
		return err
	}

	if err := s.courseRepo.DeleteCourse(ctx, id); err != nil {
		return err
	}

	for _, l := range lectures {
		if l.VideoFilename == "" {
			continue
		}
		if err := s.videoRepo.DeleteVideo(ctx, l.VideoFilename); err != nil {
			s.log.ErrorErr("failed to delete lecture video", err,
				"lecture_id", l.ID.String(), "object_key", l.VideoFilename)
		}
	}

	if err := s.searchRepo.Delete(ctx, id); err != nil {
		s.log.ErrorErr("failed to delete course from search index", err)
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *CourseService) ListPublished(ctx context.Context, limit, offset int) ([]models.Course, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	courses, err := s.courseRepo.ListPublishedCourses(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.courseRepo.CountPublishedCourses(ctx)
	if err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

func (s *CourseService) MyCourses(ctx context.Context, creatorID uuid.UUID) ([]models.Course, error) {
	return s.courseRepo.ListCoursesByCreator(ctx, creatorID)
}

// Search resolves matching IDs from the index and loads the rows. A stale
// index entry whose course is gone is skipped, not an error.
func (s *CourseService) Search(ctx context.Context, query string, limit, offset int) ([]models.Course, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	ids, err := s.searchRepo.Search(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("course search failed: %w", err)
	}
	if len(ids) == 0 {
		return []models.Course{}, 0, nil
	}

	total, err := s.searchRepo.Count(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("search count failed: %w", err)
	}

	courses := make([]models.Course, 0, len(ids))
	for _, id := range ids {
		course, err := s.courseRepo.CourseByID(ctx, id)
		if err != nil {
			s.log.ErrorErr("search: failed to load course by id", err)
			continue
		}
		if !course.IsPublished {
			continue
		}
		courses = append(courses, *course)
	}
	return courses, total, nil
}

func (s *CourseService) Structure(ctx context.Context, courseID uuid.UUID) ([]models.CourseStructure, error) {
	if _, err := s.courseRepo.CourseByID(ctx, courseID); err != nil {
		return nil, err
	}
	return s.courseRepo.CourseStructure(ctx, courseID)
}

func (s *CourseService) CreateSection(ctx context.Context, creatorID uuid.UUID, section models.Section) (*models.Section, error) {
	course, err := s.courseRepo.CourseByID(ctx, section.CourseID)
	if err != nil {
		return nil, err
	}
	if course.CreatorID != creatorID {
		return nil, app_errors.ErrNotCourseCreator
	}
	created, err := s.lectureRepo.CreateSection(ctx, section)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, section.CourseID)
	return created, nil
}

func (s *CourseService) RenameSection(ctx context.Context, creatorID, sectionID uuid.UUID, title string) error {
	section, err := s.lectureRepo.SectionByID(ctx, sectionID)
	if err != nil {
		return err
	}
	course, err := s.courseRepo.CourseByID(ctx, section.CourseID)
	if err != nil {
		return err
	}
	if course.CreatorID != creatorID {
		return app_errors.ErrNotCourseCreator
	}
	if err := s.lectureRepo.UpdateSectionTitle(ctx, sectionID, title); err != nil {
		return err
	}
	s.invalidate(ctx, section.CourseID)
	return nil
}

func (s *CourseService) DeleteSection(ctx context.Context, creatorID, sectionID uuid.UUID) error {
	section, err := s.lectureRepo.SectionByID(ctx, sectionID)
	if err != nil {
		return err
	}
	course, err := s.courseRepo.CourseByID(ctx, section.CourseID)
	if err != nil {
		return err
	}
	if course.CreatorID != creatorID {
		return app_errors.ErrNotCourseCreator
	}

	lectures, err := s.lectureRepo.LecturesBySection(ctx, sectionID)
	if err != nil {
		return err
	}
	if err := s.lectureRepo.DeleteSection(ctx, sectionID); err != nil {
		return err
	}
	for _, l := range lectures {
		if l.VideoFilename == "" {
			continue
		}
		if err := s.videoRepo.DeleteVideo(ctx, l.VideoFilename); err != nil {
			s.log.ErrorErr("failed to delete lecture video", err,
				"lecture_id", l.ID.String(), "object_key", l.VideoFilename)
		}
	}
	s.invalidate(ctx, section.CourseID)
	return nil
}

func (s *CourseService) invalidate(ctx context.Context, courseID uuid.UUID) {
	if err := s.cache.InvalidateDetail(ctx, courseID); err != nil {
		s.log.ErrorErr("failed to invalidate course cache", err)
	}
}
