package course

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/haraherri/LMS-System/internal/app_errors"
	"github.com/haraherri/LMS-System/internal/models"
	"github.com/haraherri/LMS-System/pkg/logger"
)

type mockCourseRepo struct {
	byIDFn  func(ctx context.Context, id uuid.UUID) (*models.Course, error)
	created []models.Course
	updated []models.Course
}

func (m *mockCourseRepo) CreateCourse(ctx context.Context, course models.Course) (*models.Course, error) {
	m.created = append(m.created, course)
	return &course, nil
}

func (m *mockCourseRepo) CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	if m.byIDFn != nil {
		return m.byIDFn(ctx, id)
	}
	return nil, app_errors.ErrCourseNotFound
}

func (m *mockCourseRepo) UpdateCourse(ctx context.Context, course models.Course) (*models.Course, error) {
	m.updated = append(m.updated, course)
	return &course, nil
}

func (m *mockCourseRepo) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	return nil
}

func (m *mockCourseRepo) DeleteCourse(ctx context.Context, id uuid.UUID) error { return nil }

func (m *mockCourseRepo) ListPublishedCourses(ctx context.Context, limit, offset int) ([]models.Course, error) {
	return nil, nil
}

func (m *mockCourseRepo) CountPublishedCourses(ctx context.Context) (int, error) { return 0, nil }

func (m *mockCourseRepo) ListCoursesByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.Course, error) {
	return nil, nil
}

func (m *mockCourseRepo) CourseStructure(ctx context.Context, courseID uuid.UUID) ([]models.CourseStructure, error) {
	return nil, nil
}

type nopSearchRepo struct{}

func (nopSearchRepo) Index(ctx context.Context, course *models.Course) error  { return nil }
func (nopSearchRepo) Update(ctx context.Context, course *models.Course) error { return nil }
func (nopSearchRepo) Delete(ctx context.Context, id uuid.UUID) error          { return nil }
func (nopSearchRepo) Search(ctx context.Context, query string, size, from int) ([]uuid.UUID, error) {
	return nil, nil
}
func (nopSearchRepo) Count(ctx context.Context, query string) (int, error) { return 0, nil }

type nopLectureRepo struct{}

func (nopLectureRepo) LecturesByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Lecture, error) {
	return nil, nil
}
func (nopLectureRepo) LecturesBySection(ctx context.Context, sectionID uuid.UUID) ([]models.Lecture, error) {
	return nil, nil
}
func (nopLectureRepo) CreateSection(ctx context.Context, section models.Section) (*models.Section, error) {
	return &section, nil
}
func (nopLectureRepo) SectionByID(ctx context.Context, id uuid.UUID) (*models.Section, error) {
	return nil, app_errors.ErrSectionNotFound
}
func (nopLectureRepo) UpdateSectionTitle(ctx context.Context, id uuid.UUID, title string) error {
	return nil
}
func (nopLectureRepo) DeleteSection(ctx context.Context, id uuid.UUID) error { return nil }

type nopVideoRepo struct{}

func (nopVideoRepo) DeleteVideo(ctx context.Context, objectKey string) error { return nil }

type nopDetailCache struct{}

func (nopDetailCache) InvalidateDetail(ctx context.Context, courseID uuid.UUID) error { return nil }

func newTestService(cRepo *mockCourseRepo) *CourseService {
	return NewCourseService(logger.Discard(), cRepo, nopLectureRepo{}, nopSearchRepo{}, nopVideoRepo{}, nopDetailCache{})
}

func TestCreateCourse_Validation(t *testing.T) {
	tests := []struct {
		name    string
		course  models.Course
		wantErr error
	}{
		{
			name:    "missing title",
			course:  models.Course{PriceCents: 1000},
			wantErr: app_errors.ErrTitleRequired,
		},
		{
			name:    "negative price",
			course:  models.Course{Title: "Go from zero", PriceCents: -1},
			wantErr: app_errors.ErrNegativePrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cRepo := &mockCourseRepo{}
			svc := newTestService(cRepo)

			if _, err := svc.CreateCourse(context.Background(), tt.course); !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if len(cRepo.created) != 0 {
				t.Errorf("created %d courses, want 0", len(cRepo.created))
			}
		})
	}
}

func TestUpdateCourse_NegativePrice(t *testing.T) {
	creatorID := uuid.New()
	existing := &models.Course{
		ID:        uuid.New(),
		Title:     "Go from zero",
		CreatorID: creatorID,
	}
	cRepo := &mockCourseRepo{
		byIDFn: func(ctx context.Context, id uuid.UUID) (*models.Course, error) { return existing, nil },
	}
	svc := newTestService(cRepo)

	update := *existing
	update.PriceCents = -500

	if _, err := svc.UpdateCourse(context.Background(), creatorID, update); !errors.Is(err, app_errors.ErrNegativePrice) {
		t.Fatalf("error = %v, want ErrNegativePrice", err)
	}
	if len(cRepo.updated) != 0 {
		t.Errorf("updated %d courses, want 0", len(cRepo.updated))
	}
}
