package progress

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/haraherri/LMS-System/internal/app_errors"
	"github.com/haraherri/LMS-System/internal/models"
	"github.com/haraherri/LMS-System/pkg/logger"
)

// fakeProgressRepo is an in-memory progress store with the same lazy-create
// and bulk semantics as the real one.
type fakeProgressRepo struct {
	exists    bool
	completed bool
	viewed    map[uuid.UUID]bool
	lectures  []uuid.UUID // lectures the course currently has, for bulk ops
}

func newFakeProgressRepo(lectures []uuid.UUID) *fakeProgressRepo {
	return &fakeProgressRepo{viewed: map[uuid.UUID]bool{}, lectures: lectures}
}

func (f *fakeProgressRepo) ProgressByUserCourse(ctx context.Context, userID, courseID uuid.UUID) (*models.CourseProgress, error) {
	if !f.exists {
		return nil, app_errors.ErrProgressNotFound
	}
	p := &models.CourseProgress{UserID: userID, CourseID: courseID, Completed: f.completed}
	for id, v := range f.viewed {
		p.LectureProgress = append(p.LectureProgress, models.LectureProgress{LectureID: id, Viewed: v})
	}
	return p, nil
}

func (f *fakeProgressRepo) UpsertLectureViewed(ctx context.Context, userID, courseID, lectureID uuid.UUID) error {
	f.exists = true
	f.viewed[lectureID] = true
	return nil
}

func (f *fakeProgressRepo) SetCompleted(ctx context.Context, userID, courseID uuid.UUID, completed bool) error {
	if !f.exists {
		return app_errors.ErrProgressNotFound
	}
	f.completed = completed
	return nil
}

func (f *fakeProgressRepo) BulkSetViewed(ctx context.Context, userID, courseID uuid.UUID, viewed bool) error {
	if !f.exists {
		return app_errors.ErrProgressNotFound
	}
	f.completed = viewed
	for _, id := range f.lectures {
		f.viewed[id] = viewed
	}
	return nil
}

type fakeCourseRepo struct {
	course       *models.Course
	lectureCount int
}

func (f *fakeCourseRepo) CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	if f.course == nil {
		return nil, app_errors.ErrCourseNotFound
	}
	return f.course, nil
}

func (f *fakeCourseRepo) CountLectures(ctx context.Context, courseID uuid.UUID) (int, error) {
	return f.lectureCount, nil
}

type fakeLectureRepo struct {
	lectures map[uuid.UUID]*models.Lecture
}

func (f *fakeLectureRepo) LectureByID(ctx context.Context, id uuid.UUID) (*models.Lecture, error) {
	l, ok := f.lectures[id]
	if !ok {
		return nil, app_errors.ErrLectureNotFound
	}
	return l, nil
}

type fakePurchaseRepo struct {
	purchased bool
}

func (f *fakePurchaseRepo) SuccessfulPurchase(ctx context.Context, userID, courseID uuid.UUID) (*models.Purchase, error) {
	if !f.purchased {
		return nil, app_errors.ErrPurchaseNotFound
	}
	return &models.Purchase{UserID: userID, CourseID: courseID, Status: models.PurchaseSuccess}, nil
}

type fixture struct {
	svc      *ProgressService
	userID   uuid.UUID
	courseID uuid.UUID
	lectures []uuid.UUID
	pRepo    *fakeProgressRepo
	cRepo    *fakeCourseRepo
}

func newFixture(t *testing.T, lectureCount int) *fixture {
	t.Helper()
	courseID := uuid.New()
	lectures := make([]uuid.UUID, lectureCount)
	lectureRepo := &fakeLectureRepo{lectures: map[uuid.UUID]*models.Lecture{}}
	for i := range lectures {
		id := uuid.New()
		lectures[i] = id
		lectureRepo.lectures[id] = &models.Lecture{ID: id, CourseID: courseID}
	}

	pRepo := newFakeProgressRepo(lectures)
	cRepo := &fakeCourseRepo{
		course:       &models.Course{ID: courseID, CreatorID: uuid.New(), IsPublished: true},
		lectureCount: lectureCount,
	}
	svc := NewProgressService(logger.Discard(), pRepo, cRepo, lectureRepo, &fakePurchaseRepo{purchased: true})

	return &fixture{
		svc:      svc,
		userID:   uuid.New(),
		courseID: courseID,
		lectures: lectures,
		pRepo:    pRepo,
		cRepo:    cRepo,
	}
}

func TestRecordView_CompletesOnLastLecture(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	for i, lectureID := range f.lectures {
		p, err := f.svc.RecordView(ctx, f.userID, f.courseID, lectureID)
		if err != nil {
			t.Fatalf("view %d: %v", i, err)
		}
		wantCompleted := i == len(f.lectures)-1
		if p.Completed != wantCompleted {
			t.Errorf("after view %d: completed = %v, want %v", i, p.Completed, wantCompleted)
		}
		if got := p.ViewedCount(); got != i+1 {
			t.Errorf("after view %d: viewed count = %d, want %d", i, got, i+1)
		}
	}
}

func TestRecordView_RepeatedViewIsIdempotent(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p, err := f.svc.RecordView(ctx, f.userID, f.courseID, f.lectures[0])
		if err != nil {
			t.Fatalf("view attempt %d: %v", i, err)
		}
		if got := p.ViewedCount(); got != 1 {
			t.Errorf("attempt %d: viewed count = %d, want 1", i, got)
		}
		if p.Completed {
			t.Errorf("attempt %d: course must not be completed", i)
		}
	}
}

func TestRecordView_LectureFromOtherCourse(t *testing.T) {
	f := newFixture(t, 2)

	other := newFixture(t, 1)
	_, err := f.svc.RecordView(context.Background(), f.userID, f.courseID, other.lectures[0])
	if !errors.Is(err, app_errors.ErrLectureNotFound) {
		t.Fatalf("error = %v, want ErrLectureNotFound", err)
	}
}

func TestProgress_AddedLectureReopensCompletedCourse(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	for _, lectureID := range f.lectures {
		if _, err := f.svc.RecordView(ctx, f.userID, f.courseID, lectureID); err != nil {
			t.Fatalf("view: %v", err)
		}
	}
	if !f.pRepo.completed {
		t.Fatal("course should be completed after viewing every lecture")
	}

	// Instructor adds a fourth lecture.
	f.cRepo.lectureCount = 4

	p, err := f.svc.Progress(ctx, f.userID, f.courseID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if p.Completed {
		t.Error("completed should flip back once the course grows")
	}
	if !f.pRepo.exists || f.pRepo.completed {
		t.Error("repaired flag should be persisted")
	}
}

func TestProgress_NoViewsYieldsEmptyProgress(t *testing.T) {
	f := newFixture(t, 3)

	p, err := f.svc.Progress(context.Background(), f.userID, f.courseID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Completed || len(p.LectureProgress) != 0 {
		t.Errorf("want empty progress, got %+v", p)
	}
}

func TestMarkCompleted_ViewsEverything(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	// Progress exists only after a first view event.
	if _, err := f.svc.RecordView(ctx, f.userID, f.courseID, f.lectures[0]); err != nil {
		t.Fatalf("view: %v", err)
	}

	p, err := f.svc.MarkCompleted(ctx, f.userID, f.courseID)
	if err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	if !p.Completed {
		t.Error("completed = false after MarkCompleted")
	}
	if got := p.ViewedCount(); got != 3 {
		t.Errorf("viewed count = %d, want 3", got)
	}
}

func TestMarkCompleted_WithoutProgressRow(t *testing.T) {
	f := newFixture(t, 3)

	_, err := f.svc.MarkCompleted(context.Background(), f.userID, f.courseID)
	if !errors.Is(err, app_errors.ErrProgressNotFound) {
		t.Fatalf("error = %v, want ErrProgressNotFound", err)
	}
}

func TestMarkIncomplete_ResetsEverything(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	for _, lectureID := range f.lectures {
		if _, err := f.svc.RecordView(ctx, f.userID, f.courseID, lectureID); err != nil {
			t.Fatalf("view: %v", err)
		}
	}

	p, err := f.svc.MarkIncomplete(ctx, f.userID, f.courseID)
	if err != nil {
		t.Fatalf("mark incomplete: %v", err)
	}
	if p.Completed {
		t.Error("completed = true after MarkIncomplete")
	}
	if got := p.ViewedCount(); got != 0 {
		t.Errorf("viewed count = %d, want 0", got)
	}
}

func TestProgress_RequiresEntitlement(t *testing.T) {
	f := newFixture(t, 2)
	svc := NewProgressService(logger.Discard(), f.pRepo, f.cRepo,
		&fakeLectureRepo{lectures: map[uuid.UUID]*models.Lecture{}}, &fakePurchaseRepo{purchased: false})

	_, err := svc.Progress(context.Background(), f.userID, f.courseID)
	if !errors.Is(err, app_errors.ErrCourseNotPurchased) {
		t.Fatalf("error = %v, want ErrCourseNotPurchased", err)
	}
}
