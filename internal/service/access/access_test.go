package access

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/haraherri/LMS-System/internal/app_errors"
	"github.com/haraherri/LMS-System/internal/models"
	"github.com/haraherri/LMS-System/pkg/logger"
)

type mockPurchaseRepo struct {
	successFn func(ctx context.Context, userID, courseID uuid.UUID) (*models.Purchase, error)
	listFn    func(ctx context.Context, userID uuid.UUID) ([]models.Purchase, error)
}

func (m *mockPurchaseRepo) SuccessfulPurchase(ctx context.Context, userID, courseID uuid.UUID) (*models.Purchase, error) {
	if m.successFn != nil {
		return m.successFn(ctx, userID, courseID)
	}
	return nil, app_errors.ErrPurchaseNotFound
}

func (m *mockPurchaseRepo) ListSuccessfulByUser(ctx context.Context, userID uuid.UUID) ([]models.Purchase, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

type mockCourseRepo struct {
	courses map[uuid.UUID]*models.Course
}

func (m *mockCourseRepo) CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	c, ok := m.courses[id]
	if !ok {
		return nil, app_errors.ErrCourseNotFound
	}
	return c, nil
}

type mockUserRepo struct {
	users map[uuid.UUID]*models.User
}

func (m *mockUserRepo) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, app_errors.ErrUserNotFound
	}
	return u, nil
}

type mockLectureRepo struct {
	lectures []models.Lecture
	calls    int
}

func (m *mockLectureRepo) LecturesByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Lecture, error) {
	m.calls++
	out := make([]models.Lecture, len(m.lectures))
	copy(out, m.lectures)
	return out, nil
}

// passthroughFreshener stands in for the lecture service; URL freshness
// has its own tests.
type passthroughFreshener struct{}

func (passthroughFreshener) Freshen(ctx context.Context, lectures []models.Lecture) []models.Lecture {
	return lectures
}

type mockDetailCache struct {
	stored *models.CourseDetail
	hits   int
	writes int
}

func (m *mockDetailCache) Detail(ctx context.Context, courseID uuid.UUID) (*models.CourseDetail, error) {
	if m.stored != nil && m.stored.Course.ID == courseID {
		m.hits++
		return m.stored, nil
	}
	return nil, nil
}

func (m *mockDetailCache) SetDetail(ctx context.Context, detail *models.CourseDetail) error {
	m.stored = detail
	m.writes++
	return nil
}

type fixture struct {
	svc       *AccessService
	purchases *mockPurchaseRepo
	lectures  *mockLectureRepo
	cache     *mockDetailCache
	creatorID uuid.UUID
	course    *models.Course
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	creatorID := uuid.New()
	course := &models.Course{
		ID:          uuid.New(),
		CreatorID:   creatorID,
		Title:       "Distributed Systems",
		IsPublished: true,
	}
	pRepo := &mockPurchaseRepo{}
	lRepo := &mockLectureRepo{lectures: []models.Lecture{
		{ID: uuid.New(), CourseID: course.ID, Title: "Intro", IsPreviewFree: true,
			VideoFilename: "k1", VideoURL: "u1"},
		{ID: uuid.New(), CourseID: course.ID, Title: "Deep Dive",
			VideoFilename: "k2", VideoURL: "u2"},
	}}
	cache := &mockDetailCache{}
	svc := NewAccessService(
		logger.Discard(),
		pRepo,
		&mockCourseRepo{courses: map[uuid.UUID]*models.Course{course.ID: course}},
		&mockUserRepo{users: map[uuid.UUID]*models.User{creatorID: {ID: creatorID, Name: "Ada"}}},
		lRepo,
		passthroughFreshener{},
		cache,
	)
	return &fixture{svc: svc, purchases: pRepo, lectures: lRepo, cache: cache,
		creatorID: creatorID, course: course}
}

func grantPurchase(f *fixture, userID uuid.UUID) {
	courseID := f.course.ID
	f.purchases.successFn = func(ctx context.Context, uid, cid uuid.UUID) (*models.Purchase, error) {
		if uid == userID && cid == courseID {
			return &models.Purchase{UserID: uid, CourseID: cid, Status: models.PurchaseSuccess}, nil
		}
		return nil, app_errors.ErrPurchaseNotFound
	}
}

func TestHasPurchased_OnlySuccessCounts(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()

	// No purchase row at all.
	got, err := f.svc.HasPurchased(context.Background(), userID, f.course.ID)
	if err != nil || got {
		t.Fatalf("HasPurchased = %v, %v; want false, nil", got, err)
	}

	grantPurchase(f, userID)
	got, err = f.svc.HasPurchased(context.Background(), userID, f.course.ID)
	if err != nil || !got {
		t.Fatalf("HasPurchased = %v, %v; want true, nil", got, err)
	}
}

func TestCourseDetail_PurchaserSeesFullLectures(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	grantPurchase(f, userID)

	detail, purchased, err := f.svc.CourseDetail(context.Background(), userID, f.course.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !purchased {
		t.Errorf("purchased = false, want true")
	}
	for _, l := range detail.Lectures {
		if l.VideoURL == "" {
			t.Errorf("lecture %q redacted in the full view", l.Title)
		}
	}
	if f.cache.writes != 0 {
		t.Errorf("full view must not be cached")
	}
}

func TestCourseDetail_NonPurchaserGetsRedactedView(t *testing.T) {
	f := newFixture(t)

	detail, purchased, err := f.svc.CourseDetail(context.Background(), uuid.New(), f.course.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if purchased {
		t.Errorf("purchased = true, want false")
	}
	for _, l := range detail.Lectures {
		if l.IsPreviewFree {
			if l.VideoURL == "" {
				t.Errorf("preview lecture %q lost its video", l.Title)
			}
			continue
		}
		if l.VideoURL != "" || l.VideoFilename != "" {
			t.Errorf("paid lecture %q leaked its video to a non-purchaser", l.Title)
		}
	}
}

func TestCourseDetail_AnonymousHitsCacheOnSecondRead(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 2; i++ {
		if _, _, err := f.svc.CourseDetail(context.Background(), uuid.Nil, f.course.ID); err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
	}
	if f.cache.writes != 1 {
		t.Errorf("cache writes = %d, want 1", f.cache.writes)
	}
	if f.cache.hits != 1 {
		t.Errorf("cache hits = %d, want 1", f.cache.hits)
	}
	if f.lectures.calls != 1 {
		t.Errorf("lecture loads = %d, want 1 (second read served from cache)", f.lectures.calls)
	}
}

func TestCourseDetail_UnpublishedIsHiddenFromOutsiders(t *testing.T) {
	f := newFixture(t)
	f.course.IsPublished = false

	_, _, err := f.svc.CourseDetail(context.Background(), uuid.New(), f.course.ID)
	if !errors.Is(err, app_errors.ErrCourseNotFound) {
		t.Fatalf("error = %v, want ErrCourseNotFound", err)
	}

	// The creator still sees it.
	detail, purchased, err := f.svc.CourseDetail(context.Background(), f.creatorID, f.course.ID)
	if err != nil || !purchased {
		t.Fatalf("creator read: detail=%v purchased=%v err=%v", detail, purchased, err)
	}
}

func TestAuthorizeLecture(t *testing.T) {
	f := newFixture(t)
	buyerID := uuid.New()
	grantPurchase(f, buyerID)
	preview := &f.lectures.lectures[0]
	paid := &f.lectures.lectures[1]

	tests := []struct {
		name    string
		userID  uuid.UUID
		lecture *models.Lecture
		wantErr error
	}{
		{"creator sees paid lecture", f.creatorID, paid, nil},
		{"buyer sees paid lecture", buyerID, paid, nil},
		{"anonymous sees preview", uuid.Nil, preview, nil},
		{"anonymous blocked from paid", uuid.Nil, paid, app_errors.ErrCourseNotPurchased},
		{"stranger blocked from paid", uuid.New(), paid, app_errors.ErrCourseNotPurchased},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.AuthorizeLecture(context.Background(), tt.userID, tt.lecture)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPurchasedCourses_SkipsDeletedCourse(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.purchases.listFn = func(ctx context.Context, uid uuid.UUID) ([]models.Purchase, error) {
		return []models.Purchase{
			{UserID: uid, CourseID: f.course.ID, Status: models.PurchaseSuccess},
			{UserID: uid, CourseID: uuid.New(), Status: models.PurchaseSuccess},
		}, nil
	}

	got, err := f.svc.PurchasedCourses(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("courses = %d, want 1 (deleted course skipped)", len(got))
	}
	if got[0].Course.Course.ID != f.course.ID {
		t.Errorf("wrong course returned")
	}
}
