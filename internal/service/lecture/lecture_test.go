package lecture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/haraherri/LMS-System/internal/app_errors"
	"github.com/haraherri/LMS-System/internal/models"
	"github.com/haraherri/LMS-System/pkg/logger"
)

const testPresignTTL = 168 * time.Hour

type mockLectureRepo struct {
	lectures        map[uuid.UUID]*models.Lecture
	updateVideoURLs []string
	updated         []models.Lecture
	updateVideoErr  error
}

func newMockLectureRepo(lectures ...*models.Lecture) *mockLectureRepo {
	m := &mockLectureRepo{lectures: map[uuid.UUID]*models.Lecture{}}
	for _, l := range lectures {
		m.lectures[l.ID] = l
	}
	return m
}

func (m *mockLectureRepo) CreateLecture(ctx context.Context, lecture models.Lecture) (*models.Lecture, error) {
	lecture.ID = uuid.New()
	m.lectures[lecture.ID] = &lecture
	return &lecture, nil
}

func (m *mockLectureRepo) LectureByID(ctx context.Context, id uuid.UUID) (*models.Lecture, error) {
	l, ok := m.lectures[id]
	if !ok {
		return nil, app_errors.ErrLectureNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *mockLectureRepo) UpdateLecture(ctx context.Context, lecture models.Lecture) (*models.Lecture, error) {
	m.updated = append(m.updated, lecture)
	m.lectures[lecture.ID] = &lecture
	return &lecture, nil
}

func (m *mockLectureRepo) UpdateVideoURL(ctx context.Context, id uuid.UUID, url string, expiresAt time.Time) error {
	if m.updateVideoErr != nil {
		return m.updateVideoErr
	}
	m.updateVideoURLs = append(m.updateVideoURLs, url)
	if l, ok := m.lectures[id]; ok {
		l.VideoURL = url
		l.VideoExpires = &expiresAt
	}
	return nil
}

func (m *mockLectureRepo) DeleteLecture(ctx context.Context, id uuid.UUID) error {
	delete(m.lectures, id)
	return nil
}

func (m *mockLectureRepo) SectionByID(ctx context.Context, id uuid.UUID) (*models.Section, error) {
	return nil, app_errors.ErrSectionNotFound
}

type mockCourseRepo struct {
	course *models.Course
}

func (m *mockCourseRepo) CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	if m.course == nil {
		return nil, app_errors.ErrCourseNotFound
	}
	return m.course, nil
}

type mockVideoStorage struct {
	presignFn    func(ctx context.Context, objectKey string) (string, time.Time, error)
	presignCalls int
	uploads      []string
	deletes      []string
}

func (m *mockVideoStorage) UploadVideo(ctx context.Context, lectureID uuid.UUID, filename string,
	reader io.Reader, size int64, contentType string) (string, error) {
	key := "lectures/" + lectureID.String() + "/" + filename
	m.uploads = append(m.uploads, key)
	return key, nil
}

func (m *mockVideoStorage) PresignedVideoURL(ctx context.Context, objectKey string) (string, time.Time, error) {
	m.presignCalls++
	if m.presignFn != nil {
		return m.presignFn(ctx, objectKey)
	}
	return "https://media.example/" + objectKey + "?sig=fresh", time.Now().UTC().Add(testPresignTTL), nil
}

func (m *mockVideoStorage) DeleteVideo(ctx context.Context, objectKey string) error {
	m.deletes = append(m.deletes, objectKey)
	return nil
}

type nopCache struct{}

func (nopCache) InvalidateDetail(ctx context.Context, courseID uuid.UUID) error { return nil }

type countingCollector struct {
	refreshes int
}

func (c *countingCollector) RecordCheckoutSession()                 {}
func (c *countingCollector) RecordWebhookEvent(eventType, o string) {}
func (c *countingCollector) RecordEnrollmentInconsistency()         {}
func (c *countingCollector) RecordVideoURLRefresh()                 { c.refreshes++ }

func newService(lRepo *mockLectureRepo, cRepo *mockCourseRepo, video *mockVideoStorage,
	collector *countingCollector) *LectureService {
	return NewLectureService(logger.Discard(), lRepo, cRepo, video, nopCache{}, collector, 24*time.Hour)
}

func lectureWithVideo(expiresIn time.Duration) *models.Lecture {
	expires := time.Now().UTC().Add(expiresIn)
	return &models.Lecture{
		ID:            uuid.New(),
		CourseID:      uuid.New(),
		Title:         "Consensus Basics",
		VideoFilename: "lectures/abc/video.mp4",
		VideoURL:      "https://media.example/lectures/abc/video.mp4?sig=old",
		VideoExpires:  &expires,
	}
}

func TestLecture_FreshURLIsServedAsIs(t *testing.T) {
	l := lectureWithVideo(48 * time.Hour)
	lRepo := newMockLectureRepo(l)
	video := &mockVideoStorage{}
	svc := newService(lRepo, &mockCourseRepo{}, video, &countingCollector{})

	got, err := svc.Lecture(context.Background(), l.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if video.presignCalls != 0 {
		t.Errorf("presign calls = %d, want 0 for a URL valid well past the threshold", video.presignCalls)
	}
	if got.VideoURL != l.VideoURL {
		t.Errorf("url = %q, want stored one", got.VideoURL)
	}
}

func TestLecture_NearExpiryURLIsRefreshed(t *testing.T) {
	l := lectureWithVideo(23 * time.Hour)
	lRepo := newMockLectureRepo(l)
	video := &mockVideoStorage{}
	collector := &countingCollector{}
	svc := newService(lRepo, &mockCourseRepo{}, video, collector)

	got, err := svc.Lecture(context.Background(), l.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if video.presignCalls != 1 {
		t.Fatalf("presign calls = %d, want 1", video.presignCalls)
	}
	if !strings.Contains(got.VideoURL, "sig=fresh") {
		t.Errorf("url = %q, want the refreshed one", got.VideoURL)
	}
	if got.VideoExpires == nil || time.Until(*got.VideoExpires) < testPresignTTL-time.Minute {
		t.Errorf("expiry not extended: %v", got.VideoExpires)
	}
	if len(lRepo.updateVideoURLs) != 1 {
		t.Errorf("refreshed URL was not persisted")
	}
	if collector.refreshes != 1 {
		t.Errorf("refresh metric = %d, want 1", collector.refreshes)
	}
}

func TestLecture_NoVideoNoRefresh(t *testing.T) {
	l := &models.Lecture{ID: uuid.New(), CourseID: uuid.New(), Title: "Reading List"}
	lRepo := newMockLectureRepo(l)
	video := &mockVideoStorage{}
	svc := newService(lRepo, &mockCourseRepo{}, video, &countingCollector{})

	got, err := svc.Lecture(context.Background(), l.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if video.presignCalls != 0 {
		t.Errorf("presign calls = %d, want 0 for a lecture without video", video.presignCalls)
	}
	if got.VideoURL != "" {
		t.Errorf("url = %q, want empty", got.VideoURL)
	}
}

func TestLecture_RefreshFailureServesValidCachedURL(t *testing.T) {
	l := lectureWithVideo(2 * time.Hour) // inside threshold but not yet expired
	lRepo := newMockLectureRepo(l)
	video := &mockVideoStorage{
		presignFn: func(ctx context.Context, objectKey string) (string, time.Time, error) {
			return "", time.Time{}, fmt.Errorf("storage unreachable")
		},
	}
	svc := newService(lRepo, &mockCourseRepo{}, video, &countingCollector{})

	got, err := svc.Lecture(context.Background(), l.ID)
	if err != nil {
		t.Fatalf("refresh failure must not fail the read: %v", err)
	}
	if got.VideoURL != l.VideoURL {
		t.Errorf("url = %q, want the still-valid cached one", got.VideoURL)
	}
}

func TestLecture_RefreshFailureWithExpiredURL(t *testing.T) {
	l := lectureWithVideo(-time.Hour)
	lRepo := newMockLectureRepo(l)
	video := &mockVideoStorage{
		presignFn: func(ctx context.Context, objectKey string) (string, time.Time, error) {
			return "", time.Time{}, fmt.Errorf("storage unreachable")
		},
	}
	svc := newService(lRepo, &mockCourseRepo{}, video, &countingCollector{})

	got, err := svc.Lecture(context.Background(), l.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.VideoURL != "" || got.VideoExpires != nil {
		t.Errorf("expired unusable URL must not be served, got %q", got.VideoURL)
	}
}

func TestUploadVideo_ReplacePersistsBeforeDelete(t *testing.T) {
	creatorID := uuid.New()
	l := lectureWithVideo(48 * time.Hour)
	oldKey := l.VideoFilename
	lRepo := newMockLectureRepo(l)
	video := &mockVideoStorage{}
	svc := newService(lRepo, &mockCourseRepo{
		course: &models.Course{ID: l.CourseID, CreatorID: creatorID},
	}, video, &countingCollector{})

	info, err := svc.UploadVideo(context.Background(), creatorID, l.ID,
		"new.mp4", bytes.NewReader([]byte("data")), 4, "video/mp4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(lRepo.updated) != 1 {
		t.Fatalf("lecture update count = %d, want 1", len(lRepo.updated))
	}
	if lRepo.updated[0].VideoFilename != info.VideoFilename {
		t.Errorf("persisted key = %q, want %q", lRepo.updated[0].VideoFilename, info.VideoFilename)
	}
	if len(video.deletes) != 1 || video.deletes[0] != oldKey {
		t.Errorf("deletes = %v, want old key %q removed", video.deletes, oldKey)
	}
}

func TestUploadVideo_Validation(t *testing.T) {
	creatorID := uuid.New()
	l := lectureWithVideo(48 * time.Hour)

	tests := []struct {
		name        string
		caller      uuid.UUID
		size        int64
		contentType string
		wantErr     error
	}{
		{"not the creator", uuid.New(), 4, "video/mp4", app_errors.ErrNotCourseCreator},
		{"not a video", creatorID, 4, "image/png", app_errors.ErrNotVideo},
		{"empty file", creatorID, 0, "video/mp4", app_errors.ErrFileSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lRepo := newMockLectureRepo(l)
			video := &mockVideoStorage{}
			svc := newService(lRepo, &mockCourseRepo{
				course: &models.Course{ID: l.CourseID, CreatorID: creatorID},
			}, video, &countingCollector{})

			_, err := svc.UploadVideo(context.Background(), tt.caller, l.ID,
				"f.bin", bytes.NewReader([]byte("data")), tt.size, tt.contentType)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if len(video.uploads) != 0 {
				t.Errorf("rejected upload must not reach storage")
			}
		})
	}
}
