package lecture

import (
	"context"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/haraherri/LMS-System/internal/app_errors"
	"github.com/haraherri/LMS-System/internal/metrics"
	"github.com/haraherri/LMS-System/internal/models"
	"github.com/haraherri/LMS-System/pkg/logger"
)

const maxVideoSizeBytes = 4 << 30

type lectureRepo interface {
	CreateLecture(ctx context.Context, lecture models.Lecture) (*models.Lecture, error)
	LectureByID(ctx context.Context, id uuid.UUID) (*models.Lecture, error)
	UpdateLecture(ctx context.Context, lecture models.Lecture) (*models.Lecture, error)
	UpdateVideoURL(ctx context.Context, id uuid.UUID, url string, expiresAt time.Time) error
	DeleteLecture(ctx context.Context, id uuid.UUID) error
	SectionByID(ctx context.Context, id uuid.UUID) (*models.Section, error)
}

type courseRepo interface {
	CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
}

type videoRepo interface {
	UploadVideo(ctx context.Context, lectureID uuid.UUID, filename string, reader io.Reader, size int64, contentType string) (string, error)
	PresignedVideoURL(ctx context.Context, objectKey string) (string, time.Time, error)
	DeleteVideo(ctx context.Context, objectKey string) error
}

type detailCache interface {
	InvalidateDetail(ctx context.Context, courseID uuid.UUID) error
}

// LectureService owns lecture CRUD and the signed video URL lifecycle.
// URLs are refreshed lazily on read: a stored URL is reused until it is
// within refreshThreshold of expiring, then a new one is presigned and
// persisted.
type LectureService struct {
	log              logger.Log
	lectureRepo      lectureRepo
	courseRepo       courseRepo
	videoRepo        videoRepo
	cache            detailCache
	metrics          metrics.Collector
	refreshThreshold time.Duration
}

func NewLectureService(log logger.Log, lRepo lectureRepo, cRepo courseRepo,
	vRepo videoRepo, cache detailCache, m metrics.Collector, refreshThreshold time.Duration) *LectureService {
	return &LectureService{
		log:              log,
		lectureRepo:      lRepo,
		courseRepo:       cRepo,
		videoRepo:        vRepo,
		cache:            cache,
		metrics:          m,
		refreshThreshold: refreshThreshold,
	}
}

func (s *LectureService) CreateLecture(ctx context.Context, creatorID uuid.UUID, lecture models.Lecture) (*models.Lecture, error) {
	section, err := s.lectureRepo.SectionByID(ctx, lecture.SectionID)
	if err != nil {
		return nil, err
	}
	lecture.CourseID = section.CourseID
	if err := s.requireCreator(ctx, lecture.CourseID, creatorID); err != nil {
		return nil, err
	}
	created, err := s.lectureRepo.CreateLecture(ctx, lecture)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, lecture.CourseID)
	return created, nil
}

func (s *LectureService) UpdateLecture(ctx context.Context, creatorID uuid.UUID, lecture models.Lecture) (*models.Lecture, error) {
	existing, err := s.lectureRepo.LectureByID(ctx, lecture.ID)
	if err != nil {
		return nil, err
	}
	if err := s.requireCreator(ctx, existing.CourseID, creatorID); err != nil {
		return nil, err
	}
	// Video fields are owned by the upload path.
	lecture.CourseID = existing.CourseID
	lecture.VideoFilename = existing.VideoFilename
	lecture.VideoURL = existing.VideoURL
	lecture.VideoExpires = existing.VideoExpires

	updated, err := s.lectureRepo.UpdateLecture(ctx, lecture)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, existing.CourseID)
	return updated, nil
}

func (s *LectureService) DeleteLecture(ctx context.Context, creatorID, lectureID uuid.UUID) error {
	lecture, err := s.lectureRepo.LectureByID(ctx, lectureID)
	if err != nil {
		return err
	}
	if err := s.requireCreator(ctx, lecture.CourseID, creatorID); err != nil {
		return err
	}
	if err := s.lectureRepo.DeleteLecture(ctx, lectureID); err != nil {
		return err
	}
	if lecture.VideoFilename != "" {
		if err := s.videoRepo.DeleteVideo(ctx, lecture.VideoFilename); err != nil {
			s.log.ErrorErr("failed to delete lecture video", err,
				"object_key", lecture.VideoFilename)
		}
	}
	s.invalidate(ctx, lecture.CourseID)
	return nil
}

// Lecture returns the lecture with a video URL guaranteed valid for at
// least the refresh threshold, refreshing and persisting it when needed.
func (s *LectureService) Lecture(ctx context.Context, lectureID uuid.UUID) (*models.Lecture, error) {
	lecture, err := s.lectureRepo.LectureByID(ctx, lectureID)
	if err != nil {
		return nil, err
	}
	return s.withFreshURL(ctx, lecture), nil
}

func (s *LectureService) withFreshURL(ctx context.Context, lecture *models.Lecture) *models.Lecture {
	if lecture.VideoFilename == "" {
		return lecture
	}
	if lecture.VideoURL != "" && lecture.VideoExpires != nil &&
		time.Until(*lecture.VideoExpires) >= s.refreshThreshold {
		return lecture
	}

	url, expires, err := s.videoRepo.PresignedVideoURL(ctx, lecture.VideoFilename)
	if err != nil {
		// Serve the cached URL while it is still valid at all.
		s.log.ErrorErr("failed to refresh video URL", err,
			"lecture_id", lecture.ID.String())
		if lecture.VideoURL != "" && lecture.VideoExpires != nil &&
			lecture.VideoExpires.After(time.Now()) {
			return lecture
		}
		lecture.VideoURL = ""
		lecture.VideoExpires = nil
		return lecture
	}

	if err := s.lectureRepo.UpdateVideoURL(ctx, lecture.ID, url, expires); err != nil {
		s.log.ErrorErr("failed to persist refreshed video URL", err,
			"lecture_id", lecture.ID.String())
	}
	s.metrics.RecordVideoURLRefresh()

	lecture.VideoURL = url
	lecture.VideoExpires = &expires
	return lecture
}

// Freshen applies the URL refresh policy to a lecture list in place and
// returns it. Used when a whole course's lectures are served at once.
func (s *LectureService) Freshen(ctx context.Context, lectures []models.Lecture) []models.Lecture {
	for i := range lectures {
		lectures[i] = *s.withFreshURL(ctx, &lectures[i])
	}
	return lectures
}

// UploadVideo stores a new video object and swaps the lecture's reference
// to it. The new reference is persisted before the old object is removed,
// so a crash in between leaves an orphaned object, never a broken lecture.
func (s *LectureService) UploadVideo(
	ctx context.Context,
	creatorID, lectureID uuid.UUID,
	filename string,
	reader io.Reader,
	size int64,
	contentType string,
) (*models.VideoInfo, error) {
	lecture, err := s.lectureRepo.LectureByID(ctx, lectureID)
	if err != nil {
		return nil, err
	}
	if err := s.requireCreator(ctx, lecture.CourseID, creatorID); err != nil {
		return nil, err
	}

	if size <= 0 || size > maxVideoSizeBytes {
		return nil, app_errors.ErrFileSize
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	}
	if !strings.HasPrefix(contentType, "video/") {
		return nil, app_errors.ErrNotVideo
	}

	objectKey, err := s.videoRepo.UploadVideo(ctx, lectureID, filename, reader, size, contentType)
	if err != nil {
		return nil, err
	}

	url, expires, err := s.videoRepo.PresignedVideoURL(ctx, objectKey)
	if err != nil {
		return nil, err
	}

	oldKey := lecture.VideoFilename
	lecture.VideoFilename = objectKey
	lecture.VideoURL = url
	lecture.VideoExpires = &expires
	if _, err := s.lectureRepo.UpdateLecture(ctx, *lecture); err != nil {
		return nil, err
	}

	if oldKey != "" {
		if err := s.videoRepo.DeleteVideo(ctx, oldKey); err != nil {
			s.log.ErrorErr("failed to delete replaced video", err, "object_key", oldKey)
		}
	}

	s.invalidate(ctx, lecture.CourseID)
	return &models.VideoInfo{VideoFilename: objectKey, URL: url, Expires: expires}, nil
}

func (s *LectureService) requireCreator(ctx context.Context, courseID, creatorID uuid.UUID) error {
	course, err := s.courseRepo.CourseByID(ctx, courseID)
	if err != nil {
		return err
	}
	if course.CreatorID != creatorID {
		return app_errors.ErrNotCourseCreator
	}
	return nil
}

func (s *LectureService) invalidate(ctx context.Context, courseID uuid.UUID) {
	if err := s.cache.InvalidateDetail(ctx, courseID); err != nil {
		s.log.ErrorErr("failed to invalidate course cache", err)
	}
}
