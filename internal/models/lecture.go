package models

import (
	"time"

	"github.com/google/uuid"
)

type Lecture struct {
	ID            uuid.UUID  `json:"id"`
	SectionID     uuid.UUID  `json:"section_id"`
	CourseID      uuid.UUID  `json:"course_id"`
	Title         string     `json:"title"`
	LectureOrder  int        `json:"lecture_order"`
	IsPreviewFree bool       `json:"is_preview_free"`
	VideoFilename string     `json:"video_filename,omitempty"`
	VideoURL      string     `json:"video_url,omitempty"`
	VideoExpires  *time.Time `json:"video_url_expires_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// VideoInfo carries a freshly uploaded video reference: the durable object
// key plus the presigned URL issued for it and that URL's expiry.
type VideoInfo struct {
	VideoFilename string    `json:"video_filename"`
	URL           string    `json:"url"`
	Expires       time.Time `json:"expires"`
}

// Redacted strips gated content from a lecture for unauthenticated or
// non-purchasing callers. Preview-free lectures keep their video reference.
func (l Lecture) Redacted() Lecture {
	if l.IsPreviewFree {
		return l
	}
	l.VideoFilename = ""
	l.VideoURL = ""
	l.VideoExpires = nil
	return l
}
