package models

import (
	"time"

	"github.com/google/uuid"
)

type LectureProgress struct {
	LectureID uuid.UUID `json:"lecture_id"`
	Viewed    bool      `json:"viewed"`
}

// CourseProgress tracks one user's progress through one course. Completed is
// derived: true iff every lecture the course currently has is viewed.
type CourseProgress struct {
	UserID          uuid.UUID         `json:"user_id"`
	CourseID        uuid.UUID         `json:"course_id"`
	Completed       bool              `json:"completed"`
	LectureProgress []LectureProgress `json:"lecture_progress"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// ViewedCount returns how many lecture entries are marked viewed.
func (p *CourseProgress) ViewedCount() int {
	n := 0
	for _, lp := range p.LectureProgress {
		if lp.Viewed {
			n++
		}
	}
	return n
}
