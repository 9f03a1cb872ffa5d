package models

import (
	"time"

	"github.com/google/uuid"
)

type Course struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Subtitle     string    `json:"subtitle"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Level        string    `json:"level"`
	PriceCents   int64     `json:"price_cents"`
	ThumbnailURL string    `json:"thumbnail_url"`
	IsPublished  bool      `json:"is_published"`
	CreatorID    uuid.UUID `json:"creator_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CourseStructure is a course's sections with their ordered lectures.
type CourseStructure struct {
	Section  Section   `json:"section"`
	Lectures []Lecture `json:"lectures"`
}

// CourseDetail is what the detail endpoints return: the course, its
// creator's public fields and the full lecture list.
type CourseDetail struct {
	Course   Course    `json:"course"`
	Creator  Creator   `json:"creator"`
	Lectures []Lecture `json:"lectures"`
}

type Creator struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	PhotoURL string    `json:"photo_url"`
}

// CourseRevenue aggregates successful purchases for one course.
type CourseRevenue struct {
	CourseID     uuid.UUID `json:"course_id"`
	Title        string    `json:"title"`
	SalesCount   int       `json:"sales_count"`
	RevenueCents int64     `json:"revenue_cents"`
}
