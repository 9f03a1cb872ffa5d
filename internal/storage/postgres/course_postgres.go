package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/haraherri/LMS-System/internal/app_errors"
	"github.com/haraherri/LMS-System/internal/models"
)

type CoursePostgres struct {
	db *pgxpool.Pool
}

func NewCoursePostgres(db *pgxpool.Pool) *CoursePostgres {
	return &CoursePostgres{db: db}
}

const courseColumns = `id, title, subtitle, description, category, level,
	price_cents, thumbnail_url, is_published, creator_id, created_at, updated_at`

func scanCourse(row pgx.Row) (*models.Course, error) {
	var c models.Course
	err := row.Scan(&c.ID, &c.Title, &c.Subtitle, &c.Description, &c.Category, &c.Level,
		&c.PriceCents, &c.ThumbnailURL, &c.IsPublished, &c.CreatorID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrCourseNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CoursePostgres) CreateCourse(ctx context.Context, course models.Course) (*models.Course, error) {
	if course.ID == uuid.Nil {
		course.ID = uuid.New()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now

	query := `
		INSERT INTO courses (id, title, subtitle, description, category, level,
			price_cents, thumbnail_url, is_published, creator_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.Exec(ctx, query,
		course.ID, course.Title, course.Subtitle, course.Description, course.Category, course.Level,
		course.PriceCents, course.ThumbnailURL, course.IsPublished, course.CreatorID,
		course.CreatedAt, course.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}
	return &course, nil
}

func (r *CoursePostgres) CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	return scanCourse(r.db.QueryRow(ctx, query, id))
}

func (r *CoursePostgres) UpdateCourse(ctx context.Context, course models.Course) (*models.Course, error) {
	course.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE courses
		SET title = $1, subtitle = $2, description = $3, category = $4, level = $5,
			price_cents = $6, thumbnail_url = $7, updated_at = $8
		WHERE id = $9
	`
	tag, err := r.db.Exec(ctx, query,
		course.Title, course.Subtitle, course.Description, course.Category, course.Level,
		course.PriceCents, course.ThumbnailURL, course.UpdatedAt, course.ID,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, app_errors.ErrCourseNotFound
	}
	return &course, nil
}

func (r *CoursePostgres) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE courses SET is_published = $1, updated_at = $2 WHERE id = $3`,
		published, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrCourseNotFound
	}
	return nil
}

func (r *CoursePostgres) DeleteCourse(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrCourseNotFound
	}
	return nil
}

func (r *CoursePostgres) ListPublishedCourses(ctx context.Context, limit, offset int) ([]models.Course, error) {
	query := `
		SELECT ` + courseColumns + `
		FROM courses
		WHERE is_published = TRUE
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query published courses: %w", err)
	}
	defer rows.Close()
	return collectCourses(rows)
}

func (r *CoursePostgres) CountPublishedCourses(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM courses WHERE is_published = TRUE`).Scan(&total)
	return total, err
}

func (r *CoursePostgres) ListCoursesByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.Course, error) {
	query := `
		SELECT ` + courseColumns + `
		FROM courses
		WHERE creator_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query creator courses: %w", err)
	}
	defer rows.Close()
	return collectCourses(rows)
}

func collectCourses(rows pgx.Rows) ([]models.Course, error) {
	var courses []models.Course
	for rows.Next() {
		var c models.Course
		if err := rows.Scan(&c.ID, &c.Title, &c.Subtitle, &c.Description, &c.Category, &c.Level,
			&c.PriceCents, &c.ThumbnailURL, &c.IsPublished, &c.CreatorID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// CountLectures returns the number of lectures the course currently has,
// across all of its sections. The completion rule always recomputes against
// this live count rather than a stored total.
func (r *CoursePostgres) CountLectures(ctx context.Context, courseID uuid.UUID) (int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM lectures WHERE course_id = $1`, courseID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count lectures: %w", err)
	}
	return total, nil
}

// CourseStructure returns the course's sections in order, each with its
// lectures in order.
func (r *CoursePostgres) CourseStructure(ctx context.Context, courseID uuid.UUID) ([]models.CourseStructure, error) {
	sectionsQuery := `
		SELECT id, course_id, title, section_order, created_at, updated_at
		FROM sections
		WHERE course_id = $1
		ORDER BY section_order
	`
	rows, err := r.db.Query(ctx, sectionsQuery, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sections: %w", err)
	}
	defer rows.Close()

	var sections []models.Section
	for rows.Next() {
		var s models.Section
		if err := rows.Scan(&s.ID, &s.CourseID, &s.Title, &s.SectionOrder, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lecturesQuery := `
		SELECT ` + lectureColumns + `
		FROM lectures
		WHERE course_id = $1
		ORDER BY section_id, lecture_order
	`
	lectureRows, err := r.db.Query(ctx, lecturesQuery, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lectures: %w", err)
	}
	defer lectureRows.Close()

	bySection := make(map[uuid.UUID][]models.Lecture)
	for lectureRows.Next() {
		l, err := scanLectureFromRows(lectureRows)
		if err != nil {
			return nil, err
		}
		bySection[l.SectionID] = append(bySection[l.SectionID], l)
	}
	if err := lectureRows.Err(); err != nil {
		return nil, err
	}

	var structure []models.CourseStructure
	for _, s := range sections {
		structure = append(structure, models.CourseStructure{
			Section:  s,
			Lectures: bySection[s.ID],
		})
	}
	return structure, nil
}
