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

type LecturePostgres struct {
	db *pgxpool.Pool
}

func NewLecturePostgres(db *pgxpool.Pool) *LecturePostgres {
	return &LecturePostgres{db: db}
}

const lectureColumns = `id, section_id, course_id, title, lecture_order,
	is_preview_free, video_filename, video_url, video_url_expires_at, created_at, updated_at`

func scanLectureFromRows(rows pgx.Rows) (models.Lecture, error) {
	var l models.Lecture
	err := rows.Scan(&l.ID, &l.SectionID, &l.CourseID, &l.Title, &l.LectureOrder,
		&l.IsPreviewFree, &l.VideoFilename, &l.VideoURL, &l.VideoExpires, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func (r *LecturePostgres) CreateLecture(ctx context.Context, lecture models.Lecture) (*models.Lecture, error) {
	if lecture.ID == uuid.Nil {
		lecture.ID = uuid.New()
	}
	now := time.Now().UTC()
	lecture.CreatedAt = now
	lecture.UpdatedAt = now

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var maxOrder int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(lecture_order), 0) FROM lectures WHERE section_id = $1`,
		lecture.SectionID).Scan(&maxOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to get max lecture order: %w", err)
	}
	lecture.LectureOrder = maxOrder + 1

	query := `
		INSERT INTO lectures (id, section_id, course_id, title, lecture_order,
			is_preview_free, video_filename, video_url, video_url_expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = tx.Exec(ctx, query,
		lecture.ID, lecture.SectionID, lecture.CourseID, lecture.Title, lecture.LectureOrder,
		lecture.IsPreviewFree, lecture.VideoFilename, lecture.VideoURL, lecture.VideoExpires,
		lecture.CreatedAt, lecture.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create lecture: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &lecture, nil
}

func (r *LecturePostgres) LectureByID(ctx context.Context, id uuid.UUID) (*models.Lecture, error) {
	query := `SELECT ` + lectureColumns + ` FROM lectures WHERE id = $1`
	row := r.db.QueryRow(ctx, query, id)

	var l models.Lecture
	err := row.Scan(&l.ID, &l.SectionID, &l.CourseID, &l.Title, &l.LectureOrder,
		&l.IsPreviewFree, &l.VideoFilename, &l.VideoURL, &l.VideoExpires, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrLectureNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *LecturePostgres) UpdateLecture(ctx context.Context, lecture models.Lecture) (*models.Lecture, error) {
	lecture.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE lectures
		SET title = $1, is_preview_free = $2, video_filename = $3, video_url = $4,
			video_url_expires_at = $5, updated_at = $6
		WHERE id = $7
	`
	tag, err := r.db.Exec(ctx, query,
		lecture.Title, lecture.IsPreviewFree, lecture.VideoFilename, lecture.VideoURL,
		lecture.VideoExpires, lecture.UpdatedAt, lecture.ID,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, app_errors.ErrLectureNotFound
	}
	return &lecture, nil
}

// UpdateVideoURL persists a freshly issued presigned URL and its expiry
// without touching any other lecture field. Concurrent refreshes of the same
// lecture all write valid URLs, so last write wins.
func (r *LecturePostgres) UpdateVideoURL(ctx context.Context, id uuid.UUID, url string, expiresAt time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE lectures SET video_url = $1, video_url_expires_at = $2, updated_at = $3 WHERE id = $4`,
		url, expiresAt, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrLectureNotFound
	}
	return nil
}

func (r *LecturePostgres) DeleteLecture(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM lectures WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrLectureNotFound
	}
	return nil
}

func (r *LecturePostgres) LecturesByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Lecture, error) {
	query := `
		SELECT ` + lectureColumns + `
		FROM lectures l
		WHERE course_id = $1
		ORDER BY (SELECT section_order FROM sections s WHERE s.id = l.section_id), lecture_order
	`
	rows, err := r.db.Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lectures by course: %w", err)
	}
	defer rows.Close()

	var lectures []models.Lecture
	for rows.Next() {
		l, err := scanLectureFromRows(rows)
		if err != nil {
			return nil, err
		}
		lectures = append(lectures, l)
	}
	return lectures, rows.Err()
}

func (r *LecturePostgres) LecturesBySection(ctx context.Context, sectionID uuid.UUID) ([]models.Lecture, error) {
	query := `
		SELECT ` + lectureColumns + `
		FROM lectures
		WHERE section_id = $1
		ORDER BY lecture_order
	`
	rows, err := r.db.Query(ctx, query, sectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lectures by section: %w", err)
	}
	defer rows.Close()

	var lectures []models.Lecture
	for rows.Next() {
		l, err := scanLectureFromRows(rows)
		if err != nil {
			return nil, err
		}
		lectures = append(lectures, l)
	}
	return lectures, rows.Err()
}

func (r *LecturePostgres) CreateSection(ctx context.Context, section models.Section) (*models.Section, error) {
	if section.ID == uuid.Nil {
		section.ID = uuid.New()
	}
	now := time.Now().UTC()
	section.CreatedAt = now
	section.UpdatedAt = now

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var maxOrder int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(section_order), 0) FROM sections WHERE course_id = $1`,
		section.CourseID).Scan(&maxOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to get max section order: %w", err)
	}
	section.SectionOrder = maxOrder + 1

	_, err = tx.Exec(ctx,
		`INSERT INTO sections (id, course_id, title, section_order, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		section.ID, section.CourseID, section.Title, section.SectionOrder,
		section.CreatedAt, section.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create section: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &section, nil
}

func (r *LecturePostgres) SectionByID(ctx context.Context, id uuid.UUID) (*models.Section, error) {
	query := `
		SELECT id, course_id, title, section_order, created_at, updated_at
		FROM sections
		WHERE id = $1
	`
	var s models.Section
	err := r.db.QueryRow(ctx, query, id).
		Scan(&s.ID, &s.CourseID, &s.Title, &s.SectionOrder, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrSectionNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *LecturePostgres) UpdateSectionTitle(ctx context.Context, id uuid.UUID, title string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE sections SET title = $1, updated_at = $2 WHERE id = $3`,
		title, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrSectionNotFound
	}
	return nil
}

func (r *LecturePostgres) DeleteSection(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sections WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrSectionNotFound
	}
	return nil
}
