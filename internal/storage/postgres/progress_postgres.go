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

type ProgressPostgres struct {
	db *pgxpool.Pool
}

func NewProgressPostgres(db *pgxpool.Pool) *ProgressPostgres {
	return &ProgressPostgres{db: db}
}

// ProgressByUserCourse loads the progress row with its lecture entries.
// Returns app_errors.ErrProgressNotFound when no view event has created one.
func (r *ProgressPostgres) ProgressByUserCourse(ctx context.Context, userID, courseID uuid.UUID) (*models.CourseProgress, error) {
	var p models.CourseProgress
	err := r.db.QueryRow(ctx,
		`SELECT user_id, course_id, completed, updated_at
		 FROM course_progress WHERE user_id = $1 AND course_id = $2`,
		userID, courseID).
		Scan(&p.UserID, &p.CourseID, &p.Completed, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrProgressNotFound
		}
		return nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT lecture_id, viewed FROM lecture_progress
		 WHERE user_id = $1 AND course_id = $2`,
		userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lecture progress: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var lp models.LectureProgress
		if err := rows.Scan(&lp.LectureID, &lp.Viewed); err != nil {
			return nil, err
		}
		p.LectureProgress = append(p.LectureProgress, lp)
	}
	return &p, rows.Err()
}

// UpsertLectureViewed creates the progress row lazily if this is the first
// view event for the pair, then marks the lecture viewed. Re-marking an
// already-viewed lecture is a data no-op.
func (r *ProgressPostgres) UpsertLectureViewed(ctx context.Context, userID, courseID, lectureID uuid.UUID) error {
	now := time.Now().UTC()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO course_progress (user_id, course_id, completed, updated_at)
		 VALUES ($1, $2, FALSE, $3)
		 ON CONFLICT (user_id, course_id) DO NOTHING`,
		userID, courseID, now)
	if err != nil {
		return fmt.Errorf("failed to upsert course progress: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO lecture_progress (user_id, course_id, lecture_id, viewed, updated_at)
		 VALUES ($1, $2, $3, TRUE, $4)
		 ON CONFLICT (user_id, course_id, lecture_id)
		 DO UPDATE SET viewed = TRUE, updated_at = $4`,
		userID, courseID, lectureID, now)
	if err != nil {
		return fmt.Errorf("failed to upsert lecture progress: %w", err)
	}

	return tx.Commit(ctx)
}

// SetCompleted stores the derived completion flag.
func (r *ProgressPostgres) SetCompleted(ctx context.Context, userID, courseID uuid.UUID, completed bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE course_progress SET completed = $1, updated_at = $2
		 WHERE user_id = $3 AND course_id = $4`,
		completed, time.Now().UTC(), userID, courseID)
	if err != nil {
		return fmt.Errorf("failed to set completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrProgressNotFound
	}
	return nil
}

// BulkSetViewed sets the viewed flag for every lecture currently in the
// course and the course-level flag together. Entries are created for
// lectures never viewed before so a bulk complete covers the full course.
func (r *ProgressPostgres) BulkSetViewed(ctx context.Context, userID, courseID uuid.UUID, viewed bool) error {
	now := time.Now().UTC()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE course_progress SET completed = $1, updated_at = $2
		 WHERE user_id = $3 AND course_id = $4`,
		viewed, now, userID, courseID)
	if err != nil {
		return fmt.Errorf("failed to update course progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return app_errors.ErrProgressNotFound
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO lecture_progress (user_id, course_id, lecture_id, viewed, updated_at)
		 SELECT $3, $4, l.id, $1, $2 FROM lectures l WHERE l.course_id = $4
		 ON CONFLICT (user_id, course_id, lecture_id)
		 DO UPDATE SET viewed = $1, updated_at = $2`,
		viewed, now, userID, courseID)
	if err != nil {
		return fmt.Errorf("failed to update lecture progress: %w", err)
	}

	return tx.Commit(ctx)
}
