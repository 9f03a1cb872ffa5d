package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnrollmentPostgres maintains the two denormalized membership sides: the
// user's enrolled-course set and the course's enrolled-student set. The two
// writes are deliberately independent (no shared transaction); the webhook
// orchestrator surfaces a partial failure instead of rolling back, because
// by then the payment is already captured.
type EnrollmentPostgres struct {
	db *pgxpool.Pool
}

func NewEnrollmentPostgres(db *pgxpool.Pool) *EnrollmentPostgres {
	return &EnrollmentPostgres{db: db}
}

// AddUserEnrollment records the course in the user's enrolled set.
// ON CONFLICT DO NOTHING gives set semantics, so duplicate webhook
// deliveries are absorbed.
func (r *EnrollmentPostgres) AddUserEnrollment(ctx context.Context, userID, courseID uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO user_enrollments (user_id, course_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		userID, courseID)
	if err != nil {
		return fmt.Errorf("failed to add user enrollment: %w", err)
	}
	return nil
}

// AddCourseEnrollment records the user in the course's enrolled set.
func (r *EnrollmentPostgres) AddCourseEnrollment(ctx context.Context, courseID, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO course_enrollments (course_id, user_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		courseID, userID)
	if err != nil {
		return fmt.Errorf("failed to add course enrollment: %w", err)
	}
	return nil
}

func (r *EnrollmentPostgres) CourseEnrolledUsers(ctx context.Context, courseID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id FROM course_enrollments WHERE course_id = $1`, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query course enrollments: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FindMismatches lists (user, course) pairs present on one membership side
// only. Operators run this to reconcile after a surfaced partial write.
func (r *EnrollmentPostgres) FindMismatches(ctx context.Context) ([][2]uuid.UUID, error) {
	query := `
		SELECT user_id, course_id FROM user_enrollments
		EXCEPT
		SELECT user_id, course_id FROM course_enrollments
		UNION
		(SELECT user_id, course_id FROM course_enrollments
		 EXCEPT
		 SELECT user_id, course_id FROM user_enrollments)
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollment mismatches: %w", err)
	}
	defer rows.Close()

	var pairs [][2]uuid.UUID
	for rows.Next() {
		var userID, courseID uuid.UUID
		if err := rows.Scan(&userID, &courseID); err != nil {
			return nil, err
		}
		pairs = append(pairs, [2]uuid.UUID{userID, courseID})
	}
	return pairs, rows.Err()
}
