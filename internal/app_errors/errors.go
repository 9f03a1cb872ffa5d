package app_errors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrUserExists = errors.New("user already exists")
var ErrUserNotFound = errors.New("user not found")
var ErrIncorrectPassword = errors.New("incorrect password")
var ErrTokenNotFound = errors.New("token not found")
var ErrTokenExpired = errors.New("token expired")
var ErrCourseNotFound = errors.New("course not found")
var ErrSectionNotFound = errors.New("section not found")
var ErrLectureNotFound = errors.New("lecture not found")
var ErrNotCourseCreator = errors.New("you are not the course creator")
var ErrCourseNotPublished = errors.New("course is not published yet")
var ErrCourseNotPurchased = errors.New("course is not purchased")
var ErrPurchaseNotFound = errors.New("purchase not found")
var ErrOwnCoursePurchase = errors.New("cannot purchase your own course")
var ErrAlreadyPurchased = errors.New("course already purchased")
var ErrTitleRequired = errors.New("course title is required")
var ErrNegativePrice = errors.New("course price cannot be negative")
var ErrInvalidSignature = errors.New("webhook signature verification failed")
var ErrProgressNotFound = errors.New("course progress not found")
var ErrNoVideo = errors.New("lecture has no video")
var ErrNotVideo = errors.New("only video files are allowed")
var ErrFileSize = errors.New("file size error")

// EnrollmentSide names which half of the enrollment dual-write failed.
type EnrollmentSide string

const (
	UserSide   EnrollmentSide = "user"
	CourseSide EnrollmentSide = "course"
)

// InconsistencyError marks a partial enrollment write: the purchase is
// already Success but one membership side could not be recorded. It is
// logged distinctly so operators can reconcile; it is never rolled back.
type InconsistencyError struct {
	Side     EnrollmentSide
	UserID   uuid.UUID
	CourseID uuid.UUID
	Cause    error
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("enrollment %s-side write failed for user %s course %s: %v",
		e.Side, e.UserID, e.CourseID, e.Cause)
}

func (e *InconsistencyError) Unwrap() error {
	return e.Cause
}
