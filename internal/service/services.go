package service

import (
	"github.com/haraherri/LMS-System/internal/service/access"
	"github.com/haraherri/LMS-System/internal/service/auth"
	"github.com/haraherri/LMS-System/internal/service/course"
	"github.com/haraherri/LMS-System/internal/service/lecture"
	"github.com/haraherri/LMS-System/internal/service/progress"
	"github.com/haraherri/LMS-System/internal/service/purchase"
)

type Collection struct {
	*auth.AuthService
	*course.CourseService
	*lecture.LectureService
	*purchase.PurchaseService
	*access.AccessService
	*progress.ProgressService
}
