package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/haraherri/LMS-System/internal/delivery/http/controllers"
	"github.com/haraherri/LMS-System/internal/metrics"
	"github.com/haraherri/LMS-System/internal/models"
	"github.com/haraherri/LMS-System/internal/service"
	"github.com/haraherri/LMS-System/pkg/logger"
)

func InitRoutes(l logger.Log, u service.Collection, redisClient *redis.Client,
	promRegistry *prometheus.Registry, clientURL string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	config := cors.Config{
		AllowOrigins:     []string{clientURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	r.Use(cors.New(config))

	statusController := controllers.NewStatusHandler()
	authController := controllers.NewAuthHandler(l, u.AuthService)
	courseController := controllers.NewCourseHandler(l, u.CourseService, u.AccessService)
	lectureController := controllers.NewLectureHandler(l, u.LectureService, u.AccessService)
	purchaseController := controllers.NewPurchaseHandler(l, u.PurchaseService, u.AccessService)
	progressController := controllers.NewProgressHandler(l, u.ProgressService)
	limiter := controllers.NewRateLimiter(redisClient)

	r.GET("/metrics", gin.WrapH(metrics.Handler(promRegistry)))

	v1 := r.Group("/v1", controllers.LoggingMiddleware(l))
	{
		v1.GET("/status", statusController.Status)

		// Provider deliveries are authenticated by signature, not a token.
		v1.POST("/purchase/webhook", purchaseController.Webhook)

		auth := v1.Group("/auth")
		{
			auth.POST("/register", limiter.Limit("register", 10, time.Minute), authController.Register)
			auth.POST("/login", limiter.Limit("login", 20, time.Minute), authController.Login)
			auth.POST("/refresh", authController.Refresh)
			auth.POST("/logout", authController.AuthMiddleware, authController.Logout)
		}

		v1.GET("/me", authController.AuthMiddleware, authController.Me)
		v1.PUT("/me", authController.AuthMiddleware, authController.UpdateProfile)

		courses := v1.Group("/courses")
		{
			courses.GET("", courseController.ListCourses)
			courses.GET("/:course_id", authController.OptionalAuthMiddleware, courseController.CourseDetail)
			courses.GET("/:course_id/structure", courseController.CourseStructure)
			courses.GET("/:course_id/lectures/:lecture_id", authController.OptionalAuthMiddleware, lectureController.Lecture)

			instructor := courses.Group("", authController.AuthMiddleware, controllers.RequireRole(models.InstructorRole))
			{
				instructor.POST("", courseController.CreateCourse)
				instructor.PUT("/:course_id", courseController.UpdateCourse)
				instructor.DELETE("/:course_id", courseController.DeleteCourse)
				instructor.PATCH("/:course_id/publish", courseController.PublishCourse)
				instructor.PATCH("/:course_id/unpublish", courseController.UnpublishCourse)
				instructor.GET("/my-courses", courseController.MyCourses)
				instructor.GET("/revenue", purchaseController.Revenue)
				instructor.GET("/:course_id/students", purchaseController.EnrolledStudents)

				instructor.POST("/:course_id/sections", courseController.CreateSection)
				instructor.PATCH("/sections/:section_id", courseController.RenameSection)
				instructor.DELETE("/sections/:section_id", courseController.DeleteSection)

				instructor.POST("/sections/:section_id/lectures", lectureController.CreateLecture)
				instructor.PATCH("/lectures/:lecture_id", lectureController.UpdateLecture)
				instructor.DELETE("/lectures/:lecture_id", lectureController.DeleteLecture)
				instructor.PUT("/lectures/:lecture_id/video", lectureController.UploadVideo)
			}

			student := courses.Group("", authController.AuthMiddleware)
			{
				student.POST("/:course_id/checkout",
					limiter.Limit("checkout", 10, time.Minute),
					purchaseController.CreateCheckoutSession)
				student.GET("/:course_id/purchase-status", purchaseController.PurchaseStatus)
				student.GET("/purchased", courseController.PurchasedCourses)

				student.POST("/:course_id/progress/lectures/:lecture_id/view", progressController.RecordView)
				student.GET("/:course_id/progress", progressController.Progress)
				student.POST("/:course_id/progress/complete", progressController.MarkCompleted)
				student.POST("/:course_id/progress/incomplete", progressController.MarkIncomplete)
			}
		}
	}
	return r
}
