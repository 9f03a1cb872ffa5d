package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/haraherri/LMS-System/internal/app/server"
	"github.com/haraherri/LMS-System/internal/config"
	"github.com/haraherri/LMS-System/internal/delivery/http"
	"github.com/haraherri/LMS-System/internal/metrics"
	"github.com/haraherri/LMS-System/internal/payment"
	"github.com/haraherri/LMS-System/internal/service"
	"github.com/haraherri/LMS-System/internal/service/access"
	"github.com/haraherri/LMS-System/internal/service/auth"
	"github.com/haraherri/LMS-System/internal/service/course"
	"github.com/haraherri/LMS-System/internal/service/lecture"
	"github.com/haraherri/LMS-System/internal/service/progress"
	"github.com/haraherri/LMS-System/internal/service/purchase"
	"github.com/haraherri/LMS-System/internal/storage/cache"
	"github.com/haraherri/LMS-System/internal/storage/elastic"
	"github.com/haraherri/LMS-System/internal/storage/minio_storage"
	"github.com/haraherri/LMS-System/internal/storage/postgres"
	"github.com/haraherri/LMS-System/pkg/logger"
)

const courseCacheTTL = 5 * time.Minute

func Run(cfg *config.Config) {
	log := logger.New(cfg.Env)
	log.Info("starting", "env", cfg.Env)

	databaseURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.DBName)
	if err := postgres.RunMigrations(databaseURL); err != nil {
		log.FatalErr("error running migrations", err)
	}

	pg, err := postgres.NewPostgresPool(cfg.Postgres.User, cfg.Postgres.Password,
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.DBName)
	if err != nil {
		log.FatalErr("error connecting to database", err)
	}
	defer pg.Close()

	minioStorage, err := minio_storage.NewMinioStorage(cfg.Minio.Endpoint,
		cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.UseSSL)
	if err != nil {
		log.FatalErr("error connecting to minio", err)
	}
	videoStorage, err := minio_storage.NewVideoStorage(minioStorage, cfg.Minio.Bucket, cfg.Minio.PresignTTL)
	if err != nil {
		log.FatalErr("error preparing video bucket", err)
	}

	esClient, err := elastic.NewElasticClient(cfg.ES.Password, cfg.ES.Hosts)
	if err != nil {
		log.FatalErr("error connecting to elasticsearch", err)
	}
	searchRepo := elastic.NewCourseSearchRepo(esClient, cfg.ES.Index)
	if err := searchRepo.CreateIndexIfNotExist(context.Background()); err != nil {
		log.FatalErr("error creating search index", err)
	}

	redisClient, err := cache.NewRedisClient(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.FatalErr("error connecting to redis", err)
	}
	defer redisClient.Close()
	courseCache := cache.NewCourseCache(redisClient, courseCacheTTL)

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promCollector := metrics.NewCollector(promRegistry)

	checkoutClient := payment.NewClient(cfg.Payment.APIBase, cfg.Payment.SecretKey)

	userRepo := postgres.NewUserPostgres(pg.Pool)
	tokenRepo := postgres.NewTokensPostgres(pg.Pool)
	courseRepo := postgres.NewCoursePostgres(pg.Pool)
	lectureRepo := postgres.NewLecturePostgres(pg.Pool)
	purchaseRepo := postgres.NewPurchasePostgres(pg.Pool)
	enrollmentRepo := postgres.NewEnrollmentPostgres(pg.Pool)
	progressRepo := postgres.NewProgressPostgres(pg.Pool)

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, "lms", cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	authService := auth.NewAuthService(log, jwtManager, userRepo, tokenRepo)
	courseService := course.NewCourseService(log, courseRepo, lectureRepo, searchRepo, videoStorage, courseCache)
	lectureService := lecture.NewLectureService(log, lectureRepo, courseRepo, videoStorage,
		courseCache, promCollector, cfg.Minio.RefreshThreshold)
	purchaseService := purchase.NewPurchaseService(log, purchaseRepo, enrollmentRepo, courseRepo,
		checkoutClient, promCollector, cfg.Payment.WebhookSecret, cfg.Payment.Currency, cfg.ClientURL)
	accessService := access.NewAccessService(log, purchaseRepo, courseRepo, userRepo,
		lectureRepo, lectureService, courseCache)
	progressService := progress.NewProgressService(log, progressRepo, courseRepo, lectureRepo, purchaseRepo)

	go purchaseService.AuditEnrollments(context.Background())

	u := service.Collection{
		AuthService:     authService,
		CourseService:   courseService,
		LectureService:  lectureService,
		PurchaseService: purchaseService,
		AccessService:   accessService,
		ProgressService: progressService,
	}

	r := http.InitRoutes(log, u, redisClient, promRegistry, cfg.ClientURL)

	srv := server.New(cfg.HTTPServer.Address, cfg.HTTPServer.Timeout, cfg.HTTPServer.IdleTimeout, r)
	srv.Start()
	log.Info("http server started", "address", cfg.HTTPServer.Address)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		log.Info("shutdown signal received", "signal", s.String())
	case err := <-srv.Notify():
		log.ErrorErr("http server stopped", err)
	}

	if err := srv.Shutdown(); err != nil {
		log.ErrorErr("server shutdown failed", err)
	}
}
