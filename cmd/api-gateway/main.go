package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/skillhub-api/api/swagger"
	"github.com/noah-isme/skillhub-api/internal/handler"
	"github.com/noah-isme/skillhub-api/internal/repository"
	"github.com/noah-isme/skillhub-api/internal/server"
	"github.com/noah-isme/skillhub-api/internal/service"
	"github.com/noah-isme/skillhub-api/migrations"
	"github.com/noah-isme/skillhub-api/pkg/cache"
	"github.com/noah-isme/skillhub-api/pkg/config"
	"github.com/noah-isme/skillhub-api/pkg/database"
	"github.com/noah-isme/skillhub-api/pkg/export"
	"github.com/noah-isme/skillhub-api/pkg/jobs"
	"github.com/noah-isme/skillhub-api/pkg/logger"
	"github.com/noah-isme/skillhub-api/pkg/mail"
	"github.com/noah-isme/skillhub-api/pkg/oembed"
	"github.com/noah-isme/skillhub-api/pkg/storage"
)

// @title SkillHub API
// @version 1.0.0
// @description Online course marketplace: catalog, enrollment, assessment and payments.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.NewMigrator(db, migrations.FS, ".", logr).Up(); err != nil {
			logr.Fatal("apply migrations", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	uploads, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		logr.Fatal("prepare uploads dir", zap.Error(err))
	}
	exportsDir, err := storage.NewLocalStorage(cfg.Exports.Dir)
	if err != nil {
		logr.Fatal("prepare exports dir", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	mailer, err := mail.New(cfg.Mail, logr)
	if err != nil {
		logr.Fatal("configure mailer", zap.Error(err))
	}

	var videoLookup *oembed.Client
	if cfg.Video.OEmbedEnabled {
		videoLookup = oembed.NewClient(cfg.Video.OEmbedTimeout)
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled && redisClient != nil)

	mux := jobs.NewMux()
	mailQueue := jobs.NewQueue("mail", mux.Dispatch, jobs.QueueConfig{
		Workers:      cfg.Mail.Workers,
		BufferSize:   256,
		MaxRetries:   cfg.Mail.Retries,
		RetryDelay:   cfg.Mail.RetryDelay,
		DrainTimeout: 10 * time.Second,
		Logger:       logr,
	})
	notifier := service.NewNotificationService(mailQueue, mailer, metrics, cfg.Mail.FrontendURL, logr)
	notifier.Register(mux)
	mailQueue.Start(ctx)
	defer mailQueue.Stop()

	files := service.NewFileService(signer, map[string]service.FileLocator{
		service.ScopeUploads: uploads,
		service.ScopeExports: exportsDir,
	}, cfg.APIPrefix+"/files", logr)
	exports := service.NewExportService(exportsDir, files, cfg.Exports.Retention, logr, export.NewCSVExporter(), export.NewPDFExporter())

	authSvc := service.NewAuthService(userRepo, notifier, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		ResetTokenExpiry:   cfg.PasswordReset.TTL,
		Issuer:             cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, cacheSvc, logr)
	categorySvc := service.NewCategoryService(categoryRepo, cacheSvc, cfg.Dashboard.CatalogCacheTTL, userRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, categoryRepo, uploads, notifier, cacheSvc, userRepo, validate, logr, service.CourseServiceConfig{
		MaxFileSize: cfg.Uploads.MaxFileSizeBytes,
		MediaURL:    "/media",
	})
	lessonSvc := service.NewLessonService(lessonRepo, courseRepo, uploads, videoLookup, validate, logr, service.LessonServiceConfig{
		MaxVideoSize: cfg.Uploads.MaxVideoBytes,
		MediaURL:     "/media",
	})
	progressSvc := service.NewProgressService(db, enrollmentRepo, progressRepo, lessonRepo, cacheSvc, validate, logr)
	quizSvc := service.NewQuizService(quizRepo, courseRepo, progressSvc, metrics, validate, logr)
	assignmentSvc := service.NewAssignmentService(service.AssignmentServiceParams{
		Assignments: assignmentRepo,
		Courses:     courseRepo,
		Enrollments: enrollmentRepo,
		Storage:     uploads,
		Files:       files,
		Notifier:    notifier,
		Audit:       userRepo,
		Validator:   validate,
		Logger:      logr,
		MaxFileSize: cfg.Uploads.MaxFileSizeBytes,
	})
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, courseRepo, exports, cacheSvc, metrics, logr)
	paymentSvc := service.NewPaymentService(service.PaymentServiceParams{
		DB:          db,
		Payments:    paymentRepo,
		Enrollments: enrollmentRepo,
		Courses:     courseRepo,
		Users:       userRepo,
		Exports:     exports,
		Notifier:    notifier,
		Cache:       cacheSvc,
		Metrics:     metrics,
		Audit:       userRepo,
		Validator:   validate,
		Logger:      logr,
	})
	dashboardSvc := service.NewDashboardService(dashboardRepo, cacheSvc, cfg.Dashboard.CacheTTL, metrics, logr)

	if cfg.Maintenance.Enabled {
		maintenance := service.NewMaintenanceService(userRepo, exports, cfg.Maintenance.Spec, logr)
		if err := maintenance.Start(ctx); err != nil {
			logr.Fatal("start maintenance scheduler", zap.Error(err))
		}
		defer maintenance.Stop()
	}

	readiness := map[string]handler.Pinger{"database": db.PingContext}
	if redisClient != nil {
		readiness["redis"] = func(ctx context.Context) error { return redisPing(ctx, redisClient) }
	}

	router := server.NewRouter(server.Options{
		Env:        cfg.Env,
		APIPrefix:  cfg.APIPrefix,
		UploadsDir: cfg.Uploads.Dir,
		CORS:       cfg.CORS,
		Tokens:     authSvc,
		Metrics:    metrics,
		Logger:     logr,
	}, server.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Users:       handler.NewUserHandler(userSvc),
		Categories:  handler.NewCategoryHandler(categorySvc),
		Courses:     handler.NewCourseHandler(courseSvc),
		Lessons:     handler.NewLessonHandler(lessonSvc),
		Quizzes:     handler.NewQuizHandler(quizSvc),
		Assignments: handler.NewAssignmentHandler(assignmentSvc),
		Enrollments: handler.NewEnrollmentHandler(enrollmentSvc),
		Progress:    handler.NewProgressHandler(progressSvc),
		Payments:    handler.NewPaymentHandler(paymentSvc),
		Dashboards:  handler.NewDashboardHandler(dashboardSvc),
		Files:       handler.NewFileHandler(files),
		Ops:         handler.NewMetricsHandler(metrics, readiness, logr),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func redisPing(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}
