package server

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/skillhub-api/internal/handler"
	"github.com/noah-isme/skillhub-api/internal/middleware"
	"github.com/noah-isme/skillhub-api/internal/models"
	"github.com/noah-isme/skillhub-api/internal/service"
	"github.com/noah-isme/skillhub-api/pkg/config"
	"github.com/noah-isme/skillhub-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/skillhub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/skillhub-api/pkg/middleware/requestid"
)

// Options configures the HTTP surface.
type Options struct {
	Env        string
	APIPrefix  string
	UploadsDir string
	CORS       config.CORSConfig
	Tokens     middleware.TokenValidator
	Metrics    *service.MetricsService
	Logger     *zap.Logger
}

// Handlers groups every HTTP handler mounted by the router.
type Handlers struct {
	Auth        *handler.AuthHandler
	Users       *handler.UserHandler
	Categories  *handler.CategoryHandler
	Courses     *handler.CourseHandler
	Lessons     *handler.LessonHandler
	Quizzes     *handler.QuizHandler
	Assignments *handler.AssignmentHandler
	Enrollments *handler.EnrollmentHandler
	Progress    *handler.ProgressHandler
	Payments    *handler.PaymentHandler
	Dashboards  *handler.DashboardHandler
	Files       *handler.FileHandler
	Ops         *handler.MetricsHandler
}

// NewRouter builds the gin engine with the global middleware chain and all API routes.
func NewRouter(opts Options, h Handlers) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.APIPrefix == "" {
		opts.APIPrefix = "/api/v1"
	}
	if opts.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(logger.GinRecovery(opts.Logger))
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(corsmiddleware.New(opts.CORS))
	r.Use(middleware.Metrics(opts.Metrics))
	r.Use(middleware.WithResponseMeta())

	if h.Ops != nil {
		r.GET("/health", h.Ops.Health)
		r.GET("/ready", h.Ops.Ready)
		r.GET("/metrics", h.Ops.Prometheus)
	}
	if opts.UploadsDir != "" {
		r.Static("/media", opts.UploadsDir)
	}
	if opts.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(opts.APIPrefix)
	registerRoutes(api, opts.Tokens, h)
	return r
}

func registerRoutes(api *gin.RouterGroup, tokens middleware.TokenValidator, h Handlers) {
	authRequired := middleware.JWT(tokens)
	optionalAuth := middleware.OptionalJWT(tokens)
	admin := middleware.RequireRoles(models.RoleAdmin)
	instructor := middleware.RequireRoles(models.RoleInstructor, models.RoleAdmin)
	student := middleware.RequireRoles(models.RoleStudent)

	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/password/reset", h.Auth.RequestPasswordReset)
	auth.POST("/password/reset/confirm", h.Auth.ConfirmPasswordReset)
	auth.POST("/logout", authRequired, h.Auth.Logout)
	auth.GET("/me", authRequired, h.Auth.Me)
	auth.PUT("/me", authRequired, h.Auth.UpdateMe)
	auth.POST("/password/change", authRequired, h.Auth.ChangePassword)

	users := api.Group("/users", authRequired, admin)
	users.GET("", h.Users.List)
	users.GET("/:id", h.Users.Get)
	users.PATCH("/:id/status", h.Users.SetStatus)

	api.GET("/categories", h.Categories.List)
	categories := api.Group("/categories", authRequired, admin)
	categories.POST("", h.Categories.Create)
	categories.PUT("/:id", h.Categories.Update)
	categories.DELETE("/:id", h.Categories.Delete)

	public := api.Group("", optionalAuth)
	public.GET("/courses", h.Courses.Catalog)
	public.GET("/courses/:id", h.Courses.Get)
	public.GET("/courses/:id/lessons", h.Lessons.ListByCourse)
	public.GET("/courses/:id/assignments", h.Assignments.ListByCourse)
	public.GET("/courses/:id/quizzes", h.Quizzes.ListByCourse)
	public.GET("/lessons/:id", h.Lessons.Get)
	public.GET("/lessons/:id/videos", h.Lessons.ListVideos)
	public.GET("/quizzes/:id/attempts", h.Quizzes.Attempts)

	inst := api.Group("/instructor", authRequired, instructor)
	inst.GET("/courses", h.Courses.InstructorList)
	inst.POST("/courses", h.Courses.Create)
	inst.PUT("/courses/:id", h.Courses.Update)
	inst.DELETE("/courses/:id", h.Courses.Delete)
	inst.POST("/courses/:id/thumbnail", h.Courses.UploadThumbnail)
	inst.POST("/courses/:id/submit", h.Courses.SubmitForReview)
	inst.POST("/courses/:id/lessons", h.Lessons.Create)
	inst.PUT("/lessons/:id", h.Lessons.Update)
	inst.DELETE("/lessons/:id", h.Lessons.Delete)
	inst.POST("/lessons/:id/video", h.Lessons.UploadVideo)
	inst.POST("/lessons/:id/videos", h.Lessons.AddVideo)
	inst.DELETE("/videos/:id", h.Lessons.DeleteVideo)
	inst.POST("/courses/:id/assignments", h.Assignments.Create)
	inst.PUT("/assignments/:id", h.Assignments.Update)
	inst.DELETE("/assignments/:id", h.Assignments.Delete)
	inst.POST("/courses/:id/quizzes", h.Quizzes.Create)
	inst.PUT("/quizzes/:id", h.Quizzes.Update)
	inst.DELETE("/quizzes/:id", h.Quizzes.Delete)
	inst.POST("/quizzes/:id/questions", h.Quizzes.CreateQuestion)
	inst.PUT("/questions/:id", h.Quizzes.UpdateQuestion)
	inst.DELETE("/questions/:id", h.Quizzes.DeleteQuestion)
	inst.GET("/courses/:id/enrollments", h.Enrollments.Roster)
	inst.GET("/courses/:id/enrollments/export", h.Enrollments.ExportRoster)
	inst.GET("/assignments/:id/submissions", h.Assignments.ListSubmissions)
	inst.POST("/submissions/:id/grade", h.Assignments.Grade)
	inst.GET("/dashboard", h.Dashboards.Instructor)

	adm := api.Group("/admin", authRequired, admin)
	adm.GET("/courses/pending", h.Courses.Pending)
	adm.POST("/courses/:id/review", h.Courses.Review)
	adm.GET("/dashboard", h.Dashboards.Admin)

	member := api.Group("", authRequired)
	member.GET("/assignments/:id", h.Assignments.Get)
	member.GET("/quizzes/:id", h.Quizzes.Get)
	member.GET("/payments", h.Payments.ListMine)
	member.GET("/payments/:id/receipt", h.Payments.Receipt)
	member.GET("/enrollments", h.Enrollments.ListMine)
	member.GET("/enrollments/check/:courseId", h.Enrollments.Check)
	member.GET("/enrollments/:id", h.Enrollments.Get)
	member.GET("/enrollments/:id/activity", h.Progress.ListActivity)
	member.GET("/courses/:id/progress", h.Progress.CourseProgress)
	member.GET("/assignments/:id/submission", h.Assignments.MySubmission)
	member.GET("/submissions/:id/download", h.Assignments.Download)

	learner := api.Group("", authRequired, student)
	learner.POST("/courses/:id/enroll", h.Enrollments.Enroll)
	learner.POST("/payments", h.Payments.Pay)
	learner.POST("/enrollments/:id/activity/:lessonId", h.Progress.RecordActivity)
	learner.POST("/progress/lessons/:lessonId/complete", h.Progress.CompleteLesson)
	learner.POST("/quizzes/:id/submit", h.Quizzes.Submit)
	learner.POST("/assignments/:id/submit", h.Assignments.Submit)
	learner.GET("/student/dashboard", h.Dashboards.Student)

	api.GET("/files/:token", h.Files.Download)
}
