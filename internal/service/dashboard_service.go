package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/skillhub-api/internal/models"
)

const dashboardAdminKey = "dash:admin"

func dashboardInstructorKey(id string) string { return "dash:instructor:" + id }

func dashboardStudentKey(id string) string { return "dash:student:" + id }

type dashboardRepository interface {
	Admin(ctx context.Context) (*models.AdminDashboard, error)
	Instructor(ctx context.Context, instructorID string) (*models.InstructorDashboard, error)
	Student(ctx context.Context, studentID string) (*models.StudentDashboard, error)
}

// DashboardService serves role specific aggregate counts, cached per viewer.
type DashboardService struct {
	repo     dashboardRepository
	cache    *CacheService
	cacheTTL time.Duration
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(repo dashboardRepository, cache *CacheService, cacheTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repo: repo, cache: cache, cacheTTL: cacheTTL, metrics: metrics, logger: logger}
}

// Admin returns platform wide counts.
func (s *DashboardService) Admin(ctx context.Context) (*models.AdminDashboard, bool, error) {
	res, hit, err := Remember(ctx, s.cache, dashboardAdminKey, s.cacheTTL, func(ctx context.Context) (*models.AdminDashboard, error) {
		defer s.observe("admin", time.Now())
		return s.repo.Admin(ctx)
	})
	if err != nil {
		return nil, false, internal(err, "failed to load admin dashboard")
	}
	return res, hit, nil
}

// Instructor returns counts over the instructor's courses.
func (s *DashboardService) Instructor(ctx context.Context, instructorID string) (*models.InstructorDashboard, bool, error) {
	res, hit, err := Remember(ctx, s.cache, dashboardInstructorKey(instructorID), s.cacheTTL, func(ctx context.Context) (*models.InstructorDashboard, error) {
		defer s.observe("instructor", time.Now())
		return s.repo.Instructor(ctx, instructorID)
	})
	if err != nil {
		return nil, false, internal(err, "failed to load instructor dashboard")
	}
	return res, hit, nil
}

// Student returns the learner summary. Hours are rounded to one decimal.
func (s *DashboardService) Student(ctx context.Context, studentID string) (*models.StudentDashboard, bool, error) {
	res, hit, err := Remember(ctx, s.cache, dashboardStudentKey(studentID), s.cacheTTL, func(ctx context.Context) (*models.StudentDashboard, error) {
		defer s.observe("student", time.Now())
		res, err := s.repo.Student(ctx, studentID)
		if err != nil {
			return nil, err
		}
		res.TotalHoursSpent = math.Round(float64(res.TotalSeconds)/3600*10) / 10
		return res, nil
	})
	if err != nil {
		return nil, false, internal(err, "failed to load student dashboard")
	}
	return res, hit, nil
}

func (s *DashboardService) observe(name string, start time.Time) {
	s.metrics.ObserveDBQuery("dashboard_"+name, time.Since(start))
}
