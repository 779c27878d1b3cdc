package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillhub-api/internal/models"
	appErrors "github.com/noah-isme/skillhub-api/pkg/errors"
)

type memCache struct {
	entries map[string][]byte
}

func newMemCache() *memCache { return &memCache{entries: map[string][]byte{}} }

func (m *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memCache) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if key == pattern || (prefix != pattern && strings.HasPrefix(key, prefix)) {
			delete(m.entries, key)
		}
	}
	return nil
}

type fakeDashboardRepo struct {
	calls   int
	seconds int64
}

func (f *fakeDashboardRepo) Admin(ctx context.Context) (*models.AdminDashboard, error) {
	f.calls++
	return &models.AdminDashboard{TotalCourses: 4, PendingCourses: 1, TotalRevenue: 9998}, nil
}

func (f *fakeDashboardRepo) Instructor(ctx context.Context, instructorID string) (*models.InstructorDashboard, error) {
	f.calls++
	return &models.InstructorDashboard{TotalCourses: 2, DraftCourses: 1}, nil
}

func (f *fakeDashboardRepo) Student(ctx context.Context, studentID string) (*models.StudentDashboard, error) {
	f.calls++
	return &models.StudentDashboard{TotalEnrolled: 3, CompletedCourses: 1, InProgress: 2, TotalSeconds: f.seconds}, nil
}

func TestDashboardStudentRoundsHours(t *testing.T) {
	repo := &fakeDashboardRepo{seconds: 5400 + 200}
	svc := NewDashboardService(repo, nil, time.Minute, nil, nil)

	res, hit, err := svc.Student(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1.6, res.TotalHoursSpent)
	assert.Equal(t, 3, res.TotalEnrolled)
}

func TestDashboardCachesAndInvalidates(t *testing.T) {
	repo := &fakeDashboardRepo{}
	cache := NewCacheService(newMemCache(), nil, time.Minute, nil, true)
	svc := NewDashboardService(repo, cache, time.Minute, nil, nil)
	ctx := context.Background()

	_, hit, err := svc.Admin(ctx)
	require.NoError(t, err)
	assert.False(t, hit)

	res, hit, err := svc.Admin(ctx)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 4, res.TotalCourses)
	assert.Equal(t, 1, repo.calls)

	_, _, err = svc.Instructor(ctx, "inst-1")
	require.NoError(t, err)
	invalidateEnrollmentDashboards(ctx, cache, "stu-1", "inst-1")

	_, hit, err = svc.Instructor(ctx, "inst-1")
	require.NoError(t, err)
	assert.False(t, hit)
	_, hit, err = svc.Admin(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 4, repo.calls)
}
