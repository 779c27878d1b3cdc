package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillhub-api/internal/dto"
	"github.com/noah-isme/skillhub-api/internal/models"
	appErrors "github.com/noah-isme/skillhub-api/pkg/errors"
)

func TestComputeProgress(t *testing.T) {
	cases := []struct {
		name      string
		counts    models.ProgressCounts
		progress  float64
		completed bool
		ok        bool
	}{
		{"empty course", models.ProgressCounts{}, 0, false, false},
		{"one of three", models.ProgressCounts{TotalLessons: 2, TotalQuizzes: 1, CompletedLessons: 1}, 33.33, false, true},
		{"two of three", models.ProgressCounts{TotalLessons: 2, TotalQuizzes: 1, CompletedLessons: 1, PassedQuizzes: 1}, 66.67, false, true},
		{"all done", models.ProgressCounts{TotalLessons: 2, TotalQuizzes: 1, CompletedLessons: 2, PassedQuizzes: 1}, 100, true, true},
		{"quizzes only", models.ProgressCounts{TotalQuizzes: 4, PassedQuizzes: 1}, 25, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			progress, completed, ok := ComputeProgress(tc.counts)
			assert.Equal(t, tc.ok, ok)
			assert.InDelta(t, tc.progress, progress, 0.001)
			assert.Equal(t, tc.completed, completed)
		})
	}
}

type progressFixture struct {
	svc         *ProgressService
	enrollments *fakeEnrollments
	progress    *fakeProgress
	lessons     *fakeLessons
}

func newProgressFixture(t *testing.T, db txProvider, quizPassing map[string]int) progressFixture {
	t.Helper()
	enrollments := newFakeEnrollments(models.Enrollment{ID: "enr-1", StudentID: "stu-1", CourseID: "c1"})
	lessons := newFakeLessons(
		models.Lesson{ID: "l1", CourseID: "c1", Order: 1},
		models.Lesson{ID: "l2", CourseID: "c1", Order: 2},
		models.Lesson{ID: "other", CourseID: "c9", Order: 1},
	)
	progress := newFakeProgress(2, quizPassing)
	svc := NewProgressService(db, enrollments, progress, lessons, nil, nil, nil)
	return progressFixture{svc: svc, enrollments: enrollments, progress: progress, lessons: lessons}
}

func TestCompleteLessonIsIdempotent(t *testing.T) {
	db, mock := newSQLMockTx(t)
	f := newProgressFixture(t, db, nil)
	first := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return first }
	student := claims("stu-1", models.RoleStudent)

	mock.ExpectBegin()
	mock.ExpectCommit()
	res, err := f.svc.CompleteLesson(context.Background(), student, "l1")
	require.NoError(t, err)
	assert.Equal(t, 50.0, res.EnrollmentProgress)
	assert.False(t, res.CourseCompleted)
	require.NotNil(t, res.Progress.CompletionDate)
	assert.Equal(t, first, *res.Progress.CompletionDate)

	f.svc.now = func() time.Time { return first.Add(time.Hour) }
	mock.ExpectBegin()
	mock.ExpectCommit()
	res, err = f.svc.CompleteLesson(context.Background(), student, "l1")
	require.NoError(t, err)
	assert.Equal(t, first, *res.Progress.CompletionDate)
	assert.Equal(t, 50.0, res.EnrollmentProgress)
	assert.Len(t, f.progress.records, 1)
	assert.Equal(t, []string{"enr-1", "enr-1"}, f.enrollments.locks)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteLessonRequiresEnrollment(t *testing.T) {
	db, _ := newSQLMockTx(t)
	f := newProgressFixture(t, db, nil)

	_, err := f.svc.CompleteLesson(context.Background(), claims("stu-2", models.RoleStudent), "l1")
	assertAppError(t, err, appErrors.ErrNotEnrolled.Code)

	_, err = f.svc.CompleteLesson(context.Background(), claims("stu-1", models.RoleStudent), "missing")
	assertAppError(t, err, appErrors.ErrNotFound.Code)
}

func TestRecordActivityDelegatesCompletion(t *testing.T) {
	db, mock := newSQLMockTx(t)
	f := newProgressFixture(t, db, nil)
	student := claims("stu-1", models.RoleStudent)
	ctx := context.Background()

	activity, err := f.svc.RecordActivity(ctx, student, "enr-1", "l1", dto.LessonActivityRequest{TimeSpent: 120, LastPosition: 60})
	require.NoError(t, err)
	assert.False(t, activity.Completed)
	assert.Empty(t, f.progress.records)

	mock.ExpectBegin()
	mock.ExpectCommit()
	activity, err = f.svc.RecordActivity(ctx, student, "enr-1", "l1", dto.LessonActivityRequest{TimeSpent: 300, LastPosition: 200, Completed: true})
	require.NoError(t, err)
	assert.True(t, activity.Completed)
	assert.Len(t, f.progress.records, 1)
	assert.Equal(t, 50.0, f.enrollments.items["enr-1"].Progress)

	_, err = f.svc.RecordActivity(ctx, student, "enr-1", "other", dto.LessonActivityRequest{})
	assertAppError(t, err, appErrors.ErrNotFound.Code)

	_, err = f.svc.RecordActivity(ctx, claims("stu-2", models.RoleStudent), "enr-1", "l1", dto.LessonActivityRequest{})
	assertAppError(t, err, appErrors.ErrForbidden.Code)

	items, err := f.svc.ListActivity(ctx, student, "enr-1")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestCourseProgressReturnsRecords(t *testing.T) {
	db, mock := newSQLMockTx(t)
	f := newProgressFixture(t, db, nil)
	student := claims("stu-1", models.RoleStudent)

	mock.ExpectBegin()
	mock.ExpectCommit()
	_, err := f.svc.CompleteLesson(context.Background(), student, "l2")
	require.NoError(t, err)

	res, err := f.svc.CourseProgress(context.Background(), student, "c1")
	require.NoError(t, err)
	assert.Equal(t, "enr-1", res.EnrollmentID)
	assert.Len(t, res.Records, 1)

	_, err = f.svc.CourseProgress(context.Background(), claims("stu-2", models.RoleStudent), "c1")
	assertAppError(t, err, appErrors.ErrNotEnrolled.Code)
}
