package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillhub-api/internal/models"
	appErrors "github.com/noah-isme/skillhub-api/pkg/errors"
	"github.com/noah-isme/skillhub-api/pkg/storage"
)

func approvedCourse(id, owner string, price models.Money) models.Course {
	c := draftCourse(id, owner)
	c.Status = models.CourseStatusApproved
	c.Price = price
	return c
}

func newTestExportService(t *testing.T) (*ExportService, *storage.LocalStorage) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	files := NewFileService(storage.NewSignedURLSigner("secret", time.Hour), map[string]FileLocator{ScopeExports: store}, "/api/v1/files", nil)
	return NewExportService(store, files, time.Hour, nil, nil, nil), store
}

func TestEnrollFreeCourse(t *testing.T) {
	draft := draftCourse("c-draft", "inst-1")
	courses := newFakeCourses(approvedCourse("c-free", "inst-1", 0), approvedCourse("c-paid", "inst-1", 4999), draft)
	enrollments := newFakeEnrollments()
	svc := NewEnrollmentService(enrollments, courses, nil, nil, nil, nil)
	student := claims("stu-1", models.RoleStudent)
	ctx := context.Background()

	detail, err := svc.Enroll(ctx, student, "c-free")
	require.NoError(t, err)
	assert.Equal(t, "c-free", detail.CourseID)
	assert.Equal(t, 0.0, detail.Progress)

	_, err = svc.Enroll(ctx, student, "c-free")
	assertAppError(t, err, appErrors.ErrAlreadyEnrolled.Code)

	_, err = svc.Enroll(ctx, student, "c-paid")
	assertAppError(t, err, appErrors.ErrPaymentRequired.Code)

	_, err = svc.Enroll(ctx, student, "c-draft")
	assertAppError(t, err, appErrors.ErrNotFound.Code)

	check, err := svc.Check(ctx, student, "c-free")
	require.NoError(t, err)
	assert.True(t, check.IsEnrolled)

	check, err = svc.Check(ctx, student, "c-paid")
	require.NoError(t, err)
	assert.False(t, check.IsEnrolled)
	assert.Nil(t, check.Enrollment)

	_, err = svc.Get(ctx, claims("stu-2", models.RoleStudent), detail.ID)
	assertAppError(t, err, appErrors.ErrForbidden.Code)
}

func TestEnrollmentRosterExport(t *testing.T) {
	courses := newFakeCourses(approvedCourse("c1", "inst-1", 0))
	enrollments := newFakeEnrollments(
		models.Enrollment{ID: "e1", StudentID: "stu-1", CourseID: "c1", Progress: 50},
		models.Enrollment{ID: "e2", StudentID: "stu-2", CourseID: "c1", Progress: 100, Completed: true},
	)
	exports, store := newTestExportService(t)
	svc := NewEnrollmentService(enrollments, courses, exports, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Roster(ctx, claims("inst-2", models.RoleInstructor), "c1")
	assertAppError(t, err, appErrors.ErrForbidden.Code)

	entries, err := svc.Roster(ctx, claims("adm", models.RoleAdmin), "c1")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	res, err := svc.ExportRoster(ctx, claims("inst-1", models.RoleInstructor), "c1", "CSV")
	require.NoError(t, err)
	assert.Equal(t, ExportFormatCSV, res.Format)
	assert.Equal(t, 2, res.Rows)
	assert.Contains(t, res.DownloadURL, "/api/v1/files/")
	assert.FileExists(t, store.Path("rosters/c1/"+res.FileName))

	_, err = svc.ExportRoster(ctx, claims("inst-1", models.RoleInstructor), "c1", "xlsx")
	assertAppError(t, err, appErrors.ErrValidation.Code)
}
