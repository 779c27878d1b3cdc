package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillhub-api/internal/dto"
	"github.com/noah-isme/skillhub-api/internal/models"
	appErrors "github.com/noah-isme/skillhub-api/pkg/errors"
)

const (
	testCategoryID    = "6f1c2a4e-8d3b-4c57-9a10-2b7e5d9f0c11"
	missingCategoryID = "0b9e7d52-1c4a-4f3e-8e21-7a6d5c4b3a29"
)

func newTestCourseService(courses *fakeCourses, store *memStorage, notifier *recordingCourseNotifier) *CourseService {
	return NewCourseService(courses, fakeCategoryChecker{testCategoryID: true}, store, notifier, nil, nil, nil, nil, CourseServiceConfig{MaxFileSize: 1024})
}

func draftCourse(id, owner string) models.Course {
	return models.Course{ID: id, InstructorID: owner, Title: "Go", Status: models.CourseStatusDraft}
}

func TestCourseCreateStartsAsDraft(t *testing.T) {
	courses := newFakeCourses()
	svc := newTestCourseService(courses, newMemStorage(), nil)
	price := models.Money(4999)
	cat := testCategoryID

	view, err := svc.Create(context.Background(), claims("inst-1", models.RoleInstructor), dto.CourseRequest{Title: " Go Basics ", CategoryID: &cat, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusDraft, view.Status)
	assert.Equal(t, "Go Basics", view.Title)
	assert.Equal(t, "inst-1", view.InstructorID)
	assert.False(t, view.IsFree)

	missing := missingCategoryID
	_, err = svc.Create(context.Background(), claims("inst-1", models.RoleInstructor), dto.CourseRequest{Title: "x", CategoryID: &missing, Price: &price})
	assertAppError(t, err, appErrors.ErrValidation.Code)
}

func TestCourseUpdateRequiresOwnerAndDraft(t *testing.T) {
	pending := draftCourse("c2", "inst-1")
	pending.Status = models.CourseStatusPending
	courses := newFakeCourses(draftCourse("c1", "inst-1"), pending)
	svc := newTestCourseService(courses, newMemStorage(), nil)
	price := models.Money(0)
	req := dto.CourseRequest{Title: "New", Price: &price}

	_, err := svc.Update(context.Background(), claims("inst-2", models.RoleInstructor), "c1", req)
	assertAppError(t, err, appErrors.ErrForbidden.Code)

	_, err = svc.Update(context.Background(), claims("inst-1", models.RoleInstructor), "c2", req)
	assertAppError(t, err, appErrors.ErrNotDraft.Code)

	view, err := svc.Update(context.Background(), claims("inst-1", models.RoleInstructor), "c1", req)
	require.NoError(t, err)
	assert.Equal(t, "New", view.Title)
	assert.True(t, view.IsFree)
}

func TestCourseUploadThumbnail(t *testing.T) {
	courses := newFakeCourses(draftCourse("c1", "inst-1"))
	store := newMemStorage()
	svc := newTestCourseService(courses, store, nil)
	actor := claims("inst-1", models.RoleInstructor)

	_, err := svc.UploadThumbnail(context.Background(), actor, "c1", upload("cover.gif", "gif"))
	assertAppError(t, err, appErrors.ErrValidation.Code)

	_, err = svc.UploadThumbnail(context.Background(), actor, "c1", upload("cover.png", strings.Repeat("x", 2048)))
	assertAppError(t, err, appErrors.ErrValidation.Code)

	view, err := svc.UploadThumbnail(context.Background(), actor, "c1", upload("cover.PNG", "png"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(view.ThumbnailURL, "/media/thumbnails/c1/"))
	assert.True(t, strings.HasSuffix(view.ThumbnailURL, ".png"))
	assert.Len(t, store.files, 1)

	_, err = svc.UploadThumbnail(context.Background(), actor, "c1", upload("cover2.webp", "webp"))
	require.NoError(t, err)
	assert.Len(t, store.files, 1, "previous thumbnail removed")
}

func TestCourseSubmitForReviewValidatesCompleteness(t *testing.T) {
	courses := newFakeCourses(draftCourse("c1", "inst-1"))
	svc := newTestCourseService(courses, newMemStorage(), nil)
	actor := claims("inst-1", models.RoleInstructor)

	_, err := svc.SubmitForReview(context.Background(), actor, "c1", RequestMeta{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Details, "description")
	assert.Contains(t, appErr.Details, "category")
	assert.Contains(t, appErr.Details, "thumbnail")

	cat := testCategoryID
	c := courses.items["c1"]
	c.Description = "Learn Go"
	c.CategoryID = &cat
	c.ThumbnailURL = "/media/thumbnails/c1/x.png"

	view, err := svc.SubmitForReview(context.Background(), actor, "c1", RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusPending, view.Status)

	_, err = svc.SubmitForReview(context.Background(), actor, "c1", RequestMeta{})
	assertAppError(t, err, appErrors.ErrNotDraft.Code)
}

func TestCourseReview(t *testing.T) {
	pending := draftCourse("c1", "inst-1")
	pending.Status = models.CourseStatusPending
	courses := newFakeCourses(pending, draftCourse("c2", "inst-1"))
	notifier := &recordingCourseNotifier{}
	svc := newTestCourseService(courses, newMemStorage(), notifier)
	admin := claims("admin-1", models.RoleAdmin)

	_, err := svc.Review(context.Background(), admin, "c1", dto.ReviewCourseRequest{Status: models.CourseStatusRejected}, RequestMeta{})
	assertAppError(t, err, appErrors.ErrValidation.Code)

	_, err = svc.Review(context.Background(), admin, "c2", dto.ReviewCourseRequest{Status: models.CourseStatusApproved}, RequestMeta{})
	assertAppError(t, err, appErrors.ErrValidation.Code)

	view, err := svc.Review(context.Background(), admin, "c1", dto.ReviewCourseRequest{Status: models.CourseStatusRejected, AdminComment: "needs more lessons"}, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusRejected, view.Status)
	assert.Equal(t, "needs more lessons", view.AdminComment)
	require.Len(t, notifier.reviewed, 1)
	assert.Equal(t, models.CourseStatusRejected, notifier.reviewed[0].Status)
}

func TestCourseVisibility(t *testing.T) {
	approved := draftCourse("c1", "inst-1")
	approved.Status = models.CourseStatusApproved
	courses := newFakeCourses(approved, draftCourse("c2", "inst-1"))
	svc := newTestCourseService(courses, newMemStorage(), nil)
	ctx := context.Background()

	_, err := svc.Get(ctx, nil, "c1")
	require.NoError(t, err)

	_, err = svc.Get(ctx, nil, "c2")
	assertAppError(t, err, appErrors.ErrNotFound.Code)

	_, err = svc.Get(ctx, claims("inst-2", models.RoleInstructor), "c2")
	assertAppError(t, err, appErrors.ErrNotFound.Code)

	_, err = svc.Get(ctx, claims("inst-1", models.RoleInstructor), "c2")
	require.NoError(t, err)

	_, err = svc.Get(ctx, claims("admin", models.RoleAdmin), "c2")
	require.NoError(t, err)

	items, pagination, err := svc.Catalog(ctx, dto.CatalogQuery{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "c1", items[0].ID)
	assert.Equal(t, 1, pagination.TotalCount)
}
