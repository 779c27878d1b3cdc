package handler

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillhub-api/internal/dto"
	"github.com/noah-isme/skillhub-api/internal/models"
	"github.com/noah-isme/skillhub-api/internal/service"
)

type fakeCourseSrv struct {
	catalog   dto.CatalogQuery
	review    dto.ReviewCourseRequest
	status    models.CourseStatus
	thumbnail []byte
	viewer    *models.JWTClaims
}

func (f *fakeCourseSrv) Catalog(_ context.Context, q dto.CatalogQuery) ([]models.CourseView, *models.Pagination, error) {
	f.catalog = q
	return []models.CourseView{}, models.NewPagination(q.Page, q.PageSize, 0), nil
}

func (f *fakeCourseSrv) ListInstructorCourses(_ context.Context, _ *models.JWTClaims, status models.CourseStatus, _, _ int) ([]models.CourseView, *models.Pagination, error) {
	f.status = status
	return nil, nil, nil
}

func (f *fakeCourseSrv) ListPending(context.Context, int, int) ([]models.CourseView, *models.Pagination, error) {
	return nil, nil, nil
}

func (f *fakeCourseSrv) Get(_ context.Context, viewer *models.JWTClaims, id string) (*models.CourseView, error) {
	f.viewer = viewer
	return &models.CourseView{Course: models.Course{ID: id}}, nil
}

func (f *fakeCourseSrv) Create(_ context.Context, _ *models.JWTClaims, req dto.CourseRequest) (*models.CourseView, error) {
	return &models.CourseView{Course: models.Course{ID: "new", Title: req.Title}}, nil
}

func (f *fakeCourseSrv) Update(_ context.Context, _ *models.JWTClaims, id string, _ dto.CourseRequest) (*models.CourseView, error) {
	return &models.CourseView{Course: models.Course{ID: id}}, nil
}

func (f *fakeCourseSrv) Delete(context.Context, *models.JWTClaims, string) error { return nil }

func (f *fakeCourseSrv) UploadThumbnail(_ context.Context, _ *models.JWTClaims, id string, file service.Upload) (*models.CourseView, error) {
	data, err := io.ReadAll(file.Reader)
	if err != nil {
		return nil, err
	}
	f.thumbnail = data
	return &models.CourseView{Course: models.Course{ID: id}}, nil
}

func (f *fakeCourseSrv) SubmitForReview(_ context.Context, _ *models.JWTClaims, id string, _ service.RequestMeta) (*models.CourseView, error) {
	return &models.CourseView{Course: models.Course{ID: id, Status: models.CourseStatusPending}}, nil
}

func (f *fakeCourseSrv) Review(_ context.Context, _ *models.JWTClaims, id string, req dto.ReviewCourseRequest, _ service.RequestMeta) (*models.CourseView, error) {
	f.review = req
	return &models.CourseView{Course: models.Course{ID: id, Status: req.Status}}, nil
}

func TestCourseHandlerCatalogParsesFilters(t *testing.T) {
	srv := &fakeCourseSrv{}
	handler := NewCourseHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/courses?category=a,b&category=c&is_free=true&search=+go+&ordering=-price&page=2&page_size=5", nil)
	handler.Catalog(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"a", "b", "c"}, srv.catalog.Categories)
	require.NotNil(t, srv.catalog.IsFree)
	assert.True(t, *srv.catalog.IsFree)
	assert.Equal(t, "go", srv.catalog.Search)
	assert.Equal(t, "-price", srv.catalog.Ordering)
	assert.Equal(t, 2, srv.catalog.Page)
	assert.Equal(t, 5, srv.catalog.PageSize)
}

func TestCourseHandlerCatalogIgnoresBadBool(t *testing.T) {
	srv := &fakeCourseSrv{}
	handler := NewCourseHandler(srv)

	c, _ := newTestContext(http.MethodGet, "/courses?is_free=maybe", nil)
	handler.Catalog(c)

	assert.Nil(t, srv.catalog.IsFree)
	assert.Empty(t, srv.catalog.Categories)
}

func TestCourseHandlerGetPassesOptionalViewer(t *testing.T) {
	srv := &fakeCourseSrv{}
	handler := NewCourseHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/courses/c1", nil)
	c.AddParam("id", "c1")
	handler.Get(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, srv.viewer)

	c, _ = newTestContext(http.MethodGet, "/courses/c1", nil)
	c.AddParam("id", "c1")
	withClaims(c, "inst-1", models.RoleInstructor)
	handler.Get(c)
	require.NotNil(t, srv.viewer)
	assert.Equal(t, "inst-1", srv.viewer.UserID)
}

func TestCourseHandlerReviewNormalizesStatus(t *testing.T) {
	srv := &fakeCourseSrv{}
	handler := NewCourseHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/admin/courses/c1/review", jsonBody(t, map[string]string{"status": "approved", "admin_comment": "ok"}))
	c.AddParam("id", "c1")
	withClaims(c, "admin-1", models.RoleAdmin)
	handler.Review(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.CourseStatusApproved, srv.review.Status)
	assert.Equal(t, "ok", srv.review.AdminComment)
}

func TestCourseHandlerInstructorListStatusFilter(t *testing.T) {
	srv := &fakeCourseSrv{}
	handler := NewCourseHandler(srv)

	c, _ := newTestContext(http.MethodGet, "/instructor/courses?status=draft", nil)
	withClaims(c, "inst-1", models.RoleInstructor)
	handler.InstructorList(c)

	assert.Equal(t, models.CourseStatusDraft, srv.status)
}

func TestCourseHandlerUploadThumbnail(t *testing.T) {
	srv := &fakeCourseSrv{}
	handler := NewCourseHandler(srv)

	body, contentType := multipartBody(t, "thumbnail", "cover.png", []byte("png-bytes"))
	c, rec := newTestContext(http.MethodPost, "/instructor/courses/c1/thumbnail", body)
	c.Request.Header.Set("Content-Type", contentType)
	c.AddParam("id", "c1")
	withClaims(c, "inst-1", models.RoleInstructor)
	handler.UploadThumbnail(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []byte("png-bytes"), srv.thumbnail)
}

func TestCourseHandlerUploadThumbnailRequiresFile(t *testing.T) {
	handler := NewCourseHandler(&fakeCourseSrv{})

	c, rec := newTestContext(http.MethodPost, "/instructor/courses/c1/thumbnail", nil)
	c.AddParam("id", "c1")
	withClaims(c, "inst-1", models.RoleInstructor)
	handler.UploadThumbnail(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	if assert.NotNil(t, env.Error) {
		assert.Contains(t, env.Error.Details, "thumbnail")
	}
}
