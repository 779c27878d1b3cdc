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
	appErrors "github.com/noah-isme/skillhub-api/pkg/errors"
)

type fakeAssignmentSrv struct {
	submissions map[string]bool
	uploaded    string
	graded      dto.GradeRequest
	gradeErr    error
}

func (f *fakeAssignmentSrv) ListByCourse(context.Context, *models.JWTClaims, string) ([]models.Assignment, error) {
	return []models.Assignment{}, nil
}

func (f *fakeAssignmentSrv) Get(_ context.Context, _ *models.JWTClaims, id string) (*models.Assignment, error) {
	return &models.Assignment{ID: id}, nil
}

func (f *fakeAssignmentSrv) Create(_ context.Context, _ *models.JWTClaims, courseID string, _ dto.AssignmentRequest) (*models.Assignment, error) {
	return &models.Assignment{ID: "as-1", CourseID: courseID}, nil
}

func (f *fakeAssignmentSrv) Update(_ context.Context, _ *models.JWTClaims, id string, _ dto.AssignmentRequest) (*models.Assignment, error) {
	return &models.Assignment{ID: id}, nil
}

func (f *fakeAssignmentSrv) Delete(context.Context, *models.JWTClaims, string) error { return nil }

func (f *fakeAssignmentSrv) Submit(_ context.Context, actor *models.JWTClaims, id string, file service.Upload) (*models.Submission, bool, error) {
	data, err := io.ReadAll(file.Reader)
	if err != nil {
		return nil, false, err
	}
	f.uploaded = file.Name + ":" + string(data)
	if f.submissions == nil {
		f.submissions = map[string]bool{}
	}
	key := id + "/" + actor.UserID
	created := !f.submissions[key]
	f.submissions[key] = true
	return &models.Submission{ID: "sub-1", AssignmentID: id, StudentID: actor.UserID, Status: models.SubmissionPending}, created, nil
}

func (f *fakeAssignmentSrv) MySubmission(context.Context, *models.JWTClaims, string) (*dto.MySubmissionResponse, error) {
	return &dto.MySubmissionResponse{}, nil
}

func (f *fakeAssignmentSrv) ListSubmissions(context.Context, *models.JWTClaims, string) ([]models.Submission, error) {
	return []models.Submission{}, nil
}

func (f *fakeAssignmentSrv) Grade(_ context.Context, _ *models.JWTClaims, id string, req dto.GradeRequest, _ service.RequestMeta) (*models.Submission, error) {
	if f.gradeErr != nil {
		return nil, f.gradeErr
	}
	f.graded = req
	return &models.Submission{ID: id, Status: models.SubmissionGraded}, nil
}

func (f *fakeAssignmentSrv) DownloadURL(context.Context, *models.JWTClaims, string) (*dto.DownloadLink, error) {
	return &dto.DownloadLink{URL: "/api/v1/files/token", ExpiresAt: "2030-01-01T00:00:00Z"}, nil
}

func submitAssignment(t *testing.T, handler *AssignmentHandler) int {
	t.Helper()
	body, contentType := multipartBody(t, "file", "essay.pdf", []byte("%PDF"))
	c, rec := newTestContext(http.MethodPost, "/assignments/as-1/submit", body)
	c.Request.Header.Set("Content-Type", contentType)
	c.AddParam("id", "as-1")
	withClaims(c, "stu-1", models.RoleStudent)
	handler.Submit(c)
	return rec.Code
}

func TestAssignmentHandlerSubmitCreatesThenReplaces(t *testing.T) {
	srv := &fakeAssignmentSrv{}
	handler := NewAssignmentHandler(srv)

	assert.Equal(t, http.StatusCreated, submitAssignment(t, handler))
	assert.Equal(t, "essay.pdf:%PDF", srv.uploaded)
	assert.Equal(t, http.StatusOK, submitAssignment(t, handler))
}

func TestAssignmentHandlerSubmitRequiresFile(t *testing.T) {
	handler := NewAssignmentHandler(&fakeAssignmentSrv{})

	c, rec := newTestContext(http.MethodPost, "/assignments/as-1/submit", nil)
	c.AddParam("id", "as-1")
	withClaims(c, "stu-1", models.RoleStudent)
	handler.Submit(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssignmentHandlerGrade(t *testing.T) {
	srv := &fakeAssignmentSrv{}
	handler := NewAssignmentHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/instructor/submissions/sub-1/grade", jsonBody(t, map[string]interface{}{"grade": 88, "feedback": "solid"}))
	c.AddParam("id", "sub-1")
	withClaims(c, "inst-1", models.RoleInstructor)
	handler.Grade(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, srv.graded.Grade)
	assert.Equal(t, 88, *srv.graded.Grade)
	assert.Equal(t, "solid", srv.graded.Feedback)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "GRADED", env.Data["status"])
}

func TestAssignmentHandlerGradeForbidden(t *testing.T) {
	handler := NewAssignmentHandler(&fakeAssignmentSrv{gradeErr: appErrors.ErrForbidden})

	c, rec := newTestContext(http.MethodPost, "/instructor/submissions/sub-1/grade", jsonBody(t, map[string]interface{}{"grade": 10}))
	c.AddParam("id", "sub-1")
	withClaims(c, "inst-2", models.RoleInstructor)
	handler.Grade(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAssignmentHandlerDownloadReturnsLink(t *testing.T) {
	handler := NewAssignmentHandler(&fakeAssignmentSrv{})

	c, rec := newTestContext(http.MethodGet, "/submissions/sub-1/download", nil)
	c.AddParam("id", "sub-1")
	withClaims(c, "stu-1", models.RoleStudent)
	handler.Download(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "/api/v1/files/token", env.Data["url"])
}
