package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillhub-api/internal/models"
)

type stubQuizService struct {
	quizService
	viewer *models.JWTClaims
	called bool
}

func (s *stubQuizService) Attempts(_ context.Context, viewer *models.JWTClaims, id string) (*models.QuizAttempts, error) {
	s.called = true
	s.viewer = viewer
	if viewer == nil {
		return &models.QuizAttempts{MaxAttempts: 3, Remaining: 3}, nil
	}
	return &models.QuizAttempts{Attempts: 1, MaxAttempts: 3, Remaining: 2}, nil
}

func TestQuizHandlerAttemptsAnonymous(t *testing.T) {
	svc := &stubQuizService{}
	h := NewQuizHandler(svc)
	c, rec := newTestContext(http.MethodGet, "/quizzes/q1/attempts", nil)
	c.AddParam("id", "q1")

	h.Attempts(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.called)
	assert.Nil(t, svc.viewer)
	env := decodeEnvelope(t, rec)
	assert.EqualValues(t, 0, env.Data["attempts"])
	assert.EqualValues(t, 3, env.Data["remaining"])
}

func TestQuizHandlerAttemptsPassesViewer(t *testing.T) {
	svc := &stubQuizService{}
	h := NewQuizHandler(svc)
	c, rec := newTestContext(http.MethodGet, "/quizzes/q1/attempts", nil)
	c.AddParam("id", "q1")
	withClaims(c, "s1", models.RoleStudent)

	h.Attempts(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.viewer)
	assert.Equal(t, "s1", svc.viewer.UserID)
	assert.EqualValues(t, 2, decodeEnvelope(t, rec).Data["remaining"])
}
