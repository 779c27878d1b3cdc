package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/skillhub-api/internal/dto"
	"github.com/noah-isme/skillhub-api/internal/models"
	"github.com/noah-isme/skillhub-api/internal/repository"
	appErrors "github.com/noah-isme/skillhub-api/pkg/errors"
)

const (
	defaultQuizDuration     = 30
	defaultQuizPassingScore = 70
	defaultQuizMaxAttempts  = 3
	defaultQuestionPoints   = 1
)

type quizRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Quiz, error)
	FindByID(ctx context.Context, id string) (*models.Quiz, error)
	Create(ctx context.Context, item *models.Quiz) error
	Update(ctx context.Context, item *models.Quiz) error
	Delete(ctx context.Context, id string) error
	ListQuestions(ctx context.Context, quizID string) ([]models.Question, error)
	FindQuestion(ctx context.Context, id string) (*models.Question, error)
	CreateQuestion(ctx context.Context, item *models.Question) error
	UpdateQuestion(ctx context.Context, item *models.Question) error
	DeleteQuestion(ctx context.Context, id string) error
}

// QuizService manages quizzes, their questions and scored attempts.
type QuizService struct {
	quizzes   quizRepository
	courses   courseReader
	progress  *ProgressService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewQuizService constructs a QuizService.
func NewQuizService(quizzes quizRepository, courses courseReader, progress *ProgressService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *QuizService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &QuizService{quizzes: quizzes, courses: courses, progress: progress, metrics: metrics, validator: validate, logger: logger}
}

// ListByCourse returns the quizzes of a visible course with has_completed for enrolled viewers.
func (s *QuizService) ListByCourse(ctx context.Context, viewer *models.JWTClaims, courseID string) ([]models.Quiz, error) {
	if _, err := loadVisibleCourse(ctx, s.courses, courseID, viewer); err != nil {
		return nil, err
	}
	items, err := s.quizzes.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, internal(err, "failed to list quizzes")
	}
	if items == nil {
		items = []models.Quiz{}
	}
	if viewer == nil || !viewer.Is(models.RoleStudent) {
		return items, nil
	}
	enrollment, err := s.progress.enrollments.FindByStudentAndCourse(ctx, nil, viewer.UserID, courseID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("enrollment lookup failed", zap.String("course_id", courseID), zap.Error(err))
		}
		return items, nil
	}
	attempted, err := s.progress.progress.AttemptedQuizIDs(ctx, enrollment.ID, courseID)
	if err != nil {
		return nil, internal(err, "failed to load quiz attempts")
	}
	for i := range items {
		done := attempted[items[i].ID]
		items[i].HasCompleted = &done
	}
	return items, nil
}

// Get returns a quiz with questions. Only the owner and admins receive correct answers.
func (s *QuizService) Get(ctx context.Context, viewer *models.JWTClaims, id string) (*models.QuizDetail, error) {
	quiz, err := s.quizzes.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "quiz not found", "failed to load quiz")
	}
	course, err := loadVisibleCourse(ctx, s.courses, quiz.CourseID, viewer)
	if err != nil {
		return nil, err
	}
	questions, err := s.quizzes.ListQuestions(ctx, quiz.ID)
	if err != nil {
		return nil, internal(err, "failed to list questions")
	}
	if questions == nil {
		questions = []models.Question{}
	}
	if !isOwnerOrAdmin(course, viewer) {
		for i := range questions {
			questions[i] = questions[i].Redacted()
		}
	}
	return &models.QuizDetail{Quiz: *quiz, Questions: questions}, nil
}

// Create adds a quiz to an owned course.
func (s *QuizService) Create(ctx context.Context, actor *models.JWTClaims, courseID string, req dto.QuizRequest) (*models.Quiz, error) {
	course, err := loadOwnedCourse(ctx, s.courses, courseID, actor)
	if err != nil {
		return nil, err
	}
	quiz := &models.Quiz{CourseID: course.ID}
	if err := s.applyQuiz(quiz, req); err != nil {
		return nil, err
	}
	if err := s.quizzes.Create(ctx, quiz); err != nil {
		return nil, internal(err, "failed to create quiz")
	}
	return quiz, nil
}

// Update edits a quiz of an owned course.
func (s *QuizService) Update(ctx context.Context, actor *models.JWTClaims, id string, req dto.QuizRequest) (*models.Quiz, error) {
	quiz, err := s.ownedQuiz(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyQuiz(quiz, req); err != nil {
		return nil, err
	}
	if err := s.quizzes.Update(ctx, quiz); err != nil {
		return nil, notFoundOr(err, "quiz not found", "failed to update quiz")
	}
	return quiz, nil
}

// Delete removes a quiz of an owned course.
func (s *QuizService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	quiz, err := s.ownedQuiz(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.quizzes.Delete(ctx, quiz.ID); err != nil {
		return notFoundOr(err, "quiz not found", "failed to delete quiz")
	}
	return nil
}

// CreateQuestion adds a question to an owned quiz.
func (s *QuizService) CreateQuestion(ctx context.Context, actor *models.JWTClaims, quizID string, req dto.QuestionRequest) (*models.Question, error) {
	quiz, err := s.ownedQuiz(ctx, actor, quizID)
	if err != nil {
		return nil, err
	}
	question := &models.Question{QuizID: quiz.ID}
	if err := s.applyQuestion(question, req); err != nil {
		return nil, err
	}
	if err := s.quizzes.CreateQuestion(ctx, question); err != nil {
		return nil, mapQuestionWriteError(err, "failed to create question")
	}
	return question, nil
}

// UpdateQuestion edits a question of an owned quiz.
func (s *QuizService) UpdateQuestion(ctx context.Context, actor *models.JWTClaims, id string, req dto.QuestionRequest) (*models.Question, error) {
	question, err := s.ownedQuestion(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyQuestion(question, req); err != nil {
		return nil, err
	}
	if err := s.quizzes.UpdateQuestion(ctx, question); err != nil {
		return nil, mapQuestionWriteError(err, "failed to update question")
	}
	return question, nil
}

// DeleteQuestion removes a question of an owned quiz.
func (s *QuizService) DeleteQuestion(ctx context.Context, actor *models.JWTClaims, id string) error {
	question, err := s.ownedQuestion(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.quizzes.DeleteQuestion(ctx, question.ID); err != nil {
		return notFoundOr(err, "question not found", "failed to delete question")
	}
	return nil
}

// Attempts reports attempt usage for the viewer. Anonymous viewers have zero attempts.
func (s *QuizService) Attempts(ctx context.Context, viewer *models.JWTClaims, id string) (*models.QuizAttempts, error) {
	quiz, err := s.quizzes.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "quiz not found", "failed to load quiz")
	}
	if _, err := loadVisibleCourse(ctx, s.courses, quiz.CourseID, viewer); err != nil {
		return nil, err
	}
	used := 0
	if viewer != nil {
		enrollment, err := s.progress.enrollments.FindByStudentAndCourse(ctx, nil, viewer.UserID, quiz.CourseID)
		switch {
		case err == nil:
			used, err = s.progress.progress.CountQuizAttempts(ctx, nil, enrollment.ID, quiz.ID)
			if err != nil {
				return nil, internal(err, "failed to count attempts")
			}
		case !errors.Is(err, sql.ErrNoRows):
			return nil, internal(err, "failed to load enrollment")
		}
	}
	return &models.QuizAttempts{Attempts: used, MaxAttempts: quiz.MaxAttempts, Remaining: remaining(quiz.MaxAttempts, used)}, nil
}

// Submit scores an attempt and records it. The enrollment row is locked so the attempt limit holds under concurrency.
func (s *QuizService) Submit(ctx context.Context, actor *models.JWTClaims, id string, req dto.QuizSubmitRequest) (*models.QuizResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid quiz submission")
	}
	quiz, err := s.quizzes.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "quiz not found", "failed to load quiz")
	}
	enrollment, err := s.progress.requireEnrollment(ctx, actor, quiz.CourseID)
	if err != nil {
		return nil, err
	}
	questions, err := s.quizzes.ListQuestions(ctx, quiz.ID)
	if err != nil {
		return nil, internal(err, "failed to list questions")
	}

	result := ScoreQuiz(quiz, questions, req.Answers)
	err = withTx(ctx, s.progress.db, func(tx *sqlx.Tx) error {
		locked, err := s.progress.enrollments.LockByID(ctx, tx, enrollment.ID)
		if err != nil {
			return notFoundOr(err, "enrollment not found", "failed to lock enrollment")
		}
		used, err := s.progress.progress.CountQuizAttempts(ctx, tx, locked.ID, quiz.ID)
		if err != nil {
			return internal(err, "failed to count attempts")
		}
		if used >= quiz.MaxAttempts {
			return appErrors.Clone(appErrors.ErrAttemptsExhausted, "")
		}
		now := s.progress.now().UTC()
		score := result.Percentage
		record := &models.Progress{
			EnrollmentID:   locked.ID,
			QuizID:         strPtr(quiz.ID),
			Completed:      true,
			CompletionDate: &now,
			QuizScore:      &score,
			QuizAttempts:   used + 1,
		}
		if err := s.progress.progress.Create(ctx, tx, record); err != nil {
			return internal(err, "failed to record attempt")
		}
		if err := s.progress.recompute(ctx, tx, locked); err != nil {
			return err
		}
		result.AttemptsUsed = used + 1
		result.AttemptsRemaining = remaining(quiz.MaxAttempts, used+1)
		result.CourseProgress = locked.Progress
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncQuizAttempt(result.Passed)
	s.progress.cache.InvalidateKeys(ctx, dashboardStudentKey(enrollment.StudentID))
	return result, nil
}

// ScoreQuiz grades answers against the questions. Unanswered questions are wrong.
func ScoreQuiz(quiz *models.Quiz, questions []models.Question, answers map[string]string) *models.QuizResult {
	result := &models.QuizResult{
		TotalQuestions: len(questions),
		PassingScore:   quiz.PassingScore,
		Results:        make([]models.QuestionResult, 0, len(questions)),
	}
	for _, q := range questions {
		answer := strings.ToUpper(strings.TrimSpace(answers[q.ID]))
		correct := answer != "" && answer == strings.ToUpper(q.CorrectAnswer)
		result.TotalPoints += q.Points
		if correct {
			result.Score += q.Points
			result.CorrectCount++
		}
		result.Results = append(result.Results, models.QuestionResult{
			QuestionID:    q.ID,
			QuestionText:  q.QuestionText,
			UserAnswer:    answer,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     correct,
			Points:        q.Points,
		})
	}
	if result.TotalPoints > 0 {
		result.Percentage = round2(float64(result.Score) / float64(result.TotalPoints) * 100)
	}
	result.Passed = result.Percentage >= float64(quiz.PassingScore)
	return result
}

func remaining(max, used int) int {
	if used >= max {
		return 0
	}
	return max - used
}

func (s *QuizService) ownedQuiz(ctx context.Context, actor *models.JWTClaims, id string) (*models.Quiz, error) {
	quiz, err := s.quizzes.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "quiz not found", "failed to load quiz")
	}
	if _, err := loadOwnedCourse(ctx, s.courses, quiz.CourseID, actor); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) ownedQuestion(ctx context.Context, actor *models.JWTClaims, id string) (*models.Question, error) {
	question, err := s.quizzes.FindQuestion(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "question not found", "failed to load question")
	}
	if _, err := s.ownedQuiz(ctx, actor, question.QuizID); err != nil {
		return nil, err
	}
	return question, nil
}

func (s *QuizService) applyQuiz(quiz *models.Quiz, req dto.QuizRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return invalid(err, "invalid quiz payload")
	}
	quiz.Title = strings.TrimSpace(req.Title)
	quiz.Description = req.Description
	quiz.Duration = req.Duration
	if quiz.Duration == 0 {
		quiz.Duration = defaultQuizDuration
	}
	quiz.PassingScore = defaultQuizPassingScore
	if req.PassingScore != nil {
		quiz.PassingScore = *req.PassingScore
	}
	quiz.MaxAttempts = req.MaxAttempts
	if quiz.MaxAttempts == 0 {
		quiz.MaxAttempts = defaultQuizMaxAttempts
	}
	return nil
}

func (s *QuizService) applyQuestion(question *models.Question, req dto.QuestionRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return invalid(err, "invalid question payload")
	}
	question.QuestionText = strings.TrimSpace(req.QuestionText)
	question.OptionA = req.OptionA
	question.OptionB = req.OptionB
	question.OptionC = req.OptionC
	question.OptionD = req.OptionD
	question.CorrectAnswer = strings.ToUpper(req.CorrectAnswer)
	question.Points = req.Points
	if question.Points == 0 {
		question.Points = defaultQuestionPoints
	}
	question.Order = *req.Order
	return nil
}

func mapQuestionWriteError(err error, failure string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrConflict, "a question with this order already exists"), map[string]string{"order": "must be unique within the quiz"})
	}
	return notFoundOr(err, "question not found", failure)
}
