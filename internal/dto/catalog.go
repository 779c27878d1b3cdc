package dto

import (
	"time"

	"github.com/noah-isme/skillhub-api/internal/models"
)

// CategoryRequest creates or renames a category.
type CategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=2000"`
}

// CourseRequest creates or updates a draft course.
type CourseRequest struct {
	Title       string        `json:"title" validate:"required,max=200"`
	Description string        `json:"description" validate:"max=10000"`
	Syllabus    string        `json:"syllabus" validate:"max=20000"`
	CategoryID  *string       `json:"category" validate:"omitempty,uuid"`
	Price       *models.Money `json:"price" validate:"required"`
}

// ReviewCourseRequest approves or rejects a pending course.
type ReviewCourseRequest struct {
	Status       models.CourseStatus `json:"status" validate:"required,oneof=APPROVED REJECTED"`
	AdminComment string              `json:"admin_comment" validate:"max=2000"`
}

// CatalogQuery is the parsed public catalog query string.
type CatalogQuery struct {
	Categories []string
	IsFree     *bool
	Search     string
	Ordering   string
	Page       int
	PageSize   int
}

// LessonRequest creates or updates a lesson.
type LessonRequest struct {
	Title        string           `json:"title" validate:"required,max=200"`
	Description  string           `json:"description" validate:"max=10000"`
	Order        *int             `json:"order" validate:"required,gte=0"`
	Duration     int              `json:"duration" validate:"gte=0"`
	MediaType    models.MediaType `json:"media_type" validate:"omitempty,oneof=VIDEO EXTERNAL DOCUMENT"`
	VideoURL     string           `json:"video_url" validate:"omitempty,url"`
	ExternalLink string           `json:"external_link" validate:"omitempty,url"`
}

// VideoRequest attaches a video to a lesson.
type VideoRequest struct {
	VideoURL     string           `json:"video_url" validate:"required,url"`
	VideoType    models.VideoType `json:"video_type" validate:"required,oneof=UPLOAD YOUTUBE GOOGLE_DRIVE ONE_DRIVE VIMEO"`
	Duration     int              `json:"duration" validate:"gte=0"`
	ThumbnailURL string           `json:"thumbnail_url" validate:"omitempty,url"`
}

// AssignmentRequest creates or updates an assignment.
type AssignmentRequest struct {
	Title        string    `json:"title" validate:"required,max=200"`
	Description  string    `json:"description" validate:"max=10000"`
	Instructions string    `json:"instructions" validate:"max=20000"`
	Deadline     time.Time `json:"deadline" validate:"required"`
	MaxScore     int       `json:"max_score" validate:"omitempty,gte=1,lte=1000"`
}

// QuizRequest creates or updates a quiz.
type QuizRequest struct {
	Title        string `json:"title" validate:"required,max=200"`
	Description  string `json:"description" validate:"max=10000"`
	Duration     int    `json:"duration" validate:"omitempty,gte=1,lte=600"`
	PassingScore *int   `json:"passing_score" validate:"omitempty,gte=0,lte=100"`
	MaxAttempts  int    `json:"max_attempts" validate:"omitempty,gte=1,lte=100"`
}

// QuestionRequest creates or updates a question.
type QuestionRequest struct {
	QuestionText  string `json:"question_text" validate:"required"`
	OptionA       string `json:"option_a" validate:"required,max=500"`
	OptionB       string `json:"option_b" validate:"required,max=500"`
	OptionC       string `json:"option_c" validate:"required,max=500"`
	OptionD       string `json:"option_d" validate:"required,max=500"`
	CorrectAnswer string `json:"correct_answer" validate:"required,oneof=A B C D a b c d"`
	Points        int    `json:"points" validate:"omitempty,gte=1,lte=100"`
	Order         *int   `json:"order" validate:"required,gte=0"`
}
