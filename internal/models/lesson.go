package models

import "time"

// MediaType describes how a lesson's content is delivered.
type MediaType string

const (
	MediaTypeVideo    MediaType = "VIDEO"
	MediaTypeExternal MediaType = "EXTERNAL"
	MediaTypeDocument MediaType = "DOCUMENT"
)

// Lesson is an ordered unit of a course.
type Lesson struct {
	ID           string    `db:"id" json:"id"`
	CourseID     string    `db:"course_id" json:"course"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	Order        int       `db:"order" json:"order"`
	Duration     int       `db:"duration" json:"duration"`
	MediaType    MediaType `db:"media_type" json:"media_type"`
	VideoURL     string    `db:"video_url" json:"video_url"`
	ExternalLink string    `db:"external_link" json:"external_link"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// VideoType is where a video is hosted.
type VideoType string

const (
	VideoTypeUpload      VideoType = "UPLOAD"
	VideoTypeYouTube     VideoType = "YOUTUBE"
	VideoTypeGoogleDrive VideoType = "GOOGLE_DRIVE"
	VideoTypeOneDrive    VideoType = "ONE_DRIVE"
	VideoTypeVimeo       VideoType = "VIMEO"
)

// StorageProvider is derived from the video type.
type StorageProvider string

const (
	StorageLocal       StorageProvider = "LOCAL"
	StorageYouTube     StorageProvider = "YOUTUBE"
	StorageGoogleDrive StorageProvider = "GOOGLE_DRIVE"
	StorageOneDrive    StorageProvider = "ONE_DRIVE"
	StorageVimeo       StorageProvider = "VIMEO"
)

// Provider maps the video type to its storage provider. Uploads are stored locally.
func (t VideoType) Provider() (StorageProvider, bool) {
	switch t {
	case VideoTypeUpload:
		return StorageLocal, true
	case VideoTypeYouTube:
		return StorageYouTube, true
	case VideoTypeGoogleDrive:
		return StorageGoogleDrive, true
	case VideoTypeOneDrive:
		return StorageOneDrive, true
	case VideoTypeVimeo:
		return StorageVimeo, true
	}
	return "", false
}

// Video is a hosted or uploaded video attached to a lesson.
type Video struct {
	ID              string          `db:"id" json:"id"`
	LessonID        string          `db:"lesson_id" json:"lesson"`
	VideoURL        string          `db:"video_url" json:"video_url"`
	VideoType       VideoType       `db:"video_type" json:"video_type"`
	Duration        int             `db:"duration" json:"duration"`
	ThumbnailURL    string          `db:"thumbnail_url" json:"thumbnail_url"`
	StorageProvider StorageProvider `db:"storage_provider" json:"storage_provider"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}
