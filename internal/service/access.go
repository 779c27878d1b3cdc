package service

import (
	"context"

	"github.com/noah-isme/skillhub-api/internal/models"
	appErrors "github.com/noah-isme/skillhub-api/pkg/errors"
)

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// canViewCourse applies catalog visibility: approved courses are public, everything else is
// visible to admins and the owning instructor.
func canViewCourse(course *models.Course, viewer *models.JWTClaims) bool {
	if course.Status == models.CourseStatusApproved {
		return true
	}
	if viewer == nil {
		return false
	}
	return viewer.Is(models.RoleAdmin) || (viewer.Is(models.RoleInstructor) && course.OwnedBy(viewer.UserID))
}

func isOwner(course *models.Course, viewer *models.JWTClaims) bool {
	return viewer != nil && course.OwnedBy(viewer.UserID)
}

func isOwnerOrAdmin(course *models.Course, viewer *models.JWTClaims) bool {
	return viewer.Is(models.RoleAdmin) || isOwner(course, viewer)
}

// loadVisibleCourse returns the course or 404 when the viewer may not see it.
func loadVisibleCourse(ctx context.Context, courses courseReader, id string, viewer *models.JWTClaims) (*models.Course, error) {
	course, err := courses.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "course not found", "failed to load course")
	}
	if !canViewCourse(course, viewer) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	return course, nil
}

// loadOwnedCourse returns the course when the viewer owns it.
func loadOwnedCourse(ctx context.Context, courses courseReader, id string, viewer *models.JWTClaims) (*models.Course, error) {
	course, err := courses.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "course not found", "failed to load course")
	}
	if !isOwner(course, viewer) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you do not own this course")
	}
	return course, nil
}

// loadDraftCourse returns an owned course that is still editable.
func loadDraftCourse(ctx context.Context, courses courseReader, id string, viewer *models.JWTClaims) (*models.Course, error) {
	course, err := loadOwnedCourse(ctx, courses, id, viewer)
	if err != nil {
		return nil, err
	}
	if course.Status != models.CourseStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrNotDraft, "course can only be changed while in draft")
	}
	return course, nil
}

// loadManagedCourse returns the course when the viewer owns it or is an admin.
func loadManagedCourse(ctx context.Context, courses courseReader, id string, viewer *models.JWTClaims) (*models.Course, error) {
	course, err := courses.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "course not found", "failed to load course")
	}
	if !isOwnerOrAdmin(course, viewer) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you do not manage this course")
	}
	return course, nil
}
