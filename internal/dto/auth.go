package dto

import "github.com/noah-isme/skillhub-api/internal/models"

// RegisterRequest creates a STUDENT or INSTRUCTOR account.
type RegisterRequest struct {
	Email           string          `json:"email" validate:"required,email,max=254"`
	Password        string          `json:"password" validate:"required,min=8,max=128"`
	PasswordConfirm string          `json:"password_confirm" validate:"required,eqfield=Password"`
	FirstName       string          `json:"first_name" validate:"required,max=150"`
	LastName        string          `json:"last_name" validate:"required,max=150"`
	Role            models.UserRole `json:"role" validate:"omitempty,oneof=STUDENT INSTRUCTOR"`
	IP              string          `json:"-"`
	UserAgent       string          `json:"-"`
}

// LoginRequest holds credentials.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// RefreshTokenRequest rotates a refresh token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh" validate:"required"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

// LogoutRequest revokes a refresh token.
type LogoutRequest struct {
	RefreshToken string `json:"refresh" validate:"required"`
}

// UpdateProfileRequest edits the caller's name.
type UpdateProfileRequest struct {
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
}

// ChangePasswordRequest requires the current password.
type ChangePasswordRequest struct {
	CurrentPassword    string `json:"current_password" validate:"required"`
	NewPassword        string `json:"new_password" validate:"required,min=8,max=128"`
	NewPasswordConfirm string `json:"new_password_confirm" validate:"required,eqfield=NewPassword"`
}

// PasswordResetRequest starts the reset flow.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetConfirmRequest completes the reset flow.
type PasswordResetConfirmRequest struct {
	Token              string `json:"token" validate:"required"`
	NewPassword        string `json:"new_password" validate:"required,min=8,max=128"`
	NewPasswordConfirm string `json:"new_password_confirm" validate:"required,eqfield=NewPassword"`
}

// SetUserActiveRequest toggles an account.
type SetUserActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// MessageResponse carries a human readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}
