package dto

import (
	"time"

	"github.com/spec-kit/task-service/internal/domain"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest payload for self-registration. Role is named, not
// referenced by id.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginResponse carries the access token and the public user view. The
// refresh token travels only in the httpOnly cookie.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

// RefreshResponse carries only the rotated access token.
type RefreshResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ProfileResponse is the resolved caller's public profile.
type ProfileResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// NewProfileResponse maps a user to its public profile.
func NewProfileResponse(user *domain.User) ProfileResponse {
	return ProfileResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.RoleName,
		CreatedAt: user.CreatedAt,
	}
}
