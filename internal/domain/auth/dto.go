package auth

import (
	"modlog/internal/domain"
	"modlog/internal/domain/project"
)

type SignupRequest struct {
	Username string         `json:"username" validate:"required,min=5,max=20,alphanum"`
	Email    string         `json:"email" validate:"required,email,max=254"`
	Password string         `json:"password" validate:"required,min=8,max=32"`
	Privacy  domain.Privacy `json:"privacy" validate:"omitempty,oneof=public private unlisted"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=20"`
	Password string `json:"password" validate:"required,max=32"`
}

type UpdateRequest struct {
	Email    string         `json:"email" validate:"omitempty,email,max=254"`
	Password string         `json:"password" validate:"omitempty,min=8,max=32"`
	Privacy  domain.Privacy `json:"privacy" validate:"omitempty,oneof=public private unlisted"`
}

type AuthResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type ProfileResponse struct {
	User     *PublicUser                `json:"user"`
	Projects []project.ProjectResponse `json:"projects"`
}

// PublicUser is what other users see of an account.
type PublicUser struct {
	ID             string         `json:"id"`
	Username       string         `json:"username"`
	Privacy        domain.Privacy `json:"privacy"`
	ProfileImageID string         `json:"profile_image_id,omitempty"`
}

func toPublicUser(u *User) *PublicUser {
	return &PublicUser{
		ID:             u.ID,
		Username:       u.Username,
		Privacy:        u.Privacy,
		ProfileImageID: u.ProfileImageID,
	}
}
