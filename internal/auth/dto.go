package auth

import (
	"github.com/evdms-platform/evdms-backend/internal/users"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the tokens, user, and landing route produced by a
// successful login. The landing route tells the client where to send the user
// given their role.
type LoginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
	LandingRoute string         `json:"landing_route"`
}

// RefreshRequest carries the rotation inputs for an existing session.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse mirrors LoginResponse for a rotated session.
type RefreshResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user,omitempty"`
	LandingRoute string         `json:"landing_route"`
}
