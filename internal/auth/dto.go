package auth

import (
	"time"

	"github.com/angelmondragon/pdv-terminal/pkg/pdvapi"
)

// LoginRequest is the operator's credential form.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse hands the PDV API token back to the frontend with the operator profile.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresAt   *time.Time  `json:"expires_at,omitempty"`
	User        pdvapi.User `json:"user"`
}
