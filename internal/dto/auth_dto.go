package dto

import (
	"time"

	"github.com/noah-isme/paatshala-go-api/internal/service"
)

// LoginRequest carries LMS credentials for the login exchange.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=128"`
	Password string `json:"password" validate:"required,min=1,max=128"`
}

// CookieLoginRequest adopts an already-authenticated LMS session cookie
// instead of logging in with credentials.
type CookieLoginRequest struct {
	Cookie string `json:"cookie" validate:"required,min=8,max=256"`
}

// LoginResponse returns the minted API token together with how the LMS
// session behind it was obtained.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Source    string    `json:"source"`
}

// NewLoginResponse converts a login result into its wire form.
func NewLoginResponse(result service.LoginResult) LoginResponse {
	return LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Source:    result.Source,
	}
}

// SessionResponse reports whether an LMS session is currently usable.
type SessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	Source        string `json:"source,omitempty"`
}

// NewSessionResponse converts session state into its wire form.
func NewSessionResponse(info service.SessionInfo) SessionResponse {
	return SessionResponse{
		Authenticated: info.Authenticated,
		Source:        info.Source,
	}
}
