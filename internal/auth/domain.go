package auth

import (
	"fmt"
	"time"

	"github.com/turbovets/taskboard/internal/platform/httpx"
	"github.com/turbovets/taskboard/internal/users"
)

var (
	// ErrInvalidToken covers malformed, expired and wrongly signed tokens.
	ErrInvalidToken = fmt.Errorf("invalid token: %w", httpx.ErrUnauthorized)
	// ErrTokenRevoked is returned for tokens presented after logout.
	ErrTokenRevoked = fmt.Errorf("token revoked: %w", httpx.ErrUnauthorized)
	// ErrMissingToken is returned when no bearer token is presented.
	ErrMissingToken = fmt.Errorf("missing bearer token: %w", httpx.ErrUnauthorized)
)

// Claims is the verified content of an access token.
type Claims struct {
	Subject   string
	Email     string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Session is returned by a successful login.
type Session struct {
	AccessToken string      `json:"access_token"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        *users.User `json:"user"`
}

// RegisterInput carries the fields needed to open an account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}
