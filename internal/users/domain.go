package users

import (
	"fmt"
	"time"

	"github.com/turbovets/taskboard/internal/platform/httpx"
	"github.com/turbovets/taskboard/internal/rbac"
)

// User represents a user account.
type User struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	FirstName    string      `json:"firstName"`
	LastName     string      `json:"lastName"`
	PasswordHash string      `json:"-"`
	IsActive     bool        `json:"isActive"`
	Roles        []rbac.Role `json:"roles"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Principal derives the authenticated actor for u.
func (u User) Principal() rbac.Principal {
	return rbac.NewPrincipal(u.ID, u.Email, u.Roles, u.IsActive)
}

// FullName joins first and last name.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

var (
	// ErrNotFound indicates the user does not exist.
	ErrNotFound = fmt.Errorf("user %w", httpx.ErrNotFound)
	// ErrDuplicateEmail indicates the email is already registered.
	ErrDuplicateEmail = fmt.Errorf("email already registered: %w", httpx.ErrDuplicate)
	// ErrInactive indicates the account exists but has been disabled.
	ErrInactive = fmt.Errorf("user inactive: %w", httpx.ErrUnauthorized)
	// ErrForbidden indicates the actor may not manage users.
	ErrForbidden = fmt.Errorf("%w: you do not have permission to manage users", httpx.ErrForbidden)
)
