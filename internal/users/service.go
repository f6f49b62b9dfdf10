package users

import (
	"context"
	"errors"
	"strings"

	"github.com/turbovets/taskboard/internal/rbac"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	Create(ctx context.Context, user User, roleIDs []string) (*User, error)
}

// Service handles user business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListUsers returns all users. Only principals holding manage_users may list.
func (s *Service) ListUsers(ctx context.Context, actor rbac.Principal) ([]User, error) {
	if !actor.IsManager() {
		return nil, ErrForbidden
	}
	return s.repo.ListUsers(ctx)
}

// Get returns a single user by id.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	return s.repo.FindByID(ctx, id)
}

// FindByEmail returns a single user by email.
func (s *Service) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.FindByEmail(ctx, strings.TrimSpace(email))
}

// Create persists a new user linked to roles.
func (s *Service) Create(ctx context.Context, user User, roles []rbac.Role) (*User, error) {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	ids := make([]string, 0, len(roles))
	for _, r := range roles {
		ids = append(ids, r.ID)
	}
	return s.repo.Create(ctx, user, ids)
}

// LoadPrincipal resolves an active principal for the given user id. Missing
// and inactive users are both reported as ErrInactive so callers cannot tell
// them apart.
func (s *Service) LoadPrincipal(ctx context.Context, id string) (rbac.Principal, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return rbac.Principal{}, ErrInactive
		}
		return rbac.Principal{}, err
	}
	if !user.IsActive {
		return rbac.Principal{}, ErrInactive
	}
	return user.Principal(), nil
}
