package roles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/turbovets/taskboard/internal/rbac"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]rbac.Role, error)
	ListDefaultRoles(ctx context.Context) ([]rbac.Role, error)
	ListRolesByName(ctx context.Context, names []string) ([]rbac.Role, error)
	UpsertRole(ctx context.Context, spec Spec) (rbac.Role, error)
}

// ErrNoDefaultRole indicates that registration has no role to grant.
var ErrNoDefaultRole = errors.New("roles: no default role configured")

// Service handles role business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]rbac.Role, error) {
	return s.repo.ListRoles(ctx)
}

// DefaultRoles returns the roles granted to newly registered users.
func (s *Service) DefaultRoles(ctx context.Context) ([]rbac.Role, error) {
	roles, err := s.repo.ListDefaultRoles(ctx)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return nil, ErrNoDefaultRole
	}
	return roles, nil
}

// RolesByName resolves roles by their unique names.
func (s *Service) RolesByName(ctx context.Context, names ...string) ([]rbac.Role, error) {
	return s.repo.ListRolesByName(ctx, names)
}

// EnsureRoles upserts every spec. Unknown permissions are rejected before any
// write happens.
func (s *Service) EnsureRoles(ctx context.Context, specs []Spec) ([]rbac.Role, error) {
	for _, spec := range specs {
		if strings.TrimSpace(spec.Name) == "" {
			return nil, errors.New("roles: role name required")
		}
		for _, p := range spec.Permissions {
			if _, ok := rbac.ParsePermission(string(p)); !ok {
				return nil, fmt.Errorf("roles: %s: unknown permission %q", spec.Name, p)
			}
		}
	}
	out := make([]rbac.Role, 0, len(specs))
	for _, spec := range specs {
		role, err := s.repo.UpsertRole(ctx, spec)
		if err != nil {
			return nil, fmt.Errorf("roles: upsert %s: %w", spec.Name, err)
		}
		out = append(out, role)
	}
	return out, nil
}

// EnsureDefaults seeds the built-in roles.
func (s *Service) EnsureDefaults(ctx context.Context) ([]rbac.Role, error) {
	return s.EnsureRoles(ctx, DefaultSpecs())
}
