package rbac

import "time"

// Permission is an atomic capability tag gating one class of task operation.
type Permission string

// The closed set of permissions understood by the application.
const (
	PermCreateTask  Permission = "create_task"
	PermReadTask    Permission = "read_task"
	PermUpdateTask  Permission = "update_task"
	PermDeleteTask  Permission = "delete_task"
	PermAssignTask  Permission = "assign_task"
	PermManageUsers Permission = "manage_users"
)

// Role represents a named bundle of permissions assignable to users.
type Role struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Permissions []Permission `json:"permissions"`
	IsDefault   bool         `json:"isDefault"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Principal describes the authenticated actor. The permission snapshot is
// computed once when the principal is built and never changes afterwards.
type Principal struct {
	ID       string
	Email    string
	Roles    []Role
	IsActive bool

	perms PermissionSet
}

// NewPrincipal builds a Principal and resolves its permission snapshot.
func NewPrincipal(id, email string, roles []Role, active bool) Principal {
	copied := make([]Role, len(roles))
	copy(copied, roles)
	return Principal{
		ID:       id,
		Email:    email,
		Roles:    copied,
		IsActive: active,
		perms:    Resolve(copied),
	}
}

// Permissions returns the permission snapshot of the principal.
func (p Principal) Permissions() PermissionSet {
	return p.perms
}

// Can reports whether the principal holds perm.
func (p Principal) Can(perm Permission) bool {
	return p.perms.Has(perm)
}

// IsManager reports whether the principal may act on any task regardless of
// ownership.
func (p Principal) IsManager() bool {
	return p.perms.Has(PermManageUsers)
}
