package roles

import "github.com/turbovets/taskboard/internal/rbac"

// Default role names seeded on startup.
const (
	RoleAdmin   = "Admin"
	RoleManager = "Manager"
	RoleMember  = "Member"
)

// Spec describes a role to be ensured in storage.
type Spec struct {
	Name        string
	Description string
	Permissions []rbac.Permission
	IsDefault   bool
}

// DefaultSpecs returns the built-in roles. Member is granted to every newly
// registered user.
func DefaultSpecs() []Spec {
	return []Spec{
		{
			Name:        RoleAdmin,
			Description: "Full access to every task and user",
			Permissions: rbac.AllPermissions(),
		},
		{
			Name:        RoleManager,
			Description: "Creates, reads, updates and assigns tasks",
			Permissions: []rbac.Permission{rbac.PermCreateTask, rbac.PermReadTask, rbac.PermUpdateTask, rbac.PermAssignTask},
		},
		{
			Name:        RoleMember,
			Description: "Works on own and assigned tasks",
			Permissions: []rbac.Permission{rbac.PermCreateTask, rbac.PermReadTask, rbac.PermUpdateTask, rbac.PermDeleteTask},
			IsDefault:   true,
		},
	}
}
