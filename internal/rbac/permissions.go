package rbac

import (
	"sort"
	"strings"
)

var allPermissions = []Permission{
	PermCreateTask,
	PermReadTask,
	PermUpdateTask,
	PermDeleteTask,
	PermAssignTask,
	PermManageUsers,
}

// AllPermissions lists every known permission in declaration order.
func AllPermissions() []Permission {
	out := make([]Permission, len(allPermissions))
	copy(out, allPermissions)
	return out
}

// ParsePermission normalises raw and reports whether it names a known permission.
func ParsePermission(raw string) (Permission, bool) {
	candidate := Permission(strings.ToLower(strings.TrimSpace(raw)))
	for _, p := range allPermissions {
		if p == candidate {
			return p, true
		}
	}
	return "", false
}

// PermissionSet is an immutable set of permissions.
type PermissionSet struct {
	set map[Permission]struct{}
}

// NewPermissionSet builds a set from perms, ignoring unknown values.
func NewPermissionSet(perms ...Permission) PermissionSet {
	set := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		if known, ok := ParsePermission(string(p)); ok {
			set[known] = struct{}{}
		}
	}
	return PermissionSet{set: set}
}

// Resolve returns the union of the permissions granted by roles. An empty
// role list yields an empty set.
func Resolve(roles []Role) PermissionSet {
	var perms []Permission
	for _, role := range roles {
		perms = append(perms, role.Permissions...)
	}
	return NewPermissionSet(perms...)
}

// Has reports whether p is part of the set.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s.set[p]
	return ok
}

// HasAny reports whether at least one of perms is part of the set. An empty
// requirement is always satisfied.
func (s PermissionSet) HasAny(perms ...Permission) bool {
	if len(perms) == 0 {
		return true
	}
	for _, p := range perms {
		if s.Has(p) {
			return true
		}
	}
	return false
}

// HasAll reports whether every one of perms is part of the set.
func (s PermissionSet) HasAll(perms ...Permission) bool {
	for _, p := range perms {
		if !s.Has(p) {
			return false
		}
	}
	return true
}

// Len returns the number of permissions in the set.
func (s PermissionSet) Len() int {
	return len(s.set)
}

// Slice returns the permissions sorted by name.
func (s PermissionSet) Slice() []Permission {
	out := make([]Permission, 0, len(s.set))
	for p := range s.set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
