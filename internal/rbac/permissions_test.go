package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveUnionsRolePermissions(t *testing.T) {
	roles := []Role{
		{Name: "Writer", Permissions: []Permission{PermCreateTask, PermReadTask}},
		{Name: "Editor", Permissions: []Permission{PermReadTask, PermUpdateTask}},
	}

	set := Resolve(roles)

	assert.Equal(t, 3, set.Len())
	assert.True(t, set.Has(PermCreateTask))
	assert.True(t, set.Has(PermReadTask))
	assert.True(t, set.Has(PermUpdateTask))
	assert.False(t, set.Has(PermManageUsers))
	assert.Equal(t, []Permission{PermCreateTask, PermReadTask, PermUpdateTask}, set.Slice())
}

func TestResolveEmptyRolesYieldsEmptySet(t *testing.T) {
	set := Resolve(nil)

	assert.Equal(t, 0, set.Len())
	for _, p := range AllPermissions() {
		assert.False(t, set.Has(p), string(p))
	}
	assert.True(t, set.HasAny(), "empty requirement is always met")
	assert.True(t, set.HasAll())
}

func TestResolveIgnoresUnknownPermissions(t *testing.T) {
	set := Resolve([]Role{{Permissions: []Permission{"launch_rockets", " READ_TASK "}}})

	assert.Equal(t, 1, set.Len())
	assert.True(t, set.Has(PermReadTask))
}

func TestParsePermission(t *testing.T) {
	p, ok := ParsePermission("Manage_Users")
	require.True(t, ok)
	assert.Equal(t, PermManageUsers, p)

	_, ok = ParsePermission("")
	assert.False(t, ok)
}

func TestPrincipalSnapshotIsIsolatedFromRoleMutation(t *testing.T) {
	roles := []Role{{Name: "Member", Permissions: []Permission{PermReadTask}}}
	principal := NewPrincipal("u1", "u1@example.com", roles, true)

	roles[0].Permissions[0] = PermManageUsers
	roles = append(roles, Role{Permissions: []Permission{PermDeleteTask}})

	assert.True(t, principal.Can(PermReadTask))
	assert.False(t, principal.Can(PermDeleteTask))
	assert.False(t, principal.IsManager())
}

func TestPrincipalHasAnyHasAll(t *testing.T) {
	principal := NewPrincipal("u1", "", []Role{{Permissions: []Permission{PermReadTask, PermAssignTask}}}, true)

	assert.True(t, principal.Permissions().HasAny(PermManageUsers, PermAssignTask))
	assert.False(t, principal.Permissions().HasAll(PermManageUsers, PermAssignTask))
	assert.True(t, principal.Permissions().HasAll(PermReadTask, PermAssignTask))
}
