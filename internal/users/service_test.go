package users

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turbovets/taskboard/internal/rbac"
)

type memoryRepo struct {
	users   map[string]User
	created []string
	findErr error
}

func (m *memoryRepo) FindByID(ctx context.Context, id string) (*User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *memoryRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryRepo) ListUsers(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *memoryRepo) Create(ctx context.Context, user User, roleIDs []string) (*User, error) {
	for _, u := range m.users {
		if u.Email == user.Email {
			return nil, ErrDuplicateEmail
		}
	}
	user.ID = "u-" + user.Email
	m.users[user.ID] = user
	m.created = roleIDs
	return &user, nil
}

var (
	memberRole = rbac.Role{ID: "r-member", Name: "Member", Permissions: []rbac.Permission{rbac.PermReadTask}}
	adminRole  = rbac.Role{ID: "r-admin", Name: "Admin", Permissions: rbac.AllPermissions()}
)

func TestLoadPrincipalResolvesPermissions(t *testing.T) {
	repo := &memoryRepo{users: map[string]User{
		"u1": {ID: "u1", Email: "a@example.com", IsActive: true, Roles: []rbac.Role{memberRole}},
	}}
	svc := NewService(repo)

	p, err := svc.LoadPrincipal(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.ID)
	assert.True(t, p.Can(rbac.PermReadTask))
	assert.False(t, p.IsManager())
}

func TestLoadPrincipalRejectsInactiveAndMissingAlike(t *testing.T) {
	repo := &memoryRepo{users: map[string]User{
		"u1": {ID: "u1", IsActive: false, Roles: []rbac.Role{adminRole}},
	}}
	svc := NewService(repo)

	_, err := svc.LoadPrincipal(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrInactive)

	_, err = svc.LoadPrincipal(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrInactive)
}

func TestLoadPrincipalPassesStoreFaultThrough(t *testing.T) {
	fault := errors.New("db down")
	svc := NewService(&memoryRepo{findErr: fault})

	_, err := svc.LoadPrincipal(context.Background(), "u1")
	assert.ErrorIs(t, err, fault)
}

func TestListUsersRequiresManageUsers(t *testing.T) {
	repo := &memoryRepo{users: map[string]User{"u1": {ID: "u1"}}}
	svc := NewService(repo)

	member := rbac.NewPrincipal("u1", "", []rbac.Role{memberRole}, true)
	_, err := svc.ListUsers(context.Background(), member)
	assert.ErrorIs(t, err, ErrForbidden)

	admin := rbac.NewPrincipal("u2", "", []rbac.Role{adminRole}, true)
	list, err := svc.ListUsers(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateNormalisesEmailAndLinksRoles(t *testing.T) {
	repo := &memoryRepo{users: map[string]User{}}
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), User{Email: "  New@Example.com "}, []rbac.Role{memberRole})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", created.Email)
	assert.Equal(t, []string{"r-member"}, repo.created)
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", User{FirstName: "Ada", LastName: "Lovelace"}.FullName())
	assert.Equal(t, "Ada", User{FirstName: "Ada"}.FullName())
	assert.Equal(t, "Lovelace", User{LastName: "Lovelace"}.FullName())
}
