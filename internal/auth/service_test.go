package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turbovets/taskboard/internal/rbac"
	"github.com/turbovets/taskboard/internal/shared"
	"github.com/turbovets/taskboard/internal/users"
)

func register(t *testing.T, f fixture, email string) *users.User {
	t.Helper()
	user, err := f.service.Register(context.Background(), RegisterInput{
		Email: email, Password: "correct-horse", FirstName: "Ada", LastName: "Lovelace",
	})
	require.NoError(t, err)
	return user
}

func TestRegisterHashesPasswordAndGrantsDefaults(t *testing.T) {
	f := newFixture(t)
	user := register(t, f, "ada@example.com")

	assert.NotEqual(t, "correct-horse", user.PasswordHash)
	assert.True(t, user.IsActive)
	require.Len(t, user.Roles, 1)
	assert.Equal(t, "Member", user.Roles[0].Name)

	_, err := f.service.Register(context.Background(), RegisterInput{Email: "ada@example.com", Password: "another-pass"})
	assert.ErrorIs(t, err, users.ErrDuplicateEmail)
}

func TestRegisterFailsWithoutDefaultRoles(t *testing.T) {
	f := newFixture(t)
	f.service.roles = fakeRoles{err: errors.New("no default role")}

	_, err := f.service.Register(context.Background(), RegisterInput{Email: "x@example.com", Password: "password1"})
	assert.EqualError(t, err, "no default role")
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	f := newFixture(t)
	user := register(t, f, "ada@example.com")

	session, err := f.service.Login(context.Background(), " ADA@example.com ", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.User.ID)

	claims, err := f.tokens.Parse(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject)
	assert.Equal(t, "ada@example.com", claims.Email)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)
	register(t, f, "ada@example.com")
	ctx := context.Background()

	_, err := f.service.Login(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = f.service.Login(ctx, "nobody@example.com", "correct-horse")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	f.users.deactivate("ada@example.com")
	_, err = f.service.Login(ctx, "ada@example.com", "correct-horse")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginPropagatesStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.users.findErr = errors.New("db down")

	_, err := f.service.Login(context.Background(), "ada@example.com", "correct-horse")
	assert.EqualError(t, err, "db down")
}

func TestAuthenticateAndLogout(t *testing.T) {
	f := newFixture(t)
	register(t, f, "ada@example.com")
	ctx := context.Background()

	session, err := f.service.Login(ctx, "ada@example.com", "correct-horse")
	require.NoError(t, err)

	principal, claims, err := f.service.Authenticate(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, principal.ID)
	assert.True(t, principal.Can(rbac.PermCreateTask))
	assert.False(t, principal.IsManager())

	require.NoError(t, f.service.Logout(ctx, claims))
	_, _, err = f.service.Authenticate(ctx, session.AccessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestAuthenticateRejectsMissingAndDeactivated(t *testing.T) {
	f := newFixture(t)
	register(t, f, "ada@example.com")
	ctx := context.Background()

	_, _, err := f.service.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrMissingToken)

	session, err := f.service.Login(ctx, "ada@example.com", "correct-horse")
	require.NoError(t, err)
	f.users.deactivate("ada@example.com")
	_, _, err = f.service.Authenticate(ctx, session.AccessToken)
	assert.ErrorIs(t, err, users.ErrInactive)
}

func TestProvisionIsIdempotent(t *testing.T) {
	f := newFixture(t)
	admin := rbac.Role{ID: "role-admin", Name: "Admin", Permissions: rbac.AllPermissions()}
	in := RegisterInput{Email: "Root@Example.com", Password: "bootstrap-pass", FirstName: "Root"}

	user, created, err := f.service.Provision(context.Background(), in, []rbac.Role{admin})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "root@example.com", user.Email)
	assert.True(t, user.Principal().IsManager())

	again, created, err := f.service.Provision(context.Background(), in, []rbac.Role{admin})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)

	session, err := f.service.Login(context.Background(), "root@example.com", "bootstrap-pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.User.ID)
}
