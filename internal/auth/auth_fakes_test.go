package auth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/turbovets/taskboard/internal/rbac"
	"github.com/turbovets/taskboard/internal/users"
)

const testSecret = "test-secret-value"

type fakeUsers struct {
	mu      sync.Mutex
	byEmail map[string]users.User
	seq     int
	findErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: make(map[string]users.User)}
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*users.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, users.ErrNotFound
	}
	return &u, nil
}

func (f *fakeUsers) Create(_ context.Context, user users.User, roles []rbac.Role) (*users.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[user.Email]; ok {
		return nil, users.ErrDuplicateEmail
	}
	f.seq++
	user.ID = fmt.Sprintf("user-%d", f.seq)
	user.Roles = roles
	f.byEmail[user.Email] = user
	return &user, nil
}

func (f *fakeUsers) LoadPrincipal(_ context.Context, id string) (rbac.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == id {
			if !u.IsActive {
				return rbac.Principal{}, users.ErrInactive
			}
			return u.Principal(), nil
		}
	}
	return rbac.Principal{}, users.ErrInactive
}

func (f *fakeUsers) deactivate(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.byEmail[email]
	u.IsActive = false
	f.byEmail[email] = u
}

type fakeRoles struct {
	roles []rbac.Role
	err   error
}

func (f fakeRoles) DefaultRoles(context.Context) ([]rbac.Role, error) {
	return f.roles, f.err
}

var memberRole = rbac.Role{
	ID:          "role-member",
	Name:        "Member",
	Permissions: []rbac.Permission{rbac.PermCreateTask, rbac.PermReadTask, rbac.PermUpdateTask, rbac.PermDeleteTask},
	IsDefault:   true,
}

type fixture struct {
	service *Service
	users   *fakeUsers
	redis   *miniredis.Miniredis
	tokens  *Tokens
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := newFakeUsers()
	tokens := NewTokens(testSecret, "taskboard", time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(store, fakeRoles{roles: []rbac.Role{memberRole}}, tokens, NewDenylist(client), logger)
	svc.bcryptCost = bcrypt.MinCost
	return fixture{service: svc, users: store, redis: mr, tokens: tokens}
}
