package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/turbovets/taskboard/internal/rbac"
	"github.com/turbovets/taskboard/internal/shared"
	"github.com/turbovets/taskboard/internal/users"
)

// UserStore is the slice of the users service auth depends on.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*users.User, error)
	Create(ctx context.Context, user users.User, roles []rbac.Role) (*users.User, error)
	LoadPrincipal(ctx context.Context, id string) (rbac.Principal, error)
}

// RoleSource yields the roles granted to newly registered users.
type RoleSource interface {
	DefaultRoles(ctx context.Context) ([]rbac.Role, error)
}

// Revoker tracks logged-out tokens.
type Revoker interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Service wraps authentication business rules.
type Service struct {
	users      UserStore
	roles      RoleSource
	tokens     *Tokens
	revoked    Revoker
	logger     *slog.Logger
	bcryptCost int
}

// NewService constructs a new Service.
func NewService(store UserStore, roles RoleSource, tokens *Tokens, revoked Revoker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:      store,
		roles:      roles,
		tokens:     tokens,
		revoked:    revoked,
		logger:     logger,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// ValidateUser checks email/password credentials against an active account.
func (s *Service) ValidateUser(ctx context.Context, email, password string) (*users.User, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Login validates credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.ValidateUser(ctx, email, password)
	if err != nil {
		return nil, err
	}
	token, claims, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	return &Session{AccessToken: token, ExpiresAt: claims.ExpiresAt, User: user}, nil
}

// Register opens an account with the default roles.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*users.User, error) {
	defaults, err := s.roles.DefaultRoles(ctx)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Create(ctx, users.User{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: string(hash),
		IsActive:     true,
	}, defaults)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", slog.String("user_id", user.ID))
	return user, nil
}

// Authenticate resolves the principal behind a bearer token. The principal
// is loaded fresh so role changes and deactivation apply immediately.
func (s *Service) Authenticate(ctx context.Context, token string) (rbac.Principal, Claims, error) {
	if token == "" {
		return rbac.Principal{}, Claims{}, ErrMissingToken
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return rbac.Principal{}, Claims{}, err
	}
	if s.revoked != nil {
		revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return rbac.Principal{}, Claims{}, err
		}
		if revoked {
			return rbac.Principal{}, Claims{}, ErrTokenRevoked
		}
	}
	principal, err := s.users.LoadPrincipal(ctx, claims.Subject)
	if err != nil {
		return rbac.Principal{}, Claims{}, err
	}
	return principal, claims, nil
}

// Logout revokes the token described by claims.
func (s *Service) Logout(ctx context.Context, claims Claims) error {
	if s.revoked == nil {
		return nil
	}
	return s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt)
}

// Provision creates an account with explicit roles unless the email is
// already registered. It reports whether a new account was created.
func (s *Service) Provision(ctx context.Context, in RegisterInput, roles []rbac.Role) (*users.User, bool, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, users.ErrNotFound) {
		return nil, false, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, false, err
	}
	user, err := s.users.Create(ctx, users.User{
		Email:        email,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: string(hash),
		IsActive:     true,
	}, roles)
	if err != nil {
		return nil, false, err
	}
	s.logger.Info("user provisioned", slog.String("user_id", user.ID), slog.Int("roles", len(roles)))
	return user, true, nil
}
