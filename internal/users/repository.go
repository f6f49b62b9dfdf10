package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turbovets/taskboard/internal/platform/db"
	"github.com/turbovets/taskboard/internal/rbac"
)

const userColumns = `u.id::text, u.email, u.first_name, u.last_name, u.password_hash, u.is_active, u.created_at, u.updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindByID loads a user together with its roles. Ids that are not UUIDs are
// reported as ErrNotFound.
func (r *Repository) FindByID(ctx context.Context, id string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id)
}

// FindByEmail loads a user by email together with its roles.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users u WHERE lower(u.email) = lower($1)`, email)
}

// ListUsers returns all users ordered by email.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users u ORDER BY u.email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}
	ids := make([]string, len(out))
	for i := range out {
		ids[i] = out[i].ID
	}
	byUser, err := r.rolesFor(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Roles = byUser[out[i].ID]
	}
	return out, nil
}

// Create inserts the user and links roleIDs in a single transaction.
func (r *Repository) Create(ctx context.Context, user User, roleIDs []string) (*User, error) {
	var created User
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
INSERT INTO users AS u (email, first_name, last_name, password_hash, is_active)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+userColumns, user.Email, user.FirstName, user.LastName, user.PasswordHash, user.IsActive)
		var err error
		created, err = scanUser(row)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return ErrDuplicateEmail
			}
			return fmt.Errorf("insert user: %w", err)
		}
		for _, roleID := range roleIDs {
			if _, err := tx.Exec(ctx, `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, created.ID, roleID); err != nil {
				return fmt.Errorf("link role %s: %w", roleID, err)
			}
		}
		byUser, err := r.rolesFor(ctx, tx, []string{created.ID})
		if err != nil {
			return err
		}
		created.Roles = byUser[created.ID]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *Repository) findOne(ctx context.Context, query string, arg string) (*User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	byUser, err := r.rolesFor(ctx, r.pool, []string{user.ID})
	if err != nil {
		return nil, err
	}
	user.Roles = byUser[user.ID]
	return &user, nil
}

func (r *Repository) rolesFor(ctx context.Context, q querier, userIDs []string) (map[string][]rbac.Role, error) {
	rows, err := q.Query(ctx, `
SELECT ur.user_id::text, r.id::text, r.name, r.permissions, r.description, r.is_default, r.created_at, r.updated_at
  FROM user_roles ur
  JOIN roles r ON r.id = ur.role_id
 WHERE ur.user_id::text = ANY($1)
 ORDER BY r.name`, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string][]rbac.Role, len(userIDs))
	for rows.Next() {
		var (
			userID string
			role   rbac.Role
			perms  []string
		)
		if err := rows.Scan(&userID, &role.ID, &role.Name, &perms, &role.Description, &role.IsDefault, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		for _, raw := range perms {
			if p, ok := rbac.ParsePermission(raw); ok {
				role.Permissions = append(role.Permissions, p)
			}
		}
		out[userID] = append(out[userID], role)
	}
	return out, rows.Err()
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
