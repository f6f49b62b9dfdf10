package roles

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turbovets/taskboard/internal/rbac"
)

const roleColumns = `id::text, name, permissions, description, is_default, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListRoles returns all roles ordered by name.
func (r *Repository) ListRoles(ctx context.Context) ([]rbac.Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return collectRoles(rows)
}

// ListDefaultRoles returns roles flagged as default.
func (r *Repository) ListDefaultRoles(ctx context.Context) ([]rbac.Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles WHERE is_default ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return collectRoles(rows)
}

// ListRolesByName returns the roles matching names.
func (r *Repository) ListRolesByName(ctx context.Context, names []string) ([]rbac.Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles WHERE name = ANY($1) ORDER BY name`, names)
	if err != nil {
		return nil, err
	}
	return collectRoles(rows)
}

// UpsertRole inserts the role or refreshes its permissions when the name exists.
func (r *Repository) UpsertRole(ctx context.Context, spec Spec) (rbac.Role, error) {
	perms := make([]string, len(spec.Permissions))
	for i, p := range spec.Permissions {
		perms[i] = string(p)
	}
	row := r.pool.QueryRow(ctx, `
INSERT INTO roles (name, permissions, description, is_default)
VALUES ($1, $2, $3, $4)
ON CONFLICT (name) DO UPDATE
   SET permissions = EXCLUDED.permissions,
       description = EXCLUDED.description,
       is_default  = EXCLUDED.is_default,
       updated_at  = NOW()
RETURNING `+roleColumns, spec.Name, perms, spec.Description, spec.IsDefault)
	return scanRole(row)
}

func collectRoles(rows pgx.Rows) ([]rbac.Role, error) {
	defer rows.Close()
	var out []rbac.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanRole(row pgx.Row) (rbac.Role, error) {
	var (
		role  rbac.Role
		perms []string
	)
	if err := row.Scan(&role.ID, &role.Name, &perms, &role.Description, &role.IsDefault, &role.CreatedAt, &role.UpdatedAt); err != nil {
		return rbac.Role{}, err
	}
	role.Permissions = make([]rbac.Permission, 0, len(perms))
	for _, raw := range perms {
		if p, ok := rbac.ParsePermission(raw); ok {
			role.Permissions = append(role.Permissions, p)
		}
	}
	return role, nil
}
