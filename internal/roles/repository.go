package roles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-commerce/storefront/internal/platform/db"
)

const roleColumns = `id, name, system_name, is_system_role, active, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListRoles returns roles ordered by id; inactive roles only when showHidden is set.
func (r *Repository) ListRoles(ctx context.Context, showHidden bool) ([]Role, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+roleColumns+` FROM customer_roles WHERE active OR $1 ORDER BY id`, showHidden)
	if err != nil {
		return nil, err
	}
	return collectRoles(rows)
}

// GetRoleByID fetches a role by id.
func (r *Repository) GetRoleByID(ctx context.Context, id int64) (Role, error) {
	row := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+roleColumns+` FROM customer_roles WHERE id = $1`, id)
	return scanRole(row)
}

// GetRoleBySystemName matches system_name exactly, without case folding.
func (r *Repository) GetRoleBySystemName(ctx context.Context, systemName string) (Role, error) {
	row := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+roleColumns+` FROM customer_roles WHERE system_name = $1 ORDER BY id LIMIT 1`, systemName)
	return scanRole(row)
}

// InsertRole inserts a role. When another writer already created a role with
// the same system name, that row is returned instead.
func (r *Repository) InsertRole(ctx context.Context, role Role) (Role, error) {
	row := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO customer_roles (name, system_name, is_system_role, active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (system_name) DO NOTHING
		RETURNING `+roleColumns,
		role.Name, role.SystemName, role.IsSystemRole, role.Active,
	)
	created, err := scanRole(row)
	if errors.Is(err, ErrNotFound) {
		return r.GetRoleBySystemName(ctx, role.SystemName)
	}
	return created, err
}

// ListActiveRolesForCustomer returns the active roles assigned to a customer.
func (r *Repository) ListActiveRolesForCustomer(ctx context.Context, customerID int64) ([]Role, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT cr.id, cr.name, cr.system_name, cr.is_system_role, cr.active, cr.created_at, cr.updated_at
		FROM customer_roles cr
		JOIN customer_role_mappings m ON m.customer_role_id = cr.id
		WHERE m.customer_id = $1 AND cr.active
		ORDER BY cr.id`, customerID)
	if err != nil {
		return nil, err
	}
	return collectRoles(rows)
}

func scanRole(row pgx.Row) (Role, error) {
	var role Role
	err := row.Scan(&role.ID, &role.Name, &role.SystemName, &role.IsSystemRole, &role.Active, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

func collectRoles(rows pgx.Rows) ([]Role, error) {
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}
