package customers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-commerce/storefront/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CountCustomers returns the total number of customers.
func (r *Repository) CountCustomers(ctx context.Context) (int, error) {
	var total int
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM customers`).Scan(&total)
	return total, err
}

// ListCustomers returns one page of customers with their role ids.
func (r *Repository) ListCustomers(ctx context.Context, limit, offset int) ([]Customer, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT c.id, c.email, c.active, c.created_at, c.updated_at,
		       COALESCE(array_agg(m.customer_role_id ORDER BY m.customer_role_id)
		                FILTER (WHERE m.customer_role_id IS NOT NULL), '{}')
		FROM customers c
		LEFT JOIN customer_role_mappings m ON m.customer_id = c.id
		GROUP BY c.id
		ORDER BY c.id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Customer, error) {
		var c Customer
		err := row.Scan(&c.ID, &c.Email, &c.Active, &c.CreatedAt, &c.UpdatedAt, &c.RoleIDs)
		return c, err
	})
}

// CustomerExists reports whether a customer row exists.
func (r *Repository) CustomerExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// AssignRole adds the membership, reporting whether a row was inserted.
func (r *Repository) AssignRole(ctx context.Context, customerID, roleID int64) (bool, error) {
	var inserted int64
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO customer_role_mappings (customer_id, customer_role_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
		RETURNING customer_id`, customerID, roleID).Scan(&inserted)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// UnassignRole removes the membership, reporting whether a row was deleted.
func (r *Repository) UnassignRole(ctx context.Context, customerID, roleID int64) (bool, error) {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM customer_role_mappings WHERE customer_id = $1 AND customer_role_id = $2`, customerID, roleID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

var _ RepositoryPort = (*Repository)(nil)
