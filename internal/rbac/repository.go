package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-commerce/storefront/internal/platform/db"
)

const capabilityColumns = `id, name, system_name, category`

// Repository is the PostgreSQL capability catalog. Every query runs on the
// transaction carried by ctx when there is one.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListCapabilities returns all capabilities ordered by category and name.
func (r *Repository) ListCapabilities(ctx context.Context) ([]Capability, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+capabilityColumns+` FROM permission_records ORDER BY category, name, id`)
	if err != nil {
		return nil, err
	}
	return collectCapabilities(rows)
}

// ListCapabilitySystemNames returns the system names of every installed capability.
func (r *Repository) ListCapabilitySystemNames(ctx context.Context) ([]string, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT system_name FROM permission_records`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// GetCapabilityByID fetches a capability by id.
func (r *Repository) GetCapabilityByID(ctx context.Context, id int64) (Capability, error) {
	row := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+capabilityColumns+` FROM permission_records WHERE id = $1`, id)
	return scanCapability(row)
}

// GetCapabilityBySystemName matches system_name exactly.
func (r *Repository) GetCapabilityBySystemName(ctx context.Context, systemName string) (Capability, error) {
	row := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+capabilityColumns+` FROM permission_records WHERE system_name = $1`, systemName)
	return scanCapability(row)
}

// InsertCapability inserts a capability. A concurrent installer that already
// created the same system name wins and its row is returned.
func (r *Repository) InsertCapability(ctx context.Context, c Capability) (Capability, error) {
	row := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO permission_records (name, system_name, category)
		VALUES ($1, $2, $3)
		ON CONFLICT (system_name) DO NOTHING
		RETURNING `+capabilityColumns,
		c.Name, c.SystemName, c.Category,
	)
	created, err := scanCapability(row)
	if errors.Is(err, ErrNotFound) {
		return r.GetCapabilityBySystemName(ctx, c.SystemName)
	}
	return created, err
}

// UpdateCapability updates the display name and category.
func (r *Repository) UpdateCapability(ctx context.Context, c Capability) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE permission_records SET name = $2, category = $3, updated_at = NOW() WHERE id = $1`,
		c.ID, c.Name, c.Category)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCapability removes the capability row.
func (r *Repository) DeleteCapability(ctx context.Context, id int64) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM permission_records WHERE id = $1`, id)
	return err
}

// CapabilitiesForRole returns the capabilities granted to a role.
func (r *Repository) CapabilitiesForRole(ctx context.Context, roleID int64) ([]Capability, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT p.id, p.name, p.system_name, p.category
		FROM permission_records p
		JOIN permission_record_role_mappings m ON m.permission_record_id = p.id
		WHERE m.customer_role_id = $1
		ORDER BY p.id`, roleID)
	if err != nil {
		return nil, err
	}
	return collectCapabilities(rows)
}

// GrantsForCapability returns the grants of one capability ordered by role.
func (r *Repository) GrantsForCapability(ctx context.Context, capabilityID int64) ([]Grant, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT id, permission_record_id, customer_role_id
		FROM permission_record_role_mappings
		WHERE permission_record_id = $1
		ORDER BY customer_role_id`, capabilityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var grants []Grant
	for rows.Next() {
		var g Grant
		if err := rows.Scan(&g.ID, &g.CapabilityID, &g.RoleID); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

// FindGrant returns the grant for the pair, or nil when there is none.
func (r *Repository) FindGrant(ctx context.Context, capabilityID, roleID int64) (*Grant, error) {
	var g Grant
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, permission_record_id, customer_role_id
		FROM permission_record_role_mappings
		WHERE permission_record_id = $1 AND customer_role_id = $2`, capabilityID, roleID).
		Scan(&g.ID, &g.CapabilityID, &g.RoleID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// InsertGrant inserts a grant; a duplicate pair resolves to the existing row.
func (r *Repository) InsertGrant(ctx context.Context, g Grant) (Grant, error) {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO permission_record_role_mappings (permission_record_id, customer_role_id)
		VALUES ($1, $2)
		ON CONFLICT (permission_record_id, customer_role_id) DO NOTHING
		RETURNING id`, g.CapabilityID, g.RoleID).Scan(&g.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		existing, err := r.FindGrant(ctx, g.CapabilityID, g.RoleID)
		if err != nil {
			return Grant{}, err
		}
		if existing == nil {
			return Grant{}, ErrNotFound
		}
		return *existing, nil
	}
	if err != nil {
		return Grant{}, err
	}
	return g, nil
}

// DeleteGrant removes the pair, reporting whether a row existed.
func (r *Repository) DeleteGrant(ctx context.Context, capabilityID, roleID int64) (bool, error) {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		DELETE FROM permission_record_role_mappings
		WHERE permission_record_id = $1 AND customer_role_id = $2`, capabilityID, roleID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteGrantsForCapability removes every grant of a capability.
func (r *Repository) DeleteGrantsForCapability(ctx context.Context, capabilityID int64) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM permission_record_role_mappings WHERE permission_record_id = $1`, capabilityID)
	return err
}

func scanCapability(row pgx.Row) (Capability, error) {
	var c Capability
	if err := row.Scan(&c.ID, &c.Name, &c.SystemName, &c.Category); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Capability{}, ErrNotFound
		}
		return Capability{}, err
	}
	return c, nil
}

func collectCapabilities(rows pgx.Rows) ([]Capability, error) {
	defer rows.Close()
	var capabilities []Capability
	for rows.Next() {
		c, err := scanCapability(rows)
		if err != nil {
			return nil, err
		}
		capabilities = append(capabilities, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return capabilities, nil
}
