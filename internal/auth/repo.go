package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-commerce/storefront/internal/platform/db"
	"github.com/odyssey-commerce/storefront/internal/shared"
)

// Repository defines persistence operations for customer sign-in.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Customer, error)
	CreateSession(ctx context.Context, id string, customerID int64, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches a customer by lower-cased email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Customer, error) {
	var (
		c                    Customer
		createdAt, updatedAt pgtype.Timestamptz
	)
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, email, password_hash, active, created_at, updated_at
		FROM customers WHERE lower(email) = $1`, email).
		Scan(&c.ID, &c.Email, &c.PasswordHash, &c.Active, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	c.CreatedAt = createdAt.Time
	c.UpdatedAt = updatedAt.Time
	return &c, nil
}

// CreateSession records a sign-in session for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, id string, customerID int64, expiresAt time.Time, ip, ua string) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO customer_sessions (id, customer_id, created_at, expires_at, ip, user_agent)
		VALUES ($1, $2, NOW(), $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET customer_id = EXCLUDED.customer_id, expires_at = EXCLUDED.expires_at`,
		id, customerID, expiresAt.UTC(),
		pgtype.Text{String: ip, Valid: ip != ""},
		pgtype.Text{String: ua, Valid: ua != ""})
	return err
}

// DeleteSession removes a session record.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM customer_sessions WHERE id = $1`, id)
	return err
}

var _ Repository = (*PGRepository)(nil)
