package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-commerce/storefront/internal/platform/db"
)

var errAuditLoggerNil = errors.New("audit logger not initialised")

// AuditLog is one row of audit_logs. A zero At means "now" on the server.
type AuditLog struct {
	ActorID  int64
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// Validate reports the first missing required field.
func (l AuditLog) Validate() error {
	switch {
	case l.Action == "":
		return errors.New("audit log: action required")
	case l.Entity == "":
		return errors.New("audit log: entity required")
	case l.EntityID == "":
		return errors.New("audit log: entity id required")
	}
	return nil
}

// AuditLogger appends to audit_logs, joining the transaction carried by the
// context when there is one.
type AuditLogger struct {
	pool *pgxpool.Pool
}

func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

const insertAuditLog = `INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at)
VALUES (@actor, @action, @entity, @entity_id, @meta, COALESCE(@at, NOW()))`

// Record persists entry.
func (l *AuditLogger) Record(ctx context.Context, entry AuditLog) error {
	if l == nil {
		return errAuditLoggerNil
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	meta, err := json.Marshal(entry.Meta)
	if err != nil {
		return fmt.Errorf("audit log meta: %w", err)
	}
	var at *time.Time
	if !entry.At.IsZero() {
		at = &entry.At
	}
	args := pgx.NamedArgs{
		"actor":     entry.ActorID,
		"action":    entry.Action,
		"entity":    entry.Entity,
		"entity_id": entry.EntityID,
		"meta":      meta,
		"at":        at,
	}
	if _, err := db.Conn(ctx, l.pool).Exec(ctx, insertAuditLog, args); err != nil {
		return fmt.Errorf("insert audit log %s: %w", entry.Action, err)
	}
	return nil
}
