package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-commerce/storefront/internal/platform/db"
)

// PGRepository reads audit_logs with pgx.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Timeline lists ACL rows matching q, newest first.
func (r *PGRepository) Timeline(ctx context.Context, q Query) ([]TimelineRow, error) {
	var limit pgtype.Int4
	if q.Limit > 0 {
		limit = pgtype.Int4{Int32: int32(q.Limit), Valid: true}
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT occurred_at, actor_id, action, entity_id, meta
		FROM audit_logs
		WHERE entity = $1
		  AND ($2::timestamptz IS NULL OR occurred_at >= $2)
		  AND ($3::timestamptz IS NULL OR occurred_at < $3)
		  AND ($4::bigint IS NULL OR actor_id = $4)
		  AND ($5::text IS NULL OR action = $5)
		  AND ($6::text IS NULL OR entity_id = $6)
		ORDER BY occurred_at DESC, id DESC
		OFFSET $7 LIMIT $8`,
		Entity, optionalTime(q.From), optionalTime(q.To), optionalID(q.ActorID),
		optionalText(q.Action), optionalText(q.EntityID), q.Offset, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (TimelineRow, error) {
		var (
			out  TimelineRow
			at   pgtype.Timestamptz
			meta []byte
		)
		if err := row.Scan(&at, &out.ActorID, &out.Action, &out.EntityID, &meta); err != nil {
			return TimelineRow{}, err
		}
		if at.Valid {
			out.At = at.Time
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &out.Meta); err != nil {
				return TimelineRow{}, err
			}
		}
		return out, nil
	})
}

func optionalTime(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func optionalID(id int64) pgtype.Int8 {
	if id <= 0 {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: id, Valid: true}
}

func optionalText(value string) pgtype.Text {
	if value == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: value, Valid: true}
}

var _ Repository = (*PGRepository)(nil)
