package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/mealcycle/apiserver/types"
)

// AuditRepository handles persistence for the append-only audit log.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(ctx context.Context, entry types.AuditEntry) (types.AuditEntry, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	const query = `
		INSERT INTO audit_logs (event_id, actor_id, action, resource, resource_id, outcome, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		entry.EventID,
		entry.ActorID,
		entry.Action,
		entry.Resource,
		entry.ResourceID,
		entry.Outcome,
		entry.Detail,
		entry.CreatedAt,
	).Scan(&entry.ID); err != nil {
		return types.AuditEntry{}, err
	}
	return entry, nil
}

// ListRecent returns the newest entries, capped at limit.
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]types.AuditEntry, error) {
	if limit < 1 {
		limit = 50
	}

	const query = `
		SELECT id, event_id, actor_id, action, resource, resource_id, outcome, detail, created_at
		FROM audit_logs
		ORDER BY id DESC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]types.AuditEntry, 0, limit)
	for rows.Next() {
		var entry types.AuditEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.EventID,
			&entry.ActorID,
			&entry.Action,
			&entry.Resource,
			&entry.ResourceID,
			&entry.Outcome,
			&entry.Detail,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
