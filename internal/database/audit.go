package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const auditColumns = `id, user_id, action, entity, entity_id, details, created_at`

func scanAuditEntry(row interface{ Scan(dest ...any) error }) (AuditLogEntry, error) {
	var a AuditLogEntry
	err := row.Scan(&a.ID, &a.UserID, &a.Action, &a.Entity, &a.EntityID, &a.Details, &a.CreatedAt)
	return a, err
}

type CreateAuditLogParams struct {
	UserID   uuid.UUID
	Action   string
	Entity   string
	EntityID pgtype.UUID
	Details  []byte
}

func (q *Queries) CreateAuditLog(ctx context.Context, arg CreateAuditLogParams) (AuditLogEntry, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO audit_log (user_id, action, entity, entity_id, details)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+auditColumns,
		arg.UserID, arg.Action, arg.Entity, arg.EntityID, arg.Details)
	return scanAuditEntry(row)
}

func (q *Queries) ListAuditLogs(ctx context.Context, limit int32) ([]AuditLogEntry, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+auditColumns+`
		FROM audit_log
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []AuditLogEntry
	for rows.Next() {
		a, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, a)
	}
	return entries, rows.Err()
}
