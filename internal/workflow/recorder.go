package workflow

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx so that history rows
// can be appended inside the caller's transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Append writes a single workflow history row.
func Append(ctx context.Context, db DBTX, e Entry) error {
	if e.EntityType == "" || e.EntityID == 0 {
		return errors.New("workflow: entry requires entity type and id")
	}
	if e.Action == "" {
		return errors.New("workflow: entry requires action")
	}
	var at any
	if !e.CreatedAt.IsZero() {
		at = e.CreatedAt
	}
	_, err := db.Exec(ctx, `INSERT INTO workflow_history
(entity_type, entity_id, action, from_status, to_status, user_id, department, remarks, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, NOW()))`,
		e.EntityType, e.EntityID, e.Action, e.FromStatus, e.ToStatus, e.UserID, e.Department, e.Remarks, at)
	return err
}
