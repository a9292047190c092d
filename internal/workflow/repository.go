package workflow

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed history queries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Timeline returns matching rows newest first plus the total count.
func (r *Repository) Timeline(ctx context.Context, filters TimelineFilters) ([]Entry, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.EntityType != "" {
		argCount++
		where += ` AND entity_type = $` + strconv.Itoa(argCount)
		args = append(args, filters.EntityType)
	}
	if filters.EntityID > 0 {
		argCount++
		where += ` AND entity_id = $` + strconv.Itoa(argCount)
		args = append(args, filters.EntityID)
	}
	if filters.Action != "" {
		argCount++
		where += ` AND action = $` + strconv.Itoa(argCount)
		args = append(args, filters.Action)
	}
	if filters.UserID > 0 {
		argCount++
		where += ` AND user_id = $` + strconv.Itoa(argCount)
		args = append(args, filters.UserID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM workflow_history`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, entity_type, entity_id, action, from_status, to_status, user_id, department, remarks, created_at
FROM workflow_history` + where + ` ORDER BY created_at DESC, id DESC`

	argCount++
	query += ` LIMIT $` + strconv.Itoa(argCount)
	args = append(args, filters.PageSize)
	argCount++
	query += ` OFFSET $` + strconv.Itoa(argCount)
	offset := (filters.Page - 1) * filters.PageSize
	if offset < 0 {
		offset = 0
	}
	args = append(args, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.FromStatus, &e.ToStatus, &e.UserID, &e.Department, &e.Remarks, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
