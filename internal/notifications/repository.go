package notifications

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samudra-erp/samudra-erp/internal/platform/db"
	"github.com/samudra-erp/samudra-erp/internal/shared"
)

const notificationColumns = `
	id,
	user_id,
	title,
	message,
	COALESCE(notification_type, ''),
	priority,
	is_read,
	COALESCE(entity_type, ''),
	COALESCE(entity_id, 0),
	COALESCE(action_url, ''),
	read_at,
	created_at`

// Repository persists notifications in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a notification and returns its id.
func (r *Repository) Create(ctx context.Context, n Notification) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO notifications (
			user_id, title, message, notification_type, priority,
			entity_type, entity_id, action_url, is_read, created_at
		) VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, 0),
		          NULLIF($8, ''), FALSE, NOW())
		RETURNING id`,
		n.UserID, n.Title, n.Message, n.Type, n.Priority,
		n.EntityType, n.EntityID, n.ActionURL).Scan(&id)
	if err != nil {
		return 0, db.TranslateError(err)
	}
	return id, nil
}

// Get fetches one notification owned by the user.
func (r *Repository) Get(ctx context.Context, userID, id int64) (Notification, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE id = $1 AND user_id = $2", id, userID)
	n, err := scanNotification(row)
	if err != nil {
		return Notification{}, db.TranslateError(err)
	}
	return n, nil
}

// List returns a page of the user's notifications, newest first.
func (r *Repository) List(ctx context.Context, userID int64, filters ListFilters) ([]Notification, int, error) {
	clause := " WHERE user_id = $1"
	args := []any{userID}
	if filters.UnreadOnly {
		clause += " AND NOT is_read"
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM notifications"+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("notifications: count: %w", err)
	}

	page, perPage := filters.Page, filters.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, "SELECT "+notificationColumns+" FROM notifications"+clause+
		" ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3", args...)
	if err != nil {
		return nil, 0, fmt.Errorf("notifications: list: %w", err)
	}
	defer rows.Close()

	items := make([]Notification, 0, perPage)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, n)
	}
	return items, total, rows.Err()
}

// UnreadCount counts the user's unread notifications.
func (r *Repository) UnreadCount(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read", userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("notifications: unread count: %w", err)
	}
	return count, nil
}

// MarkRead flags one notification read.
func (r *Repository) MarkRead(ctx context.Context, userID, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE, read_at = NOW()
		WHERE id = $1 AND user_id = $2 AND NOT is_read`, id, userID)
	if err != nil {
		return db.TranslateError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// MarkAllRead flags every unread notification of the user read and returns
// how many were affected.
func (r *Repository) MarkAllRead(ctx context.Context, userID int64) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE, read_at = NOW()
		WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, db.TranslateError(err)
	}
	return int(tag.RowsAffected()), nil
}

func scanNotification(row interface{ Scan(dest ...any) error }) (Notification, error) {
	var n Notification
	if err := row.Scan(
		&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.Priority,
		&n.IsRead, &n.EntityType, &n.EntityID, &n.ActionURL,
		&n.ReadAt, &n.CreatedAt,
	); err != nil {
		return Notification{}, err
	}
	return n, nil
}
