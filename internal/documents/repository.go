package documents

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samudra-erp/samudra-erp/internal/platform/db"
	"github.com/samudra-erp/samudra-erp/internal/shared"
)

const documentColumns = `
	id,
	name,
	file_path,
	file_size,
	COALESCE(mime_type, ''),
	COALESCE(entity_type, ''),
	COALESCE(entity_id, 0),
	COALESCE(category, ''),
	COALESCE(description, ''),
	uploaded_by,
	is_active,
	created_at,
	updated_at`

// Repository persists document metadata in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get fetches an active document by id.
func (r *Repository) Get(ctx context.Context, id int64) (Document, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = $1 AND is_active", id)
	doc, err := scanDocument(row)
	if err != nil {
		return Document{}, db.TranslateError(err)
	}
	return doc, nil
}

// List returns a page of active documents plus the total match count.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]Document, int, error) {
	where := []string{"is_active"}
	args := make([]any, 0, 4)

	if filters.EntityType != "" {
		args = append(args, filters.EntityType)
		where = append(where, "entity_type = $"+strconv.Itoa(len(args)))
	}
	if filters.EntityID > 0 {
		args = append(args, filters.EntityID)
		where = append(where, "entity_id = $"+strconv.Itoa(len(args)))
	}
	if filters.Category != "" {
		args = append(args, filters.Category)
		where = append(where, "category = $"+strconv.Itoa(len(args)))
	}
	if filters.UploadedBy > 0 {
		args = append(args, filters.UploadedBy)
		where = append(where, "uploaded_by = $"+strconv.Itoa(len(args)))
	}
	clause := " WHERE " + strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM documents"+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("documents: count: %w", err)
	}

	page, perPage := filters.Page, filters.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, "SELECT "+documentColumns+" FROM documents"+clause+
		" ORDER BY created_at DESC, id DESC LIMIT $"+strconv.Itoa(len(args)-1)+
		" OFFSET $"+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("documents: list: %w", err)
	}
	defer rows.Close()

	items := make([]Document, 0, perPage)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, doc)
	}
	return items, total, rows.Err()
}

// Create inserts document metadata and returns the new id.
func (r *Repository) Create(ctx context.Context, doc Document) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO documents (
			name, file_path, file_size, mime_type, entity_type, entity_id,
			category, description, uploaded_by, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, 0),
		          $7, $8, $9, TRUE, NOW(), NOW())
		RETURNING id`,
		doc.Name, doc.FilePath, doc.FileSize, doc.MimeType,
		doc.EntityType, doc.EntityID, doc.Category, doc.Description,
		doc.UploadedBy).Scan(&id)
	if err != nil {
		return 0, db.TranslateError(err)
	}
	return id, nil
}

// Update writes the mutable metadata fields of a document.
func (r *Repository) Update(ctx context.Context, doc Document) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE documents SET
			name = $2,
			category = $3,
			description = $4,
			updated_at = NOW()
		WHERE id = $1 AND is_active`,
		doc.ID, doc.Name, doc.Category, doc.Description)
	if err != nil {
		return db.TranslateError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SoftDelete deactivates a document; the row and the underlying file are
// kept.
func (r *Repository) SoftDelete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		"UPDATE documents SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active", id)
	if err != nil {
		return db.TranslateError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanDocument(row interface{ Scan(dest ...any) error }) (Document, error) {
	var d Document
	if err := row.Scan(
		&d.ID, &d.Name, &d.FilePath, &d.FileSize, &d.MimeType,
		&d.EntityType, &d.EntityID, &d.Category, &d.Description,
		&d.UploadedBy, &d.IsActive, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return Document{}, err
	}
	return d, nil
}
