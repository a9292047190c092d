package documents

import "time"

// Document is a stored file's metadata, optionally linked to a business
// entity by (entity_type, entity_id).
type Document struct {
	ID          int64
	Name        string
	FilePath    string
	FileSize    int64
	MimeType    string
	EntityType  string
	EntityID    int64
	Category    string
	Description string
	UploadedBy  int64
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ListFilters narrows List results.
type ListFilters struct {
	EntityType string
	EntityID   int64
	Category   string
	UploadedBy int64
	Page       int
	PerPage    int
}
