package agencies

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samudra-erp/samudra-erp/internal/platform/db"
	"github.com/samudra-erp/samudra-erp/internal/shared"
)

const agencyColumns = `
	id,
	name,
	code,
	COALESCE(address, ''),
	COALESCE(city, ''),
	COALESCE(country, ''),
	COALESCE(phone, ''),
	COALESCE(email, ''),
	COALESCE(contact_person, ''),
	COALESCE(tax_id, ''),
	COALESCE(payment_terms, 0),
	is_active,
	created_by,
	created_at,
	updated_at`

// Repository persists agencies in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get fetches an agency by id.
func (r *Repository) Get(ctx context.Context, id int64) (Agency, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+agencyColumns+" FROM agencies WHERE id = $1", id)
	agency, err := scanAgency(row)
	if err != nil {
		return Agency{}, db.TranslateError(err)
	}
	return agency, nil
}

// GetByCode fetches an agency by its unique code.
func (r *Repository) GetByCode(ctx context.Context, code string) (Agency, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+agencyColumns+" FROM agencies WHERE code = $1", code)
	agency, err := scanAgency(row)
	if err != nil {
		return Agency{}, db.TranslateError(err)
	}
	return agency, nil
}

// List returns a page of agencies plus the total match count.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]Agency, int, error) {
	where := make([]string, 0, 3)
	args := make([]any, 0, 3)

	if !filters.IncludeInactive {
		where = append(where, "is_active")
	}
	if filters.Country != "" {
		args = append(args, filters.Country)
		where = append(where, "country = $"+strconv.Itoa(len(args)))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		p := "$" + strconv.Itoa(len(args))
		where = append(where, fmt.Sprintf(
			"(name ILIKE %[1]s OR code ILIKE %[1]s OR contact_person ILIKE %[1]s)", p))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM agencies"+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("agencies: count: %w", err)
	}

	page, perPage := filters.Page, filters.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, "SELECT "+agencyColumns+" FROM agencies"+clause+
		" ORDER BY name ASC LIMIT $"+strconv.Itoa(len(args)-1)+" OFFSET $"+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("agencies: list: %w", err)
	}
	defer rows.Close()

	items := make([]Agency, 0, perPage)
	for rows.Next() {
		agency, err := scanAgency(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, agency)
	}
	return items, total, rows.Err()
}

// Create inserts a new agency and returns its id.
func (r *Repository) Create(ctx context.Context, agency Agency) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO agencies (
			name, code, address, city, country, phone, email,
			contact_person, tax_id, payment_terms, is_active,
			created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE, $11, NOW(), NOW())
		RETURNING id`,
		agency.Name, agency.Code, agency.Address, agency.City, agency.Country,
		agency.Phone, agency.Email, agency.ContactPerson, agency.TaxID,
		agency.PaymentTerms, agency.CreatedBy).Scan(&id)
	if err != nil {
		return 0, db.TranslateError(err)
	}
	return id, nil
}

// Update writes the mutable fields of an agency.
func (r *Repository) Update(ctx context.Context, agency Agency) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE agencies SET
			name = $2,
			address = $3,
			city = $4,
			country = $5,
			phone = $6,
			email = $7,
			contact_person = $8,
			tax_id = $9,
			payment_terms = $10,
			is_active = $11,
			updated_at = NOW()
		WHERE id = $1`,
		agency.ID, agency.Name, agency.Address, agency.City, agency.Country,
		agency.Phone, agency.Email, agency.ContactPerson, agency.TaxID,
		agency.PaymentTerms, agency.IsActive)
	if err != nil {
		return db.TranslateError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Exists reports whether an active agency with the id is present.
func (r *Repository) Exists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM agencies WHERE id = $1 AND is_active)", id).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("agencies: exists: %w", err)
	}
	return ok, nil
}

func scanAgency(row interface{ Scan(dest ...any) error }) (Agency, error) {
	var a Agency
	if err := row.Scan(
		&a.ID, &a.Name, &a.Code, &a.Address, &a.City, &a.Country,
		&a.Phone, &a.Email, &a.ContactPerson, &a.TaxID, &a.PaymentTerms,
		&a.IsActive, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return Agency{}, err
	}
	return a, nil
}
