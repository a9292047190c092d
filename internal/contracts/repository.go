package contracts

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samudra-erp/samudra-erp/internal/platform/db"
	"github.com/samudra-erp/samudra-erp/internal/workflow"
)

const contractColumns = `
	c.id,
	c.contract_number,
	c.agency_id,
	COALESCE(a.name, ''),
	c.title,
	COALESCE(c.description, ''),
	COALESCE(c.contract_type, ''),
	c.start_date,
	c.end_date,
	c.total_value,
	c.currency,
	COALESCE(c.payment_terms, 0),
	c.status,
	c.marketing_status,
	COALESCE(c.marketing_remarks, ''),
	COALESCE(c.marketing_assigned_to, 0),
	c.marketing_updated_at,
	c.operation_status,
	COALESCE(c.operation_remarks, ''),
	COALESCE(c.operation_assigned_to, 0),
	c.operation_updated_at,
	c.finance_status,
	COALESCE(c.finance_remarks, ''),
	COALESCE(c.finance_assigned_to, 0),
	c.finance_updated_at,
	c.created_by,
	COALESCE(c.approved_by, 0),
	c.approved_at,
	COALESCE(c.cancelled_by, 0),
	c.cancelled_at,
	COALESCE(c.cancel_reason, ''),
	c.created_at,
	c.updated_at`

const contractFrom = ` FROM contracts c LEFT JOIN agencies a ON a.id = c.agency_id`

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists contracts in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx runs fn against a transactional view of the repository.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{q: tx})
	})
}

// Get fetches a contract by id.
func (r *Repository) Get(ctx context.Context, id int64) (Contract, error) {
	return getContract(ctx, r.pool, id)
}

// List returns a page of contracts plus the total match count.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]Contract, int, error) {
	where := make([]string, 0, 3)
	args := make([]any, 0, 3)

	if filters.Status != "" {
		args = append(args, filters.Status)
		where = append(where, "c.status = $"+strconv.Itoa(len(args)))
	}
	if filters.AgencyID > 0 {
		args = append(args, filters.AgencyID)
		where = append(where, "c.agency_id = $"+strconv.Itoa(len(args)))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		p := "$" + strconv.Itoa(len(args))
		where = append(where, fmt.Sprintf("(c.contract_number ILIKE %[1]s OR c.title ILIKE %[1]s)", p))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*)"+contractFrom+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("contracts: count: %w", err)
	}

	page, perPage := filters.Page, filters.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, "SELECT "+contractColumns+contractFrom+clause+
		" ORDER BY c.created_at DESC, c.id DESC LIMIT $"+strconv.Itoa(len(args)-1)+
		" OFFSET $"+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("contracts: list: %w", err)
	}
	defer rows.Close()

	items := make([]Contract, 0, perPage)
	for rows.Next() {
		contract, err := scanContract(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, contract)
	}
	return items, total, rows.Err()
}

type txRepository struct {
	q querier
}

func (t *txRepository) Get(ctx context.Context, id int64) (Contract, error) {
	return getContract(ctx, t.q, id)
}

func (t *txRepository) AgencyExists(ctx context.Context, agencyID int64) (bool, error) {
	var ok bool
	err := t.q.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM agencies WHERE id = $1 AND is_active)", agencyID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("contracts: agency exists: %w", err)
	}
	return ok, nil
}

func (t *txRepository) Create(ctx context.Context, c Contract) (int64, error) {
	var id int64
	err := t.q.QueryRow(ctx, `
		INSERT INTO contracts (
			contract_number, agency_id, title, description, contract_type,
			start_date, end_date, total_value, currency, payment_terms,
			status, marketing_status, operation_status, finance_status,
			created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		          $11, $12, $13, $14, $15, NOW(), NOW())
		RETURNING id`,
		c.ContractNumber, c.AgencyID, c.Title, c.Description, c.Type,
		c.StartDate, c.EndDate, c.TotalValue, c.Currency, c.PaymentTerms,
		c.Status, c.Marketing.Status, c.Operation.Status, c.Finance.Status,
		c.CreatedBy).Scan(&id)
	if err != nil {
		return 0, db.TranslateError(err)
	}
	return id, nil
}

func (t *txRepository) Update(ctx context.Context, c Contract) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE contracts SET
			title = $2,
			description = $3,
			contract_type = $4,
			start_date = $5,
			end_date = $6,
			total_value = $7,
			currency = $8,
			payment_terms = $9,
			status = $10,
			marketing_status = $11,
			marketing_remarks = $12,
			marketing_assigned_to = NULLIF($13, 0),
			marketing_updated_at = $14,
			operation_status = $15,
			operation_remarks = $16,
			operation_assigned_to = NULLIF($17, 0),
			operation_updated_at = $18,
			finance_status = $19,
			finance_remarks = $20,
			finance_assigned_to = NULLIF($21, 0),
			finance_updated_at = $22,
			approved_by = NULLIF($23, 0),
			approved_at = $24,
			cancelled_by = NULLIF($25, 0),
			cancelled_at = $26,
			cancel_reason = $27,
			updated_at = NOW()
		WHERE id = $1`,
		c.ID, c.Title, c.Description, c.Type, c.StartDate, c.EndDate,
		c.TotalValue, c.Currency, c.PaymentTerms, c.Status,
		c.Marketing.Status, c.Marketing.Remarks, c.Marketing.AssignedTo, c.Marketing.UpdatedAt,
		c.Operation.Status, c.Operation.Remarks, c.Operation.AssignedTo, c.Operation.UpdatedAt,
		c.Finance.Status, c.Finance.Remarks, c.Finance.AssignedTo, c.Finance.UpdatedAt,
		c.ApprovedBy, c.ApprovedAt, c.CancelledBy, c.CancelledAt, c.CancelReason)
	if err != nil {
		return db.TranslateError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.TranslateError(pgx.ErrNoRows)
	}
	return nil
}

func (t *txRepository) AppendHistory(ctx context.Context, entry workflow.Entry) error {
	return workflow.Append(ctx, t.q, entry)
}

func getContract(ctx context.Context, q querier, id int64) (Contract, error) {
	row := q.QueryRow(ctx, "SELECT "+contractColumns+contractFrom+" WHERE c.id = $1", id)
	contract, err := scanContract(row)
	if err != nil {
		return Contract{}, db.TranslateError(err)
	}
	return contract, nil
}

func scanContract(row interface{ Scan(dest ...any) error }) (Contract, error) {
	var c Contract
	if err := row.Scan(
		&c.ID, &c.ContractNumber, &c.AgencyID, &c.AgencyName,
		&c.Title, &c.Description, &c.Type,
		&c.StartDate, &c.EndDate, &c.TotalValue, &c.Currency, &c.PaymentTerms,
		&c.Status,
		&c.Marketing.Status, &c.Marketing.Remarks, &c.Marketing.AssignedTo, &c.Marketing.UpdatedAt,
		&c.Operation.Status, &c.Operation.Remarks, &c.Operation.AssignedTo, &c.Operation.UpdatedAt,
		&c.Finance.Status, &c.Finance.Remarks, &c.Finance.AssignedTo, &c.Finance.UpdatedAt,
		&c.CreatedBy, &c.ApprovedBy, &c.ApprovedAt,
		&c.CancelledBy, &c.CancelledAt, &c.CancelReason,
		&c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return Contract{}, err
	}
	return c, nil
}
