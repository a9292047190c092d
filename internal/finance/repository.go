package finance

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samudra-erp/samudra-erp/internal/platform/db"
	"github.com/samudra-erp/samudra-erp/internal/workflow"
)

const transactionColumns = `
	id,
	transaction_number,
	transaction_type,
	COALESCE(contract_id, 0),
	COALESCE(shipment_id, 0),
	COALESCE(agency_id, 0),
	amount,
	tax,
	discount,
	total,
	currency,
	exchange_rate,
	amount_local,
	due_date,
	payment_date,
	COALESCE(payment_method, ''),
	status,
	COALESCE(description, ''),
	COALESCE(notes, ''),
	reminder_sent,
	reminder_count,
	last_reminder_at,
	created_by,
	COALESCE(approved_by, 0),
	approved_at,
	COALESCE(cancelled_by, 0),
	cancelled_at,
	COALESCE(cancel_reason, ''),
	created_at,
	updated_at`

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists financial transactions in PostgreSQL.
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

// Get fetches a transaction by id.
func (r *Repository) Get(ctx context.Context, id int64) (Transaction, error) {
	return getTransaction(ctx, r.pool, id)
}

// List returns a page of transactions plus the total match count.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]Transaction, int, error) {
	where := make([]string, 0, 4)
	args := make([]any, 0, 4)

	if filters.Type != "" {
		args = append(args, filters.Type)
		where = append(where, "transaction_type = $"+strconv.Itoa(len(args)))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	if filters.ContractID > 0 {
		args = append(args, filters.ContractID)
		where = append(where, "contract_id = $"+strconv.Itoa(len(args)))
	}
	if filters.AgencyID > 0 {
		args = append(args, filters.AgencyID)
		where = append(where, "agency_id = $"+strconv.Itoa(len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM financial_transactions"+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("finance: count: %w", err)
	}

	page, perPage := filters.Page, filters.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, "SELECT "+transactionColumns+" FROM financial_transactions"+clause+
		" ORDER BY created_at DESC, id DESC LIMIT $"+strconv.Itoa(len(args)-1)+
		" OFFSET $"+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("finance: list: %w", err)
	}
	defer rows.Close()

	items := make([]Transaction, 0, perPage)
	for rows.Next() {
		tr, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, tr)
	}
	return items, total, rows.Err()
}

// ListOverdue returns unpaid transactions due before asOf, oldest first.
func (r *Repository) ListOverdue(ctx context.Context, asOf time.Time) ([]Transaction, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+transactionColumns+` FROM financial_transactions
		WHERE due_date IS NOT NULL
		  AND due_date < $1
		  AND status IN ('pending', 'approved', 'overdue')
		ORDER BY due_date ASC`, asOf)
	if err != nil {
		return nil, fmt.Errorf("finance: list overdue: %w", err)
	}
	defer rows.Close()

	var items []Transaction
	for rows.Next() {
		tr, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, tr)
	}
	return items, rows.Err()
}

type txRepository struct {
	q querier
}

func (t *txRepository) Get(ctx context.Context, id int64) (Transaction, error) {
	return getTransaction(ctx, t.q, id)
}

// allowed reference tables; guards against interpolating arbitrary input.
var referenceTables = map[string]bool{
	"contracts": true,
	"shipments": true,
	"agencies":  true,
}

func (t *txRepository) ReferenceExists(ctx context.Context, table string, id int64) (bool, error) {
	if !referenceTables[table] {
		return false, fmt.Errorf("finance: unknown reference table %q", table)
	}
	var ok bool
	err := t.q.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM "+table+" WHERE id = $1)", id).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("finance: reference exists: %w", err)
	}
	return ok, nil
}

func (t *txRepository) Create(ctx context.Context, tr Transaction) (int64, error) {
	var id int64
	err := t.q.QueryRow(ctx, `
		INSERT INTO financial_transactions (
			transaction_number, transaction_type, contract_id, shipment_id,
			agency_id, amount, tax, discount, total, currency, exchange_rate,
			amount_local, due_date, payment_method, status, description,
			notes, created_by, created_at, updated_at
		) VALUES ($1, $2, NULLIF($3, 0), NULLIF($4, 0), NULLIF($5, 0),
		          $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
		          NOW(), NOW())
		RETURNING id`,
		tr.TransactionNumber, tr.Type, tr.ContractID, tr.ShipmentID,
		tr.AgencyID, tr.Amount, tr.Tax, tr.Discount, tr.Total, tr.Currency,
		tr.ExchangeRate, tr.AmountLocal, tr.DueDate, tr.PaymentMethod,
		tr.Status, tr.Description, tr.Notes, tr.CreatedBy).Scan(&id)
	if err != nil {
		return 0, db.TranslateError(err)
	}
	return id, nil
}

func (t *txRepository) Update(ctx context.Context, tr Transaction) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE financial_transactions SET
			amount = $2,
			tax = $3,
			discount = $4,
			total = $5,
			currency = $6,
			exchange_rate = $7,
			amount_local = $8,
			due_date = $9,
			payment_date = $10,
			payment_method = $11,
			status = $12,
			description = $13,
			notes = $14,
			reminder_sent = $15,
			reminder_count = $16,
			last_reminder_at = $17,
			approved_by = NULLIF($18, 0),
			approved_at = $19,
			cancelled_by = NULLIF($20, 0),
			cancelled_at = $21,
			cancel_reason = $22,
			updated_at = NOW()
		WHERE id = $1`,
		tr.ID, tr.Amount, tr.Tax, tr.Discount, tr.Total, tr.Currency,
		tr.ExchangeRate, tr.AmountLocal, tr.DueDate, tr.PaymentDate,
		tr.PaymentMethod, tr.Status, tr.Description, tr.Notes,
		tr.ReminderSent, tr.ReminderCount, tr.LastReminderAt,
		tr.ApprovedBy, tr.ApprovedAt, tr.CancelledBy, tr.CancelledAt,
		tr.CancelReason)
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

func getTransaction(ctx context.Context, q querier, id int64) (Transaction, error) {
	row := q.QueryRow(ctx, "SELECT "+transactionColumns+" FROM financial_transactions WHERE id = $1", id)
	tr, err := scanTransaction(row)
	if err != nil {
		return Transaction{}, db.TranslateError(err)
	}
	return tr, nil
}

func scanTransaction(row interface{ Scan(dest ...any) error }) (Transaction, error) {
	var tr Transaction
	if err := row.Scan(
		&tr.ID, &tr.TransactionNumber, &tr.Type,
		&tr.ContractID, &tr.ShipmentID, &tr.AgencyID,
		&tr.Amount, &tr.Tax, &tr.Discount, &tr.Total,
		&tr.Currency, &tr.ExchangeRate, &tr.AmountLocal,
		&tr.DueDate, &tr.PaymentDate, &tr.PaymentMethod,
		&tr.Status, &tr.Description, &tr.Notes,
		&tr.ReminderSent, &tr.ReminderCount, &tr.LastReminderAt,
		&tr.CreatedBy, &tr.ApprovedBy, &tr.ApprovedAt,
		&tr.CancelledBy, &tr.CancelledAt, &tr.CancelReason,
		&tr.CreatedAt, &tr.UpdatedAt,
	); err != nil {
		return Transaction{}, err
	}
	return tr, nil
}
