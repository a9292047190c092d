package shipments

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

const shipmentColumns = `
	id,
	shipment_number,
	contract_id,
	agency_id,
	COALESCE(vessel_name, ''),
	COALESCE(voyage_number, ''),
	COALESCE(cargo_type, ''),
	COALESCE(cargo_description, ''),
	quantity,
	COALESCE(quantity_unit, ''),
	COALESCE(loading_port, ''),
	COALESCE(discharge_port, ''),
	loading_date,
	discharge_date,
	eta,
	ata,
	status,
	COALESCE(remarks, ''),
	created_by,
	COALESCE(assigned_to, 0),
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

// Repository persists shipments in PostgreSQL.
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

// Get fetches a shipment by id.
func (r *Repository) Get(ctx context.Context, id int64) (Shipment, error) {
	return getShipment(ctx, r.pool, id)
}

// List returns a page of shipments plus the total match count.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]Shipment, int, error) {
	where := make([]string, 0, 4)
	args := make([]any, 0, 4)

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
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		p := "$" + strconv.Itoa(len(args))
		where = append(where, fmt.Sprintf("(shipment_number ILIKE %[1]s OR vessel_name ILIKE %[1]s)", p))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM shipments"+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("shipments: count: %w", err)
	}

	page, perPage := filters.Page, filters.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, "SELECT "+shipmentColumns+" FROM shipments"+clause+
		" ORDER BY created_at DESC, id DESC LIMIT $"+strconv.Itoa(len(args)-1)+
		" OFFSET $"+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("shipments: list: %w", err)
	}
	defer rows.Close()

	items := make([]Shipment, 0, perPage)
	for rows.Next() {
		shipment, err := scanShipment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, shipment)
	}
	return items, total, rows.Err()
}

type txRepository struct {
	q querier
}

func (t *txRepository) Get(ctx context.Context, id int64) (Shipment, error) {
	return getShipment(ctx, t.q, id)
}

func (t *txRepository) ContractExists(ctx context.Context, contractID int64) (bool, error) {
	var ok bool
	err := t.q.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM contracts WHERE id = $1)", contractID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("shipments: contract exists: %w", err)
	}
	return ok, nil
}

func (t *txRepository) AgencyExists(ctx context.Context, agencyID int64) (bool, error) {
	var ok bool
	err := t.q.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM agencies WHERE id = $1 AND is_active)", agencyID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("shipments: agency exists: %w", err)
	}
	return ok, nil
}

func (t *txRepository) Create(ctx context.Context, s Shipment) (int64, error) {
	var id int64
	err := t.q.QueryRow(ctx, `
		INSERT INTO shipments (
			shipment_number, contract_id, agency_id, vessel_name, voyage_number,
			cargo_type, cargo_description, quantity, quantity_unit,
			loading_port, discharge_port, loading_date, discharge_date, eta,
			status, remarks, created_by, assigned_to, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		          $15, $16, $17, NULLIF($18, 0), NOW(), NOW())
		RETURNING id`,
		s.ShipmentNumber, s.ContractID, s.AgencyID, s.VesselName, s.VoyageNumber,
		s.CargoType, s.CargoDescription, s.Quantity, s.QuantityUnit,
		s.LoadingPort, s.DischargePort, s.LoadingDate, s.DischargeDate, s.ETA,
		s.Status, s.Remarks, s.CreatedBy, s.AssignedTo).Scan(&id)
	if err != nil {
		return 0, db.TranslateError(err)
	}
	return id, nil
}

func (t *txRepository) Update(ctx context.Context, s Shipment) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE shipments SET
			vessel_name = $2,
			voyage_number = $3,
			cargo_type = $4,
			cargo_description = $5,
			quantity = $6,
			quantity_unit = $7,
			loading_port = $8,
			discharge_port = $9,
			loading_date = $10,
			discharge_date = $11,
			eta = $12,
			ata = $13,
			status = $14,
			remarks = $15,
			assigned_to = NULLIF($16, 0),
			cancelled_by = NULLIF($17, 0),
			cancelled_at = $18,
			cancel_reason = $19,
			updated_at = NOW()
		WHERE id = $1`,
		s.ID, s.VesselName, s.VoyageNumber, s.CargoType, s.CargoDescription,
		s.Quantity, s.QuantityUnit, s.LoadingPort, s.DischargePort,
		s.LoadingDate, s.DischargeDate, s.ETA, s.ATA, s.Status, s.Remarks,
		s.AssignedTo, s.CancelledBy, s.CancelledAt, s.CancelReason)
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

func getShipment(ctx context.Context, q querier, id int64) (Shipment, error) {
	row := q.QueryRow(ctx, "SELECT "+shipmentColumns+" FROM shipments WHERE id = $1", id)
	shipment, err := scanShipment(row)
	if err != nil {
		return Shipment{}, db.TranslateError(err)
	}
	return shipment, nil
}

func scanShipment(row interface{ Scan(dest ...any) error }) (Shipment, error) {
	var s Shipment
	if err := row.Scan(
		&s.ID, &s.ShipmentNumber, &s.ContractID, &s.AgencyID,
		&s.VesselName, &s.VoyageNumber, &s.CargoType, &s.CargoDescription,
		&s.Quantity, &s.QuantityUnit, &s.LoadingPort, &s.DischargePort,
		&s.LoadingDate, &s.DischargeDate, &s.ETA, &s.ATA,
		&s.Status, &s.Remarks, &s.CreatedBy, &s.AssignedTo,
		&s.CancelledBy, &s.CancelledAt, &s.CancelReason,
		&s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return Shipment{}, err
	}
	return s, nil
}
