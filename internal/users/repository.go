package users

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samudra-erp/samudra-erp/internal/platform/db"
	"github.com/samudra-erp/samudra-erp/internal/roles"
)

const userColumns = `
	u.id,
	u.username,
	u.email,
	u.password_hash,
	COALESCE(u.first_name, ''),
	COALESCE(u.last_name, ''),
	COALESCE(u.phone, ''),
	u.role_id,
	COALESCE(r.name, ''),
	u.status,
	u.mfa_enabled,
	COALESCE(u.mfa_secret, ''),
	COALESCE(u.mfa_backup_codes, '{}'),
	u.last_login,
	u.created_at,
	u.updated_at`

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists users in PostgreSQL.
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

// Get fetches a user by id.
func (r *Repository) Get(ctx context.Context, id int64) (User, error) {
	return getUser(ctx, r.pool, "u.id = $1", id)
}

// GetByUsername fetches a user by username.
func (r *Repository) GetByUsername(ctx context.Context, username string) (User, error) {
	return getUser(ctx, r.pool, "u.username = $1", username)
}

// GetByEmail fetches a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (User, error) {
	return getUser(ctx, r.pool, "LOWER(u.email) = LOWER($1)", email)
}

// List returns a page of users plus the total match count.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]User, int, error) {
	where := make([]string, 0, 3)
	args := make([]any, 0, 3)

	if !filters.IncludeInactive {
		where = append(where, "u.status = 'active'")
	}
	if filters.RoleID > 0 {
		args = append(args, filters.RoleID)
		where = append(where, "u.role_id = $"+strconv.Itoa(len(args)))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		p := "$" + strconv.Itoa(len(args))
		where = append(where, fmt.Sprintf(
			"(u.username ILIKE %[1]s OR u.email ILIKE %[1]s OR u.first_name ILIKE %[1]s OR u.last_name ILIKE %[1]s)", p))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM users u" + clause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("users: count: %w", err)
	}

	page := filters.Page
	if page < 1 {
		page = 1
	}
	perPage := filters.PerPage
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	args = append(args, perPage, (page-1)*perPage)
	query := "SELECT " + userColumns + `
		FROM users u
		LEFT JOIN roles r ON r.id = u.role_id` + clause + `
		ORDER BY u.username ASC
		LIMIT $` + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()

	items := make([]User, 0, perPage)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, user)
	}
	return items, total, rows.Err()
}

// Statistics aggregates account counts and the per-role distribution.
func (r *Repository) Statistics(ctx context.Context) (Statistics, error) {
	stats := Statistics{RoleDistribution: map[string]int{}}

	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'active')
		FROM users`).Scan(&stats.TotalUsers, &stats.ActiveUsers)
	if err != nil {
		return Statistics{}, fmt.Errorf("users: statistics: %w", err)
	}
	stats.InactiveUsers = stats.TotalUsers - stats.ActiveUsers

	rows, err := r.pool.Query(ctx, `
		SELECT COALESCE(r.name, 'unassigned'), COUNT(*)
		FROM users u
		LEFT JOIN roles r ON r.id = u.role_id
		GROUP BY 1`)
	if err != nil {
		return Statistics{}, fmt.Errorf("users: statistics roles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return Statistics{}, err
		}
		stats.RoleDistribution[name] = count
	}
	return stats, rows.Err()
}

type txRepository struct {
	q querier
}

func (t *txRepository) Get(ctx context.Context, id int64) (User, error) {
	return getUser(ctx, t.q, "u.id = $1", id)
}

func (t *txRepository) RoleName(ctx context.Context, roleID int64) (string, error) {
	var name string
	err := t.q.QueryRow(ctx, `SELECT name FROM roles WHERE id = $1`, roleID).Scan(&name)
	if err != nil {
		return "", db.TranslateError(err)
	}
	return name, nil
}

func (t *txRepository) CountOtherActiveAdmins(ctx context.Context, excludeUserID int64) (int, error) {
	var count int
	err := t.q.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE r.name = $1 AND u.status = 'active' AND u.id <> $2`,
		roles.AdminRoleName, excludeUserID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("users: count admins: %w", err)
	}
	return count, nil
}

func (t *txRepository) Create(ctx context.Context, user User) (int64, error) {
	var id int64
	err := t.q.QueryRow(ctx, `
		INSERT INTO users (
			username, email, password_hash, first_name, last_name,
			phone, role_id, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id`,
		user.Username, user.Email, user.PasswordHash, user.FirstName,
		user.LastName, user.Phone, user.RoleID, user.Status).Scan(&id)
	if err != nil {
		return 0, db.TranslateError(err)
	}
	return id, nil
}

func (t *txRepository) Update(ctx context.Context, user User) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE users SET
			email = $2,
			password_hash = $3,
			first_name = $4,
			last_name = $5,
			phone = $6,
			role_id = $7,
			status = $8,
			updated_at = NOW()
		WHERE id = $1`,
		user.ID, user.Email, user.PasswordHash, user.FirstName,
		user.LastName, user.Phone, user.RoleID, user.Status)
	if err != nil {
		return db.TranslateError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.TranslateError(pgx.ErrNoRows)
	}
	return nil
}

func getUser(ctx context.Context, q querier, cond string, arg any) (User, error) {
	row := q.QueryRow(ctx, "SELECT "+userColumns+`
		FROM users u
		LEFT JOIN roles r ON r.id = u.role_id
		WHERE `+cond, arg)
	user, err := scanUser(row)
	if err != nil {
		return User{}, db.TranslateError(err)
	}
	return user, nil
}

func scanUser(row interface{ Scan(dest ...any) error }) (User, error) {
	var u User
	if err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.FirstName, &u.LastName, &u.Phone,
		&u.RoleID, &u.RoleName, &u.Status,
		&u.MFAEnabled, &u.MFASecret, &u.MFABackupCodes,
		&u.LastLogin, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return User{}, err
	}
	return u, nil
}
