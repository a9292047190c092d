package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samudra-erp/samudra-erp/internal/shared"
)

// PGRepository loads credential records from postgres.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByUsername loads a user with its role and permission set.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT u.id, u.username, u.email, u.password_hash, u.first_name, u.last_name,
u.role_id, COALESCE(r.name, ''), COALESCE(r.permissions, '{}'::jsonb), u.status = 'active', u.last_login
FROM users u LEFT JOIN roles r ON r.id = u.role_id
WHERE u.username = $1`, username)

	var user User
	var perms []byte
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName,
		&user.RoleID, &user.RoleName, &perms, &user.IsActive, &user.LastLogin); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if len(perms) > 0 {
		if err := json.Unmarshal(perms, &user.Permissions); err != nil {
			return nil, err
		}
	}
	if user.Permissions == nil {
		user.Permissions = map[string]bool{}
	}
	return &user, nil
}

// UpdateLastLogin stamps the last successful login.
func (r *PGRepository) UpdateLastLogin(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login = $1, updated_at = $1 WHERE id = $2`, time.Now(), userID)
	return err
}
