package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ds124wfegd/emergency-ops/internal/entity"

	"github.com/lib/pq"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, name, role, COALESCE(assigned_zone, ''), is_verified, is_active, created_at`

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, email, name, role, assigned_zone, is_verified, is_active, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, CURRENT_TIMESTAMP)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.Name, user.Role, user.AssignedZone,
		user.IsVerified, user.IsActive,
	).Scan(&user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user entity.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.Name, &user.Role, &user.AssignedZone,
		&user.IsVerified, &user.IsActive, &user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, entity.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetVerified(ctx context.Context) ([]*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE is_verified = TRUE AND is_active = TRUE`
	return r.queryUsers(ctx, query)
}

func (r *userRepository) GetVerifiedByRole(ctx context.Context, role entity.Role) ([]*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 AND is_verified = TRUE AND is_active = TRUE`
	return r.queryUsers(ctx, query, role)
}

func (r *userRepository) GetVerifiedByZone(ctx context.Context, zone string) ([]*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE assigned_zone = $1 AND is_verified = TRUE AND is_active = TRUE`
	return r.queryUsers(ctx, query, zone)
}

func (r *userRepository) GetVerifiedByIDs(ctx context.Context, ids []string) ([]*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1) AND is_verified = TRUE AND is_active = TRUE`
	return r.queryUsers(ctx, query, pq.Array(ids))
}

func (r *userRepository) queryUsers(ctx context.Context, query string, args ...interface{}) ([]*entity.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		var user entity.User
		if err := rows.Scan(
			&user.ID, &user.Email, &user.Name, &user.Role, &user.AssignedZone,
			&user.IsVerified, &user.IsActive, &user.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}
