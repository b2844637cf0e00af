package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/horizon-rh/horizon-rh/internal/leave"
	"github.com/horizon-rh/horizon-rh/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	ActorForUser(ctx context.Context, userID int64) (leave.ActorContext, error)
	CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT id, employee_id, email, password_hash, is_active, created_at, updated_at
	          FROM users WHERE email = $1`
	var user User
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.EmployeeID, &user.Email, &user.PasswordHash, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ActorForUser resolves the actor identity for a user's employee record.
func (r *PGRepository) ActorForUser(ctx context.Context, userID int64) (leave.ActorContext, error) {
	query := `SELECT e.id, e.role, e.service_id
	          FROM users u JOIN employees e ON e.id = u.employee_id
	          WHERE u.id = $1 AND u.is_active AND e.is_active`
	var actor leave.ActorContext
	var role string
	err := r.pool.QueryRow(ctx, query, userID).Scan(&actor.ID, &role, &actor.ServiceID)
	if errors.Is(err, pgx.ErrNoRows) {
		return leave.ActorContext{}, shared.ErrNotFound
	}
	if err != nil {
		return leave.ActorContext{}, err
	}
	actor.Role = leave.Role(role)
	return actor, nil
}

// CreateSession persists a new login session in the database for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	query := `INSERT INTO sessions (id, user_id, created_at, expires_at, ip, ua)
	          VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))`
	_, err := r.pool.Exec(ctx, query, id, userID, time.Now().UTC(), expiresAt.UTC(), ip, ua)
	return err
}

// DeleteSession removes a session record from the database.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

var _ Repository = (*PGRepository)(nil)
