package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clientcare/support-portal/internal/domain"
)

// UserRepository defines persistence access for clients.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	GetOrCreateByPhone(ctx context.Context, phone string) (*domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `
        SELECT id, phone, full_name, created_at
        FROM users WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *userRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	const query = `
        SELECT id, phone, full_name, created_at
        FROM users WHERE phone=$1`
	return r.fetchSingle(ctx, query, phone)
}

// GetOrCreateByPhone provisions a user on first login. Phone is the unique
// key; a concurrent insert loses the race and falls back to the lookup.
func (r *userRepository) GetOrCreateByPhone(ctx context.Context, phone string) (*domain.User, error) {
	user, err := r.GetByPhone(ctx, phone)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	const query = `
        INSERT INTO users (phone, full_name)
        VALUES ($1, $2)
        ON CONFLICT (phone) DO NOTHING
        RETURNING id, phone, full_name, created_at`

	created := &domain.User{}
	err = r.pool.QueryRow(ctx, query, phone, fmt.Sprintf("Partner %s", phone)).Scan(
		&created.ID,
		&created.Phone,
		&created.FullName,
		&created.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.GetByPhone(ctx, phone)
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Phone,
		&user.FullName,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
