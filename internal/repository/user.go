package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/abjin/reward-closet/internal/domain"
)

const userColumns = `id, provider_id, email, password_hash, nickname, points, created_at, updated_at`

// UserRepository handles user data access operations.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID retrieves a user by their ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, "id", id)
}

// FindByEmail retrieves a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email", email)
}

// FindByProviderID retrieves a user by the hosted identity provider's uid.
func (r *UserRepository) FindByProviderID(ctx context.Context, providerID string) (*domain.User, error) {
	return r.findOne(ctx, "provider_id", providerID)
}

func (r *UserRepository) findOne(ctx context.Context, column, value string) (*domain.User, error) {
	var user domain.User
	err := r.db.GetContext(ctx, &user,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find user by %s: %w", column, err)
	}
	return &user, nil
}

// Create inserts a new user. A duplicate email or provider id yields domain.ErrConflict.
func (r *UserRepository) Create(ctx context.Context, user domain.User) (*domain.User, error) {
	var result domain.User
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO users (id, provider_id, email, password_hash, nickname, points)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+userColumns,
		user.ID, user.ProviderID, user.Email, user.PasswordHash, user.Nickname, user.Points,
	).StructScan(&result)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: user already exists", domain.ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &result, nil
}

// UpdateNickname sets the nickname of the given user.
func (r *UserRepository) UpdateNickname(ctx context.Context, id, nickname string) (*domain.User, error) {
	return r.updateOne(ctx, `UPDATE users SET nickname = $2, updated_at = NOW() WHERE id = $1`, id, nickname)
}

// UpdatePoints sets the stored point balance of the given user.
func (r *UserRepository) UpdatePoints(ctx context.Context, id string, points int) (*domain.User, error) {
	return r.updateOne(ctx, `UPDATE users SET points = $2, updated_at = NOW() WHERE id = $1`, id, points)
}

func (r *UserRepository) updateOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var user domain.User
	err := r.db.QueryRowxContext(ctx, query+` RETURNING `+userColumns, args...).StructScan(&user)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &user, nil
}
