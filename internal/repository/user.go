package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"pulsechat/internal/model"
)

// userColumns is the full persisted row layout, shared by every lookup so
// a resolved user is always complete.
const userColumns = `user_id, token, created_at, username, email, password_hash, display_name,
	friends, badges, status, banner_color, background_color, is_admin, description`

// userRepository implements UserRepository using sqlx on Postgres.
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user row. created_at is assigned by the database and
// read back so the in-memory record matches the stored row exactly (the
// conditional update compares it later).
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (user_id, token, username, email, password_hash, display_name,
		                   friends, badges, status, is_admin, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		RETURNING created_at
	`

	row := r.db.QueryRowxContext(ctx, query,
		u.UserID,
		u.Token,
		u.Username,
		u.Email,
		u.PasswordHash,
		u.DisplayName,
		u.Friends,
		u.Badges,
		u.Status,
		u.IsAdmin,
	)

	if err := row.Scan(&u.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their immutable user_id.
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.getByColumn(ctx, "user_id", id)
}

// GetByToken retrieves a user by their bearer token.
func (r *userRepository) GetByToken(ctx context.Context, token uuid.UUID) (*model.User, error) {
	return r.getByColumn(ctx, "token", token)
}

// GetByEmail retrieves a user by their email address.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getByColumn(ctx, "email", email)
}

func (r *userRepository) getByColumn(ctx context.Context, column string, key interface{}) (*model.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, column)

	var u model.User
	err := r.db.GetContext(ctx, &u, query, key)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}

	return &u, nil
}

// ExistsByUsername checks if a username is already taken.
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.existsByColumn(ctx, "username", username)
}

// ExistsByEmail checks if an email is already taken.
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.existsByColumn(ctx, "email", email)
}

func (r *userRepository) existsByColumn(ctx context.Context, column, value string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM users WHERE %s = $1)`, column)

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, value)
	if err != nil {
		return false, fmt.Errorf("failed to check %s existence: %w", column, err)
	}

	return exists, nil
}

// GetProfileByID retrieves only the public profile fields of a user,
// used by friend aggregation and the public profile endpoint.
func (r *userRepository) GetProfileByID(ctx context.Context, id uuid.UUID) (*model.PublicProfile, error) {
	query := `
		SELECT user_id, username, display_name, badges, status, banner_color, background_color
		FROM users
		WHERE user_id = $1
	`

	var p model.PublicProfile
	err := r.db.GetContext(ctx, &p, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get profile by id: %w", err)
	}

	return &p, nil
}

// UpdateColumn performs the single conditional mutation of a user row.
// The WHERE clause re-checks the immutable identity triple; since those
// columns never change, zero rows affected means the row is gone or was
// rewritten out from under us, and the caller gets ErrUpdateConflict.
func (r *userRepository) UpdateColumn(ctx context.Context, u *model.User, column string, value interface{}) error {
	query := fmt.Sprintf(`
		UPDATE users SET %s = $1
		WHERE username = $2 AND user_id = $3 AND created_at = $4
	`, column)

	result, err := r.db.ExecContext(ctx, query, value, u.Username, u.UserID, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrUpdateConflict
	}

	return nil
}
