package repository

import (
	"context"

	"github.com/google/uuid"

	"pulsechat/internal/model"
)

// UserRepository is the abstract keyed store for user rows. It supports
// point lookups by any of the independently indexed keys, a conditional
// single-column update, and plain inserts.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByToken(ctx context.Context, token uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	GetProfileByID(ctx context.Context, id uuid.UUID) (*model.PublicProfile, error)
	// UpdateColumn sets a single column, conditional on the row's immutable
	// identity (username, user_id, created_at) still matching. The column
	// name must come from the service's fixed allow-list, never from
	// caller input.
	UpdateColumn(ctx context.Context, user *model.User, column string, value interface{}) error
}

// AuditRepository appends entries to the account audit log.
type AuditRepository interface {
	Insert(ctx context.Context, entry *model.AuditEntry) error
}
