package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"pulsechat/internal/model"
)

type auditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new audit log repository.
func NewAuditRepository(db *sqlx.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Insert(ctx context.Context, entry *model.AuditEntry) error {
	query := `
		INSERT INTO audit_log (user_id, action, field, occurred_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	row := r.db.QueryRowxContext(ctx, query, entry.UserID, entry.Action, entry.Field, entry.OccurredAt)
	if err := row.Scan(&entry.ID); err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	return nil
}
