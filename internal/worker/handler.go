package worker

import (
	"context"
	"fmt"
	"time"

	"pulsechat/internal/model"
	"pulsechat/internal/queue"
)

// AuditRecorder abstracts the audit repository so the worker doesn't depend
// on the database package directly.
type AuditRecorder interface {
	Insert(ctx context.Context, entry *model.AuditEntry) error
}

// Handler turns account events into audit log rows.
type Handler struct {
	audit AuditRecorder
}

// NewHandler creates a new event handler.
func NewHandler(audit AuditRecorder) *Handler {
	return &Handler{audit: audit}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.AccountEvent) error {
	switch event.Type {
	case queue.EventUserRegistered:
		return h.record(ctx, event, nil)
	case queue.EventProfileUpdated:
		field := event.Field
		return h.record(ctx, event, &field)
	default:
		return fmt.Errorf("unknown event type: %s", event.Type)
	}
}

func (h *Handler) record(ctx context.Context, event queue.AccountEvent, field *string) error {
	entry := &model.AuditEntry{
		UserID:     event.UserID,
		Action:     event.Type,
		Field:      field,
		OccurredAt: time.Unix(event.Timestamp, 0).UTC(),
	}

	if err := h.audit.Insert(ctx, entry); err != nil {
		return fmt.Errorf("record %s: %w", event.Type, err)
	}
	return nil
}
