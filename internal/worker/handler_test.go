package worker

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"pulsechat/internal/model"
	"pulsechat/internal/queue"
)

type mockAuditRecorder struct {
	entries []*model.AuditEntry
	err     error
}

func (m *mockAuditRecorder) Insert(ctx context.Context, entry *model.AuditEntry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

func TestHandler_UserRegistered(t *testing.T) {
	recorder := &mockAuditRecorder{}
	h := NewHandler(recorder)

	userID := uuid.New()
	event := queue.NewUserRegisteredEvent(userID)

	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	if len(recorder.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(recorder.entries))
	}
	entry := recorder.entries[0]
	if entry.UserID != userID || entry.Action != queue.EventUserRegistered {
		t.Errorf("entry = %+v", entry)
	}
	if entry.Field != nil {
		t.Errorf("field = %v, want nil for registration", entry.Field)
	}
}

func TestHandler_ProfileUpdated(t *testing.T) {
	recorder := &mockAuditRecorder{}
	h := NewHandler(recorder)

	userID := uuid.New()
	event := queue.NewProfileUpdatedEvent(userID, "display_name")

	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	entry := recorder.entries[0]
	if entry.Field == nil || *entry.Field != "display_name" {
		t.Errorf("field = %v, want display_name", entry.Field)
	}
}

func TestHandler_UnknownEventType(t *testing.T) {
	h := NewHandler(&mockAuditRecorder{})

	err := h.HandleEvent(context.Background(), queue.AccountEvent{Type: "bogus"})
	if err == nil {
		t.Fatal("expected error for unknown event type")
	}
}
