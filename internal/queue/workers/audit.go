package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/alifh/alifh/internal/audit"
	"github.com/alifh/alifh/internal/models"
	"github.com/alifh/alifh/internal/queue"
)

type AuditWriter interface {
	Record(ctx context.Context, l models.AuditLog) error
}

// AuditWorker stores queued audit rows.
type AuditWorker struct {
	writer AuditWriter
}

func NewAuditWorker(writer AuditWriter) *AuditWorker {
	return &AuditWorker{writer: writer}
}

func (w *AuditWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.AuditRecordPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Action == "" || payload.EventID == "" {
		return fmt.Errorf("audit payload missing action or event id: %w", asynq.SkipRetry)
	}

	l := models.AuditLog{
		EventID:      payload.EventID,
		ActorID:      parseID(payload.ActorID),
		Action:       payload.Action,
		ResourceType: payload.ResourceType,
		ResourceID:   parseID(payload.ResourceID),
		Details:      payload.Details,
		IPAddress:    audit.ParseIP(payload.IPAddress),
		CreatedAt:    payload.OccurredAt,
	}
	if err := w.writer.Record(ctx, l); err != nil {
		return fmt.Errorf("record audit event %s: %w", payload.EventID, err)
	}

	slog.Debug("audit event stored", "event_id", payload.EventID, "action", payload.Action)
	return nil
}

func parseID(s string) *uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}
