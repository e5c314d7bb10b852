package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alifh/alifh/internal/models"
	"github.com/alifh/alifh/internal/queue"
)

type fakeWriter struct {
	logs []models.AuditLog
	err  error
}

func (f *fakeWriter) Record(ctx context.Context, l models.AuditLog) error {
	if f.err != nil {
		return f.err
	}
	f.logs = append(f.logs, l)
	return nil
}

func task(t *testing.T, payload any) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(queue.TypeAuditRecord, data)
}

func TestAuditWorker(t *testing.T) {
	actor := uuid.New()
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	w := &fakeWriter{}

	err := NewAuditWorker(w).ProcessTask(context.Background(), task(t, queue.AuditRecordPayload{
		EventID:    "01JABCDEF",
		ActorID:    actor.String(),
		Action:     "access.denied",
		ResourceID: "route",
		Details:    json.RawMessage(`{"path":"/admin"}`),
		IPAddress:  "203.0.113.9:4431",
		OccurredAt: at,
	}))
	require.NoError(t, err)

	require.Len(t, w.logs, 1)
	got := w.logs[0]
	assert.Equal(t, "01JABCDEF", got.EventID)
	require.NotNil(t, got.ActorID)
	assert.Equal(t, actor, *got.ActorID)
	assert.Nil(t, got.ResourceID)
	assert.Equal(t, "203.0.113.9", got.IPAddress.String())
	assert.Equal(t, at, got.CreatedAt)
}

func TestAuditWorker_BadPayloadSkipsRetry(t *testing.T) {
	w := &fakeWriter{}
	err := NewAuditWorker(w).ProcessTask(context.Background(), asynq.NewTask(queue.TypeAuditRecord, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = NewAuditWorker(w).ProcessTask(context.Background(), task(t, queue.AuditRecordPayload{Action: "x"}))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, w.logs)
}

func TestAuditWorker_WriteErrorRetries(t *testing.T) {
	boom := errors.New("db down")
	err := NewAuditWorker(&fakeWriter{err: boom}).ProcessTask(context.Background(), task(t, queue.AuditRecordPayload{
		EventID: "01JX", Action: "user.role_changed",
	}))
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}
