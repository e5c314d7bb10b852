package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/oklog/ulid/v2"

	"github.com/alifh/alifh/internal/audit"
	"github.com/alifh/alifh/internal/auth"
	"github.com/alifh/alifh/internal/config"
)

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

type Client struct {
	client enqueuer
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{
		client: asynq.NewClient(RedisOpt(cfg)),
	}
}

func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueAudit queues an audit row for the worker. A missing EventID is
// filled with a fresh ULID.
func (c *Client) EnqueueAudit(ctx context.Context, payload AuditRecordPayload) error {
	if payload.EventID == "" {
		payload.EventID = ulid.Make().String()
	}
	if payload.OccurredAt.IsZero() {
		payload.OccurredAt = time.Now().UTC()
	}
	err := c.enqueue(ctx, TypeAuditRecord, payload,
		asynq.TaskID(payload.EventID),
		asynq.Queue(QueueLow),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

// RecordDenial queues an access.denied audit row.
func (c *Client) RecordDenial(ctx context.Context, d auth.Denial) error {
	details, err := json.Marshal(map[string]string{
		"method":     d.Method,
		"path":       d.Path,
		"reason":     string(d.Reason),
		"request_id": d.RequestID,
	})
	if err != nil {
		return fmt.Errorf("marshal denial: %w", err)
	}
	return c.EnqueueAudit(ctx, AuditRecordPayload{
		ActorID:      d.UserID,
		Action:       audit.ActionAccessDenied,
		ResourceType: "route",
		Details:      details,
		IPAddress:    d.RemoteAddr,
		OccurredAt:   d.At,
	})
}

func (c *Client) enqueue(ctx context.Context, taskType string, payload any, opts ...asynq.Option) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(taskType, data)
	_, err = c.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}
