package queue

import (
	"encoding/json"
	"time"
)

const (
	TypeAuditRecord = "audit:record"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// AuditRecordPayload is one audit row waiting to be written. EventID doubles
// as the task id, so a payload is enqueued and stored at most once.
type AuditRecordPayload struct {
	EventID      string          `json:"event_id"`
	ActorID      string          `json:"actor_id,omitempty"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resource_type,omitempty"`
	ResourceID   string          `json:"resource_id,omitempty"`
	Details      json.RawMessage `json:"details,omitempty"`
	IPAddress    string          `json:"ip_address,omitempty"`
	OccurredAt   time.Time       `json:"occurred_at"`
}
