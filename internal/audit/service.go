package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/netip"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alifh/alifh/internal/identity"
	"github.com/alifh/alifh/internal/models"
)

const (
	ActionAccessDenied     = "access.denied"
	ActionPartnerRequested = "partner.requested"
	ActionPartnerStatus    = "partner.status_changed"
	ActionStaffInvited     = "partner.staff_invited"
	ActionMembershipStatus = "membership.status_changed"
	ActionUserStatus       = "user.status_changed"
	ActionUserRole         = "user.role_changed"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

type LogEntry struct {
	Action       string
	ResourceType string
	ResourceID   *uuid.UUID
	Details      map[string]any
	IPAddress    string
}

// Log writes entry attributed to the signed-in user in ctx.
func (s *Service) Log(ctx context.Context, entry LogEntry) error {
	var actorID *uuid.UUID
	if id := identity.UserIDFromContext(ctx); id != uuid.Nil {
		actorID = &id
	}

	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}

	return s.Record(ctx, models.AuditLog{
		ActorID:      actorID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Details:      details,
		IPAddress:    ParseIP(entry.IPAddress),
	})
}

// Record inserts a prepared log row. Rows carrying an event id already
// stored are skipped, so retried deliveries land once.
func (s *Service) Record(ctx context.Context, l models.AuditLog) error {
	var eventID *string
	if l.EventID != "" {
		eventID = &l.EventID
	}
	if len(l.Details) == 0 {
		l.Details = json.RawMessage(`{}`)
	}
	createdAt := l.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO audit_logs (event_id, actor_id, action, resource_type, resource_id, details, ip_address, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (event_id) DO NOTHING`,
		eventID, l.ActorID, l.Action, l.ResourceType, l.ResourceID, l.Details, l.IPAddress, createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// ParseIP accepts a bare address or host:port and returns nil if neither
// parses.
func ParseIP(s string) *netip.Addr {
	if s == "" {
		return nil
	}
	if ap, err := netip.ParseAddrPort(s); err == nil {
		addr := ap.Addr()
		return &addr
	}
	if addr, err := netip.ParseAddr(s); err == nil {
		return &addr
	}
	return nil
}

type AuditQuery struct {
	StartDate    *time.Time
	EndDate      *time.Time
	Action       string
	ActorID      *uuid.UUID
	ResourceType string
	Limit        int
	Offset       int
}

func buildQuery(q AuditQuery) (string, []any) {
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	query := `SELECT id, COALESCE(event_id, ''), actor_id, action, resource_type, resource_id, details, ip_address, created_at
			  FROM audit_logs WHERE true`
	var args []any
	add := func(clause string, v any) {
		args = append(args, v)
		query += fmt.Sprintf(clause, len(args))
	}

	if q.Action != "" {
		add(" AND action = $%d", q.Action)
	}
	if q.ActorID != nil {
		add(" AND actor_id = $%d", *q.ActorID)
	}
	if q.ResourceType != "" {
		add(" AND resource_type = $%d", q.ResourceType)
	}
	if q.StartDate != nil {
		add(" AND created_at >= $%d", *q.StartDate)
	}
	if q.EndDate != nil {
		add(" AND created_at <= $%d", *q.EndDate)
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, q.Limit, q.Offset)
	return query, args
}

func (s *Service) GetAuditLogs(ctx context.Context, q AuditQuery) ([]models.AuditLog, error) {
	query, args := buildQuery(q)
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()

	var logs []models.AuditLog
	for rows.Next() {
		var l models.AuditLog
		if err := rows.Scan(&l.ID, &l.EventID, &l.ActorID, &l.Action, &l.ResourceType, &l.ResourceID, &l.Details, &l.IPAddress, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
