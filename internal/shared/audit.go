package shared

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLog is one row of audit_logs: who did what to which entity.
type AuditLog struct {
	ActorID  string
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// AuditLogger appends to audit_logs. Callers log failures and carry on; an
// audit row never decides whether a sale or payment stands.
type AuditLogger struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool, now: time.Now}
}

// Record persists entry. A blank actor falls back to the request actor on ctx.
func (l *AuditLogger) Record(ctx context.Context, entry AuditLog) error {
	if l == nil || l.pool == nil {
		return errors.New("audit logger not initialised")
	}
	entry, err := l.prepare(ctx, entry)
	if err != nil {
		return err
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at)
		 VALUES (NULLIF($1, ''), $2, $3, $4, $5, $6)`,
		entry.ActorID, entry.Action, entry.Entity, entry.EntityID, entry.Meta, entry.At)
	if err != nil {
		return Infrastructure("audit: insert", err)
	}
	return nil
}

func (l *AuditLogger) prepare(ctx context.Context, entry AuditLog) (AuditLog, error) {
	if entry.Action == "" || entry.Entity == "" || entry.EntityID == "" {
		return entry, errors.New("audit log requires action/entity/entity_id")
	}
	if entry.ActorID == "" {
		entry.ActorID = ActorFromContext(ctx)
	}
	if entry.Meta == nil {
		entry.Meta = map[string]any{}
	}
	if entry.At.IsZero() {
		entry.At = l.now().UTC()
	}
	return entry, nil
}
