package shared

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditAction enumerates activity actions.
type AuditAction string

const (
	AuditCreate AuditAction = "CREATE"
	AuditUpdate AuditAction = "UPDATE"
	AuditDelete AuditAction = "DELETE"
	AuditView   AuditAction = "VIEW"
	AuditExport AuditAction = "EXPORT"
)

// AuditLog represents a record stored in user_activities.
type AuditLog struct {
	ActorID     int64
	Action      AuditAction
	Entity      string
	EntityID    string
	Description string
	IPAddress   string
	At          time.Time
}

// AuditLogger writes records into user_activities.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the log entry. Anonymous actions are not recorded.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if log.ActorID == 0 {
		return nil
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	at := log.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := l.pool.Exec(ctx, `INSERT INTO user_activities (user_id, action, content_type, object_id, description, ip_address, occurred_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::inet, $7)`, log.ActorID, string(log.Action), log.Entity, log.EntityID, log.Description, log.IPAddress, at)
	return err
}
