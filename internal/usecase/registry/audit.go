package registry

import (
	"context"

	"testvault/internal/domain/qa"
	"testvault/internal/errs"
)

// appendAudit records one mutation. The collection is capped at
// qa.AuditLogCap entries; the oldest drop first.
func (s *Service) appendAudit(ctx context.Context, action string, entityType qa.EntityType, entityID string, details map[string]string) error {
	logs, err := loadCollection[qa.AuditLog](ctx, s.kv, KeyAuditLogs)
	if err != nil {
		return err
	}

	logs = append(logs, qa.AuditLog{
		ID:         s.newID(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		UserID:     s.user(),
		Timestamp:  s.timestamp(),
		Details:    details,
	})
	if len(logs) > qa.AuditLogCap {
		logs = logs[len(logs)-qa.AuditLogCap:]
	}

	return errs.Wrap(saveCollection(ctx, s.kv, KeyAuditLogs, logs), "save audit logs")
}

// ListAuditLogs returns all audit entries, oldest first.
func (s *Service) ListAuditLogs(ctx context.Context) ([]qa.AuditLog, error) {
	return loadCollection[qa.AuditLog](ctx, s.kv, KeyAuditLogs)
}

// RecentAuditLogs returns up to limit entries, most recent first.
func (s *Service) RecentAuditLogs(ctx context.Context, limit int) ([]qa.AuditLog, error) {
	logs, err := s.ListAuditLogs(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > len(logs) {
		limit = len(logs)
	}

	out := make([]qa.AuditLog, 0, limit)
	for i := len(logs) - 1; i >= len(logs)-limit; i-- {
		out = append(out, logs[i])
	}
	return out, nil
}
