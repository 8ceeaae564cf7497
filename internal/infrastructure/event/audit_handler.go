package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/erp/payables/internal/domain/shared"
)

// AuditLogHandler is a wildcard subscriber that writes every domain event
// to the structured log, giving a poor man's audit trail for invoice and
// payment state changes.
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates an AuditLogHandler.
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditLogHandler{logger: logger}
}

// Handle logs the event.
func (h *AuditLogHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.logger.Info("domain event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.String("tenant_id", event.TenantID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	)
	return nil
}

// EventTypes returns nil so the handler subscribes to all events.
func (h *AuditLogHandler) EventTypes() []string {
	return nil
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
