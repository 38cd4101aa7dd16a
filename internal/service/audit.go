package service

import (
	"context"
	"time"

	"github.com/casedesk/caseintake/internal/domain"
	"github.com/casedesk/caseintake/internal/logger"
	"github.com/google/uuid"
)

// AuditStore persists audit events.
type AuditStore interface {
	Create(ctx context.Context, event *domain.AuditEvent) error
}

// AuditEmitter records audit events on a best-effort basis. A failed
// write is logged and swallowed; audit must never break the pipeline.
type AuditEmitter struct {
	store  AuditStore
	logger *logger.Logger
}

// NewAuditEmitter creates a new audit emitter.
func NewAuditEmitter(store AuditStore, log *logger.Logger) *AuditEmitter {
	if log == nil {
		log = logger.GetDefault()
	}
	return &AuditEmitter{
		store:  store,
		logger: log,
	}
}

// Emit persists an audit event, filling in ID and timestamp. Errors are
// logged, never returned.
func (e *AuditEmitter) Emit(ctx context.Context, event *domain.AuditEvent) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	if err := e.store.Create(ctx, event); err != nil {
		e.logger.WithError(err).WithFields(logger.Fields{
			logger.FieldDocumentID: event.DocumentID,
			"action":               event.Action,
		}).Warn("Failed to record audit event")
	}
}
