package repository

import (
	"context"

	"github.com/casedesk/caseintake/internal/domain"
	"gorm.io/gorm"
)

// AuditEventRepository handles audit event persistence.
type AuditEventRepository struct {
	db *gorm.DB
}

// NewAuditEventRepository creates a new AuditEventRepository.
func NewAuditEventRepository(db *gorm.DB) *AuditEventRepository {
	return &AuditEventRepository{db: db}
}

// Create inserts a new audit event record.
func (r *AuditEventRepository) Create(ctx context.Context, event *domain.AuditEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// ListByDocumentID retrieves the audit trail for a document, oldest first.
func (r *AuditEventRepository) ListByDocumentID(ctx context.Context, documentID string) ([]domain.AuditEvent, error) {
	var events []domain.AuditEvent
	if err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
