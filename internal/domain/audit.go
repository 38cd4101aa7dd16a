package domain

import "time"

// Audit actions emitted by the pipeline.
const (
	AuditActionDocumentUploaded  = "document_uploaded"
	AuditActionProcessingStarted = "processing_started"
	AuditActionDocumentProcessed = "document_processed"
	AuditActionProcessingFailed  = "processing_failed"
)

// AuditEvent is a fire-and-forget record of a pipeline outcome. Writing an
// audit event must never fail the run that produced it.
type AuditEvent struct {
	ID         string    `gorm:"type:text;primaryKey" json:"id"`
	DocumentID string    `gorm:"type:text;index:idx_audit_document" json:"document_id"`
	JobID      string    `gorm:"type:text" json:"job_id,omitempty"`
	Action     string    `gorm:"type:text;not null" json:"action"`
	Detail     string    `gorm:"type:text" json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for AuditEvent.
func (AuditEvent) TableName() string {
	return "audit_events"
}
