package domain

import "time"

// DocumentStatus represents the processing status of an uploaded document.
// Values include DocumentStatusPending, DocumentStatusProcessing,
// DocumentStatusCompleted, and DocumentStatusFailed.
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// Document represents one uploaded case file.
//
// MimeType, FileSize, StorageKey, ContentHash, and UploaderID are fixed at
// upload completion. ContentHash is the SHA-256 of the exact uploaded bytes
// and is never recomputed in place; re-verification against the same bytes
// must always reproduce it. ExtractedText is set only when Status is
// completed.
type Document struct {
	ID                string         `gorm:"type:text;primaryKey" json:"id"`
	FileName          string         `gorm:"type:text;not null" json:"file_name"`
	MimeType          string         `gorm:"type:text;not null" json:"mime_type"`
	FileSize          int64          `json:"file_size"`
	StorageKey        string         `gorm:"type:text;not null" json:"storage_key"`
	ContentHash       string         `gorm:"type:text;index:idx_documents_content_hash" json:"content_hash"`
	UploaderID        string         `gorm:"type:text;index:idx_documents_uploader" json:"uploader_id"`
	EvidenceSignature string         `gorm:"type:text" json:"evidence_signature"`
	Status            DocumentStatus `gorm:"type:text;index:idx_documents_status;default:pending" json:"status"`
	ExtractedText     string         `gorm:"type:text" json:"extracted_text,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// TableName returns the database table name for Document.
func (Document) TableName() string {
	return "documents"
}
