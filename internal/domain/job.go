package domain

import "time"

// JobStatus represents the status of a processing job.
// Values include JobStatusProcessing, JobStatusCompleted, and JobStatusFailed.
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// JobTypeTextExtraction is the only job type this pipeline runs.
const JobTypeTextExtraction = "text_extraction"

// ProcessingJob represents one attempt to extract text from a Document.
// A job is created in the processing state and terminates as completed or
// failed; it never resumes. Reprocessing a document creates a new job.
type ProcessingJob struct {
	ID           string     `gorm:"type:text;primaryKey" json:"id"`
	DocumentID   string     `gorm:"type:text;not null;index:idx_jobs_document" json:"document_id"`
	JobType      string     `gorm:"type:text;not null" json:"job_type"`
	Status       JobStatus  `gorm:"type:text;index:idx_jobs_status" json:"status"`
	Progress     int        `gorm:"default:0" json:"progress"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Result       string     `gorm:"type:text" json:"result,omitempty"`
	ErrorMessage string     `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName returns the database table name for ProcessingJob.
func (ProcessingJob) TableName() string {
	return "processing_jobs"
}

// ExtractionResult is the opaque job result summary stored on completion.
type ExtractionResult struct {
	TextLength int `json:"text_length"`
}
