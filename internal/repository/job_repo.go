package repository

import (
	"context"

	"github.com/casedesk/caseintake/internal/domain"
	"gorm.io/gorm"
)

// JobRepository handles processing job data operations.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new processing job record.
func (r *JobRepository) Create(ctx context.Context, job *domain.ProcessingJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// Update updates an existing processing job record.
func (r *JobRepository) Update(ctx context.Context, job *domain.ProcessingJob) error {
	return r.db.WithContext(ctx).Save(job).Error
}

// GetByID retrieves a processing job by its ID.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.ProcessingJob, error) {
	var job domain.ProcessingJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// ListByDocumentID retrieves all jobs for a document, newest first. Each
// job is independent history; reprocessing appends rather than rewriting.
func (r *JobRepository) ListByDocumentID(ctx context.Context, documentID string) ([]domain.ProcessingJob, error) {
	var jobs []domain.ProcessingJob
	if err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("started_at DESC").
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}
