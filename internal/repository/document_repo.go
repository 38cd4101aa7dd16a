package repository

import (
	"context"

	"github.com/casedesk/caseintake/internal/domain"
	"gorm.io/gorm"
)

// DocumentRepository handles document data operations.
type DocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts a new document record.
func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// Update updates an existing document record.
func (r *DocumentRepository) Update(ctx context.Context, doc *domain.Document) error {
	return r.db.WithContext(ctx).Save(doc).Error
}

// GetByID retrieves a document by its ID.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	var doc domain.Document
	if err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetByContentHash retrieves a document by its content hash. Upload
// completion uses it to reject re-registration of identical bytes.
func (r *DocumentRepository) GetByContentHash(ctx context.Context, contentHash string) (*domain.Document, error) {
	var doc domain.Document
	if err := r.db.WithContext(ctx).First(&doc, "content_hash = ?", contentHash).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListByStatus retrieves documents by status with a limit, oldest first.
func (r *DocumentRepository) ListByStatus(ctx context.Context, status domain.DocumentStatus, limit int) ([]domain.Document, error) {
	var docs []domain.Document
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// CountByStatus counts documents by status.
func (r *DocumentRepository) CountByStatus(ctx context.Context, status domain.DocumentStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Document{}).
		Where("status = ?", status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
