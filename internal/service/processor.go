package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/casedesk/caseintake/internal/domain"
	"github.com/casedesk/caseintake/internal/extract"
	"github.com/casedesk/caseintake/internal/integrity"
	"github.com/casedesk/caseintake/internal/logger"
	"github.com/casedesk/caseintake/internal/ocr"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDocumentNotFound is returned when a processing request names an
// unknown document.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentStore is the subset of document persistence the processor needs.
type DocumentStore interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	Update(ctx context.Context, doc *domain.Document) error
	ListByStatus(ctx context.Context, status domain.DocumentStatus, limit int) ([]domain.Document, error)
}

// JobStore is the subset of job persistence the processor needs.
type JobStore interface {
	Create(ctx context.Context, job *domain.ProcessingJob) error
	Update(ctx context.Context, job *domain.ProcessingJob) error
}

// AuditSink receives pipeline audit events.
type AuditSink interface {
	Emit(ctx context.Context, event *domain.AuditEvent)
}

// PDFTextExtractor extracts embedded text from PDF bytes and classifies
// scanned documents in the same parse pass.
type PDFTextExtractor interface {
	ExtractWithScanCheck(data []byte) (text string, pages int, scanned bool)
}

// DocxTextExtractor extracts text from DOCX bytes.
type DocxTextExtractor interface {
	Extract(data []byte) (string, error)
}

// OCRExtractor recognizes text from scanned documents and images.
type OCRExtractor interface {
	ExtractWithFallback(ctx context.Context, data []byte, mimeType string) (*ocr.Result, error)
}

// ObjectFetcher retrieves stored document content.
type ObjectFetcher interface {
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

// ProcessorService runs the text extraction pipeline for uploaded
// documents. Each run is recorded as a processing job; a document is
// never retried automatically, callers request a new run explicitly.
type ProcessorService struct {
	documents DocumentStore
	jobs      JobStore
	audit     AuditSink
	storage   ObjectFetcher
	pdf       PDFTextExtractor
	docx      DocxTextExtractor
	ocr       OCRExtractor
	logger    *logger.Logger

	ocrTimeout time.Duration
}

// ProcessorConfig holds configuration for the processor service.
type ProcessorConfig struct {
	OCRTimeout time.Duration
}

// NewProcessorService creates a new processor service.
func NewProcessorService(
	documents DocumentStore,
	jobs JobStore,
	audit AuditSink,
	objectStorage ObjectFetcher,
	pdf PDFTextExtractor,
	docx DocxTextExtractor,
	ocrExtractor OCRExtractor,
	log *logger.Logger,
	cfg *ProcessorConfig,
) *ProcessorService {
	if log == nil {
		log = logger.GetDefault()
	}
	timeout := 60 * time.Second
	if cfg != nil && cfg.OCRTimeout > 0 {
		timeout = cfg.OCRTimeout
	}
	return &ProcessorService{
		documents:  documents,
		jobs:       jobs,
		audit:      audit,
		storage:    objectStorage,
		pdf:        pdf,
		docx:       docx,
		ocr:        ocrExtractor,
		logger:     log,
		ocrTimeout: timeout,
	}
}

// log returns a logger from context if available, otherwise returns the default logger
func (s *ProcessorService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// ProcessDocument runs text extraction for a single document and returns
// the extracted text. The document moves pending -> processing ->
// completed/failed; a new processing job records the terminal outcome.
func (s *ProcessorService) ProcessDocument(ctx context.Context, documentID string) (string, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: %s", ErrDocumentNotFound, documentID)
		}
		return "", fmt.Errorf("failed to load document: %w", err)
	}

	job := &domain.ProcessingJob{
		ID:         uuid.New().String(),
		DocumentID: doc.ID,
		JobType:    domain.JobTypeTextExtraction,
		Status:     domain.JobStatusProcessing,
		Progress:   0,
		StartedAt:  time.Now(),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return "", fmt.Errorf("failed to create processing job: %w", err)
	}

	s.audit.Emit(ctx, &domain.AuditEvent{
		DocumentID: doc.ID,
		JobID:      job.ID,
		Action:     domain.AuditActionProcessingStarted,
		Detail:     doc.MimeType,
	})

	doc.Status = domain.DocumentStatusProcessing
	if err := s.documents.Update(ctx, doc); err != nil {
		return "", s.failRun(ctx, doc, job, fmt.Errorf("failed to mark document processing: %w", err))
	}

	s.log(ctx).WithFields(logger.Fields{
		logger.FieldDocumentID: doc.ID,
		logger.FieldJobID:      job.ID,
		"mime_type":            doc.MimeType,
	}).Info("Processing document")

	text, err := s.extractText(ctx, doc)
	if err != nil {
		return "", s.failRun(ctx, doc, job, err)
	}

	now := time.Now()
	doc.Status = domain.DocumentStatusCompleted
	doc.ExtractedText = text
	if err := s.documents.Update(ctx, doc); err != nil {
		return "", s.failRun(ctx, doc, job, fmt.Errorf("failed to save extracted text: %w", err))
	}

	result, _ := json.Marshal(domain.ExtractionResult{TextLength: len(text)})
	job.Status = domain.JobStatusCompleted
	job.Progress = 100
	job.Result = string(result)
	job.CompletedAt = &now
	if err := s.jobs.Update(ctx, job); err != nil {
		// The document is already completed; log and keep the result.
		s.log(ctx).WithError(err).WithField(logger.FieldJobID, job.ID).Error("Failed to finalize job record")
	}

	s.audit.Emit(ctx, &domain.AuditEvent{
		DocumentID: doc.ID,
		JobID:      job.ID,
		Action:     domain.AuditActionDocumentProcessed,
		Detail:     fmt.Sprintf("extracted %d characters", len(text)),
	})

	s.log(ctx).WithFields(logger.Fields{
		logger.FieldDocumentID: doc.ID,
		logger.FieldJobID:      job.ID,
		logger.FieldSize:       len(text),
	}).Info("Document processed")

	return text, nil
}

// extractText downloads the document content, verifies its integrity and
// dispatches to the extractor for its format.
func (s *ProcessorService) extractText(ctx context.Context, doc *domain.Document) (string, error) {
	reader, err := s.storage.Download(ctx, doc.StorageKey)
	if err != nil {
		return "", fmt.Errorf("failed to download document content: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read document content: %w", err)
	}

	if doc.ContentHash != "" && !integrity.Verify(data, doc.ContentHash) {
		return "", fmt.Errorf("content hash mismatch for document %s", doc.ID)
	}

	switch {
	case doc.MimeType == extract.MimePDF:
		return s.extractPDF(ctx, doc, data)
	case doc.MimeType == extract.MimeDocx:
		return s.docx.Extract(data)
	case doc.MimeType == extract.MimePlainText:
		return extract.PlainText(data)
	case ocr.IsOCRCandidate(doc.MimeType):
		return s.runOCR(ctx, data, doc.MimeType)
	default:
		// Unknown formats complete with no text rather than failing;
		// the document stays retrievable and the job records the outcome.
		s.log(ctx).WithFields(logger.Fields{
			logger.FieldDocumentID: doc.ID,
			"mime_type":            doc.MimeType,
		}).Warn("No extractor for mime type, storing empty text")
		return "", nil
	}
}

// extractPDF parses the PDF once, then routes to the embedded text or,
// when the document looks scanned, to OCR.
func (s *ProcessorService) extractPDF(ctx context.Context, doc *domain.Document, data []byte) (string, error) {
	text, pages, scanned := s.pdf.ExtractWithScanCheck(data)
	if scanned {
		s.log(ctx).WithField(logger.FieldDocumentID, doc.ID).Info("PDF appears scanned, using OCR")
		return s.runOCR(ctx, data, doc.MimeType)
	}

	s.log(ctx).WithFields(logger.Fields{
		logger.FieldDocumentID: doc.ID,
		logger.FieldCount:      pages,
	}).Debug("Extracted embedded PDF text")

	return text, nil
}

func (s *ProcessorService) runOCR(ctx context.Context, data []byte, mimeType string) (string, error) {
	ocrCtx, cancel := context.WithTimeout(ctx, s.ocrTimeout)
	defer cancel()

	result, err := s.ocr.ExtractWithFallback(ocrCtx, data, mimeType)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// failRun marks the document and job failed, emits an audit event and
// returns the original error.
func (s *ProcessorService) failRun(ctx context.Context, doc *domain.Document, job *domain.ProcessingJob, cause error) error {
	now := time.Now()

	doc.Status = domain.DocumentStatusFailed
	if err := s.documents.Update(ctx, doc); err != nil {
		s.log(ctx).WithError(err).WithField(logger.FieldDocumentID, doc.ID).Error("Failed to mark document failed")
	}

	job.Status = domain.JobStatusFailed
	job.ErrorMessage = cause.Error()
	job.CompletedAt = &now
	if err := s.jobs.Update(ctx, job); err != nil {
		s.log(ctx).WithError(err).WithField(logger.FieldJobID, job.ID).Error("Failed to mark job failed")
	}

	s.audit.Emit(ctx, &domain.AuditEvent{
		DocumentID: doc.ID,
		JobID:      job.ID,
		Action:     domain.AuditActionProcessingFailed,
		Detail:     cause.Error(),
	})

	s.log(ctx).WithError(cause).WithFields(logger.Fields{
		logger.FieldDocumentID: doc.ID,
		logger.FieldJobID:      job.ID,
	}).Error("Document processing failed")

	return cause
}

// RunStats holds statistics for a batch processing run.
type RunStats struct {
	Total     int
	Processed int
	Failed    int
	StartTime time.Time
	EndTime   time.Time
}

// ProcessPending processes up to limit pending documents sequentially.
// Failures are counted, not retried; each failed document keeps its
// failed job for inspection.
func (s *ProcessorService) ProcessPending(ctx context.Context, limit int) (*RunStats, error) {
	stats := &RunStats{StartTime: time.Now()}

	docs, err := s.documents.ListByStatus(ctx, domain.DocumentStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending documents: %w", err)
	}
	stats.Total = len(docs)

	for i := range docs {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.ProcessDocument(ctx, docs[i].ID); err != nil {
			stats.Failed++
			continue
		}
		stats.Processed++
	}

	stats.EndTime = time.Now()
	logger.With(logger.Fields{
		logger.FieldCount:      stats.Processed,
		"failed":               stats.Failed,
		logger.FieldDurationMs: stats.EndTime.Sub(stats.StartTime).Milliseconds(),
	}).Info(ctx, "Batch processing run finished")

	return stats, nil
}
