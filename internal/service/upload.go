package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/casedesk/caseintake/internal/domain"
	"github.com/casedesk/caseintake/internal/integrity"
	"github.com/casedesk/caseintake/internal/logger"
	"github.com/casedesk/caseintake/internal/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrInvalidFileName is returned when a file name is empty or escapes
	// its storage prefix.
	ErrInvalidFileName = errors.New("invalid file name")

	// ErrFileTooLarge is returned when a declared or actual file size
	// exceeds the configured limit.
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")

	// ErrUploadNotFound is returned when upload completion is requested
	// but no object exists at the expected storage key.
	ErrUploadNotFound = errors.New("uploaded object not found")

	// ErrDuplicateContent is returned when the uploaded bytes hash to a
	// content hash that is already registered. Content addressing makes
	// the existing document the canonical copy.
	ErrDuplicateContent = errors.New("document with identical content already exists")
)

// UploadDocumentStore is the subset of document persistence the upload
// service needs.
type UploadDocumentStore interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	GetByContentHash(ctx context.Context, contentHash string) (*domain.Document, error)
}

// UploadService manages the two-step upload exchange: clients request a
// presigned URL, PUT the content directly to object storage, then call
// back to register the document.
type UploadService struct {
	documents UploadDocumentStore
	storage   storage.ObjectStorage
	audit     AuditSink
	logger    *logger.Logger

	maxFileSize int64
	presignTTL  time.Duration
}

// UploadConfig holds configuration for the upload service.
type UploadConfig struct {
	MaxFileSize int64
	PresignTTL  time.Duration
}

// NewUploadService creates a new upload service.
func NewUploadService(
	documents UploadDocumentStore,
	objectStorage storage.ObjectStorage,
	audit AuditSink,
	log *logger.Logger,
	cfg *UploadConfig,
) *UploadService {
	if log == nil {
		log = logger.GetDefault()
	}
	maxSize := int64(50 * 1024 * 1024)
	ttl := 15 * time.Minute
	if cfg != nil {
		if cfg.MaxFileSize > 0 {
			maxSize = cfg.MaxFileSize
		}
		if cfg.PresignTTL > 0 {
			ttl = cfg.PresignTTL
		}
	}
	return &UploadService{
		documents:   documents,
		storage:     objectStorage,
		audit:       audit,
		logger:      log,
		maxFileSize: maxSize,
		presignTTL:  ttl,
	}
}

// log returns a logger from context if available, otherwise returns the default logger
func (s *UploadService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// UploadRequest describes a client's intent to upload a file.
type UploadRequest struct {
	FileName string
	MimeType string
	FileSize int64
}

// UploadGrant is the response to an upload request.
type UploadGrant struct {
	DocumentID string    `json:"document_id"`
	StorageKey string    `json:"storage_key"`
	UploadURL  string    `json:"upload_url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// RequestUpload validates the declared file metadata and issues a
// presigned PUT URL. No document record exists until CompleteUpload;
// abandoned grants leave nothing behind but an unreferenced object key.
func (s *UploadService) RequestUpload(ctx context.Context, req *UploadRequest) (*UploadGrant, error) {
	if err := validateFileName(req.FileName); err != nil {
		return nil, err
	}
	if req.FileSize <= 0 || req.FileSize > s.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, req.FileSize, s.maxFileSize)
	}

	documentID := uuid.New().String()
	key := storageKey(documentID, req.FileName)

	url, err := s.storage.PresignPut(ctx, key, req.MimeType, s.presignTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	s.log(ctx).WithFields(logger.Fields{
		logger.FieldDocumentID: documentID,
		"file_name":            req.FileName,
		logger.FieldSize:       req.FileSize,
	}).Info("Issued upload grant")

	return &UploadGrant{
		DocumentID: documentID,
		StorageKey: key,
		UploadURL:  url,
		ExpiresAt:  time.Now().Add(s.presignTTL),
	}, nil
}

// CompleteUploadRequest registers an object the client has finished
// uploading.
type CompleteUploadRequest struct {
	DocumentID string
	FileName   string
	MimeType   string
	UploaderID string
}

// CompleteUpload verifies the uploaded object exists, hashes its content
// and creates the document record in pending state, sealed with an
// evidence signature over its upload metadata.
func (s *UploadService) CompleteUpload(ctx context.Context, req *CompleteUploadRequest) (*domain.Document, error) {
	if err := validateFileName(req.FileName); err != nil {
		return nil, err
	}

	key := storageKey(req.DocumentID, req.FileName)

	meta, err := s.storage.GetMetadata(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUploadNotFound, key)
		}
		return nil, fmt.Errorf("failed to stat uploaded object: %w", err)
	}
	if meta.Size > s.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, meta.Size, s.maxFileSize)
	}

	reader, err := s.storage.Download(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded object: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded object: %w", err)
	}

	contentHash := integrity.Hash(data)

	if existing, err := s.documents.GetByContentHash(ctx, contentHash); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateContent, existing.ID)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check for duplicate content: %w", err)
	}

	record := integrity.BuildEvidenceRecord(contentHash, req.FileName, meta.Size, req.UploaderID, time.Now())

	doc := &domain.Document{
		ID:                req.DocumentID,
		FileName:          req.FileName,
		MimeType:          req.MimeType,
		FileSize:          meta.Size,
		StorageKey:        key,
		ContentHash:       contentHash,
		UploaderID:        req.UploaderID,
		EvidenceSignature: record.Signature,
		Status:            domain.DocumentStatusPending,
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document record: %w", err)
	}

	s.audit.Emit(ctx, &domain.AuditEvent{
		DocumentID: doc.ID,
		Action:     domain.AuditActionDocumentUploaded,
		Detail:     fmt.Sprintf("%s (%d bytes, sha256 %s)", doc.FileName, doc.FileSize, contentHash),
	})

	s.log(ctx).WithFields(logger.Fields{
		logger.FieldDocumentID: doc.ID,
		logger.FieldUploaderID: doc.UploaderID,
		logger.FieldSize:       doc.FileSize,
	}).Info("Upload completed")

	return doc, nil
}

// GetDocument retrieves a document by ID.
func (s *UploadService) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	return s.documents.GetByID(ctx, id)
}

// DownloadGrant is a short-lived link for fetching stored document content.
type DownloadGrant struct {
	DocumentID  string    `json:"document_id"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// DownloadURL issues a presigned GET URL for a document's stored content.
// The byte transfer bypasses this service, mirroring the upload side.
func (s *UploadService) DownloadURL(ctx context.Context, documentID string) (*DownloadGrant, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	url, err := s.storage.PresignGet(ctx, doc.StorageKey, s.presignTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to presign download: %w", err)
	}

	return &DownloadGrant{
		DocumentID:  doc.ID,
		DownloadURL: url,
		ExpiresAt:   time.Now().Add(s.presignTTL),
	}, nil
}

// VerifyDocument re-downloads a document's content and checks it against
// the recorded hash and evidence signature.
func (s *UploadService) VerifyDocument(ctx context.Context, doc *domain.Document) (bool, error) {
	reader, err := s.storage.Download(ctx, doc.StorageKey)
	if err != nil {
		return false, fmt.Errorf("failed to read stored object: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return false, fmt.Errorf("failed to read stored object: %w", err)
	}

	return integrity.Verify(data, doc.ContentHash), nil
}

func validateFileName(name string) error {
	if name == "" || strings.ContainsAny(name, "/\\") || path.Clean(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}
	return nil
}

func storageKey(documentID, fileName string) string {
	return documentID + "/" + fileName
}
