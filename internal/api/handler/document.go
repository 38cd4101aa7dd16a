package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/casedesk/caseintake/internal/api/middleware"
	"github.com/casedesk/caseintake/internal/logger"
	"github.com/casedesk/caseintake/internal/service"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// DocumentHandler handles document upload and processing endpoints.
type DocumentHandler struct {
	uploads   *service.UploadService
	processor *service.ProcessorService
}

// NewDocumentHandler creates a new document handler.
// Parameters:
//   - uploads: upload service instance.
//   - processor: processor service instance.
// Returns:
//   - *DocumentHandler: initialized handler.
func NewDocumentHandler(uploads *service.UploadService, processor *service.ProcessorService) *DocumentHandler {
	return &DocumentHandler{
		uploads:   uploads,
		processor: processor,
	}
}

type uploadRequest struct {
	FileName string `json:"file_name" binding:"required"`
	MimeType string `json:"mime_type" binding:"required"`
	FileSize int64  `json:"file_size" binding:"required"`
}

// RequestUpload handles POST /api/v1/documents/upload.
// Issues a presigned PUT URL for direct upload to object storage.
func (h *DocumentHandler) RequestUpload(c *gin.Context) {
	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	grant, err := h.uploads.RequestUpload(c.Request.Context(), &service.UploadRequest{
		FileName: req.FileName,
		MimeType: req.MimeType,
		FileSize: req.FileSize,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidFileName) || errors.Is(err, service.ErrFileTooLarge) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to prepare upload: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, grant)
}

type completeUploadRequest struct {
	FileName   string `json:"file_name" binding:"required"`
	MimeType   string `json:"mime_type" binding:"required"`
	UploaderID string `json:"uploader_id" binding:"required"`
}

// CompleteUpload handles POST /api/v1/documents/:id/complete.
// Registers an uploaded object as a pending document.
func (h *DocumentHandler) CompleteUpload(c *gin.Context) {
	var req completeUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	doc, err := h.uploads.CompleteUpload(c.Request.Context(), &service.CompleteUploadRequest{
		DocumentID: c.Param("id"),
		FileName:   req.FileName,
		MimeType:   req.MimeType,
		UploaderID: req.UploaderID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUploadNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrDuplicateContent):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidFileName), errors.Is(err, service.ErrFileTooLarge):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to complete upload: " + err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusCreated, doc)
}

// GetDocument handles GET /api/v1/documents/:id.
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	doc, err := h.uploads.GetDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load document: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, doc)
}

// GetDownloadURL handles GET /api/v1/documents/:id/download.
// Issues a presigned GET URL so the client fetches the bytes directly
// from object storage.
func (h *DocumentHandler) GetDownloadURL(c *gin.Context) {
	grant, err := h.uploads.DownloadURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to prepare download: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, grant)
}

// ProcessDocument handles POST /api/v1/documents/:id/process.
// Accepts the request and runs text extraction in the background; the
// resulting job is observable through the jobs endpoints.
func (h *DocumentHandler) ProcessDocument(c *gin.Context) {
	documentID := c.Param("id")

	if _, err := h.uploads.GetDocument(c.Request.Context(), documentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load document: " + err.Error(),
		})
		return
	}

	// Detach from the request so processing survives client disconnect,
	// keeping the request's tracing fields. The gin context is recycled
	// once the handler returns, so resolve the logger before spawning.
	ctx := context.WithoutCancel(c.Request.Context())
	log := middleware.GetLogger(c)
	go func() {
		if _, err := h.processor.ProcessDocument(ctx, documentID); err != nil {
			log.WithError(err).WithField(logger.FieldDocumentID, documentID).
				Error("Background processing failed")
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"document_id": documentID,
		"status":      "accepted",
	})
}
