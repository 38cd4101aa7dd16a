package api

import (
	"github.com/casedesk/caseintake/internal/api/handler"
	"github.com/casedesk/caseintake/internal/api/middleware"
	"github.com/casedesk/caseintake/internal/logger"
	"github.com/casedesk/caseintake/internal/repository"
	"github.com/casedesk/caseintake/internal/service"
	"github.com/gin-gonic/gin"
)

// RouterConfig holds router-level settings.
type RouterConfig struct {
	Mode string
	CORS middleware.CORSConfig
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	uploads *service.UploadService,
	processor *service.ProcessorService,
	jobRepo *repository.JobRepository,
	log *logger.Logger,
	cfg *RouterConfig,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(cfg.CORS))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	documentHandler := handler.NewDocumentHandler(uploads, processor)
	jobHandler := handler.NewJobHandler(jobRepo)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Documents
		v1.POST("/documents/upload", documentHandler.RequestUpload)
		v1.POST("/documents/:id/complete", documentHandler.CompleteUpload)
		v1.GET("/documents/:id", documentHandler.GetDocument)
		v1.GET("/documents/:id/download", documentHandler.GetDownloadURL)
		v1.POST("/documents/:id/process", documentHandler.ProcessDocument)
		v1.GET("/documents/:id/jobs", jobHandler.ListDocumentJobs)

		// Jobs
		v1.GET("/jobs/:id", jobHandler.GetJob)
	}

	return r
}
