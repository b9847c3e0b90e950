// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/lexfield/filings-backend/internal/config"
	"github.com/lexfield/filings-backend/internal/handlers"
	"github.com/lexfield/filings-backend/internal/middleware"
	"github.com/lexfield/filings-backend/internal/services"
	"github.com/lexfield/filings-backend/internal/utils"
)

func Initialize(db *gorm.DB, rdb *redis.Client, cfg *config.Config) (*gin.Engine, error) {
	// Initialize services
	notificationService := services.NewNotificationService(cfg)
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}
	sequenceService := services.NewSequenceService(db, rdb)
	paymentService := services.NewPaymentService(cfg)

	contactService := services.NewContactService(db, rdb, notificationService)
	copyrightService := services.NewCopyrightService(db, sequenceService, storageService, paymentService, notificationService)
	patentService := services.NewPatentService(db, sequenceService, storageService, paymentService, notificationService)

	// Initialize handlers
	contactHandler := handlers.NewContactHandler(contactService)
	copyrightHandler := handlers.NewCopyrightHandler(copyrightService, storageService, cfg.Upload.MaxFiles)
	patentHandler := handlers.NewPatentHandler(patentService, storageService, cfg.Upload.MaxFiles)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()
	r.MaxMultipartMemory = cfg.Upload.MaxFileSize

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// Uploaded files are also served statically for preview links
	r.Static("/uploads", cfg.Upload.Root)

	api := r.Group("/api")
	{
		// Contact routes (submission is public, management is admin-only)
		contact := api.Group("/contact")
		{
			contact.POST("", middleware.ContactRateLimit(), contactHandler.Create)
			contact.GET("", middleware.AuthRequired(), middleware.AdminRequired(), contactHandler.List)
			contact.GET("/:id", middleware.AuthRequired(), middleware.AdminRequired(), contactHandler.Get)
			contact.PATCH("/:id/status", middleware.AuthRequired(), middleware.AdminRequired(), contactHandler.UpdateStatus)
			contact.DELETE("/:id", middleware.AuthRequired(), middleware.AdminRequired(), contactHandler.Delete)
		}

		// Copyright application routes
		copyright := api.Group("/copyright")
		copyright.Use(middleware.AuthRequired())
		{
			copyright.POST("", copyrightHandler.Create)
			copyright.GET("", copyrightHandler.List)
			copyright.GET("/:id", copyrightHandler.Get)
			copyright.POST("/:id/primary-file", middleware.UploadRateLimit(), copyrightHandler.UploadPrimaryFile)
			copyright.POST("/:id/supporting-documents", middleware.UploadRateLimit(), copyrightHandler.UploadSupportingDocuments)
			copyright.PATCH("/:id/step", copyrightHandler.UpdateStep)
			copyright.POST("/:id/payment", copyrightHandler.RecordPayment)
			copyright.PATCH("/:id/status", middleware.AdminRequired(), copyrightHandler.UpdateStatus)
			copyright.GET("/:id/download/:fileId", copyrightHandler.Download)
			copyright.DELETE("/:id", copyrightHandler.Delete)
		}

		// Patent application routes
		patents := api.Group("/patents")
		patents.Use(middleware.AuthRequired())
		{
			patents.POST("", patentHandler.Create)
			patents.GET("", patentHandler.List)
			patents.GET("/:id", patentHandler.Get)
			patents.POST("/:id/technical-drawings", middleware.UploadRateLimit(), patentHandler.UploadTechnicalDrawings)
			patents.POST("/:id/supporting-documents", middleware.UploadRateLimit(), patentHandler.UploadSupportingDocuments)
			patents.PATCH("/:id/step", patentHandler.UpdateStep)
			patents.POST("/:id/payment", patentHandler.RecordPayment)
			patents.PATCH("/:id/status", middleware.AdminRequired(), patentHandler.UpdateStatus)
			patents.GET("/:id/download/:fileId", patentHandler.Download)
			patents.DELETE("/:id", patentHandler.Delete)
		}
	}

	// 404 handler
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Endpoint not found",
			},
		})
	})

	return r, nil
}
