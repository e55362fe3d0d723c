package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/minhvd/bgremover-be/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK

		dbErr := deps.DBClient.HealthCheck(c.Request.Context())
		brokerOK := deps.RabbitClient.IsConnected()
		if dbErr != nil || !brokerOK {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":   status,
			"service":  "bgremover-api-service",
			"database": dbErr == nil,
			"broker":   brokerOK,
		})
	})

	// Stored files (originals and processed results)
	r.Static(handler.FilesRoutePrefix, deps.Store.Root())

	// Initialize image handler
	imageHandler := handler.NewImageHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		images := v1.Group("/images")
		{
			// POST /api/v1/images - Upload an image for background removal
			images.POST("", imageHandler.UploadImage)

			// GET /api/v1/images - List images with filtering and pagination
			images.GET("", imageHandler.ListImages)

			// GET /api/v1/images/:image_id - Get image metadata and status
			images.GET("/:image_id", imageHandler.GetImage)

			// GET /api/v1/images/:image_id/original - Download the original upload
			images.GET("/:image_id/original", imageHandler.DownloadOriginal)

			// GET /api/v1/images/:image_id/result - Download the processed image
			images.GET("/:image_id/result", imageHandler.DownloadResult)

			// DELETE /api/v1/images/:image_id - Delete record and files
			images.DELETE("/:image_id", imageHandler.DeleteImage)
		}
	}

	return r
}
