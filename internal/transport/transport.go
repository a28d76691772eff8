package transport

import (
	"github.com/gin-gonic/gin"

	"github.com/ds124wfegd/image-modifier/internal/transport/middleware"
)

func InitRoutes(handler *PipelineHandler, allowedOrigin string) *gin.Engine {

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CORS(allowedOrigin))
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(300))

	router.POST("/generate", handler.Generate)
	router.POST("/generate-smart", handler.GenerateSmart)
	router.POST("/generate-variation", handler.GenerateVariation)
	router.POST("/edit-image", handler.EditImage)
	router.POST("/edit-image-smart", handler.EditImageSmart)
	router.POST("/analyze-only", handler.AnalyzeOnly)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "image-modifier",
		})
	})

	return router
}
