package router

import (
	"context"
	"net/http"
	"time"

	"github.com/Brianwan04/PixBackend/constant"
	"github.com/Brianwan04/PixBackend/controller"
	"github.com/Brianwan04/PixBackend/middleware"
	"github.com/gin-gonic/gin"
)

var startedAt = time.Now()

// SetApiRouter wires the static file mounts, the service health route,
// and the image API under /api/images.
func SetApiRouter(ctx context.Context, engine *gin.Engine, imageController *controller.ImageController) {
	engine.Static(constant.ProcessedURLPrefix, constant.ProcessedDir)
	engine.Static(constant.UploadsURLPrefix, constant.PublicUploadsDir)

	engine.GET("/health", serviceHealth)

	api := engine.Group("/api/images")
	api.Use(middleware.RateLimit(ctx))
	{
		api.GET("/operations", imageController.GetOperations)
		api.GET("/styles", imageController.GetStyles)
		api.GET("/health", imageController.HealthCheck)

		api.POST("/remove-background", middleware.SingleImage("image"), imageController.RemoveBackground)
		api.POST("/enhance", middleware.SingleImage("image"), imageController.EnhanceImage)
		api.POST("/magic-eraser", middleware.ImageFields("image", "mask"), imageController.MagicEraser)
		api.POST("/create-avatar", middleware.AnyImages(4, "main_face_image", "image"), imageController.CreateAvatar)
		api.POST("/ai-art", middleware.AnyImages(2, "image", "image_to_become"), imageController.AiArt)
		api.POST("/text-to-image", imageController.TextToImage)
		api.POST("/upscale", middleware.SingleImage("image"), imageController.UpscaleImage)
		api.POST("/style-transfer", middleware.SingleImage("image"), imageController.StyleTransfer)
		api.POST("/create-mockup", middleware.SingleImage("image"), imageController.CreateMockup)
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Route not found",
			"path":  c.Request.URL.Path,
			"available_endpoints": []string{
				"GET /health",
				"GET /api/images/operations",
				"GET /api/images/styles",
				"GET /api/images/health",
				"POST /api/images/remove-background",
				"POST /api/images/enhance",
				"POST /api/images/magic-eraser",
				"POST /api/images/create-avatar",
				"POST /api/images/ai-art",
				"POST /api/images/text-to-image",
				"POST /api/images/upscale",
				"POST /api/images/style-transfer",
				"POST /api/images/create-mockup",
			},
		})
	})
}

func serviceHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"service":   "PixBackend",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(startedAt).Seconds(),
		"features": []string{
			"Background Remover",
			"AI Enhancer",
			"Magic Eraser",
			"Avatar Creator",
			"Text to Image",
			"Image Upscale",
			"Style Transfer",
			"Mockup Generator",
			"AI Art",
		},
	})
}
