package app

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/noah-isme/edusmart-import-api/internal/handler"
	"github.com/noah-isme/edusmart-import-api/internal/middleware"
	"github.com/noah-isme/edusmart-import-api/internal/models"
	"github.com/noah-isme/edusmart-import-api/pkg/config"
	"github.com/noah-isme/edusmart-import-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/edusmart-import-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/edusmart-import-api/pkg/middleware/requestid"
)

// Router builds the HTTP engine with every route mounted.
func (a *App) Router() (*gin.Engine, error) {
	if a.Config.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(a.Logger))
	r.Use(corsmiddleware.New(a.Config.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(a.Metrics))

	metricsHandler := handler.NewMetricsHandler(a.Metrics, a.DB)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if a.Config.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	uploadLimit, err := middleware.RateLimit(a.Config.Uploads.RateLimit, a.Redis, a.Logger)
	if err != nil {
		return nil, err
	}

	uploads := handler.NewUploadHandler(a.Imports, a.Staging, a.Stats, a.Validator, a.Logger, a.Config.Uploads.MaxFileSizeBytes)
	batches := handler.NewBatchHandler(a.Batches)

	api := r.Group(a.Config.APIPrefix)
	upload := api.Group("/upload", middleware.JWT(a.Auth), middleware.RequireRoles(models.RoleAdmin))
	{
		upload.GET("/templates/:type", uploads.Template)
		upload.GET("/stats", uploads.Stats)
		upload.GET("/history", uploads.History)
		upload.POST("/generate-batches", batches.Generate)
		upload.GET("/batch-analysis/:academicYear/:semester", batches.Analysis)
		upload.GET("/batches/:name/roster", batches.Roster)
		upload.POST("/:type", uploadLimit, uploads.Upload)
	}

	return r, nil
}
