package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	"github.com/ignatzorin/civic-backend/internal/config"
	"github.com/ignatzorin/civic-backend/internal/http/handlers"
	"github.com/ignatzorin/civic-backend/internal/http/middleware"
	"github.com/ignatzorin/civic-backend/internal/interface/http/handler"
)

func SetupRouter(
	cfg *config.Config,
	tokens middleware.AccessParser,
	limiterStore limiter.Store,
	healthHandler *handlers.HealthHandler,
	wsHandler *handlers.WSHandler,
	complaintHandler *handler.ComplaintHandler,
	adminHandler *handler.AdminHandler,
	rewardHandler *handler.RewardHandler,
	mapHandler *handler.MapHandler,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	if cfg.StorageDriver == config.StorageDriverLocal {
		r.StaticFS("/media", http.Dir(cfg.MediaStoragePath))
	}

	api := r.Group("/api")
	api.GET("/ws", wsHandler.Handle)

	writeLimit := middleware.RateLimitMiddleware(limiterStore, cfg.RateLimitLimit, cfg.RateLimitPeriod)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(tokens))
	{
		protected.POST("/complaints", writeLimit, complaintHandler.Submit)
		protected.GET("/complaints/my", complaintHandler.ListMy)
		protected.GET("/complaints/:id", middleware.UUIDValidator("id"), complaintHandler.Get)

		protected.GET("/rewards/my", rewardHandler.My)
		protected.POST("/rewards/:id/redeem", writeLimit, middleware.UUIDValidator("id"), rewardHandler.Redeem)

		protected.GET("/map", mapHandler.Get)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokens), middleware.RequireAdmin())
	{
		admin.GET("/complaints", adminHandler.List)
		admin.GET("/stats", adminHandler.Stats)
		admin.PUT("/complaints/:id/status", middleware.UUIDValidator("id"), adminHandler.UpdateStatus)
		admin.PUT("/complaints/:id/urgency", middleware.UUIDValidator("id"), adminHandler.SetUrgency)
		admin.PUT("/complaints/:id/notes", middleware.UUIDValidator("id"), adminHandler.SetNotes)
	}

	return r
}
