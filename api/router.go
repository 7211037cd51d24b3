// api/router.go
package api

import (
	"database/sql"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/buildloom/loom-backend/api/handlers"
	"github.com/buildloom/loom-backend/api/middleware"
	"github.com/buildloom/loom-backend/config"
	"github.com/buildloom/loom-backend/internal/orchestrator"
)

// SetupRouter initializes the Gin router and sets up all routes.
func SetupRouter(controlDB *sql.DB, cfg *config.Config, orch *orchestrator.Orchestrator) *gin.Engine {
	router := gin.Default() // Includes Logger and Recovery

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	// Generation runs in the background, so the request rate itself can be
	// kept modest.
	ratelimiter := middleware.NewRateLimiter(60, time.Minute)
	router.Use(middleware.RateLimitMiddleware(ratelimiter))
	// Runs after Logger/Recovery but before routing, wrapping the handlers.
	router.Use(middleware.ErrorHandler())

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(controlDB, cfg)
	appHandler := handlers.NewAppHandler(controlDB, orch)
	jobHandler := handlers.NewJobHandler(controlDB)
	runtimeHandler := handlers.NewRuntimeHandler(controlDB)

	// --- Public Routes ---
	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/signup", authHandler.Signup)
		authRoutes.POST("/login", authHandler.Login)
	}
	// Runtime endpoint is public: the generated app's frontend reads it.
	router.GET("/runtime/apps/:slug", runtimeHandler.GetBySlug)

	// --- Protected Routes ---
	apiRoutes := router.Group("/api/v1")
	apiRoutes.Use(middleware.AuthMiddleware(cfg))
	{
		apiRoutes.GET("/me", authHandler.Me)

		apiRoutes.GET("/apps", appHandler.List)
		apiRoutes.POST("/apps/generate", appHandler.Generate)
		apiRoutes.GET("/apps/:app_id", appHandler.Get)
		apiRoutes.POST("/apps/:app_id/start", appHandler.Start)
		apiRoutes.POST("/apps/:app_id/stop", appHandler.Stop)
		apiRoutes.DELETE("/apps/:app_id", appHandler.Delete)
		apiRoutes.GET("/apps/:app_id/blueprints/latest", appHandler.LatestBlueprint)

		apiRoutes.GET("/jobs/:job_id", jobHandler.Get)
	}

	return router
}
