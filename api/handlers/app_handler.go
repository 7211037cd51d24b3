// api/handlers/app_handler.go
package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/buildloom/loom-backend/api/models"
	"github.com/buildloom/loom-backend/internal/orchestrator"
	"github.com/buildloom/loom-backend/internal/storage"
)

// AppHandler holds dependencies for app lifecycle handlers.
type AppHandler struct {
	DB           *sql.DB
	Orchestrator *orchestrator.Orchestrator
}

// NewAppHandler creates a new AppHandler with dependencies.
func NewAppHandler(db *sql.DB, orch *orchestrator.Orchestrator) *AppHandler {
	return &AppHandler{
		DB:           db,
		Orchestrator: orch,
	}
}

// Generate accepts a prompt and kicks off the generation pipeline. The
// response is a 202 with the app and job ids to poll; the pipeline itself
// runs in the background.
func (h *AppHandler) Generate(c *gin.Context) {
	var req models.GenerateAppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		customLog.Warnf("Generate binding error: %v", err)
		_ = c.Error(err)
		return
	}
	userID := c.GetString("userId")

	app, job, err := h.Orchestrator.Generate(c.Request.Context(), userID, req.Prompt, req.Model)
	if err != nil {
		customLog.Warnf("Failed to accept generation for user %s: %v", userID, err)
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusAccepted, models.GenerateAppResponse{
		AppID:  app.ID,
		JobID:  job.ID,
		Status: string(job.Status),
	})
}

// List returns all apps owned by the authenticated user.
func (h *AppHandler) List(c *gin.Context) {
	userID := c.GetString("userId")

	apps, err := storage.ListApps(c.Request.Context(), h.DB, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.AppListResponse{Apps: apps, Total: len(apps)})
}

// Get returns one owned app.
func (h *AppHandler) Get(c *gin.Context) {
	userID := c.GetString("userId")
	appID := c.Param("app_id")

	app, err := storage.GetApp(c.Request.Context(), h.DB, appID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, app)
}

// Start moves an owned app to RUNNING.
func (h *AppHandler) Start(c *gin.Context) {
	userID := c.GetString("userId")
	appID := c.Param("app_id")

	if err := h.Orchestrator.Start(c.Request.Context(), appID, userID); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "started"})
}

// Stop moves an owned app to STOPPED.
func (h *AppHandler) Stop(c *gin.Context) {
	userID := c.GetString("userId")
	appID := c.Param("app_id")

	if err := h.Orchestrator.Stop(c.Request.Context(), appID, userID); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}

// Delete tears an owned app down: schema, backend, rows.
func (h *AppHandler) Delete(c *gin.Context) {
	userID := c.GetString("userId")
	appID := c.Param("app_id")

	if err := h.Orchestrator.Delete(c.Request.Context(), appID, userID); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "App deleted successfully"})
}

// LatestBlueprint returns the newest blueprint snapshot for an owned app.
func (h *AppHandler) LatestBlueprint(c *gin.Context) {
	userID := c.GetString("userId")
	appID := c.Param("app_id")

	// Ownership first: an unowned app and a missing one both 404.
	if _, err := storage.GetApp(c.Request.Context(), h.DB, appID, userID); err != nil {
		_ = c.Error(err)
		return
	}

	bp, err := storage.GetLatestBlueprint(c.Request.Context(), h.DB, appID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.BlueprintResponse{
		AppID:            bp.AppID,
		Version:          bp.Version,
		Blueprint:        bp.BlueprintJSON,
		BlueprintHash:    bp.BlueprintHash,
		ValidationStatus: string(bp.ValidationStatus),
		ValidationErrors: bp.ValidationErrors,
	})
}
