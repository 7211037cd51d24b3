// api/handlers/runtime_handler.go
package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/buildloom/loom-backend/api/models"
	"github.com/buildloom/loom-backend/internal/domain"
	"github.com/buildloom/loom-backend/internal/storage"
)

// RuntimeHandler serves the public by-slug endpoint the app runtime reads.
type RuntimeHandler struct {
	DB *sql.DB
}

func NewRuntimeHandler(db *sql.DB) *RuntimeHandler {
	return &RuntimeHandler{DB: db}
}

// GetBySlug returns runtime info for a running app. Stopped apps answer
// with a stopped marker rather than a 404 so the runtime can render a
// friendly page.
func (h *RuntimeHandler) GetBySlug(c *gin.Context) {
	appSlug := c.Param("slug")

	app, err := storage.GetAppBySlug(c.Request.Context(), h.DB, appSlug)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if app.Status != domain.AppStatusRunning {
		c.JSON(http.StatusOK, models.RuntimeAppResponse{
			Status:  "stopped",
			Message: "This app is currently stopped",
		})
		return
	}

	resp := models.RuntimeAppResponse{
		Status: "running",
		App:    &models.RuntimeAppInfo{ID: app.ID, Name: app.Name, Slug: app.Slug},
	}

	rc, err := storage.GetRuntimeConfig(c.Request.Context(), h.DB, app.ID)
	if err == nil {
		resp.RuntimeConfig = &models.RuntimeConfig{DBSchema: rc.DBSchema, BasePath: rc.PublicBasePath}
	} else if !errors.Is(err, storage.ErrRuntimeConfigNotFound) {
		_ = c.Error(err)
		return
	}

	bp, err := storage.GetLatestBlueprint(c.Request.Context(), h.DB, app.ID)
	if err == nil {
		resp.Blueprint = bp.BlueprintJSON
	} else if !errors.Is(err, storage.ErrBlueprintNotFound) {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
