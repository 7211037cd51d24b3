// api/handlers/job_handler.go
package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/buildloom/loom-backend/internal/storage"
)

// JobHandler serves generation job lookups.
type JobHandler struct {
	DB *sql.DB
}

func NewJobHandler(db *sql.DB) *JobHandler {
	return &JobHandler{DB: db}
}

// Get returns one generation job with its raw LLM payloads. Ownership is
// verified through the job's app; a job on someone else's app is a 404.
func (h *JobHandler) Get(c *gin.Context) {
	userID := c.GetString("userId")
	jobID := c.Param("job_id")

	job, err := storage.GetJob(c.Request.Context(), h.DB, jobID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if _, err := storage.GetApp(c.Request.Context(), h.DB, job.AppID, userID); err != nil {
		_ = c.Error(storage.ErrJobNotFound)
		return
	}

	c.JSON(http.StatusOK, job)
}
