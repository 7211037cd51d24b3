// api/handlers/app_handler_test.go
package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/buildloom/loom-backend/api/middleware"
)

func appTestRouter(t *testing.T, userID string) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	router := gin.New()
	router.Use(middleware.ErrorHandler())
	router.Use(func(c *gin.Context) { c.Set("userId", userID) })

	h := NewAppHandler(db, nil)
	router.GET("/api/v1/apps", h.List)
	router.GET("/api/v1/apps/:app_id", h.Get)
	router.GET("/api/v1/apps/:app_id/blueprints/latest", h.LatestBlueprint)
	jobs := NewJobHandler(db)
	router.GET("/api/v1/jobs/:job_id", jobs.Get)
	rt := NewRuntimeHandler(db)
	router.GET("/runtime/apps/:slug", rt.GetBySlug)
	return router, mock
}

func appRow(t *testing.T, id, owner, status string) *sqlmock.Rows {
	t.Helper()
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "owner_user_id", "name", "slug", "status", "created_at", "updated_at"}).
		AddRow(id, owner, "Todo Tracker", "todo-tracker", status, now, now)
}

func TestGetAppNotOwnedIs404(t *testing.T) {
	router, mock := appTestRouter(t, "user-2")

	// Owner-scoped query returns nothing for another user's app.
	mock.ExpectQuery(`SELECT .+ FROM control_plane\.apps WHERE id = \$1 AND owner_user_id = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_user_id", "name", "slug", "status", "created_at", "updated_at"}))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/apps/app-1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListAppsReturnsOwnersApps(t *testing.T) {
	router, mock := appTestRouter(t, "user-1")

	mock.ExpectQuery(`SELECT .+ FROM control_plane\.apps WHERE owner_user_id = \$1`).
		WillReturnRows(appRow(t, "app-1", "user-1", "RUNNING"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/apps", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Apps  []map[string]any `json:"apps"`
		Total int              `json:"total"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "todo-tracker", resp.Apps[0]["slug"])
}

func TestJobOnForeignAppIs404(t *testing.T) {
	router, mock := appTestRouter(t, "user-2")

	jobRows := sqlmock.NewRows([]string{"id", "app_id", "status", "model", "prompt", "llm_request", "llm_response", "error_message", "created_at", "updated_at"}).
		AddRow("job-1", "app-1", "SUCCEEDED", "m", "p", nil, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(`SELECT .+ FROM control_plane\.generation_jobs\s+WHERE id`).
		WillReturnRows(jobRows)
	// Ownership check comes back empty for this user.
	mock.ExpectQuery(`SELECT .+ FROM control_plane\.apps WHERE id = \$1 AND owner_user_id = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_user_id", "name", "slug", "status", "created_at", "updated_at"}))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/jobs/job-1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRuntimeStoppedAppAnswersStoppedMarker(t *testing.T) {
	router, mock := appTestRouter(t, "")

	mock.ExpectQuery(`SELECT .+ FROM control_plane\.apps WHERE slug = \$1`).
		WillReturnRows(appRow(t, "app-1", "user-1", "STOPPED"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/runtime/apps/todo-tracker", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "stopped", resp["status"])
	assert.Nil(t, resp["blueprint"])
}

func TestLatestBlueprintChecksOwnershipFirst(t *testing.T) {
	router, mock := appTestRouter(t, "user-1")

	mock.ExpectQuery(`SELECT .+ FROM control_plane\.apps WHERE id = \$1 AND owner_user_id = \$2`).
		WillReturnRows(appRow(t, "app-1", "user-1", "RUNNING"))
	bpRows := sqlmock.NewRows([]string{"id", "app_id", "version", "blueprint_json", "blueprint_hash", "validation_status", "validation_errors", "created_at"}).
		AddRow("bp-1", "app-1", 2, `{"version":3}`, "hash", "VALID", nil, time.Now())
	mock.ExpectQuery(`SELECT .+ FROM control_plane\.app_blueprints`).
		WillReturnRows(bpRows)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/apps/app-1/blueprints/latest", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(2), resp["version"])
	assert.Equal(t, "VALID", resp["validation_status"])
}
