// api/models/app_models.go
package models

import (
	"encoding/json"

	"github.com/buildloom/loom-backend/internal/domain"
)

// --- App Request/Response Structs ---

// GenerateAppRequest asks for a new app to be generated from a prompt.
// Model optionally overrides the configured default.
type GenerateAppRequest struct {
	Prompt string `json:"prompt" binding:"required,min=3"`
	Model  string `json:"model"`
}

// GenerateAppResponse is the 202 payload: ids the client polls with.
type GenerateAppResponse struct {
	AppID  string `json:"app_id"`
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// AppListResponse wraps the owner's apps.
type AppListResponse struct {
	Apps  []domain.App `json:"apps"`
	Total int          `json:"total"`
}

// BlueprintResponse exposes one stored blueprint snapshot.
type BlueprintResponse struct {
	AppID            string          `json:"app_id"`
	Version          int             `json:"version"`
	Blueprint        json.RawMessage `json:"blueprint"`
	BlueprintHash    string          `json:"blueprint_hash"`
	ValidationStatus string          `json:"validation_status"`
	ValidationErrors []string        `json:"validation_errors,omitempty"`
}

// RuntimeAppResponse is the public by-slug payload consumed by the app
// runtime/renderer.
type RuntimeAppResponse struct {
	Status        string          `json:"status"`
	Message       string          `json:"message,omitempty"`
	App           *RuntimeAppInfo `json:"app,omitempty"`
	RuntimeConfig *RuntimeConfig  `json:"runtime_config,omitempty"`
	Blueprint     json.RawMessage `json:"blueprint,omitempty"`
}

type RuntimeAppInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type RuntimeConfig struct {
	DBSchema string `json:"db_schema"`
	BasePath string `json:"base_path"`
}
