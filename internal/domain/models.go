// internal/domain/models.go
package domain

import (
	"encoding/json"
	"time"
)

// User defines the structure for user data in the control plane
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// App is a tenant-owned application record.
type App struct {
	ID          string    `json:"id"`
	OwnerUserID string    `json:"owner_user_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Status      AppStatus `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GenerationJob is one attempt to produce a Blueprint for an App.
// LLMRequest/LLMResponse are opaque audit blobs; any upstream shape is accepted.
type GenerationJob struct {
	ID           string          `json:"id"`
	AppID        string          `json:"app_id"`
	Status       JobStatus       `json:"status"`
	Model        string          `json:"model"`
	Prompt       string          `json:"prompt"`
	LLMRequest   json.RawMessage `json:"llm_request,omitempty"`
	LLMResponse  json.RawMessage `json:"llm_response,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// AppBlueprint is an immutable, hash-addressed snapshot of a Blueprint
// document. Repairs and edits create a new version record, never mutate.
type AppBlueprint struct {
	ID               string           `json:"id"`
	AppID            string           `json:"app_id"`
	Version          int              `json:"version"`
	BlueprintJSON    json.RawMessage  `json:"blueprint_json"`
	BlueprintHash    string           `json:"blueprint_hash"`
	ValidationStatus ValidationStatus `json:"validation_status"`
	ValidationErrors []string         `json:"validation_errors,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// AppRuntimeConfig is one-to-one with App. The schema name is derived from
// the App id, never from user input.
type AppRuntimeConfig struct {
	AppID          string `json:"app_id"`
	DBSchema       string `json:"db_schema"`
	PublicBasePath string `json:"public_base_path"`
	Enabled        bool   `json:"enabled"`
}
