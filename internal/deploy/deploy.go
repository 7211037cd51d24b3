// internal/deploy/deploy.go
package deploy

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/buildloom/loom-backend/internal/blueprint"
	"github.com/buildloom/loom-backend/internal/logger"
)

var customLog = logger.NewLogger()

// Deployer is the code-generation/deployment collaborator. A failed
// deploy leaves the app usable as schema-only; callers treat errors as
// degradation, not fatal.
type Deployer interface {
	Deploy(ctx context.Context, appID string, doc *blueprint.Document, schemaName string) (string, error)
	Teardown(ctx context.Context, appID string) error
}

// deployMetadata is what gets written to metadata.json in each app dir.
type deployMetadata struct {
	AppID    string   `json:"app_id"`
	AppName  string   `json:"app_name"`
	AppSlug  string   `json:"app_slug"`
	Port     int      `json:"port"`
	DBSchema string   `json:"db_schema"`
	Status   string   `json:"status"`
	Entities []string `json:"entities"`
}

// LocalDeployer materializes an app dir with deployment metadata and a
// reserved port. It stops short of rendering and running the generated
// service itself.
type LocalDeployer struct {
	appsDir string
	ports   *PortRegistry
}

func NewLocalDeployer(appsDir string, ports *PortRegistry) *LocalDeployer {
	return &LocalDeployer{appsDir: appsDir, ports: ports}
}

// Deploy allocates a port, writes metadata.json under the app's directory
// and returns the backend base URL.
func (d *LocalDeployer) Deploy(ctx context.Context, appID string, doc *blueprint.Document, schemaName string) (string, error) {
	appDir := filepath.Join(d.appsDir, appID)
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create app dir: %w", err)
	}

	port, err := d.ports.Allocate(appID)
	if err != nil {
		return "", fmt.Errorf("failed to allocate port for app %s: %w", appID, err)
	}

	entities := make([]string, 0, len(doc.Tables()))
	for _, t := range doc.Tables() {
		entities = append(entities, t.Name)
	}
	app := doc.App()
	meta := deployMetadata{
		AppID:    appID,
		AppName:  app.Name,
		AppSlug:  app.Slug,
		Port:     port,
		DBSchema: schemaName,
		Status:   "generated",
		Entities: entities,
	}
	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		d.ports.Release(appID)
		return "", fmt.Errorf("failed to encode deploy metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(appDir, "metadata.json"), raw, 0o644); err != nil {
		d.ports.Release(appID)
		return "", fmt.Errorf("failed to write deploy metadata: %w", err)
	}

	baseURL := fmt.Sprintf("http://localhost:%d/api", port)
	customLog.Printf("Deploy: App %s staged at %s (%s)", appID, appDir, baseURL)
	return baseURL, nil
}

// Teardown releases the app's port and removes its directory.
func (d *LocalDeployer) Teardown(ctx context.Context, appID string) error {
	d.ports.Release(appID)
	appDir := filepath.Join(d.appsDir, appID)
	if err := os.RemoveAll(appDir); err != nil {
		return fmt.Errorf("failed to remove app dir: %w", err)
	}
	customLog.Printf("Deploy: App %s torn down", appID)
	return nil
}
