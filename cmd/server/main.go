// cmd/server/main.go
package main

import (
	"os"

	"github.com/buildloom/loom-backend/api"
	"github.com/buildloom/loom-backend/config"
	"github.com/buildloom/loom-backend/internal/deploy"
	"github.com/buildloom/loom-backend/internal/janitor"
	"github.com/buildloom/loom-backend/internal/llm"
	"github.com/buildloom/loom-backend/internal/logger"
	"github.com/buildloom/loom-backend/internal/orchestrator"
	"github.com/buildloom/loom-backend/internal/provision"
	"github.com/buildloom/loom-backend/internal/storage"
)

var (
	customLog = logger.NewLogger()
)

func main() {
	customLog.Println("Starting Loom backend server...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		customLog.Fatalf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	// 2. Initialize Control-Plane Database Connection
	controlDB, err := storage.ConnectControlPlaneDB(cfg)
	if err != nil {
		customLog.Fatalf("Failed to initialize control-plane database: %v", err)
		os.Exit(1)
	}
	defer func() {
		customLog.Println("Closing control-plane database connection...")
		if err := controlDB.Close(); err != nil {
			customLog.Printf("Error closing control-plane database: %v", err)
		}
	}()

	// 3. Build Collaborators
	llmClient := llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)
	provisioner := provision.NewProvisioner(controlDB)
	ports := deploy.NewPortRegistry(cfg.DeployPortStart, cfg.DeployPortEnd)
	deployer := deploy.NewLocalDeployer(cfg.GeneratedAppsDir, ports)
	orch := orchestrator.New(controlDB, llmClient, provisioner, deployer, cfg.LLMModel)

	// 4. Start the Stale-Job Janitor
	sweeper := janitor.New(controlDB, cfg.StaleJobAfter)
	if err := sweeper.Start(); err != nil {
		customLog.Fatalf("Failed to start janitor: %v", err)
	}
	defer sweeper.Stop()

	// 5. Setup Router (passing dependencies)
	router := api.SetupRouter(controlDB, cfg, orch)

	// 6. Start Server
	customLog.Printf("Server listening on %s", cfg.ServerPort)
	if err := router.Run(cfg.ServerPort); err != nil {
		customLog.Fatalf("Failed to start server: %v", err)
	}
}
