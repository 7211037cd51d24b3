// internal/storage/database.go
package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // Driver registration

	"github.com/buildloom/loom-backend/config"
	"github.com/buildloom/loom-backend/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

// ConnectControlPlaneDB initializes the connection pool for the control-plane
// PostgreSQL database and ensures the control_plane schema and its tables
// exist. Provisioned tenant schemas live in the same database, one schema
// per app.
func ConnectControlPlaneDB(cfg *config.Config) (*sql.DB, error) {
	customLog.Printf("Storage: Initializing control-plane database")

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		customLog.Warnf("Storage: Failed to open control-plane db: %v", err)
		return nil, fmt.Errorf("failed to open control-plane db: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		customLog.Warnf("Storage: Failed to ping control-plane db: %v", err)
		return nil, fmt.Errorf("failed to connect to control-plane db: %w", err)
	}
	customLog.Println("Storage: Control-plane database connection successful.")

	if _, err = db.Exec(`CREATE SCHEMA IF NOT EXISTS control_plane`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure control_plane schema: %w", err)
	}

	statements := []struct {
		name string
		ddl  string
	}{
		{"users", `
		CREATE TABLE IF NOT EXISTS control_plane.users (
			id UUID PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`},
		{"apps", `
		CREATE TABLE IF NOT EXISTS control_plane.apps (
			id UUID PRIMARY KEY,
			owner_user_id UUID NOT NULL REFERENCES control_plane.users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			slug TEXT UNIQUE NOT NULL,
			status TEXT NOT NULL DEFAULT 'DRAFT',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`},
		{"app_blueprints", `
		CREATE TABLE IF NOT EXISTS control_plane.app_blueprints (
			id UUID PRIMARY KEY,
			app_id UUID NOT NULL REFERENCES control_plane.apps(id) ON DELETE CASCADE,
			version INTEGER NOT NULL DEFAULT 1,
			blueprint_json JSONB NOT NULL,
			blueprint_hash TEXT,
			validation_status TEXT NOT NULL DEFAULT 'VALID',
			validation_errors JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (app_id, version)
		);`},
		{"generation_jobs", `
		CREATE TABLE IF NOT EXISTS control_plane.generation_jobs (
			id UUID PRIMARY KEY,
			app_id UUID NOT NULL REFERENCES control_plane.apps(id) ON DELETE CASCADE,
			status TEXT NOT NULL DEFAULT 'QUEUED',
			model TEXT NOT NULL,
			prompt TEXT NOT NULL,
			llm_request JSONB,
			llm_response JSONB,
			error_message TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`},
		{"app_runtime_config", `
		CREATE TABLE IF NOT EXISTS control_plane.app_runtime_config (
			app_id UUID PRIMARY KEY REFERENCES control_plane.apps(id) ON DELETE CASCADE,
			db_schema TEXT NOT NULL,
			public_base_path TEXT NOT NULL,
			enabled BOOLEAN NOT NULL DEFAULT false
		);`},
	}

	for _, st := range statements {
		if _, err = db.Exec(st.ddl); err != nil {
			db.Close()
			customLog.Warnf("Storage: Failed to create %s table: %v", st.name, err)
			return nil, fmt.Errorf("failed to ensure %s table: %w", st.name, err)
		}
		customLog.Printf("Storage: %s table ensured.", st.name)
	}

	return db, nil
}
