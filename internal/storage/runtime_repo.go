// internal/storage/runtime_repo.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/buildloom/loom-backend/internal/domain"
)

// Specific errors for runtime config operations
var (
	ErrRuntimeConfigNotFound = errors.New("runtime config not found")
)

// CreateRuntimeConfig inserts the one-to-one runtime record for an app.
func CreateRuntimeConfig(ctx context.Context, db Execer, rc *domain.AppRuntimeConfig) error {
	sqlStatement := `
		INSERT INTO control_plane.app_runtime_config (app_id, db_schema, public_base_path, enabled)
		VALUES ($1, $2, $3, $4)`
	if _, err := db.ExecContext(ctx, sqlStatement, rc.AppID, rc.DBSchema, rc.PublicBasePath, rc.Enabled); err != nil {
		customLog.Warnf("Storage: Failed to create runtime config for app %s: %v", rc.AppID, err)
		return fmt.Errorf("database error creating runtime config: %w", err)
	}
	return nil
}

// GetRuntimeConfig fetches the runtime record for an app.
func GetRuntimeConfig(ctx context.Context, db *sql.DB, appID string) (*domain.AppRuntimeConfig, error) {
	sqlStatement := `
		SELECT app_id, db_schema, public_base_path, enabled
		FROM control_plane.app_runtime_config
		WHERE app_id = $1`
	var rc domain.AppRuntimeConfig
	err := db.QueryRowContext(ctx, sqlStatement, appID).Scan(&rc.AppID, &rc.DBSchema, &rc.PublicBasePath, &rc.Enabled)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRuntimeConfigNotFound
		}
		customLog.Warnf("Storage: Failed to find runtime config for app %s: %v", appID, err)
		return nil, fmt.Errorf("database error finding runtime config: %w", err)
	}
	return &rc, nil
}

// SetRuntimeEnabled flips serving on or off for an app's runtime.
func SetRuntimeEnabled(ctx context.Context, db Execer, appID string, enabled bool) error {
	result, err := db.ExecContext(ctx,
		`UPDATE control_plane.app_runtime_config SET enabled = $1 WHERE app_id = $2`, enabled, appID)
	if err != nil {
		return fmt.Errorf("database error updating runtime config: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("database error checking runtime config update: %w", err)
	}
	if rows == 0 {
		return ErrRuntimeConfigNotFound
	}
	return nil
}

// DeleteRuntimeConfig removes the runtime record for an app.
func DeleteRuntimeConfig(ctx context.Context, db Execer, appID string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM control_plane.app_runtime_config WHERE app_id = $1`, appID); err != nil {
		return fmt.Errorf("database error deleting runtime config: %w", err)
	}
	return nil
}
