// internal/storage/blueprint_repo.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buildloom/loom-backend/internal/domain"
)

// Specific errors for blueprint snapshot operations
var (
	ErrBlueprintNotFound = errors.New("blueprint not found")
)

// InsertBlueprint stores a blueprint snapshot as the next version for its
// app. Snapshots are immutable once stored; repairs and edits always get a
// new version record.
func InsertBlueprint(ctx context.Context, db Execer, bp *domain.AppBlueprint) error {
	var validationErrors any
	if len(bp.ValidationErrors) > 0 {
		raw, err := json.Marshal(map[string][]string{"errors": bp.ValidationErrors})
		if err != nil {
			return fmt.Errorf("failed to encode validation errors: %w", err)
		}
		validationErrors = string(raw)
	}

	sqlStatement := `
		INSERT INTO control_plane.app_blueprints
			(id, app_id, version, blueprint_json, blueprint_hash, validation_status, validation_errors)
		VALUES ($1, $2,
			(SELECT COALESCE(MAX(version), 0) + 1 FROM control_plane.app_blueprints WHERE app_id = $2),
			$3, $4, $5, $6)
		RETURNING version`
	err := db.QueryRowContext(ctx, sqlStatement,
		bp.ID, bp.AppID, string(bp.BlueprintJSON), bp.BlueprintHash, bp.ValidationStatus, validationErrors,
	).Scan(&bp.Version)
	if err != nil {
		customLog.Warnf("Storage: Failed to insert blueprint for app %s: %v", bp.AppID, err)
		return fmt.Errorf("database error storing blueprint: %w", err)
	}
	return nil
}

// GetLatestBlueprint returns the most recent blueprint snapshot for an app.
func GetLatestBlueprint(ctx context.Context, db *sql.DB, appID string) (*domain.AppBlueprint, error) {
	sqlStatement := `
		SELECT id, app_id, version, blueprint_json, blueprint_hash, validation_status, validation_errors, created_at
		FROM control_plane.app_blueprints
		WHERE app_id = $1
		ORDER BY version DESC
		LIMIT 1`
	row := db.QueryRowContext(ctx, sqlStatement, appID)

	var bp domain.AppBlueprint
	var blueprintJSON string
	var hash, validationErrors sql.Null[string]
	err := row.Scan(&bp.ID, &bp.AppID, &bp.Version, &blueprintJSON, &hash, &bp.ValidationStatus, &validationErrors, &bp.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBlueprintNotFound
		}
		customLog.Warnf("Storage: Failed to find latest blueprint for app %s: %v", appID, err)
		return nil, fmt.Errorf("database error finding blueprint: %w", err)
	}
	bp.BlueprintJSON = []byte(blueprintJSON)
	if hash.Valid {
		bp.BlueprintHash = hash.V
	}
	if validationErrors.Valid {
		var wrapper struct {
			Errors []string `json:"errors"`
		}
		if err := json.Unmarshal([]byte(validationErrors.V), &wrapper); err == nil {
			bp.ValidationErrors = wrapper.Errors
		}
	}
	return &bp, nil
}

// DeleteBlueprintsForApp removes all blueprint snapshots belonging to an app.
func DeleteBlueprintsForApp(ctx context.Context, db Execer, appID string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM control_plane.app_blueprints WHERE app_id = $1`, appID); err != nil {
		return fmt.Errorf("database error deleting blueprints: %w", err)
	}
	return nil
}
