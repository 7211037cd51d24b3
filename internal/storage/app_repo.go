// internal/storage/app_repo.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/buildloom/loom-backend/internal/domain"
)

// Specific errors for app operations. "Not found" deliberately covers
// "exists but not yours": owner-scoped queries never disclose existence.
var (
	ErrAppNotFound          = errors.New("app not found")
	ErrSlugExists           = errors.New("app slug already exists")
	ErrIllegalAppTransition = errors.New("illegal app status transition")
)

// Execer covers *sql.DB and *sql.Tx so app writes can join the caller's
// transaction.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateApp inserts a new app record in DRAFT status.
func CreateApp(ctx context.Context, db Execer, app *domain.App) error {
	sqlStatement := `
		INSERT INTO control_plane.apps (id, owner_user_id, name, slug, status)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := db.ExecContext(ctx, sqlStatement, app.ID, app.OwnerUserID, app.Name, app.Slug, app.Status)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return ErrSlugExists
		}
		customLog.Warnf("Storage: Failed to insert app '%s': %v", app.Slug, err)
		return fmt.Errorf("database error creating app: %w", err)
	}
	return nil
}

const appColumns = `id, owner_user_id, name, slug, status, created_at, updated_at`

func scanApp(row *sql.Row) (*domain.App, error) {
	var app domain.App
	err := row.Scan(&app.ID, &app.OwnerUserID, &app.Name, &app.Slug, &app.Status, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAppNotFound
		}
		return nil, fmt.Errorf("database error finding app: %w", err)
	}
	return &app, nil
}

// GetApp retrieves an app by id, scoped to its owner.
func GetApp(ctx context.Context, db Execer, appID, ownerUserID string) (*domain.App, error) {
	sqlStatement := `SELECT ` + appColumns + ` FROM control_plane.apps WHERE id = $1 AND owner_user_id = $2`
	return scanApp(db.QueryRowContext(ctx, sqlStatement, appID, ownerUserID))
}

// GetAppByID retrieves an app without owner scoping. Internal use only
// (orchestrator, janitor); handlers must use GetApp.
func GetAppByID(ctx context.Context, db Execer, appID string) (*domain.App, error) {
	sqlStatement := `SELECT ` + appColumns + ` FROM control_plane.apps WHERE id = $1`
	return scanApp(db.QueryRowContext(ctx, sqlStatement, appID))
}

// GetAppBySlug retrieves an app by its public slug (unscoped; used by the
// public runtime endpoint).
func GetAppBySlug(ctx context.Context, db *sql.DB, appSlug string) (*domain.App, error) {
	sqlStatement := `SELECT ` + appColumns + ` FROM control_plane.apps WHERE slug = $1`
	return scanApp(db.QueryRowContext(ctx, sqlStatement, appSlug))
}

// ListApps returns all apps owned by a user, newest first.
func ListApps(ctx context.Context, db *sql.DB, ownerUserID string) ([]domain.App, error) {
	sqlStatement := `SELECT ` + appColumns + ` FROM control_plane.apps WHERE owner_user_id = $1 ORDER BY created_at DESC`
	rows, err := db.QueryContext(ctx, sqlStatement, ownerUserID)
	if err != nil {
		customLog.Warnf("Storage: Failed to list apps for user %s: %v", ownerUserID, err)
		return nil, fmt.Errorf("database error listing apps: %w", err)
	}
	defer rows.Close()

	apps := make([]domain.App, 0)
	for rows.Next() {
		var app domain.App
		if err := rows.Scan(&app.ID, &app.OwnerUserID, &app.Name, &app.Slug, &app.Status, &app.CreatedAt, &app.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed scanning app row: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading app rows: %w", err)
	}
	return apps, nil
}

// UpdateAppIdentity sets an app's name and slug (after slug allocation).
func UpdateAppIdentity(ctx context.Context, db Execer, appID, name, appSlug string) error {
	sqlStatement := `UPDATE control_plane.apps SET name = $2, slug = $3, updated_at = now() WHERE id = $1`
	_, err := db.ExecContext(ctx, sqlStatement, appID, name, appSlug)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return ErrSlugExists
		}
		customLog.Warnf("Storage: Failed to update app %s identity: %v", appID, err)
		return fmt.Errorf("database error updating app: %w", err)
	}
	return nil
}

// SetAppStatus moves an app to the target status, enforcing transition
// legality inside the UPDATE itself so concurrent writers cannot race the
// check.
func SetAppStatus(ctx context.Context, db Execer, appID string, target domain.AppStatus) error {
	sqlStatement := `
		UPDATE control_plane.apps SET status = $2, updated_at = now()
		WHERE id = $1 AND status = ANY($3)`
	result, err := db.ExecContext(ctx, sqlStatement, appID, target, pq.Array(legalSources(target)))
	if err != nil {
		customLog.Warnf("Storage: Failed to set app %s status to %s: %v", appID, target, err)
		return fmt.Errorf("database error updating app status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("database error updating app status: %w", err)
	}
	if n == 0 {
		return ErrIllegalAppTransition
	}
	return nil
}

// SetAppStatusOwned is the owner-scoped variant used by start/stop
// handlers. A missing row and a non-owned row are indistinguishable.
func SetAppStatusOwned(ctx context.Context, db Execer, appID, ownerUserID string, target domain.AppStatus) error {
	sqlStatement := `
		UPDATE control_plane.apps SET status = $2, updated_at = now()
		WHERE id = $1 AND owner_user_id = $3 AND status = ANY($4)`
	result, err := db.ExecContext(ctx, sqlStatement, appID, target, ownerUserID, pq.Array(legalSources(target)))
	if err != nil {
		customLog.Warnf("Storage: Failed to set app %s status to %s: %v", appID, target, err)
		return fmt.Errorf("database error updating app status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("database error updating app status: %w", err)
	}
	if n == 0 {
		return ErrAppNotFound
	}
	return nil
}

// legalSources enumerates the statuses from which target is reachable.
func legalSources(target domain.AppStatus) []string {
	all := []domain.AppStatus{
		domain.AppStatusDraft,
		domain.AppStatusRunning,
		domain.AppStatusStopped,
		domain.AppStatusError,
		domain.AppStatusDeleting,
	}
	sources := make([]string, 0, len(all))
	for _, s := range all {
		if s.CanTransitionTo(target) {
			sources = append(sources, string(s))
		}
	}
	return sources
}

// SlugExists probes slug uniqueness, excluding the given app id so rename
// operations do not collide with themselves.
func SlugExists(ctx context.Context, db *sql.DB, appSlug string, excludeAppID string) (bool, error) {
	sqlStatement := `SELECT EXISTS(SELECT 1 FROM control_plane.apps WHERE slug = $1 AND id <> COALESCE(NULLIF($2, ''), '00000000-0000-0000-0000-000000000000')::uuid)`
	var exists bool
	if err := db.QueryRowContext(ctx, sqlStatement, appSlug, excludeAppID).Scan(&exists); err != nil {
		return false, fmt.Errorf("database error probing slug: %w", err)
	}
	return exists, nil
}

// DeleteApp removes the app row itself. Dependent rows are deleted first
// by the caller (and cascade as a safety net).
func DeleteApp(ctx context.Context, db Execer, appID string) error {
	sqlStatement := `DELETE FROM control_plane.apps WHERE id = $1`
	result, err := db.ExecContext(ctx, sqlStatement, appID)
	if err != nil {
		customLog.Warnf("Storage: Failed to delete app %s: %v", appID, err)
		return fmt.Errorf("database error deleting app: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("database error deleting app: %w", err)
	}
	if n == 0 {
		return ErrAppNotFound
	}
	return nil
}
