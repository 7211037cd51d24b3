// internal/storage/job_repo.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/buildloom/loom-backend/internal/domain"
)

// Specific errors for generation job operations
var (
	ErrJobNotFound          = errors.New("generation job not found")
	ErrIllegalJobTransition = errors.New("illegal job status transition")
)

// CreateJob inserts a new generation job.
func CreateJob(ctx context.Context, db Execer, job *domain.GenerationJob) error {
	sqlStatement := `
		INSERT INTO control_plane.generation_jobs (id, app_id, status, model, prompt)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := db.ExecContext(ctx, sqlStatement, job.ID, job.AppID, job.Status, job.Model, job.Prompt)
	if err != nil {
		customLog.Warnf("Storage: Failed to insert job for app %s: %v", job.AppID, err)
		return fmt.Errorf("database error creating job: %w", err)
	}
	return nil
}

// GetJob retrieves a generation job by id.
func GetJob(ctx context.Context, db *sql.DB, jobID string) (*domain.GenerationJob, error) {
	sqlStatement := `
		SELECT id, app_id, status, model, prompt, llm_request, llm_response, error_message, created_at, updated_at
		FROM control_plane.generation_jobs WHERE id = $1`
	row := db.QueryRowContext(ctx, sqlStatement, jobID)

	var job domain.GenerationJob
	var llmRequest, llmResponse, errorMessage sql.Null[string]
	err := row.Scan(&job.ID, &job.AppID, &job.Status, &job.Model, &job.Prompt,
		&llmRequest, &llmResponse, &errorMessage, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		customLog.Warnf("Storage: Failed to find job %s: %v", jobID, err)
		return nil, fmt.Errorf("database error finding job: %w", err)
	}
	if llmRequest.Valid {
		job.LLMRequest = []byte(llmRequest.V)
	}
	if llmResponse.Valid {
		job.LLMResponse = []byte(llmResponse.V)
	}
	if errorMessage.Valid {
		job.ErrorMessage = errorMessage.V
	}
	return &job, nil
}

// SaveJobLLMPayloads stores the raw request/response blobs for audit. The
// payloads are opaque; any upstream shape is accepted.
func SaveJobLLMPayloads(ctx context.Context, db Execer, jobID string, request, response []byte) error {
	sqlStatement := `
		UPDATE control_plane.generation_jobs
		SET llm_request = $2, llm_response = $3, updated_at = now()
		WHERE id = $1`
	_, err := db.ExecContext(ctx, sqlStatement, jobID, nullableJSON(request), nullableJSON(response))
	if err != nil {
		customLog.Warnf("Storage: Failed to save LLM payloads for job %s: %v", jobID, err)
		return fmt.Errorf("database error saving job payloads: %w", err)
	}
	return nil
}

// SetJobStatus moves a job to the target status, enforcing forward-only
// transitions in the UPDATE itself. errorMessage is stored for FAILED.
func SetJobStatus(ctx context.Context, db Execer, jobID string, target domain.JobStatus, errorMessage string) error {
	var sources []string
	for _, s := range []domain.JobStatus{domain.JobStatusQueued, domain.JobStatusRunning} {
		if s.CanTransitionTo(target) {
			sources = append(sources, string(s))
		}
	}
	if len(sources) == 0 {
		return ErrIllegalJobTransition
	}

	sqlStatement := `
		UPDATE control_plane.generation_jobs
		SET status = $2, error_message = NULLIF($3, ''), updated_at = now()
		WHERE id = $1 AND status = ANY($4)`
	result, err := db.ExecContext(ctx, sqlStatement, jobID, target, errorMessage, pq.Array(sources))
	if err != nil {
		customLog.Warnf("Storage: Failed to set job %s status to %s: %v", jobID, target, err)
		return fmt.Errorf("database error updating job status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("database error updating job status: %w", err)
	}
	if n == 0 {
		return ErrIllegalJobTransition
	}
	return nil
}

// ListStaleRunningJobs returns jobs stuck in RUNNING since before the
// cutoff, for the janitor sweep.
func ListStaleRunningJobs(ctx context.Context, db *sql.DB, cutoff time.Time) ([]domain.GenerationJob, error) {
	sqlStatement := `
		SELECT id, app_id, status, model, prompt, created_at, updated_at
		FROM control_plane.generation_jobs
		WHERE status = $1 AND updated_at < $2`
	rows, err := db.QueryContext(ctx, sqlStatement, domain.JobStatusRunning, cutoff)
	if err != nil {
		customLog.Warnf("Storage: Failed to list stale jobs: %v", err)
		return nil, fmt.Errorf("database error listing stale jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]domain.GenerationJob, 0)
	for rows.Next() {
		var job domain.GenerationJob
		if err := rows.Scan(&job.ID, &job.AppID, &job.Status, &job.Model, &job.Prompt, &job.CreatedAt, &job.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed scanning stale job row: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading stale job rows: %w", err)
	}
	return jobs, nil
}

// DeleteJobsForApp removes all generation jobs belonging to an app.
func DeleteJobsForApp(ctx context.Context, db Execer, appID string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM control_plane.generation_jobs WHERE app_id = $1`, appID); err != nil {
		return fmt.Errorf("database error deleting jobs: %w", err)
	}
	return nil
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
