// internal/janitor/janitor.go
package janitor

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/buildloom/loom-backend/internal/domain"
	"github.com/buildloom/loom-backend/internal/logger"
	"github.com/buildloom/loom-backend/internal/storage"
)

var customLog = logger.NewLogger()

// Janitor periodically fails generation jobs stuck in RUNNING past the
// staleness threshold and marks their apps ERROR. There is no automatic
// retry; the user re-generates.
type Janitor struct {
	db         *sql.DB
	staleAfter time.Duration
	cron       *cron.Cron
}

func New(db *sql.DB, staleAfter time.Duration) *Janitor {
	return &Janitor{
		db:         db,
		staleAfter: staleAfter,
		cron:       cron.New(),
	}
}

// Start schedules the sweep every minute. Call Stop on shutdown.
func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc("* * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		j.Sweep(ctx)
	}); err != nil {
		return err
	}
	j.cron.Start()
	customLog.Printf("Janitor: Sweeping for jobs stuck longer than %v", j.staleAfter)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

// Sweep fails every job stuck in RUNNING since before the cutoff. A job
// that races to completion mid-sweep is left alone by the transition
// guard in the status update.
func (j *Janitor) Sweep(ctx context.Context) {
	cutoff := time.Now().Add(-j.staleAfter)
	jobs, err := storage.ListStaleRunningJobs(ctx, j.db, cutoff)
	if err != nil {
		customLog.Warnf("Janitor: Failed to list stale jobs: %v", err)
		return
	}
	for _, job := range jobs {
		err := storage.SetJobStatus(ctx, j.db, job.ID, domain.JobStatusFailed,
			"generation timed out: job exceeded the staleness threshold")
		if err != nil {
			if errors.Is(err, storage.ErrIllegalJobTransition) {
				continue
			}
			customLog.Warnf("Janitor: Failed to fail stale job %s: %v", job.ID, err)
			continue
		}
		if err := storage.SetAppStatus(ctx, j.db, job.AppID, domain.AppStatusError); err != nil &&
			!errors.Is(err, storage.ErrIllegalAppTransition) {
			customLog.Warnf("Janitor: Failed to mark app %s errored: %v", job.AppID, err)
		}
		customLog.Printf("Janitor: Failed stale job %s (app %s)", job.ID, job.AppID)
	}
}
