// internal/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/buildloom/loom-backend/internal/blueprint"
	"github.com/buildloom/loom-backend/internal/deploy"
	"github.com/buildloom/loom-backend/internal/domain"
	"github.com/buildloom/loom-backend/internal/llm"
	"github.com/buildloom/loom-backend/internal/logger"
	"github.com/buildloom/loom-backend/internal/provision"
	slugpkg "github.com/buildloom/loom-backend/internal/slug"
	"github.com/buildloom/loom-backend/internal/storage"
)

var customLog = logger.NewLogger()

// generationTimeout bounds one full background generation run, including
// the repair round and provisioning.
const generationTimeout = 10 * time.Minute

// Orchestrator drives the prompt-to-app pipeline and the app lifecycle
// operations built on top of it.
type Orchestrator struct {
	db           *sql.DB
	llmClient    llm.Client
	provisioner  *provision.Provisioner
	deployer     deploy.Deployer
	defaultModel string

	wg sync.WaitGroup
}

func New(db *sql.DB, llmClient llm.Client, provisioner *provision.Provisioner, deployer deploy.Deployer, defaultModel string) *Orchestrator {
	return &Orchestrator{
		db:           db,
		llmClient:    llmClient,
		provisioner:  provisioner,
		deployer:     deployer,
		defaultModel: defaultModel,
	}
}

// Wait blocks until all in-flight generation goroutines finish. Used for
// graceful shutdown.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Generate creates the App and its GenerationJob, commits them, then runs
// the LLM pipeline in the background. The returned records reflect the
// accepted-but-incomplete state (App DRAFT, Job RUNNING).
func (o *Orchestrator) Generate(ctx context.Context, ownerUserID, prompt, model string) (*domain.App, *domain.GenerationJob, error) {
	if model == "" {
		model = o.defaultModel
	}

	tempName := strings.TrimSpace(prompt)
	if len(tempName) > 50 {
		tempName = strings.TrimSpace(tempName[:50])
	}
	tempSlug, err := o.allocateSlug(ctx, tempName, "")
	if err != nil {
		return nil, nil, err
	}

	app := &domain.App{
		ID:          uuid.NewString(),
		OwnerUserID: ownerUserID,
		Name:        tempName,
		Slug:        tempSlug,
		Status:      domain.AppStatusDraft,
	}
	job := &domain.GenerationJob{
		ID:     uuid.NewString(),
		AppID:  app.ID,
		Status: domain.JobStatusRunning,
		Model:  model,
		Prompt: prompt,
	}

	// Both rows land before the LLM call: the client can poll the job id
	// it gets back no matter how the pipeline ends.
	if err := storage.CreateApp(ctx, o.db, app); err != nil {
		return nil, nil, err
	}
	if err := storage.CreateJob(ctx, o.db, job); err != nil {
		return nil, nil, err
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				customLog.Errorf("Orchestrator: Panic in generation pipeline for app %s: %v", app.ID, r)
				o.failJob(app.ID, job.ID, fmt.Sprintf("internal error: %v", r))
			}
		}()
		runCtx, cancel := context.WithTimeout(context.Background(), generationTimeout)
		defer cancel()
		o.run(runCtx, app.ID, job.ID, prompt, model)
	}()

	return app, job, nil
}

// run executes one generation pipeline: LLM call, validation, at most one
// repair round, persistence, provisioning, optional deploy handoff.
func (o *Orchestrator) run(ctx context.Context, appID, jobID, prompt, model string) {
	result, err := o.llmClient.GenerateBlueprint(ctx, prompt, blueprint.V3, model)
	if err != nil {
		customLog.Warnf("Orchestrator: Blueprint generation failed for app %s: %v", appID, err)
		o.failJob(appID, jobID, fmt.Sprintf("blueprint generation failed: %v", err))
		return
	}
	o.saveLLMPayloads(ctx, jobID, result)

	ok, doc, validationErrors := blueprint.Validate(result.Blueprint, blueprint.V3)
	if !ok {
		customLog.Printf("Orchestrator: Blueprint invalid for app %s, attempting repair. Errors: %v", appID, validationErrors)
		repaired, repairErr := o.llmClient.RepairBlueprint(ctx, prompt, result.Blueprint, validationErrors, blueprint.V3, model)
		if repairErr != nil {
			customLog.Warnf("Orchestrator: Repair round failed for app %s: %v", appID, repairErr)
		} else {
			result = repaired
			o.saveLLMPayloads(ctx, jobID, result)
			ok, doc, validationErrors = blueprint.Validate(result.Blueprint, blueprint.V3)
		}
	}

	if !ok {
		// The invalid snapshot is diagnostic; losing it must not mask the
		// validation failure itself.
		if err := o.persistBlueprint(ctx, appID, result.Blueprint, domain.ValidationInvalid, validationErrors); err != nil {
			customLog.Warnf("Orchestrator: Failed to persist invalid blueprint for app %s: %v", appID, err)
		}
		o.failJob(appID, jobID, "Blueprint validation failed: "+strings.Join(validationErrors, "; "))
		return
	}

	appInfo := doc.App()
	appSlug, err := o.allocateSlug(ctx, appInfo.Slug, appID)
	if err != nil {
		o.failJob(appID, jobID, fmt.Sprintf("slug allocation failed: %v", err))
		return
	}
	if err := storage.UpdateAppIdentity(ctx, o.db, appID, appInfo.Name, appSlug); err != nil {
		o.failJob(appID, jobID, fmt.Sprintf("failed to update app identity: %v", err))
		return
	}

	// A RUNNING app without a stored blueprint would have nothing to serve,
	// so a failed insert here fails the whole run.
	if err := o.persistBlueprint(ctx, appID, result.Blueprint, domain.ValidationValid, nil); err != nil {
		o.failJob(appID, jobID, fmt.Sprintf("failed to persist blueprint: %v", err))
		return
	}

	schemaName := SchemaName(appID)
	rc := &domain.AppRuntimeConfig{
		AppID:          appID,
		DBSchema:       schemaName,
		PublicBasePath: "/apps/" + appSlug,
		Enabled:        true,
	}
	if err := storage.CreateRuntimeConfig(ctx, o.db, rc); err != nil {
		o.failJob(appID, jobID, fmt.Sprintf("failed to create runtime config: %v", err))
		return
	}

	if err := o.provisioner.Provision(ctx, schemaName, doc); err != nil {
		customLog.Warnf("Orchestrator: Provisioning failed for app %s: %v", appID, err)
		o.failJob(appID, jobID, fmt.Sprintf("schema provisioning failed: %v", err))
		return
	}

	// Deploy handoff is best-effort: a schema-only app is still usable.
	if o.deployer != nil && doc.GeneratorTag() == "amplication" {
		if _, err := o.deployer.Deploy(ctx, appID, doc, schemaName); err != nil {
			customLog.Warnf("Orchestrator: Deploy handoff failed for app %s, schema generated but not deployed: %v", appID, err)
		}
	}

	if err := storage.SetAppStatus(ctx, o.db, appID, domain.AppStatusRunning); err != nil {
		o.failJob(appID, jobID, fmt.Sprintf("failed to activate app: %v", err))
		return
	}
	if err := storage.SetJobStatus(ctx, o.db, jobID, domain.JobStatusSucceeded, ""); err != nil {
		customLog.Warnf("Orchestrator: Failed to mark job %s succeeded: %v", jobID, err)
		return
	}
	customLog.Printf("Orchestrator: App %s generated successfully (job %s)", appID, jobID)
}

// failJob moves the job to FAILED and the app to ERROR. Uses a fresh
// context so a cancelled pipeline can still record its own failure.
func (o *Orchestrator) failJob(appID, jobID, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := storage.SetJobStatus(ctx, o.db, jobID, domain.JobStatusFailed, message); err != nil {
		customLog.Warnf("Orchestrator: Failed to mark job %s failed: %v", jobID, err)
	}
	if err := storage.SetAppStatus(ctx, o.db, appID, domain.AppStatusError); err != nil && !errors.Is(err, storage.ErrIllegalAppTransition) {
		customLog.Warnf("Orchestrator: Failed to mark app %s errored: %v", appID, err)
	}
}

func (o *Orchestrator) saveLLMPayloads(ctx context.Context, jobID string, result *llm.Result) {
	if err := storage.SaveJobLLMPayloads(ctx, o.db, jobID, result.Request, result.Response); err != nil {
		customLog.Warnf("Orchestrator: Failed to save LLM payloads for job %s: %v", jobID, err)
	}
}

func (o *Orchestrator) persistBlueprint(ctx context.Context, appID string, raw []byte, status domain.ValidationStatus, validationErrors []string) error {
	hash, err := blueprint.ComputeHash(raw)
	if err != nil {
		customLog.Warnf("Orchestrator: Could not hash blueprint for app %s: %v", appID, err)
	}
	bp := &domain.AppBlueprint{
		ID:               uuid.NewString(),
		AppID:            appID,
		BlueprintJSON:    raw,
		BlueprintHash:    hash,
		ValidationStatus: status,
		ValidationErrors: validationErrors,
	}
	return storage.InsertBlueprint(ctx, o.db, bp)
}

func (o *Orchestrator) allocateSlug(ctx context.Context, base, excludeAppID string) (string, error) {
	exists := func(ctx context.Context, candidate, exclude string) (bool, error) {
		return storage.SlugExists(ctx, o.db, candidate, exclude)
	}
	return slugpkg.EnsureUnique(ctx, exists, base, excludeAppID)
}

// Start moves an owned app to RUNNING and re-enables its runtime.
func (o *Orchestrator) Start(ctx context.Context, appID, ownerUserID string) error {
	if err := storage.SetAppStatusOwned(ctx, o.db, appID, ownerUserID, domain.AppStatusRunning); err != nil {
		return err
	}
	if err := storage.SetRuntimeEnabled(ctx, o.db, appID, true); err != nil && !errors.Is(err, storage.ErrRuntimeConfigNotFound) {
		return err
	}
	return nil
}

// Stop moves an owned app to STOPPED and disables its runtime.
func (o *Orchestrator) Stop(ctx context.Context, appID, ownerUserID string) error {
	if err := storage.SetAppStatusOwned(ctx, o.db, appID, ownerUserID, domain.AppStatusStopped); err != nil {
		return err
	}
	if err := storage.SetRuntimeEnabled(ctx, o.db, appID, false); err != nil && !errors.Is(err, storage.ErrRuntimeConfigNotFound) {
		return err
	}
	return nil
}

// Delete tears an app down. The DELETING mark is committed first so a
// crash mid-teardown leaves the app visibly dying rather than half-alive;
// external cleanup (schema drop, backend teardown) is best-effort before
// the rows go.
func (o *Orchestrator) Delete(ctx context.Context, appID, ownerUserID string) error {
	// Ownership check up front; not-found and not-owned are the same 404.
	if _, err := storage.GetApp(ctx, o.db, appID, ownerUserID); err != nil {
		return err
	}

	rc, err := storage.GetRuntimeConfig(ctx, o.db, appID)
	if err != nil && !errors.Is(err, storage.ErrRuntimeConfigNotFound) {
		return err
	}

	if err := storage.SetAppStatus(ctx, o.db, appID, domain.AppStatusDeleting); err != nil {
		return err
	}

	if rc != nil {
		if dropErr := o.provisioner.Drop(ctx, rc.DBSchema); dropErr != nil {
			customLog.Warnf("Orchestrator: Failed to drop schema %s for app %s: %v", rc.DBSchema, appID, dropErr)
		}
	}
	if o.deployer != nil {
		if tdErr := o.deployer.Teardown(ctx, appID); tdErr != nil {
			customLog.Warnf("Orchestrator: Failed to tear down backend for app %s: %v", appID, tdErr)
		}
	}

	tx, err := o.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback()
	if err := storage.DeleteBlueprintsForApp(ctx, tx, appID); err != nil {
		return err
	}
	if err := storage.DeleteJobsForApp(ctx, tx, appID); err != nil {
		return err
	}
	if err := storage.DeleteRuntimeConfig(ctx, tx, appID); err != nil {
		return err
	}
	if err := storage.DeleteApp(ctx, tx, appID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete transaction: %w", err)
	}
	customLog.Printf("Orchestrator: App %s deleted", appID)
	return nil
}

// SchemaName derives the tenant schema name from the app id: "app_" plus
// the first 12 hex characters of the dehyphenated id.
func SchemaName(appID string) string {
	compact := strings.ReplaceAll(appID, "-", "")
	if len(compact) > 12 {
		compact = compact[:12]
	}
	return "app_" + compact
}
