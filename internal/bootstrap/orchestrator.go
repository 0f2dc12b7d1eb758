package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dtf-framework/device-agent/internal/assets"
	"github.com/dtf-framework/device-agent/internal/manifest"
	"github.com/dtf-framework/device-agent/internal/permissions"
	"github.com/dtf-framework/device-agent/internal/platform"
	"github.com/dtf-framework/device-agent/internal/service"
)

// Config wires the orchestrator's collaborators.
type Config struct {
	// FilesDir is the agent's private directory.
	FilesDir string
	// LockDir hosts the cycle lock. Defaults to FilesDir.
	LockDir string

	Store    assets.Store
	Detector platform.Detector
	Setter   *permissions.Setter

	// Supervisor and Services drive the launch step. Both may be nil
	// for one-shot cycles.
	Supervisor *service.Supervisor
	Services   []service.Service
}

// Orchestrator runs initialization cycles on a single worker
// goroutine. Triggers arriving while a cycle is in flight collapse
// into one queued follow-up cycle.
type Orchestrator struct {
	cfg    Config
	logger *zap.Logger

	triggers chan struct{}

	mu   sync.Mutex
	last *InitializationResult
}

// New creates an orchestrator. Run starts the worker; nothing happens
// until the first Trigger.
func New(cfg Config, logger *zap.Logger) *Orchestrator {
	if cfg.LockDir == "" {
		cfg.LockDir = cfg.FilesDir
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		cfg:      cfg,
		logger:   logger,
		triggers: make(chan struct{}, 1),
	}
}

// Name implements service.Service.
func (o *Orchestrator) Name() string { return "orchestrator" }

// Trigger queues an initialization cycle. Never blocks.
func (o *Orchestrator) Trigger() {
	select {
	case o.triggers <- struct{}{}:
	default:
	}
}

// Run is the worker loop. It exits when ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-o.triggers:
			result := o.RunCycle(ctx)
			o.mu.Lock()
			o.last = result
			o.mu.Unlock()
		}
	}
}

// LastResult returns the most recent cycle's result, or nil before
// the first cycle completes.
func (o *Orchestrator) LastResult() *InitializationResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

// RunCycle performs one full initialization pass. It always reaches
// the done step: staging and permission failures are recorded in the
// result, not escalated.
func (o *Orchestrator) RunCycle(ctx context.Context) *InitializationResult {
	result := &InitializationResult{
		Cycle:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}
	log := o.logger.With(zap.String("cycle", result.Cycle))
	log.Info("initialization cycle starting")

	defer func() {
		result.FinishedAt = time.Now().UTC()
		if err := WriteJournal(o.cfg.FilesDir, result); err != nil {
			log.Warn("journal write failed", zap.Error(err))
		}
		log.Info("initialization cycle finished",
			zap.Stringer("step", StepDone),
			zap.Bool("ok", result.OK()),
			zap.Stringer("stage_status", result.StageStatus),
			zap.Stringer("permission_status", result.PermissionStatus))
	}()

	lock, err := acquireLock(o.cfg.LockDir)
	if err != nil {
		// Another agent process owns the cycle; record and stand down.
		log.Warn("cycle lock unavailable", zap.Error(err))
		result.addError(StepStart, err)
		return result
	}
	defer lock.release()

	helperPath := o.stage(ctx, log, result)
	o.permission(ctx, log, result, helperPath)
	o.launchServices(ctx, log, result)

	return result
}

// stage detects the platform, loads the manifest, and copies the
// matching asset. Returns the helper's destination path, or "" when
// nothing was staged.
func (o *Orchestrator) stage(ctx context.Context, log *zap.Logger, result *InitializationResult) string {
	log.Info("step", zap.Stringer("step", StepStaging))

	// Detect once; the manifest load reuses the same info.
	arch := platform.ArchUnknown
	info, err := o.cfg.Detector.Detect(ctx)
	if err != nil {
		result.addError(StepStaging, err)
		info = nil
	} else {
		arch = info.Arch
	}
	result.Architecture = arch.String()

	m, source, err := manifest.LoadWithInfo(ctx, o.cfg.FilesDir, info)
	if err != nil {
		// A manifest problem is not an asset-listing failure; the
		// recorded error carries the cause and nothing is staged.
		result.addError(StepStaging, err)
		result.StageSkipped = true
		return ""
	}
	result.ManifestSource = source

	stager := assets.NewStager(o.cfg.Store, o.cfg.FilesDir, log)
	sres := stager.Stage(ctx, arch, m)
	result.StageStatus = sres.Status
	result.StageSkipped = sres.Skipped
	if sres.Err != nil {
		result.addError(StepStaging, sres.Err)
	}
	if sres.Staged == nil {
		return ""
	}
	result.StagedAsset = sres.Staged.SourceAsset.Name
	return sres.Staged.DestinationPath
}

// permission opens up the files directory and marks the helper
// executable.
func (o *Orchestrator) permission(ctx context.Context, log *zap.Logger, result *InitializationResult, helperPath string) {
	log.Info("step", zap.Stringer("step", StepPermissioning))

	pres := o.cfg.Setter.Authorize(ctx, o.cfg.FilesDir)
	result.PermissionStatus = pres.Status
	if pres.Err != nil {
		result.addError(StepPermissioning, pres.Err)
	}

	if helperPath == "" {
		// A previously staged helper still needs its bit back after
		// the directory chmod.
		helperPath = filepath.Join(o.cfg.FilesDir, manifest.DefaultHelperName)
		if _, err := os.Stat(helperPath); err != nil {
			return
		}
	}
	if err := permissions.SetExecutable(helperPath); err != nil {
		result.addError(StepPermissioning, err)
	}
}

// launchServices hands the long-running services to the supervisor.
// Fire and forget: readiness is not awaited, failures surface through
// the supervisor's own logging.
func (o *Orchestrator) launchServices(ctx context.Context, log *zap.Logger, result *InitializationResult) {
	if o.cfg.Supervisor == nil || len(o.cfg.Services) == 0 {
		return
	}
	log.Info("step", zap.Stringer("step", StepServicesLaunching))

	for _, svc := range o.cfg.Services {
		o.cfg.Supervisor.Start(ctx, svc)
		result.ServicesLaunched = append(result.ServicesLaunched, svc.Name())
	}
}
