package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/dtf-framework/device-agent/internal/assets"
	"github.com/dtf-framework/device-agent/internal/bootstrap"
	"github.com/dtf-framework/device-agent/internal/config"
	"github.com/dtf-framework/device-agent/internal/logging"
	"github.com/dtf-framework/device-agent/internal/permissions"
	"github.com/dtf-framework/device-agent/internal/platform"
)

// runInit performs a single initialization cycle without starting any
// services and prints the result. The cycle is best-effort: step
// failures are reported in the output, not as a process error.
func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	quiet := fs.Bool("quiet", false, "suppress per-step log output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.LoadOrDefault()

	logCfg := logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stderr"},
	}
	if *quiet {
		logCfg.Level = "error"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	orch := bootstrap.New(bootstrap.Config{
		FilesDir: cfg.Paths.FilesDir,
		Store:    assets.NewDirStore(cfg.Paths.AssetDir),
		Detector: platform.NewDetector(),
		Setter: permissions.NewSetter(permissions.Config{
			ChmodPath: cfg.Permission.ChmodPath,
			Mode:      cfg.Permission.Mode,
			Timeout:   cfg.Permission.Timeout,
		}, logger),
	}, logger)

	result := orch.RunCycle(context.Background())
	printResult(result)
	return nil
}

func printResult(r *bootstrap.InitializationResult) {
	fmt.Printf("cycle:        %s\n", r.Cycle)
	fmt.Printf("architecture: %s\n", r.Architecture)
	if r.ManifestSource != "" {
		fmt.Printf("manifest:     %s\n", r.ManifestSource)
	}
	staging := r.StageStatus.String()
	switch {
	case r.StagedAsset != "":
		staging += " (staged " + r.StagedAsset + ")"
	case r.StageSkipped:
		staging += " (nothing to stage)"
	}
	fmt.Printf("staging:      %s\n", staging)
	fmt.Printf("permissions:  %s\n", r.PermissionStatus)
	if len(r.ServicesLaunched) > 0 {
		fmt.Printf("services:     %v\n", r.ServicesLaunched)
	}
	for _, e := range r.Errors {
		fmt.Printf("error:        %s\n", e)
	}
	fmt.Printf("duration:     %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
}
