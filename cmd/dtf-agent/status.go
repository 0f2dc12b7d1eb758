package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/dtf-framework/device-agent/internal/assets"
	"github.com/dtf-framework/device-agent/internal/bootstrap"
	"github.com/dtf-framework/device-agent/internal/config"
	"github.com/dtf-framework/device-agent/internal/manifest"
	"github.com/dtf-framework/device-agent/internal/notify"
	"github.com/dtf-framework/device-agent/internal/platform"
)

// runStatus prints the journaled result of the last initialization
// cycle, the live beacon if one is present, and re-verifies the
// staged helper against the manifest checksum.
func runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.LoadOrDefault()

	result, err := bootstrap.ReadJournal(cfg.Paths.FilesDir)
	if err != nil {
		return fmt.Errorf("no initialization journal (has the agent run?): %w", err)
	}

	fmt.Println("Last initialization:")
	printResult(result)
	fmt.Printf("finished:     %s\n", result.FinishedAt.Format(time.RFC3339))

	if status, err := notify.ReadStatus(cfg.Paths.FilesDir); err == nil {
		fmt.Println()
		fmt.Println("Agent beacon:")
		fmt.Printf("version:      %s\n", status.Version)
		fmt.Printf("pid:          %d\n", status.PID)
		fmt.Printf("last beat:    %s\n", status.LastBeat.Format(time.RFC3339))
	}

	if result.StagedAsset == "" {
		return nil
	}

	fmt.Println()
	m, _, err := manifest.Load(context.Background(), cfg.Paths.FilesDir, platform.NewDetector())
	if err != nil {
		fmt.Printf("helper:       unverified (manifest load failed: %v)\n", err)
		return nil
	}
	if _, ok := m.ChecksumFor(result.StagedAsset); !ok {
		fmt.Println("helper:       unverified (no manifest checksum)")
		return nil
	}
	if err := assets.VerifyStaged(cfg.Paths.FilesDir, m, result.StagedAsset); err != nil {
		fmt.Printf("helper:       DRIFTED (%v)\n", err)
		return nil
	}
	fmt.Println("helper:       verified")
	return nil
}
