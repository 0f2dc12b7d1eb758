// Package notify presents the agent's liveness to the rest of the
// device. It is the Go stand-in for the client app's persistent
// notification banner: instead of a UI surface, a status file in the
// files directory is rewritten on a fixed interval so host tooling and
// sibling processes can see that the agent is up and since when.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/dtf-framework/device-agent/internal/service"
)

// StatusFileName is the beacon file inside the agent files directory.
const StatusFileName = "agent-status.json"

// Status is the beacon payload.
type Status struct {
	Version   string    `json:"version"`
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
	LastBeat  time.Time `json:"last_beat"`
}

// Beacon periodically rewrites the status file.
type Beacon struct {
	filesDir string
	version  string
	interval time.Duration
	clock    service.Clock
	logger   *zap.Logger
}

// Config holds beacon configuration.
type Config struct {
	FilesDir string
	Version  string
	Interval time.Duration
	// Clock defaults to the system clock.
	Clock service.Clock
}

// NewBeacon creates a presence beacon.
func NewBeacon(cfg Config, logger *zap.Logger) *Beacon {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = service.RealClock{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	return &Beacon{
		filesDir: cfg.FilesDir,
		version:  cfg.Version,
		interval: cfg.Interval,
		clock:    cfg.Clock,
		logger:   logger,
	}
}

// Name implements service.Service.
func (b *Beacon) Name() string { return "beacon" }

// Run writes the status file immediately and then on every tick until
// the context is cancelled. Write failures are logged and the beacon
// keeps ticking; a missed beat is not fatal.
func (b *Beacon) Run(ctx context.Context) error {
	started := b.clock.Now().UTC()

	if err := b.write(started); err != nil {
		b.logger.Warn("failed to write status file", zap.Error(err))
	}

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := b.write(started); err != nil {
				b.logger.Warn("failed to write status file", zap.Error(err))
			}
		}
	}
}

// write atomically replaces the status file.
func (b *Beacon) write(started time.Time) error {
	status := Status{
		Version:   b.version,
		PID:       os.Getpid(),
		StartedAt: started,
		LastBeat:  b.clock.Now().UTC(),
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}

	finalPath := filepath.Join(b.filesDir, StatusFileName)
	tmpPath := finalPath + ".tmp"

	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write temporary status file: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename status file: %w", err)
	}

	return nil
}

// ReadStatus loads the beacon file, for host tooling and tests.
func ReadStatus(filesDir string) (*Status, error) {
	data, err := os.ReadFile(filepath.Join(filesDir, StatusFileName))
	if err != nil {
		return nil, fmt.Errorf("read status file: %w", err)
	}

	var status Status
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("unmarshal status file: %w", err)
	}

	return &status, nil
}
