// Package permissions opens up the agent files directory so sibling
// processes can traverse it and execute the staged helper.
//
// The change is made by shelling out to the platform chmod utility
// rather than through the file API: the directory may be owned by a
// different uid than the one the helper is later launched under, and
// the external utility matches how the rest of the framework's device
// tooling manipulates modes.
package permissions

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// Status classifies the outcome of a permission change.
type Status int

const (
	// StatusOK means the utility ran and exited zero.
	StatusOK Status = iota
	// StatusInterrupted means the wait was cut short by cancellation
	// or the configured timeout.
	StatusInterrupted
	// StatusIOError means the utility could not be spawned or exited
	// non-zero.
	StatusIOError
)

// String returns the short status name used in logs and the journal.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInterrupted:
		return "interrupted"
	case StatusIOError:
		return "io_error"
	default:
		return "unknown"
	}
}

// Result is the outcome of one authorization attempt.
type Result struct {
	Status Status
	// Err carries the underlying failure for logging.
	Err error
}

// Setter invokes the external permission-change utility.
type Setter struct {
	chmodPath string
	mode      string
	timeout   time.Duration
	logger    *zap.Logger
}

// Config holds Setter configuration.
type Config struct {
	// ChmodPath is the path of the permission-change utility.
	ChmodPath string
	// Mode is the access-mode argument passed to the utility.
	Mode string
	// Timeout bounds the synchronous wait for the utility.
	Timeout time.Duration
}

// NewSetter creates a permission setter.
func NewSetter(cfg Config, logger *zap.Logger) *Setter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Setter{
		chmodPath: cfg.ChmodPath,
		mode:      cfg.Mode,
		timeout:   cfg.Timeout,
		logger:    logger,
	}
}

// Authorize grants world read/execute on dir by running the external
// utility and waiting for it synchronously, bounded by the configured
// timeout. Failures are reported as result values; the caller decides
// whether to gate on them (the orchestrator deliberately does not).
func (s *Setter) Authorize(ctx context.Context, dir string) Result {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.chmodPath, s.mode, dir)

	s.logger.Debug("changing directory permissions",
		zap.String("utility", s.chmodPath),
		zap.String("mode", s.mode),
		zap.String("dir", dir))

	err := cmd.Run()
	if err == nil {
		return Result{Status: StatusOK}
	}

	if ctx.Err() != nil {
		s.logger.Error("permission change interrupted",
			zap.String("dir", dir),
			zap.Error(ctx.Err()))
		return Result{Status: StatusInterrupted, Err: ctx.Err()}
	}

	s.logger.Error("unable to open permissions on files directory",
		zap.String("dir", dir),
		zap.Error(err))
	return Result{Status: StatusIOError, Err: err}
}

// SetExecutable makes a single file world-executable, preserving its
// other mode bits. Used for the staged helper itself, in addition to
// the directory-level change.
func SetExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode() | 0111
	if err := os.Chmod(path, mode); err != nil {
		return err
	}

	return nil
}

// IsExecutable reports whether the file at path exists, is regular,
// and has any execute bit set.
func IsExecutable(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	if !info.Mode().IsRegular() {
		return false, nil
	}

	return info.Mode().Perm()&0111 != 0, nil
}
