package server

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

const execTimeout = 2 * time.Minute

// An Executor runs a command line on behalf of the host and returns
// the combined output. Implementations must be safe for concurrent
// use; each connection runs in its own goroutine.
type Executor interface {
	Execute(ctx context.Context, cmdLine string) ([]byte, error)
}

// HelperExecutor runs commands through the staged helper binary
// (`<helper> sh -c <cmd>`). When the helper has not been staged yet
// it falls back to the system shell so execute requests still work
// on a partially initialized device.
type HelperExecutor struct {
	// HelperPath is the absolute path of the staged helper binary.
	HelperPath string

	// FallbackShell is used when HelperPath does not exist.
	// Defaults to /system/bin/sh.
	FallbackShell string

	// Timeout bounds a single command. Defaults to execTimeout.
	Timeout time.Duration
}

// NewHelperExecutor returns an executor for the helper staged under
// filesDir.
func NewHelperExecutor(filesDir, helperName string) *HelperExecutor {
	return &HelperExecutor{
		HelperPath:    filepath.Join(filesDir, helperName),
		FallbackShell: "/system/bin/sh",
		Timeout:       execTimeout,
	}
}

// Execute runs cmdLine and returns its combined stdout and stderr.
// A non-zero exit status is not an error; the host inspects the
// output itself. Spawn failures and timeouts are errors.
func (e *HelperExecutor) Execute(ctx context.Context, cmdLine string) ([]byte, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = execTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var cmd *exec.Cmd
	if _, err := os.Stat(e.HelperPath); err == nil {
		cmd = exec.CommandContext(ctx, e.HelperPath, "sh", "-c", cmdLine)
	} else {
		shell := e.FallbackShell
		if shell == "" {
			shell = "/system/bin/sh"
		}
		cmd = exec.CommandContext(ctx, shell, "-c", cmdLine)
	}

	out, err := cmd.CombinedOutput()
	if cerr := ctx.Err(); cerr != nil {
		return nil, cerr
	}
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			// Exit status travels in the output, not the frame.
			return out, nil
		}
		return nil, err
	}
	return out, nil
}
