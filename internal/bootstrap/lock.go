package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// staleLockThreshold is the age past which a cycle lock is assumed to
// belong to a crashed agent.
const staleLockThreshold = 10 * time.Minute

// ErrLockHeld means another agent process is mid-cycle.
var ErrLockHeld = errors.New("initialization lock held: another agent may be running a cycle")

// cycleLock is an exclusive on-disk lock around one initialization
// cycle. The in-process worker already serializes cycles; the lock
// guards against a second agent process on the same device.
type cycleLock struct {
	path string
	file *os.File
}

// acquireLock creates the lock file with O_EXCL. A stale lock left by
// a crashed process is removed and the create retried once.
func acquireLock(dir string) (*cycleLock, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	path := filepath.Join(dir, "init-cycle.lock")

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if err != nil {
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}
		if !isLockStale(path) {
			return nil, ErrLockHeld
		}
		os.Remove(path)
		file, err = os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
		if err != nil {
			return nil, ErrLockHeld
		}
	}

	meta := fmt.Sprintf("pid=%d\ntimestamp=%s\n",
		os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if _, err := file.WriteString(meta); err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write lock metadata: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("sync lock file: %w", err)
	}

	return &cycleLock{path: path, file: file}, nil
}

// release removes the lock. Safe to call more than once.
func (l *cycleLock) release() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
	if l.path != "" {
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove lock file: %w", err)
		}
		l.path = ""
	}
	return nil
}

func isLockStale(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) > staleLockThreshold
}
