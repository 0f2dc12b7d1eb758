// Package testutil provides utilities for testing the agent in
// isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupTestEnv points every agent path at per-test temp directories
// so tests never touch a real device layout or each other. It returns
// the files and asset directories for assertions.
//
// Cleanup is handled by t.TempDir; callers don't need to undo
// anything.
func SetupTestEnv(t *testing.T) (filesDir, assetDir string) {
	t.Helper()

	tmpDir := t.TempDir()
	filesDir = filepath.Join(tmpDir, "files")
	assetDir = filepath.Join(tmpDir, "assets")

	t.Setenv("DTF_FILES_DIR", filesDir)
	t.Setenv("DTF_ASSET_DIR", assetDir)

	// Development hosts have no /system/bin/chmod.
	t.Setenv("DTF_CHMOD_PATH", "/bin/chmod")

	// The abstract socket namespace is shared; isolate by name.
	t.Setenv("DTF_SOCKET_NAME", "dtf-test-"+filepath.Base(tmpDir))
	t.Setenv("DTF_SOCKET_DIR", tmpDir)

	t.Setenv("DTF_LOG_LEVEL", "error")

	for _, dir := range []string{filesDir, assetDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}

	return filesDir, assetDir
}

// WriteAsset drops a fake bundled asset into the asset directory.
func WriteAsset(t *testing.T, assetDir, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(assetDir, name), data, 0o644); err != nil {
		t.Fatalf("failed to write asset %s: %v", name, err)
	}
}
