package assets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/dtf-framework/device-agent/internal/manifest"
	"github.com/dtf-framework/device-agent/internal/platform"
)

// copyChunkSize is the fixed chunk size for asset copies.
const copyChunkSize = 1024

// Stager copies the helper binary for the detected architecture from
// the asset store into the files directory.
type Stager struct {
	store    Store
	filesDir string
	logger   *zap.Logger
}

// NewStager creates a stager writing into filesDir.
func NewStager(store Store, filesDir string, logger *zap.Logger) *Stager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stager{
		store:    store,
		filesDir: filesDir,
		logger:   logger,
	}
}

// Stage stages the helper binary for arch according to the manifest.
//
// Unknown architectures and architectures whose asset is not bundled
// degrade to a no-op success: the agent stays up, later command
// exchange surfaces the missing helper. Only a failed listing call or
// a failed copy produce non-OK statuses, and even those are reported
// as result values rather than escalated.
func (s *Stager) Stage(ctx context.Context, arch platform.Architecture, m *manifest.Manifest) StageResult {
	assetName, ok := m.AssetFor(arch)
	if !ok {
		s.logger.Warn("no helper asset for architecture, skipping staging",
			zap.String("arch", arch.String()))
		return StageResult{Status: StageOK, Skipped: true}
	}

	names, err := s.store.List()
	if err != nil {
		s.logger.Error("failed to list bundled assets", zap.Error(err))
		return StageResult{Status: StageListFailed, Err: err}
	}

	found := false
	for _, name := range names {
		if name == assetName {
			found = true
			break
		}
	}
	if !found {
		s.logger.Warn("helper asset not bundled, skipping staging",
			zap.String("asset", assetName))
		return StageResult{Status: StageOK, Skipped: true}
	}

	destPath := filepath.Join(s.filesDir, m.Helper)
	s.logger.Debug("staging helper asset",
		zap.String("asset", assetName),
		zap.String("destination", destPath))

	if err := s.copyAsset(ctx, assetName, destPath, m); err != nil {
		s.logger.Error("failed to stage helper asset",
			zap.String("asset", assetName),
			zap.Error(err))
		return StageResult{Status: StageCopyFailed, Err: err}
	}

	return StageResult{
		Status: StageOK,
		Staged: &StagedBinary{
			SourceAsset:     AssetDescriptor{Name: assetName, Architecture: arch},
			DestinationPath: destPath,
			Executable:      true,
		},
	}
}

// copyAsset copies one asset to destPath via a temporary file that is
// renamed into place. Both handles are closed on every exit path.
func (s *Stager) copyAsset(ctx context.Context, assetName, destPath string, m *manifest.Manifest) error {
	src, err := s.store.Open(assetName)
	if err != nil {
		return fmt.Errorf("open asset: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(s.filesDir, 0755); err != nil {
		return fmt.Errorf("create files dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.filesDir, "."+filepath.Base(destPath)+".stage-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	// The temp file is removed on every failure path; only a
	// successful rename consumes it.
	defer func() {
		tmp.Close()
		os.Remove(tmpPath)
	}()

	hasher := sha256.New()
	if err := copyChunked(ctx, io.MultiWriter(tmp, hasher), src); err != nil {
		return fmt.Errorf("copy asset: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if want, ok := m.ChecksumFor(assetName); ok {
		got := hex.EncodeToString(hasher.Sum(nil))
		if got != want {
			return fmt.Errorf("checksum mismatch for %s: got %s, want %s", assetName, got, want)
		}
	}

	// World-readable and executable: the helper is launched by sibling
	// processes during later command exchange.
	if err := os.Chmod(tmpPath, 0755); err != nil {
		return fmt.Errorf("set executable: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}

	return nil
}

// copyChunked copies src to dst in fixed-size chunks, checking for
// context cancellation between chunks.
func copyChunked(ctx context.Context, dst io.Writer, src io.Reader) error {
	buf := make([]byte, copyChunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// VerifyStaged re-hashes the staged helper and compares it against the
// manifest checksum for the given asset. It reports drift between the
// staged binary and what the manifest says should be there.
func VerifyStaged(filesDir string, m *manifest.Manifest, assetName string) error {
	want, ok := m.ChecksumFor(assetName)
	if !ok {
		return fmt.Errorf("manifest has no checksum for %s", assetName)
	}

	f, err := os.Open(filepath.Join(filesDir, m.Helper))
	if err != nil {
		return fmt.Errorf("open staged helper: %w", err)
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return fmt.Errorf("hash staged helper: %w", err)
	}

	got := hex.EncodeToString(hasher.Sum(nil))
	if got != want {
		return fmt.Errorf("staged helper drifted: got %s, want %s", got, want)
	}

	return nil
}
