package assets

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/dtf-framework/device-agent/internal/manifest"
	"github.com/dtf-framework/device-agent/internal/platform"
)

// fakeStore is an in-memory Store with injectable failures.
type fakeStore struct {
	files   map[string][]byte
	listErr error
	openErr error
}

func (s *fakeStore) List() ([]string, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}
	return names, nil
}

func (s *fakeStore) Open(name string) (io.ReadCloser, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	data, ok := s.files[name]
	if !ok {
		return nil, fmt.Errorf("no such asset: %s", name)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func testManifest(checksums map[string]string) *manifest.Manifest {
	return &manifest.Manifest{
		Helper: "busybox",
		Assets: map[string]string{
			"arm":   "busybox-arm",
			"intel": "busybox-i686",
		},
		Checksums: checksums,
	}
}

func sha256hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestStager_Stage_ARM(t *testing.T) {
	// Scenario: architecture=ARM, asset busybox-arm present. The
	// canonical destination must exist with byte-identical content.
	dir := t.TempDir()
	payload := bytes.Repeat([]byte{0x7f, 'E', 'L', 'F'}, 700) // > one chunk

	store := &fakeStore{files: map[string][]byte{
		"busybox-arm":  payload,
		"busybox-i686": []byte("other"),
	}}
	stager := NewStager(store, dir, nil)

	result := stager.Stage(context.Background(), platform.ArchARM, testManifest(nil))
	if result.Status != StageOK {
		t.Fatalf("Status = %v, want ok (err: %v)", result.Status, result.Err)
	}
	if result.Skipped {
		t.Fatal("staging should not be skipped")
	}
	if result.Staged == nil {
		t.Fatal("Staged should be set")
	}
	if result.Staged.SourceAsset.Name != "busybox-arm" {
		t.Errorf("SourceAsset = %q, want busybox-arm", result.Staged.SourceAsset.Name)
	}

	dest := filepath.Join(dir, "busybox")
	if result.Staged.DestinationPath != dest {
		t.Errorf("DestinationPath = %q, want %q", result.Staged.DestinationPath, dest)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read destination: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("destination content differs from source asset")
	}

	info, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("stat destination: %v", err)
	}
	if info.Mode().Perm()&0111 == 0 {
		t.Error("destination should be executable")
	}
	if info.Mode().Perm()&0044 == 0 {
		t.Error("destination should be world-readable")
	}
}

func TestStager_Stage_UnknownArch(t *testing.T) {
	// Scenario: architecture=UNKNOWN performs zero writes.
	dir := t.TempDir()
	store := &fakeStore{files: map[string][]byte{"busybox-arm": []byte("x")}}
	stager := NewStager(store, dir, nil)

	result := stager.Stage(context.Background(), platform.ArchUnknown, testManifest(nil))
	if result.Status != StageOK {
		t.Errorf("Status = %v, want ok", result.Status)
	}
	if !result.Skipped {
		t.Error("unknown architecture should skip staging")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("files dir should be empty, has %d entries", len(entries))
	}
}

func TestStager_Stage_AssetAbsent(t *testing.T) {
	dir := t.TempDir()
	store := &fakeStore{files: map[string][]byte{"busybox-i686": []byte("x")}}
	stager := NewStager(store, dir, nil)

	result := stager.Stage(context.Background(), platform.ArchARM, testManifest(nil))
	if result.Status != StageOK || !result.Skipped {
		t.Errorf("absent asset should be a no-op success, got %v skipped=%v",
			result.Status, result.Skipped)
	}
}

func TestStager_Stage_ListFailure(t *testing.T) {
	// Scenario: the listing call itself errors.
	dir := t.TempDir()
	store := &fakeStore{listErr: errors.New("assets unavailable")}
	stager := NewStager(store, dir, nil)

	result := stager.Stage(context.Background(), platform.ArchARM, testManifest(nil))
	if result.Status != StageListFailed {
		t.Errorf("Status = %v, want asset_list_failed", result.Status)
	}
	if result.Err == nil {
		t.Error("Err should carry the listing failure")
	}
}

func TestStager_Stage_CopyFailure(t *testing.T) {
	dir := t.TempDir()
	store := &fakeStore{
		files:   map[string][]byte{"busybox-arm": []byte("x")},
		openErr: errors.New("asset unreadable"),
	}
	stager := NewStager(store, dir, nil)

	result := stager.Stage(context.Background(), platform.ArchARM, testManifest(nil))
	if result.Status != StageCopyFailed {
		t.Errorf("Status = %v, want copy_failed", result.Status)
	}
}

func TestStager_Stage_ChecksumVerified(t *testing.T) {
	dir := t.TempDir()
	payload := []byte("helper binary payload")
	store := &fakeStore{files: map[string][]byte{"busybox-arm": payload}}
	stager := NewStager(store, dir, nil)

	m := testManifest(map[string]string{"busybox-arm": sha256hex(payload)})
	result := stager.Stage(context.Background(), platform.ArchARM, m)
	if result.Status != StageOK || result.Skipped {
		t.Fatalf("Status = %v skipped=%v, want verified copy", result.Status, result.Skipped)
	}

	if err := VerifyStaged(dir, m, "busybox-arm"); err != nil {
		t.Errorf("VerifyStaged() error = %v", err)
	}
}

func TestStager_Stage_ChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	store := &fakeStore{files: map[string][]byte{"busybox-arm": []byte("tampered")}}
	stager := NewStager(store, dir, nil)

	m := testManifest(map[string]string{"busybox-arm": sha256hex([]byte("original"))})
	result := stager.Stage(context.Background(), platform.ArchARM, m)
	if result.Status != StageCopyFailed {
		t.Errorf("Status = %v, want copy_failed on checksum mismatch", result.Status)
	}

	// The canonical destination must not exist: the bad copy stopped
	// at the temp file.
	if _, err := os.Stat(filepath.Join(dir, "busybox")); !os.IsNotExist(err) {
		t.Error("canonical destination should not exist after failed verification")
	}

	// No stray temp files either.
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("files dir should be empty after cleanup, has %d entries", len(entries))
	}
}

func TestStager_Stage_Idempotent(t *testing.T) {
	// Repeated staging of the same asset produces identical content.
	dir := t.TempDir()
	payload := bytes.Repeat([]byte("busybox!"), 512)
	store := &fakeStore{files: map[string][]byte{"busybox-arm": payload}}
	stager := NewStager(store, dir, nil)

	m := testManifest(nil)
	for i := 0; i < 3; i++ {
		result := stager.Stage(context.Background(), platform.ArchARM, m)
		if result.Status != StageOK {
			t.Fatalf("stage %d: Status = %v", i, result.Status)
		}
		got, err := os.ReadFile(filepath.Join(dir, "busybox"))
		if err != nil {
			t.Fatalf("stage %d: read destination: %v", i, err)
		}
		if !bytes.Equal(got, payload) {
			t.Errorf("stage %d: content differs from source", i)
		}
	}
}

func TestStager_Stage_OverwritesPrevious(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "busybox"), []byte("stale"), 0755); err != nil {
		t.Fatalf("seed stale helper: %v", err)
	}

	payload := []byte("fresh helper")
	store := &fakeStore{files: map[string][]byte{"busybox-arm": payload}}
	stager := NewStager(store, dir, nil)

	result := stager.Stage(context.Background(), platform.ArchARM, testManifest(nil))
	if result.Status != StageOK {
		t.Fatalf("Status = %v", result.Status)
	}

	got, _ := os.ReadFile(filepath.Join(dir, "busybox"))
	if !bytes.Equal(got, payload) {
		t.Error("stale helper should be replaced")
	}
}

func TestVerifyStaged_Drift(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "busybox"), []byte("mutated"), 0755); err != nil {
		t.Fatalf("write helper: %v", err)
	}

	m := testManifest(map[string]string{"busybox-arm": sha256hex([]byte("original"))})
	if err := VerifyStaged(dir, m, "busybox-arm"); err == nil {
		t.Error("VerifyStaged() should report drift")
	}
}
