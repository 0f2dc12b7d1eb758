package assets

import (
	"github.com/dtf-framework/device-agent/internal/platform"
)

// StageStatus is the outcome class of one staging attempt.
type StageStatus int

const (
	// StageOK covers both a completed copy and the deliberate no-op
	// cases (unknown architecture, no matching asset bundled).
	StageOK StageStatus = iota
	// StageListFailed means the asset namespace could not be listed.
	StageListFailed
	// StageCopyFailed means an I/O error occurred while copying or
	// the copy failed integrity verification.
	StageCopyFailed
)

// String returns the short status name used in logs and the journal.
func (s StageStatus) String() string {
	switch s {
	case StageOK:
		return "ok"
	case StageListFailed:
		return "asset_list_failed"
	case StageCopyFailed:
		return "copy_failed"
	default:
		return "unknown"
	}
}

// AssetDescriptor identifies one bundled helper asset.
type AssetDescriptor struct {
	Name         string
	Architecture platform.Architecture
}

// StagedBinary describes the binary placed in the files directory.
type StagedBinary struct {
	SourceAsset     AssetDescriptor
	DestinationPath string
	Executable      bool
}

// StageResult is the outcome of one staging attempt.
type StageResult struct {
	Status StageStatus
	// Staged is nil when nothing was copied (no-op cases, failures).
	Staged *StagedBinary
	// Skipped is true for the deliberate no-op cases.
	Skipped bool
	// Err carries the underlying failure for logging. It is never
	// propagated as a hard error to the orchestrator.
	Err error
}
