// Package bootstrap drives the device initialization cycle: stage the
// helper binary, open up permissions, launch the long-running
// services. Every cycle runs to completion; step failures are
// recorded, never escalated.
package bootstrap

import (
	"time"

	"github.com/dtf-framework/device-agent/internal/assets"
	"github.com/dtf-framework/device-agent/internal/permissions"
)

// Step identifies a phase of the initialization cycle.
type Step int

const (
	StepStart Step = iota
	StepStaging
	StepPermissioning
	StepServicesLaunching
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepStart:
		return "start"
	case StepStaging:
		return "staging"
	case StepPermissioning:
		return "permissioning"
	case StepServicesLaunching:
		return "services_launching"
	case StepDone:
		return "done"
	default:
		return "unknown"
	}
}

// InitializationResult records the outcome of one cycle. It is the
// unit of the journal; every field must survive a JSON round trip.
type InitializationResult struct {
	Cycle      string    `json:"cycle"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Architecture   string `json:"architecture"`
	ManifestSource string `json:"manifest_source"`

	StageStatus  assets.StageStatus `json:"stage_status"`
	StagedAsset  string             `json:"staged_asset,omitempty"`
	StageSkipped bool               `json:"stage_skipped"`

	PermissionStatus permissions.Status `json:"permission_status"`

	ServicesLaunched []string `json:"services_launched,omitempty"`

	// Errors holds the per-step failures, already absorbed. They are
	// kept for the journal and the status command, not for gating.
	Errors []string `json:"errors,omitempty"`
}

// OK reports whether the cycle completed without any absorbed
// failure.
func (r *InitializationResult) OK() bool {
	return r.StageStatus == assets.StageOK &&
		r.PermissionStatus == permissions.StatusOK &&
		len(r.Errors) == 0
}

func (r *InitializationResult) addError(step Step, err error) {
	r.Errors = append(r.Errors, step.String()+": "+err.Error())
}
