// Package platform classifies the device CPU into the closed set of
// instruction-set targets the agent ships helper binaries for.
//
// Classification never fails: devices whose CPU cannot be recognized
// are reported as ArchUnknown, which downstream staging treats as
// "nothing to stage" rather than an error.
package platform

import "context"

// Architecture is the instruction-set class of the running device.
type Architecture int

const (
	// ArchUnknown means the CPU could not be classified. It is a valid
	// terminal classification, not an error.
	ArchUnknown Architecture = iota
	// ArchARM covers 32- and 64-bit ARM cores.
	ArchARM
	// ArchIntel covers x86 and x86-64 cores.
	ArchIntel
)

// String returns the lowercase name of the architecture class.
func (a Architecture) String() string {
	switch a {
	case ArchARM:
		return "arm"
	case ArchIntel:
		return "intel"
	default:
		return "unknown"
	}
}

// Info contains platform detection information.
type Info struct {
	Arch    Architecture // normalized instruction-set class
	ArchRaw string       // raw identifier the classification was made from
	OS      string       // runtime.GOOS
	Kernel  string       // kernel version, when available
}

// IsARM returns true if the device runs an ARM core.
func (i *Info) IsARM() bool { return i.Arch == ArchARM }

// IsIntel returns true if the device runs an x86 core.
func (i *Info) IsIntel() bool { return i.Arch == ArchIntel }

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
