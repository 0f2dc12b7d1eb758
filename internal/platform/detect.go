package platform

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using actual platform detection.
type RealDetector struct{}

// NewDetector creates a new platform detector.
func NewDetector() Detector {
	return &RealDetector{}
}

// Detect queries the host for its CPU identifier and classifies it.
//
// The kernel architecture reported by gopsutil (e.g. "armv7l",
// "aarch64", "x86_64") is preferred because it reflects the hardware
// rather than the build target. When gopsutil fails, detection falls
// back to runtime.GOARCH so that classification still succeeds; a
// cancelled context is the only hard failure.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	info := &Info{OS: runtime.GOOS}

	hostInfo, err := host.InfoWithContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Graceful fallback: the build target is a good proxy for the
		// hardware when host inspection is unavailable.
		info.ArchRaw = runtime.GOARCH
		info.Arch = ClassifyArch(runtime.GOARCH)
		return info, nil
	}

	raw := hostInfo.KernelArch
	if raw == "" {
		raw = runtime.GOARCH
	}

	info.ArchRaw = raw
	info.Arch = ClassifyArch(raw)
	info.Kernel = hostInfo.KernelVersion

	return info, nil
}
