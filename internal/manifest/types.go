package manifest

import (
	"fmt"

	"github.com/dtf-framework/device-agent/internal/platform"
)

// Manifest describes what the stager should do for each architecture.
type Manifest struct {
	// Helper is the canonical destination name of the staged binary.
	Helper string
	// Assets maps architecture class names ("arm", "intel") to the
	// bundled asset name for that class.
	Assets map[string]string
	// Checksums maps asset names to their expected SHA-256 hex digest.
	// Assets without an entry are staged without verification.
	Checksums map[string]string
	// Socket is the abstract socket name the command listener binds.
	Socket string
}

// AssetFor returns the bundled asset name for an architecture class.
// The second return is false when the manifest has no asset for the
// class, including ArchUnknown.
func (m *Manifest) AssetFor(arch platform.Architecture) (string, bool) {
	if arch == platform.ArchUnknown {
		return "", false
	}
	name, ok := m.Assets[arch.String()]
	if ok && name == "" {
		return "", false
	}
	return name, ok
}

// ChecksumFor returns the expected SHA-256 digest for an asset, or
// false when the manifest carries none.
func (m *Manifest) ChecksumFor(asset string) (string, bool) {
	sum, ok := m.Checksums[asset]
	return sum, ok && sum != ""
}

// Validate checks manifest fields for structural problems.
func (m *Manifest) Validate() error {
	if m.Helper == "" {
		return fmt.Errorf("helper name is required")
	}
	if len(m.Assets) == 0 {
		return fmt.Errorf("assets table is empty")
	}
	for class, name := range m.Assets {
		if class != platform.ArchARM.String() && class != platform.ArchIntel.String() {
			return fmt.Errorf("unknown architecture class %q", class)
		}
		if name == "" {
			return fmt.Errorf("empty asset name for architecture %q", class)
		}
	}
	for asset, sum := range m.Checksums {
		if len(sum) != 64 {
			return fmt.Errorf("checksum for %q is not a SHA-256 hex digest", asset)
		}
	}
	return nil
}
