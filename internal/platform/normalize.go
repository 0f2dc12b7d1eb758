package platform

import "strings"

// archMap maps raw CPU identifiers to their instruction-set class.
// Identifiers come from the kernel (uname -m style) or from GOARCH;
// both spellings are listed explicitly rather than pattern-matched.
var archMap = map[string]Architecture{
	// ARM family
	"arm":     ArchARM,
	"armv6l":  ArchARM,
	"armv7l":  ArchARM,
	"armv8l":  ArchARM,
	"arm64":   ArchARM,
	"aarch64": ArchARM,

	// Intel family
	"386":    ArchIntel,
	"i386":   ArchIntel,
	"i486":   ArchIntel,
	"i586":   ArchIntel,
	"i686":   ArchIntel,
	"x86":    ArchIntel,
	"amd64":  ArchIntel,
	"x86_64": ArchIntel,
}

// ClassifyArch maps a raw CPU identifier to an Architecture.
// Unrecognized identifiers classify as ArchUnknown.
func ClassifyArch(raw string) Architecture {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if arch, ok := archMap[normalized]; ok {
		return arch
	}
	return ArchUnknown
}
