package manifest

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dtf-framework/device-agent/internal/platform"
)

// Embedded default manifest and framework release keyring. The
// keyring gates deployment-time manifest overrides: only overrides
// signed by the release key are honored.

//go:embed manifest.lua
var embeddedManifest []byte

//go:embed keyrings/framework.asc
var embeddedKeyring []byte

// OverrideName is the file name of a deployment manifest override
// inside the agent files directory. Its detached signature lives next
// to it with SignatureName.
const (
	OverrideName  = "manifest.lua"
	SignatureName = "manifest.lua.asc"
)

// DefaultHelperName is the canonical destination name baked into the
// embedded manifest. Exposed for callers that need the helper path
// before any manifest has been loaded.
const DefaultHelperName = "busybox"

// Load returns the staging manifest for this run.
//
// When filesDir contains a signed override manifest it is verified
// and, if valid, parsed and returned. In every other case (no
// override, missing signature, bad signature, unparseable override)
// the compiled-in default is used; override problems are reported
// through the returned source string so the caller can log them.
func Load(ctx context.Context, filesDir string, detector platform.Detector) (*Manifest, string, error) {
	return load(ctx, filesDir, NewParser(detector))
}

// LoadWithInfo is Load for callers that have already run platform
// detection; the given info is injected without detecting again. A
// nil info skips platform table injection.
func LoadWithInfo(ctx context.Context, filesDir string, info *platform.Info) (*Manifest, string, error) {
	return load(ctx, filesDir, NewParserWithInfo(info))
}

func load(ctx context.Context, filesDir string, parser *Parser) (*Manifest, string, error) {
	if filesDir != "" {
		if m, err := loadOverride(ctx, filesDir, parser); err == nil && m != nil {
			return m, "override", nil
		} else if err != nil {
			m, embErr := parser.ParseString(ctx, string(embeddedManifest))
			if embErr != nil {
				return nil, "", fmt.Errorf("parse embedded manifest: %w", embErr)
			}
			return m, fmt.Sprintf("embedded (override rejected: %v)", err), nil
		}
	}

	m, err := parser.ParseString(ctx, string(embeddedManifest))
	if err != nil {
		return nil, "", fmt.Errorf("parse embedded manifest: %w", err)
	}
	return m, "embedded", nil
}

// loadOverride attempts to load a signed override manifest.
// Returns (nil, nil) when no override is present.
func loadOverride(ctx context.Context, filesDir string, parser *Parser) (*Manifest, error) {
	overridePath := filepath.Join(filesDir, OverrideName)

	data, err := os.ReadFile(overridePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read override manifest: %w", err)
	}

	sig, err := os.ReadFile(filepath.Join(filesDir, SignatureName))
	if err != nil {
		return nil, fmt.Errorf("override manifest present but unsigned: %w", err)
	}

	verifier, err := NewVerifier(embeddedKeyring)
	if err != nil {
		return nil, fmt.Errorf("load framework keyring: %w", err)
	}

	if err := verifier.VerifyDetached(data, sig); err != nil {
		return nil, fmt.Errorf("verify override manifest: %w", err)
	}

	m, err := parser.ParseString(ctx, string(data))
	if err != nil {
		return nil, fmt.Errorf("parse override manifest: %w", err)
	}

	return m, nil
}
