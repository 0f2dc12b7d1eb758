package manifest

import (
	"context"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/dtf-framework/device-agent/internal/platform"
)

// Parser evaluates Lua staging manifests with platform detection.
type Parser struct {
	detector platform.Detector
	info     *platform.Info
}

// NewParser creates a new manifest parser with the given platform
// detector. A nil detector skips platform table injection.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector}
}

// NewParserWithInfo creates a parser that injects already-detected
// platform info instead of running detection itself. A nil info skips
// platform table injection.
func NewParserWithInfo(info *platform.Info) *Parser {
	return &Parser{info: info}
}

// ParseString parses a Lua manifest from a string.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Manifest, error) {
	L := newSandboxedVM()
	defer L.Close()

	info := p.info
	if info == nil && p.detector != nil {
		detected, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		info = detected
	}
	if info != nil {
		if err := platform.InjectPlatformTable(L, info); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		return nil, &ParseError{
			Message: "Lua syntax error",
			Detail:  err.Error(),
		}
	}

	return extractManifest(L)
}

// ParseError represents a manifest parsing error with friendly message.
type ParseError struct {
	Message string // user-friendly message
	Detail  string // technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// extractManifest extracts the manifest from a Lua state. It expects a
// global "agent" table with the manifest structure.
func extractManifest(L *lua.LState) (*Manifest, error) {
	agentTable := L.GetGlobal("agent")
	if agentTable.Type() != lua.LTTable {
		return nil, &ParseError{
			Message: "missing or invalid 'agent' table",
			Detail:  fmt.Sprintf("expected table, got %s", agentTable.Type()),
		}
	}

	m := &Manifest{
		Assets:    map[string]string{},
		Checksums: map[string]string{},
	}
	table := agentTable.(*lua.LTable)

	if helperVal := table.RawGetString("helper"); helperVal.Type() == lua.LTString {
		m.Helper = helperVal.String()
	}

	if socketVal := table.RawGetString("socket"); socketVal.Type() == lua.LTString {
		m.Socket = socketVal.String()
	}

	if assetsVal := table.RawGetString("assets"); assetsVal.Type() == lua.LTTable {
		m.Assets = extractStringMap(assetsVal.(*lua.LTable))
	}

	if sumsVal := table.RawGetString("checksums"); sumsVal.Type() == lua.LTTable {
		m.Checksums = extractStringMap(sumsVal.(*lua.LTable))
	}

	if err := m.Validate(); err != nil {
		return nil, &ParseError{
			Message: "manifest validation failed",
			Detail:  err.Error(),
		}
	}

	return m, nil
}

// extractStringMap extracts string keys mapped to string values,
// skipping nil entries left behind by platform conditionals.
func extractStringMap(table *lua.LTable) map[string]string {
	out := map[string]string{}

	table.ForEach(func(key, value lua.LValue) {
		if key.Type() != lua.LTString {
			return
		}
		if value.Type() == lua.LTNil {
			return
		}
		if value.Type() != lua.LTString {
			return
		}
		out[key.String()] = value.String()
	})

	return out
}

// FormatError formats a ParseError for log output. In verbose mode the
// raw Lua error is included; otherwise the traceback is trimmed.
func FormatError(err error, verbose bool) string {
	if parseErr, ok := err.(*ParseError); ok {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
		}
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", parseErr.Message, detail)
	}
	return err.Error()
}
