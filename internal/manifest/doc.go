// Package manifest loads and validates the agent's staging manifest.
//
// The manifest is a small declarative Lua document naming the helper
// binary, the per-architecture asset table, and optional per-asset
// SHA-256 checksums. It is evaluated in a sandboxed Lua VM with a
// read-only platform table injected, so manifests can use platform
// conditionals but cannot touch the filesystem or spawn processes.
//
// A default manifest ships compiled into the agent. Deployments may
// override it with a manifest.lua in the agent files directory, but
// only when accompanied by a valid detached OpenPGP signature made by
// the framework release key; unsigned or badly signed overrides are
// ignored and the embedded manifest is used instead.
package manifest
