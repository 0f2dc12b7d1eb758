// Package assets stages the architecture-appropriate helper binary
// from the read-only bundled asset store into the agent's private
// files directory.
//
// Staging is a copy, not a move: the asset store is never modified.
// The copy lands under the canonical helper name regardless of which
// architecture-specific asset it came from, so later consumers never
// branch on architecture. Writes go through a temporary file that is
// renamed into place, so a failed or interrupted copy never leaves a
// partially-written binary at the canonical destination.
package assets
