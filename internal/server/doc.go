// Package server implements the device side of the framework's local
// command socket.
//
// The host forwards a local socket to the device and speaks a compact
// binary protocol over it, one command per connection:
//
//	'd'  download a file from the device
//	'u'  upload a file to the device
//	'e'  execute a shell command via the staged helper
//
// File names travel as 256-byte NUL-padded strings, command lines as
// 512-byte NUL-padded strings. File sizes are big-endian uint64,
// execute output sizes big-endian uint32, and payloads move in
// 1024-byte chunks. Every exchange is acknowledged with a single
// status byte; 0 is success and the remaining codes describe why the
// peer's request was refused.
//
// The listener binds the abstract unix socket namespace first and
// falls back to a filesystem socket when the abstract namespace is
// unavailable, matching what host-side tooling probes for.
package server
