// Package internal holds goSession helpers that are not part of the public API.
//
// # Sub-packages
//
//   - flows: refresh coordinator and retrying request executor
//   - logattr: slog attribute helpers
//   - testserver: in-process session API used by tests, the probe and the example
//
// # What this package must NOT do
//
//   - Export types that appear in the public goSession API.
package internal
