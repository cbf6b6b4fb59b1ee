// Package flows contains the pure orchestrators behind every Client operation.
//
// [RunRefresh] is the refresh coordinator: it decides whether the refresh endpoint must
// be called for a given pre-request session identifier and classifies the result.
// [RunRequest] is the retrying executor: an explicit state machine that performs a call,
// routes expired responses through the coordinator, and loops or terminates.
//
// Both accept a typed dependency struct and return results without side effects beyond
// those dependencies. Errors surfaced to callers are built by the root package through
// constructor hooks in the deps.
//
// # Architecture boundaries
//
// Flow functions coordinate the cookie store, the token store, the transport, metrics and
// events. They do NOT own any of these resources; ownership stays with the Client.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls (the singleflight group is owned by the caller).
//   - Import goSession (to avoid import cycles).
//   - Perform network I/O directly; all calls go through deps.
package flows
