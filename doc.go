// Package goSession keeps a client's session with its own API alive across access-token
// expiry.
//
// A [Client] sends requests through an injectable [Transport]. When a request addressed
// to the configured API domain comes back with the session-expired status, the client
// calls the refresh endpoint (at most once per session identifier, however many
// requests expired at the same time) and replays the original request. Requests to other
// origins pass through untouched.
//
// The client also keeps the per-session bookkeeping the API relies on: the session
// identifier cookie, the anti-CSRF token (valid only for the session identifier it was
// issued under) and the front token describing the session to the client.
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Client], [Builder], [Config], errors and
// value types (MetricsSnapshot, Event). The refresh coordinator and the retrying
// executor live in internal/flows; URL handling in normalise and scope; storage in
// cookies and tokens.
//
// # What this package must NOT do
//
//   - Retry requests outside the API's scope or on failures other than session expiry.
//   - Wrap transport errors of the original request; they are returned as is.
//   - Import any sub-package that re-imports goSession (no import cycles).
package goSession
