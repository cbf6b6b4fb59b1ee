// Package tokens stores the anti-CSRF token and the front token issued by the API.
//
// # Keyed validity
//
// An anti-CSRF token belongs to exactly one session identifier. [Store.AntiCSRF] takes the
// session identifier the caller currently observes; when it differs from the identifier
// the token was stored under (or is empty) the token is discarded and "" is returned.
// Implementations enforce this themselves so callers never see a token from a previous
// session.
//
// The front token is replaced wholesale on every write and is never merged.
//
// # Implementations
//
//   - [MemoryStore]: process-local.
//   - [RedisStore]: shared between processes; the keyed-validity check runs as a single
//     Lua script so a stale token is removed atomically.
package tokens
