// Package cookies provides the session-identifier cookie storage used by goSession.
//
// The session identifier is opaque: this package reads and writes it, never parses it.
// Clearing a session identifier is done by writing an already-expired value, see [Clear].
//
// [JarStore] keeps the identifier in an [http.CookieJar] (public-suffix aware) that can
// also carry the API's own cookies when request credentials are enabled. [MemoryStore]
// is a minimal process-local implementation.
package cookies

import (
	"context"
	"time"
)

// DefaultSessionIDCookieName is the cookie that carries the session identifier.
const DefaultSessionIDCookieName = "sIdRefreshToken"

// Store reads and writes the session identifier cookie.
type Store interface {
	// SessionID returns the current session identifier, or "" when there is none.
	SessionID(ctx context.Context) (string, error)
	// SetSessionID writes value under scope. An expiry in the past removes the cookie;
	// a zero expiry writes a session cookie.
	SetSessionID(ctx context.Context, value string, expires time.Time, scope string) error
}

// Clear removes the session identifier by writing an expired value.
func Clear(ctx context.Context, s Store, scope string) error {
	return s.SetSessionID(ctx, "", time.Unix(0, 0), scope)
}
