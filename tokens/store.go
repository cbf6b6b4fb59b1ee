package tokens

import (
	"context"
	"errors"
)

// ErrStoreUnavailable wraps backend failures of a [Store].
var ErrStoreUnavailable = errors.New("token store unavailable")

// Store keeps the anti-CSRF token (keyed by session identifier) and the front token.
type Store interface {
	// AntiCSRF returns the token stored for sessionID, or "" when there is none or it
	// was stored under another session identifier. A stale token is removed.
	AntiCSRF(ctx context.Context, sessionID string) (string, error)
	// SetAntiCSRF stores token under sessionID. An empty sessionID removes the token.
	SetAntiCSRF(ctx context.Context, sessionID, token string) error
	RemoveAntiCSRF(ctx context.Context) error

	FrontToken(ctx context.Context) (string, error)
	// SetFrontToken replaces the front token. An empty token removes it.
	SetFrontToken(ctx context.Context, token string) error
	RemoveFrontToken(ctx context.Context) error
}

// Clear removes both tokens. Both removals are attempted even if the first fails.
func Clear(ctx context.Context, s Store) error {
	return errors.Join(s.RemoveAntiCSRF(ctx), s.RemoveFrontToken(ctx))
}
