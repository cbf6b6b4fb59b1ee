package flows

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/cookies"
	"github.com/MrEthical07/goSession/internal/logattr"
	"github.com/MrEthical07/goSession/tokens"
)

// SessionIDHeader is a parsed id-refresh-token header.
type SessionIDHeader struct {
	Remove  bool
	Value   string
	Expires time.Time
}

// ParseSessionIDHeader parses "remove", "<value>;<expiry-unix-ms>" or a bare value.
// ok is false for an empty header.
func ParseSessionIDHeader(raw string) (SessionIDHeader, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return SessionIDHeader{}, false
	}
	if raw == removeValue {
		return SessionIDHeader{Remove: true}, true
	}
	value, expiry, found := strings.Cut(raw, ";")
	h := SessionIDHeader{Value: strings.TrimSpace(value)}
	if h.Value == "" {
		return SessionIDHeader{Remove: true}, true
	}
	if found {
		if ms, err := strconv.ParseInt(strings.TrimSpace(expiry), 10, 64); err == nil {
			h.Expires = time.UnixMilli(ms)
		}
	}
	return h, true
}

// CurrentSessionID reads the session identifier.
func CurrentSessionID(ctx context.Context, deps SessionDeps) (string, error) {
	return deps.Cookies.SessionID(ctx)
}

// PersistSessionID writes the id-refresh-token header of h, if any, to the cookie store.
// It reports whether the header was present.
func PersistSessionID(ctx context.Context, h http.Header, deps SessionDeps) (bool, error) {
	normalizeSessionDeps(&deps)
	parsed, ok := ParseSessionIDHeader(h.Get(HeaderIDRefreshToken))
	if !ok {
		return false, nil
	}

	before, err := deps.Cookies.SessionID(ctx)
	if err != nil {
		return true, err
	}
	if parsed.Remove {
		err = cookies.Clear(ctx, deps.Cookies, deps.SessionScope)
	} else {
		err = deps.Cookies.SetSessionID(ctx, parsed.Value, parsed.Expires, deps.SessionScope)
	}
	if err != nil {
		return true, err
	}

	after, err := deps.Cookies.SessionID(ctx)
	if err != nil {
		return true, err
	}
	switch {
	case before == "" && after != "":
		deps.Emit(ctx, deps.Events.SessionCreated, after, 0, nil)
	case before != "" && after == "":
		deps.Emit(ctx, deps.Events.SignOut, before, 0, nil)
	}
	return true, nil
}

// PersistTokens stores the anti-CSRF and front-token headers of h. The anti-CSRF token
// is keyed to the session identifier current at this point.
func PersistTokens(ctx context.Context, h http.Header, deps SessionDeps) error {
	normalizeSessionDeps(&deps)
	sessionID, err := deps.Cookies.SessionID(ctx)
	if err != nil {
		return err
	}

	if v := h.Get(HeaderAntiCSRF); v != "" {
		if err := deps.Tokens.SetAntiCSRF(ctx, sessionID, v); err != nil {
			return err
		}
	}

	v := h.Get(HeaderFrontToken)
	switch v {
	case "":
		return nil
	case removeValue:
		return deps.Tokens.RemoveFrontToken(ctx)
	}
	previous, err := deps.Tokens.FrontToken(ctx)
	if err != nil {
		return err
	}
	if err := deps.Tokens.SetFrontToken(ctx, v); err != nil {
		return err
	}
	if previous != v {
		deps.Emit(ctx, deps.Events.PayloadUpdated, sessionID, 0, nil)
	}
	return nil
}

// Cleanup clears both tokens when no session identifier is present. It reports whether
// the tokens were cleared.
func Cleanup(ctx context.Context, deps SessionDeps) (bool, error) {
	normalizeSessionDeps(&deps)
	sessionID, err := deps.Cookies.SessionID(ctx)
	if err != nil {
		return false, err
	}
	if sessionID != "" {
		return false, nil
	}
	if err := tokens.Clear(ctx, deps.Tokens); err != nil {
		return false, err
	}
	deps.MetricInc(deps.Metrics.TokenCleanup)
	return true, nil
}

func cleanupAndLog(ctx context.Context, deps SessionDeps) {
	cleared, err := Cleanup(ctx, deps)
	if err != nil {
		deps.Logger.WarnContext(ctx, "session token cleanup failed", logattr.Error(err))
		return
	}
	if cleared {
		deps.Logger.DebugContext(ctx, "session tokens cleared")
	}
}
