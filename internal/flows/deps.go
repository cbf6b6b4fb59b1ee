package flows

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/MrEthical07/goSession/cookies"
	"github.com/MrEthical07/goSession/tokens"
)

// Header names exchanged with the API.
const (
	HeaderAntiCSRF       = "anti-csrf"
	HeaderFrontToken     = "front-token"
	HeaderIDRefreshToken = "id-refresh-token"
)

// removeValue in a session header asks the client to drop the stored value.
const removeValue = "remove"

// Caller performs one HTTP exchange. credentials reports whether the request may carry
// and store cookies.
type Caller func(req *http.Request, credentials bool) (*http.Response, error)

// Metrics holds the metric IDs the flows increment. Zero IDs are valid IDs; MetricInc
// decides what to do with them.
type Metrics struct {
	Attempt             int
	ExpiredResponse     int
	Retry               int
	SessionExpired      int
	TransportError      int
	TokenCleanup        int
	RefreshCall         int
	RefreshRetry        int
	RefreshExpired      int
	RefreshAPIError     int
	RefreshFastPath     int
	RefreshDeduplicated int
}

// Events holds the event type names the flows emit.
type Events struct {
	SessionCreated string
	RefreshSession string
	Unauthorised   string
	SignOut        string
	PayloadUpdated string
}

// SessionDeps is the shared session-state dependency set.
type SessionDeps struct {
	Cookies      cookies.Store
	Tokens       tokens.Store
	SessionScope string
	Logger       *slog.Logger

	MetricInc func(int)
	Emit      func(ctx context.Context, eventType, sessionID string, status int, err error)
	Metrics   Metrics
	Events    Events
}

func normalizeSessionDeps(deps *SessionDeps) {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.Emit == nil {
		deps.Emit = func(context.Context, string, string, int, error) {}
	}
}
