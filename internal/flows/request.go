package flows

import (
	"context"
	"errors"
	"net/http"

	"github.com/MrEthical07/goSession/internal/logattr"
)

var errNoResponse = errors.New("transport returned neither response nor error")

type requestState int

const (
	stateAttempt requestState = iota
	stateHandleExpiry
	stateReturnSuccess
	stateFail
)

func (s requestState) String() string {
	switch s {
	case stateAttempt:
		return "attempt"
	case stateHandleExpiry:
		return "handle_expiry"
	case stateReturnSuccess:
		return "return_success"
	case stateFail:
		return "fail"
	default:
		return "unknown"
	}
}

// RequestDeps captures retrying executor dependencies.
type RequestDeps struct {
	Session            SessionDeps
	ExpiredStatus      int
	AutoAddCredentials bool

	Call               Caller
	ResponseOf         func(error) *http.Response
	HandleUnauthorised func(ctx context.Context, preSessionID string) RefreshResult

	SessionExpiredError func(status int) error
	APIError            func(RefreshResult) error
}

// FirstAttempt is the outcome of a call already made outside the executor, e.g. by an
// interceptor, with the session identifier observed before it was sent.
type FirstAttempt struct {
	PreSessionID string
	Response     *http.Response
	Err          error
}

// RequestInput describes one logical request.
type RequestInput struct {
	Request *http.Request
	// Credentials is the caller's explicit credentials flag; nil means unset.
	Credentials *bool
	First       *FirstAttempt
}

// Augment snapshots the session identifier and returns a copy of req carrying the
// anti-CSRF token stored for it, together with the effective credentials flag. The body
// is reopened through GetBody when available so the copy can be sent again.
func Augment(ctx context.Context, req *http.Request, credentials *bool, deps RequestDeps) (*http.Request, string, bool, error) {
	normalizeSessionDeps(&deps.Session)
	pre, err := CurrentSessionID(ctx, deps.Session)
	if err != nil {
		return nil, "", false, err
	}
	token, err := deps.Session.Tokens.AntiCSRF(ctx, pre)
	if err != nil {
		return nil, "", false, err
	}

	out := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, "", false, err
		}
		out.Body = body
	}
	if token != "" {
		out.Header.Set(HeaderAntiCSRF, token)
	}

	withCredentials := deps.AutoAddCredentials
	if credentials != nil {
		withCredentials = *credentials
	}
	return out, pre, withCredentials, nil
}

// RunRequest runs the retrying executor for one in-scope request. The session token
// cleanup runs exactly once when it returns.
func RunRequest(ctx context.Context, in RequestInput, deps RequestDeps) (*http.Response, error) {
	normalizeSessionDeps(&deps.Session)
	s := deps.Session
	defer cleanupAndLog(ctx, s)

	var (
		state   = stateAttempt
		first   = in.First
		attempt int
		pre     string
		resp    *http.Response
		err     error
	)

	for {
		switch state {
		case stateAttempt:
			attempt++
			s.MetricInc(s.Metrics.Attempt)
			if first != nil {
				pre, resp, err = first.PreSessionID, first.Response, first.Err
				first = nil
			} else {
				var (
					req         *http.Request
					credentials bool
				)
				req, pre, credentials, err = Augment(ctx, in.Request, in.Credentials, deps)
				if err != nil {
					state = stateFail
					continue
				}
				resp, err = deps.Call(req, credentials)
			}
			state, resp, err = inspect(ctx, deps, resp, err)
			s.Logger.DebugContext(ctx, "request attempt finished",
				logattr.Attempt(attempt),
				logattr.HasSession(pre),
				logattr.State(state.String()),
			)

		case stateHandleExpiry:
			res := deps.HandleUnauthorised(ctx, pre)
			switch res.Outcome {
			case RefreshRetry:
				s.MetricInc(s.Metrics.Retry)
				state = stateAttempt
			case RefreshSessionExpired:
				s.MetricInc(s.Metrics.SessionExpired)
				err = deps.SessionExpiredError(deps.ExpiredStatus)
				state = stateFail
			default:
				err = deps.APIError(res)
				state = stateFail
			}
			s.Logger.DebugContext(ctx, "expiry handled",
				logattr.Outcome(res.Outcome.String()),
				logattr.State(state.String()),
			)

		case stateReturnSuccess:
			return resp, nil

		default:
			return nil, err
		}
	}
}

// inspect persists what the response carries and picks the next state. The session
// identifier is persisted from every response; the tokens only from the one that ends
// the loop successfully.
func inspect(ctx context.Context, deps RequestDeps, resp *http.Response, err error) (requestState, *http.Response, error) {
	s := deps.Session
	if err != nil {
		var r *http.Response
		if deps.ResponseOf != nil {
			r = deps.ResponseOf(err)
		}
		if r != nil {
			if _, perr := PersistSessionID(ctx, r.Header, s); perr != nil {
				s.Logger.WarnContext(ctx, "persisting session identifier failed", logattr.Error(perr))
			}
			if r.StatusCode == deps.ExpiredStatus {
				s.MetricInc(s.Metrics.ExpiredResponse)
				drain(r)
				return stateHandleExpiry, nil, nil
			}
		}
		s.MetricInc(s.Metrics.TransportError)
		return stateFail, nil, err
	}

	if resp == nil {
		s.MetricInc(s.Metrics.TransportError)
		return stateFail, nil, errNoResponse
	}
	if _, perr := PersistSessionID(ctx, resp.Header, s); perr != nil {
		drain(resp)
		return stateFail, nil, perr
	}
	if resp.StatusCode == deps.ExpiredStatus {
		s.MetricInc(s.Metrics.ExpiredResponse)
		drain(resp)
		return stateHandleExpiry, nil, nil
	}
	if perr := PersistTokens(ctx, resp.Header, s); perr != nil {
		drain(resp)
		return stateFail, nil, perr
	}
	return stateReturnSuccess, resp, nil
}
