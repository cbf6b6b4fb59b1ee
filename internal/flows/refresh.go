package flows

import (
	"context"
	"io"
	"net/http"

	"golang.org/x/sync/singleflight"

	"github.com/MrEthical07/goSession/internal/logattr"
)

// RefreshOutcome is the tagged result of the refresh coordinator.
type RefreshOutcome int

const (
	// RefreshRetry means the caller should redo its original call.
	RefreshRetry RefreshOutcome = iota
	// RefreshSessionExpired means the session is gone.
	RefreshSessionExpired
	// RefreshAPIError means the refresh call failed for a reason unrelated to expiry.
	RefreshAPIError
)

// String returns the outcome name used in logs and events.
func (o RefreshOutcome) String() string {
	switch o {
	case RefreshRetry:
		return "RETRY"
	case RefreshSessionExpired:
		return "SESSION_EXPIRED"
	case RefreshAPIError:
		return "API_ERROR"
	default:
		return "UNKNOWN"
	}
}

// RefreshResult carries the outcome and, for API errors, the failure metadata.
type RefreshResult struct {
	Outcome RefreshOutcome
	// Called reports whether this caller's refresh went to the network (possibly shared
	// with concurrent callers).
	Called bool
	// Shared reports that the network call was collapsed with concurrent callers.
	Shared     bool
	StatusCode int
	Body       []byte
	Err        error
}

// RefreshErrors carries root-level error values.
type RefreshErrors struct {
	Configuration error
}

// RefreshDeps captures refresh coordinator dependencies.
type RefreshDeps struct {
	Session           SessionDeps
	Endpoint          string
	Headers           http.Header
	ExpiredStatus     int
	MaxErrorBodyBytes int

	Call       Caller
	ResponseOf func(error) *http.Response
	// Group collapses concurrent refreshes for one pre-request session identifier.
	// Nil disables collapsing.
	Group *singleflight.Group

	Errors RefreshErrors
}

// RunRefresh decides whether the refresh endpoint must be called for preSessionID and
// classifies the result.
func RunRefresh(ctx context.Context, preSessionID string, deps RefreshDeps) RefreshResult {
	normalizeSessionDeps(&deps.Session)
	log := deps.Session.Logger

	if deps.Endpoint == "" {
		return RefreshResult{Outcome: RefreshAPIError, Err: deps.Errors.Configuration}
	}

	current, err := CurrentSessionID(ctx, deps.Session)
	if err != nil {
		return apiError(ctx, deps, RefreshResult{Err: err})
	}

	if preSessionID == "" {
		deps.Session.MetricInc(deps.Session.Metrics.RefreshFastPath)
		if current == "" {
			log.DebugContext(ctx, "refresh skipped: no prior session", logattr.Outcome(RefreshSessionExpired.String()))
			deps.Session.MetricInc(deps.Session.Metrics.RefreshExpired)
			return RefreshResult{Outcome: RefreshSessionExpired}
		}
		log.DebugContext(ctx, "refresh skipped: session appeared", logattr.Outcome(RefreshRetry.String()))
		deps.Session.MetricInc(deps.Session.Metrics.RefreshRetry)
		return RefreshResult{Outcome: RefreshRetry}
	}

	if current != preSessionID {
		return siblingOutcome(ctx, deps, current)
	}

	if deps.Group == nil {
		return callRefresh(ctx, deps)
	}
	// The shared call must outlive any single caller's cancellation; each caller stops
	// waiting on its own context instead.
	shared := context.WithoutCancel(ctx)
	ch := deps.Group.DoChan(preSessionID, func() (any, error) {
		// A refresh for this identifier may have completed between the check above and
		// this call becoming the group leader.
		if cur, err := CurrentSessionID(shared, deps.Session); err == nil && cur != preSessionID {
			return siblingOutcome(shared, deps, cur), nil
		}
		return callRefresh(shared, deps), nil
	})
	select {
	case r := <-ch:
		res := r.Val.(RefreshResult)
		if r.Shared {
			res.Shared = true
			deps.Session.MetricInc(deps.Session.Metrics.RefreshDeduplicated)
		}
		return res
	case <-ctx.Done():
		return apiError(ctx, deps, RefreshResult{Err: ctx.Err()})
	}
}

// siblingOutcome classifies a session identifier that changed while the caller's request
// was in flight. A removed session is SESSION_EXPIRED; a rotated one is RETRY.
func siblingOutcome(ctx context.Context, deps RefreshDeps, current string) RefreshResult {
	deps.Session.MetricInc(deps.Session.Metrics.RefreshDeduplicated)
	if current == "" {
		deps.Session.Logger.DebugContext(ctx, "refresh skipped: session removed since request")
		res := sessionExpired(ctx, deps, deps.ExpiredStatus)
		res.Called = false
		return res
	}
	deps.Session.Logger.DebugContext(ctx, "refresh skipped: session changed since request", logattr.HasSession(current))
	deps.Session.MetricInc(deps.Session.Metrics.RefreshRetry)
	return RefreshResult{Outcome: RefreshRetry}
}

func callRefresh(ctx context.Context, deps RefreshDeps) RefreshResult {
	s := deps.Session
	s.MetricInc(s.Metrics.RefreshCall)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, deps.Endpoint, http.NoBody)
	if err != nil {
		return apiError(ctx, deps, RefreshResult{Called: true, Err: err})
	}
	for k, vs := range deps.Headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, callErr := deps.Call(req, true)
	if callErr != nil {
		resp = nil
		if deps.ResponseOf != nil {
			resp = deps.ResponseOf(callErr)
		}
	}
	if resp == nil {
		return classifyFailure(ctx, deps, RefreshResult{Called: true, Err: callErr})
	}
	defer drain(resp)

	present, err := PersistSessionID(ctx, resp.Header, s)
	if err != nil {
		return apiError(ctx, deps, RefreshResult{Called: true, StatusCode: resp.StatusCode, Err: err})
	}

	if resp.StatusCode == deps.ExpiredStatus {
		if !present {
			if err := ClearSessionID(ctx, s); err != nil {
				s.Logger.WarnContext(ctx, "clearing session after expired refresh failed", logattr.Error(err))
			}
		}
		return sessionExpired(ctx, deps, resp.StatusCode)
	}

	if callErr != nil || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyFailure(ctx, deps, RefreshResult{
			Called:     true,
			StatusCode: resp.StatusCode,
			Body:       readLimited(resp.Body, deps.MaxErrorBodyBytes),
			Err:        callErr,
		})
	}

	if err := PersistTokens(ctx, resp.Header, s); err != nil {
		return apiError(ctx, deps, RefreshResult{Called: true, StatusCode: resp.StatusCode, Err: err})
	}

	current, err := CurrentSessionID(ctx, s)
	if err != nil {
		return apiError(ctx, deps, RefreshResult{Called: true, StatusCode: resp.StatusCode, Err: err})
	}
	if current == "" {
		return sessionExpired(ctx, deps, resp.StatusCode)
	}

	s.MetricInc(s.Metrics.RefreshRetry)
	s.Emit(ctx, s.Events.RefreshSession, current, resp.StatusCode, nil)
	s.Logger.InfoContext(ctx, "session refreshed", logattr.Outcome(RefreshRetry.String()), logattr.Status(resp.StatusCode))
	return RefreshResult{Outcome: RefreshRetry, Called: true, StatusCode: resp.StatusCode}
}

// ClearSessionID removes the session identifier under the configured scope.
func ClearSessionID(ctx context.Context, deps SessionDeps) error {
	_, err := PersistSessionID(ctx, http.Header{http.CanonicalHeaderKey(HeaderIDRefreshToken): {removeValue}}, deps)
	return err
}

// classifyFailure maps a failed refresh to SESSION_EXPIRED when the session identifier
// has meanwhile disappeared, else to API_ERROR.
func classifyFailure(ctx context.Context, deps RefreshDeps, res RefreshResult) RefreshResult {
	current, err := CurrentSessionID(ctx, deps.Session)
	if err == nil && current == "" {
		return sessionExpired(ctx, deps, res.StatusCode)
	}
	return apiError(ctx, deps, res)
}

func sessionExpired(ctx context.Context, deps RefreshDeps, status int) RefreshResult {
	s := deps.Session
	s.MetricInc(s.Metrics.RefreshExpired)
	s.Emit(ctx, s.Events.Unauthorised, "", status, nil)
	s.Logger.InfoContext(ctx, "session could not be refreshed", logattr.Outcome(RefreshSessionExpired.String()), logattr.Status(status))
	return RefreshResult{Outcome: RefreshSessionExpired, Called: true, StatusCode: status}
}

func apiError(ctx context.Context, deps RefreshDeps, res RefreshResult) RefreshResult {
	deps.Session.MetricInc(deps.Session.Metrics.RefreshAPIError)
	deps.Session.Logger.WarnContext(ctx, "session refresh failed",
		logattr.Outcome(RefreshAPIError.String()),
		logattr.Status(res.StatusCode),
		logattr.Error(res.Err),
	)
	res.Outcome = RefreshAPIError
	return res
}

func readLimited(r io.Reader, limit int) []byte {
	if limit <= 0 || r == nil {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(r, int64(limit)))
	return b
}

// drain consumes a bounded amount of a superseded response body and closes it so the
// underlying connection can be reused.
func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
