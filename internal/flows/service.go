package flows

import (
	"context"
	"net/http"
)

// Deps groups flow dependency sets. The root client builds this once.
type Deps struct {
	Refresh RefreshDeps
	Request RequestDeps
}

// Service is the flow runner built once by the root client. Its request executor routes
// expired responses through its own refresh coordinator.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	s := Service{deps: deps}
	if s.deps.Request.HandleUnauthorised == nil {
		refresh := s.deps.Refresh
		s.deps.Request.HandleUnauthorised = func(ctx context.Context, preSessionID string) RefreshResult {
			return RunRefresh(ctx, preSessionID, refresh)
		}
	}
	return s
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Request.Call != nil && s.deps.Session().Cookies != nil
}

// Session returns the shared session dependency set.
func (d Deps) Session() SessionDeps {
	return d.Request.Session
}

// Refresh runs the refresh coordinator for preSessionID.
func (s Service) Refresh(ctx context.Context, preSessionID string) RefreshResult {
	return s.deps.Request.HandleUnauthorised(ctx, preSessionID)
}

// Request runs the retrying executor.
func (s Service) Request(ctx context.Context, in RequestInput) (*http.Response, error) {
	return RunRequest(ctx, in, s.deps.Request)
}

// Augment applies the request-side augmentation without sending anything.
func (s Service) Augment(ctx context.Context, req *http.Request, credentials *bool) (*http.Request, string, bool, error) {
	return Augment(ctx, req, credentials, s.deps.Request)
}

// Cleanup applies the token cleanup rule.
func (s Service) Cleanup(ctx context.Context) (bool, error) {
	return Cleanup(ctx, s.deps.Session())
}

// SessionID reads the current session identifier.
func (s Service) SessionID(ctx context.Context) (string, error) {
	return CurrentSessionID(ctx, s.deps.Session())
}

// WithCall returns a copy of the service whose executor sends through call. The refresh
// coordinator keeps its own transport.
func (s Service) WithCall(call Caller) Service {
	s.deps.Request.Call = call
	return s
}
