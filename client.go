package goSession

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrEthical07/goSession/cookies"
	"github.com/MrEthical07/goSession/fronttoken"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/internal/logattr"
	"github.com/MrEthical07/goSession/scope"
	"github.com/MrEthical07/goSession/tokens"
)

const tracerName = "github.com/MrEthical07/goSession"

// Client sends requests to the API and keeps the session alive across them. Build one
// with [New]; a Client is safe for concurrent use.
type Client struct {
	cfg       Config
	apiBase   *url.URL
	decider   *scope.Decider
	transport Transport
	// credentialJar is nil when the transport manages its own cookies.
	credentialJar *cookies.JarStore

	cookies cookies.Store
	tokens  tokens.Store
	flows   flows.Service

	metrics *Metrics
	events  *eventDispatcher
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time

	// installed tracks the http.Clients AddInterceptors has wrapped.
	installed sync.Map
}

// Config returns a copy of the client's configuration.
func (c *Client) Config() Config {
	if c == nil {
		return Config{}
	}
	return cloneConfig(c.cfg)
}

// Do sends req. Requests addressed to the API run through the refresh-and-retry loop;
// others are sent once, unchanged. A relative URL is resolved against APIDomain.
//
// Errors: [*SessionExpiredError] when the session is gone, [*APIError] when the refresh
// call failed, and the transport's own error, unchanged, for any other failure.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c == nil {
		return nil, ErrNotInitialized
	}
	if req == nil || req.URL == nil {
		return nil, ErrInvalidURL
	}

	ctx := c.requestContext(req.Context())
	req = req.WithContext(ctx)
	if !req.URL.IsAbs() {
		req.URL = c.apiBase.ResolveReference(req.URL)
		req.Host = ""
	}
	if err := ensureReplayable(req); err != nil {
		return nil, err
	}

	intercept, err := c.decider.ShouldIntercept(req.URL.String())
	if err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "gosession.Do",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.URL.Path),
			attribute.Bool("gosession.intercepted", intercept),
		),
	)
	defer span.End()
	req = req.WithContext(ctx)

	start := c.now()
	defer func() {
		c.metrics.Observe(MetricRequestLatency, c.now().Sub(start))
	}()

	var resp *http.Response
	if !intercept {
		c.metrics.Inc(MetricPassThrough)
		include, _ := CredentialsFromContext(ctx)
		resp, err = c.send(req, include)
	} else {
		resp, err = c.flows.Request(ctx, flows.RequestInput{
			Request:     req,
			Credentials: credentialsFlag(ctx),
		})
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.DebugContext(ctx, "request failed",
			logattr.Method(req.Method),
			logattr.URL(req.URL),
			logattr.Error(err),
		)
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	return resp, nil
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, rawURL string, opts ...RequestOption) (*http.Response, error) {
	return c.request(ctx, http.MethodGet, rawURL, nil, opts)
}

// Post sends body as described for [newRequest]: []byte, string and io.Reader bodies are
// sent as is, other values as JSON.
func (c *Client) Post(ctx context.Context, rawURL string, body any, opts ...RequestOption) (*http.Response, error) {
	return c.request(ctx, http.MethodPost, rawURL, body, opts)
}

// Put sends a PUT request with body encoded as for [Client.Post].
func (c *Client) Put(ctx context.Context, rawURL string, body any, opts ...RequestOption) (*http.Response, error) {
	return c.request(ctx, http.MethodPut, rawURL, body, opts)
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, rawURL string, opts ...RequestOption) (*http.Response, error) {
	return c.request(ctx, http.MethodDelete, rawURL, nil, opts)
}

func (c *Client) request(ctx context.Context, method, rawURL string, body any, opts []RequestOption) (*http.Response, error) {
	if c == nil {
		return nil, ErrNotInitialized
	}
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := newRequest(ctx, method, rawURL, body, opts)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// AttemptRefreshingSession refreshes the session now. It reports true when the session
// is alive afterwards and false when it has expired. A failed refresh call is returned
// as [*APIError].
func (c *Client) AttemptRefreshingSession(ctx context.Context) (bool, error) {
	if c == nil {
		return false, ErrNotInitialized
	}
	ctx = c.requestContext(ctx)
	ctx, span := c.tracer.Start(ctx, "gosession.AttemptRefreshingSession")
	defer span.End()
	defer func() {
		if _, err := c.flows.Cleanup(ctx); err != nil {
			c.logger.WarnContext(ctx, "token cleanup failed", logattr.Error(err))
		}
	}()

	pre, err := c.flows.SessionID(ctx)
	if err != nil {
		return false, err
	}
	res := c.flows.Refresh(ctx, pre)
	span.SetAttributes(attribute.String("gosession.refresh.outcome", res.Outcome.String()))
	switch res.Outcome {
	case flows.RefreshRetry:
		return true, nil
	case flows.RefreshSessionExpired:
		return false, nil
	default:
		err := c.refreshError(res)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}
}

// DoesSessionExist reports whether a session identifier is stored. It changes no state.
func (c *Client) DoesSessionExist(ctx context.Context) (bool, error) {
	if c == nil {
		return false, ErrNotInitialized
	}
	id, err := c.flows.SessionID(c.requestContext(ctx))
	if err != nil {
		return false, err
	}
	return id != "", nil
}

// GetUserID returns the user id carried by the front token.
func (c *Client) GetUserID(ctx context.Context) (string, error) {
	claims, err := c.frontClaims(ctx)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// GetAccessTokenPayload returns the access token payload carried by the front token.
// The token may have expired; see [Client.GetAccessTokenPayloadSecurely].
func (c *Client) GetAccessTokenPayload(ctx context.Context) (map[string]any, error) {
	claims, err := c.frontClaims(ctx)
	if err != nil {
		return nil, err
	}
	return claims.Payload, nil
}

// GetAccessTokenPayloadSecurely is like GetAccessTokenPayload but refreshes the session
// first when the access token has expired.
func (c *Client) GetAccessTokenPayloadSecurely(ctx context.Context) (map[string]any, error) {
	claims, err := c.frontClaims(ctx)
	if err != nil {
		return nil, err
	}
	if !claims.Expired(c.now()) {
		return claims.Payload, nil
	}
	alive, err := c.AttemptRefreshingSession(ctx)
	if err != nil {
		return nil, err
	}
	if !alive {
		return nil, &SessionExpiredError{StatusCode: c.cfg.SessionExpiredStatusCode}
	}
	return c.GetAccessTokenPayload(ctx)
}

func (c *Client) frontClaims(ctx context.Context) (*fronttoken.Claims, error) {
	if c == nil {
		return nil, ErrNotInitialized
	}
	if ctx == nil {
		ctx = context.Background()
	}
	raw, err := c.tokens.FrontToken(ctx)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, ErrNoSession
	}
	return fronttoken.Decode(raw)
}

// MetricsSnapshot returns the client's counters.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil {
		return (*Metrics)(nil).Snapshot()
	}
	return c.metrics.Snapshot()
}

// EventsDropped returns how many session events were dropped because the event buffer
// was full.
func (c *Client) EventsDropped() uint64 {
	if c == nil {
		return 0
	}
	return c.events.Dropped()
}

// Close flushes pending session events. The client must not be used afterwards.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.events.Close()
}

func (c *Client) requestContext(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if RequestIDFromContext(ctx) == "" {
		ctx = WithRequestID(ctx, uuid.NewString())
	}
	return ctx
}

// refreshError maps a failed refresh to the caller-facing error.
func (c *Client) refreshError(res flows.RefreshResult) error {
	if res.Err != nil && errors.Is(res.Err, ErrConfiguration) {
		return res.Err
	}
	return &APIError{
		StatusCode: res.StatusCode,
		Body:       res.Body,
		Err:        res.Err,
	}
}

// refreshCall sends the refresh request inside its own span.
func (c *Client) refreshCall(req *http.Request, credentials bool) (*http.Response, error) {
	ctx, span := c.tracer.Start(req.Context(), "gosession.refresh",
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	resp, err := c.send(req.WithContext(ctx), credentials)
	r := resp
	if r == nil {
		r = responseOf(err)
	}
	if r != nil {
		span.SetAttributes(attribute.Int("http.response.status_code", r.StatusCode))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return resp, err
}
