package flows

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/MrEthical07/goSession/cookies"
	"github.com/MrEthical07/goSession/tokens"
)

const (
	testAPIBase  = "https://api.example.com"
	testRefresh  = testAPIBase + "/auth/session/refresh"
	testExpired  = http.StatusUnauthorized
	metricCount  = 12
	testEndpoint = "/user"
)

var (
	errTestExpired = errors.New("test: session expired")
	errTestConfig  = errors.New("test: configuration")
)

type testAPIError struct {
	res RefreshResult
}

func (e *testAPIError) Error() string { return "test api error " + strconv.Itoa(e.res.StatusCode) }
func (e *testAPIError) Unwrap() error { return e.res.Err }

type flowTest struct {
	cookies *cookies.MemoryStore
	tokens  *tokens.MemoryStore

	apiCalls     atomic.Int32
	refreshCalls atomic.Int32

	mu      sync.Mutex
	api     func(req *http.Request) (*http.Response, error)
	refresh func(req *http.Request) (*http.Response, error)
	seen    []*http.Request
	events  []string
	metrics [metricCount + 1]int

	svc Service
}

func respond(status int, headers map[string]string, body string) *http.Response {
	h := http.Header{}
	for k, v := range headers {
		h.Set(k, v)
	}
	return &http.Response{
		StatusCode: status,
		Header:     h,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func sessionHeader(value string) string {
	return value + ";" + strconv.FormatInt(time.Now().Add(time.Hour).UnixMilli(), 10)
}

func newFlowTest(t *testing.T) *flowTest {
	t.Helper()
	ft := &flowTest{
		cookies: cookies.NewMemoryStore(),
		tokens:  tokens.NewMemoryStore(),
	}
	ft.api = func(*http.Request) (*http.Response, error) {
		return respond(http.StatusOK, nil, "ok"), nil
	}
	ft.refresh = func(*http.Request) (*http.Response, error) {
		return respond(http.StatusOK, nil, ""), nil
	}

	session := SessionDeps{
		Cookies:      ft.cookies,
		Tokens:       ft.tokens,
		SessionScope: "api.example.com",
		MetricInc: func(id int) {
			ft.mu.Lock()
			ft.metrics[id]++
			ft.mu.Unlock()
		},
		Emit: func(_ context.Context, eventType, _ string, _ int, _ error) {
			ft.mu.Lock()
			ft.events = append(ft.events, eventType)
			ft.mu.Unlock()
		},
		Metrics: Metrics{
			Attempt: 1, ExpiredResponse: 2, Retry: 3, SessionExpired: 4, TransportError: 5,
			TokenCleanup: 6, RefreshCall: 7, RefreshRetry: 8, RefreshExpired: 9,
			RefreshAPIError: 10, RefreshFastPath: 11, RefreshDeduplicated: 12,
		},
		Events: Events{
			SessionCreated: "SESSION_CREATED",
			RefreshSession: "REFRESH_SESSION",
			Unauthorised:   "UNAUTHORISED",
			SignOut:        "SIGN_OUT",
			PayloadUpdated: "ACCESS_TOKEN_PAYLOAD_UPDATED",
		},
	}

	call := func(req *http.Request, _ bool) (*http.Response, error) {
		if req.URL.String() == testRefresh {
			ft.refreshCalls.Add(1)
			return ft.refresh(req)
		}
		ft.apiCalls.Add(1)
		ft.mu.Lock()
		ft.seen = append(ft.seen, req)
		ft.mu.Unlock()
		return ft.api(req)
	}

	ft.svc = New(Deps{
		Refresh: RefreshDeps{
			Session:           session,
			Endpoint:          testRefresh,
			Headers:           http.Header{"X-Refresh": {"1"}},
			ExpiredStatus:     testExpired,
			MaxErrorBodyBytes: 16,
			Call:              call,
			Group:             &singleflight.Group{},
			Errors:            RefreshErrors{Configuration: errTestConfig},
		},
		Request: RequestDeps{
			Session:            session,
			ExpiredStatus:      testExpired,
			AutoAddCredentials: true,
			Call:               call,
			SessionExpiredError: func(status int) error {
				return fmt.Errorf("%w (%d)", errTestExpired, status)
			},
			APIError: func(res RefreshResult) error {
				return &testAPIError{res: res}
			},
		},
	})
	return ft
}

func (ft *flowTest) do(t *testing.T) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, testAPIBase+testEndpoint, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	return ft.svc.Request(context.Background(), RequestInput{Request: req})
}

func (ft *flowTest) setSession(t *testing.T, sid string) {
	t.Helper()
	if err := ft.cookies.SetSessionID(context.Background(), sid, time.Now().Add(time.Hour), "api.example.com"); err != nil {
		t.Fatalf("set session: %v", err)
	}
}

func (ft *flowTest) sessionID(t *testing.T) string {
	t.Helper()
	sid, err := ft.cookies.SessionID(context.Background())
	if err != nil {
		t.Fatalf("session id: %v", err)
	}
	return sid
}

func (ft *flowTest) metric(id int) int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.metrics[id]
}

func (ft *flowTest) hasEvent(name string) bool {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	for _, e := range ft.events {
		if e == name {
			return true
		}
	}
	return false
}

// expiredWhile returns an API handler answering 401 while the session is sid or absent.
func (ft *flowTest) expiredWhile(sid string) func(*http.Request) (*http.Response, error) {
	return func(*http.Request) (*http.Response, error) {
		current, _ := ft.cookies.SessionID(context.Background())
		if current == sid || current == "" {
			return respond(testExpired, nil, "try refresh"), nil
		}
		return respond(http.StatusOK, nil, "ok"), nil
	}
}

func TestNoPriorSessionNeverCallsRefresh(t *testing.T) {
	ft := newFlowTest(t)
	ft.api = func(*http.Request) (*http.Response, error) {
		return respond(testExpired, nil, ""), nil
	}

	_, err := ft.do(t)
	if !errors.Is(err, errTestExpired) {
		t.Fatalf("expected session expired error, got %v", err)
	}
	if got := ft.refreshCalls.Load(); got != 0 {
		t.Fatalf("expected no refresh calls, got %d", got)
	}
	if got := ft.apiCalls.Load(); got != 1 {
		t.Fatalf("expected a single api call, got %d", got)
	}
	if ft.metric(11) != 1 {
		t.Fatalf("expected fast path metric")
	}
}

func TestRefreshThenRetrySucceeds(t *testing.T) {
	ft := newFlowTest(t)
	ft.setSession(t, "A")
	ft.api = ft.expiredWhile("A")
	ft.refresh = func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodPost || req.Header.Get("X-Refresh") != "1" {
			t.Errorf("unexpected refresh request %s %v", req.Method, req.Header)
		}
		return respond(http.StatusOK, map[string]string{
			HeaderIDRefreshToken: sessionHeader("B"),
			HeaderAntiCSRF:       "csrf-b",
			HeaderFrontToken:     "ft-b",
		}, ""), nil
	}

	resp, err := ft.do(t)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := ft.refreshCalls.Load(); got != 1 {
		t.Fatalf("expected one refresh call, got %d", got)
	}
	if got := ft.apiCalls.Load(); got != 2 {
		t.Fatalf("expected original call plus one retry, got %d", got)
	}
	if sid := ft.sessionID(t); sid != "B" {
		t.Fatalf("expected refreshed session B, got %q", sid)
	}
	if got := ft.seen[1].Header.Get(HeaderAntiCSRF); got != "csrf-b" {
		t.Fatalf("retry must carry the new anti-csrf token, got %q", got)
	}
	if front, _ := ft.tokens.FrontToken(context.Background()); front != "ft-b" {
		t.Fatalf("expected front token from refresh, got %q", front)
	}
	if !ft.hasEvent("REFRESH_SESSION") {
		t.Fatalf("expected REFRESH_SESSION event")
	}
}

func TestRefreshServerErrorIsAPIErrorWithoutRetry(t *testing.T) {
	ft := newFlowTest(t)
	ft.setSession(t, "A")
	ft.api = ft.expiredWhile("A")
	ft.refresh = func(*http.Request) (*http.Response, error) {
		return respond(http.StatusInternalServerError, nil, "refresh exploded badly"), nil
	}

	_, err := ft.do(t)
	var apiErr *testAPIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected api error, got %v", err)
	}
	if apiErr.res.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", apiErr.res.StatusCode)
	}
	if string(apiErr.res.Body) != "refresh exploded" {
		t.Fatalf("expected body truncated to 16 bytes, got %q", apiErr.res.Body)
	}
	if got := ft.apiCalls.Load(); got != 1 {
		t.Fatalf("original request must not be retried, got %d calls", got)
	}
	if sid := ft.sessionID(t); sid != "A" {
		t.Fatalf("session must survive api error, got %q", sid)
	}
}

func TestRefreshTransportErrorIsAPIError(t *testing.T) {
	ft := newFlowTest(t)
	ft.setSession(t, "A")
	ft.api = ft.expiredWhile("A")
	netErr := errors.New("dial tcp: connection refused")
	ft.refresh = func(*http.Request) (*http.Response, error) {
		return nil, netErr
	}

	_, err := ft.do(t)
	if !errors.Is(err, netErr) {
		t.Fatalf("expected api error unwrapping to the transport error, got %v", err)
	}
}

func TestRefreshExpiredClearsSessionAndTokens(t *testing.T) {
	ft := newFlowTest(t)
	ctx := context.Background()
	ft.setSession(t, "A")
	_ = ft.tokens.SetAntiCSRF(ctx, "A", "csrf-a")
	_ = ft.tokens.SetFrontToken(ctx, "ft-a")
	ft.api = ft.expiredWhile("A")
	ft.refresh = func(*http.Request) (*http.Response, error) {
		return respond(testExpired, nil, ""), nil
	}

	_, err := ft.do(t)
	if !errors.Is(err, errTestExpired) {
		t.Fatalf("expected session expired, got %v", err)
	}
	if sid := ft.sessionID(t); sid != "" {
		t.Fatalf("expected session cleared, got %q", sid)
	}
	if front, _ := ft.tokens.FrontToken(ctx); front != "" {
		t.Fatalf("front token must be cleared, got %q", front)
	}
	if tok, _ := ft.tokens.AntiCSRF(ctx, "A"); tok != "" {
		t.Fatalf("anti-csrf token must be cleared, got %q", tok)
	}
	if !ft.hasEvent("UNAUTHORISED") || !ft.hasEvent("SIGN_OUT") {
		t.Fatalf("expected UNAUTHORISED and SIGN_OUT events, got %v", ft.events)
	}
}

func TestTransportErrorPropagatesUnchanged(t *testing.T) {
	ft := newFlowTest(t)
	ft.setSession(t, "A")
	netErr := errors.New("read: connection reset")
	ft.api = func(*http.Request) (*http.Response, error) {
		return nil, netErr
	}

	_, err := ft.do(t)
	if err != netErr {
		t.Fatalf("expected the transport error itself, got %v", err)
	}
	if got := ft.refreshCalls.Load(); got != 0 {
		t.Fatalf("transport errors must not refresh, got %d", got)
	}
}

type statusError struct {
	resp *http.Response
}

func (e *statusError) Error() string { return "status " + strconv.Itoa(e.resp.StatusCode) }

func TestExpiredStatusCarriedByErrorIsHandled(t *testing.T) {
	ft := newFlowTest(t)
	ft.svc.deps.Request.ResponseOf = func(err error) *http.Response {
		var se *statusError
		if errors.As(err, &se) {
			return se.resp
		}
		return nil
	}
	ft.setSession(t, "A")
	ft.api = func(req *http.Request) (*http.Response, error) {
		resp, _ := ft.expiredWhile("A")(req)
		if resp.StatusCode >= 400 {
			return nil, &statusError{resp: resp}
		}
		return resp, nil
	}
	ft.refresh = func(*http.Request) (*http.Response, error) {
		return respond(http.StatusOK, map[string]string{HeaderIDRefreshToken: sessionHeader("B")}, ""), nil
	}

	resp, err := ft.do(t)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK || ft.refreshCalls.Load() != 1 {
		t.Fatalf("expected refresh and successful retry, got status %d refreshes %d", resp.StatusCode, ft.refreshCalls.Load())
	}

	other := &statusError{resp: respond(http.StatusForbidden, nil, "")}
	ft.api = func(*http.Request) (*http.Response, error) { return nil, other }
	if _, err := ft.do(t); err != other {
		t.Fatalf("non-expiry status errors must propagate unchanged, got %v", err)
	}
}

func TestConcurrentExpiryRefreshesOnce(t *testing.T) {
	ft := newFlowTest(t)
	ft.setSession(t, "A")
	ft.api = ft.expiredWhile("A")
	ft.refresh = func(*http.Request) (*http.Response, error) {
		time.Sleep(50 * time.Millisecond)
		return respond(http.StatusOK, map[string]string{HeaderIDRefreshToken: sessionHeader("B")}, ""), nil
	}

	const workers = 8
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			resp, err := ft.do(t)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("unexpected status %d", resp.StatusCode)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent requests: %v", err)
	}
	if got := ft.refreshCalls.Load(); got != 1 {
		t.Fatalf("expected exactly one refresh call, got %d", got)
	}
}

func TestAntiCSRFNeverAttachedAcrossSessions(t *testing.T) {
	ft := newFlowTest(t)
	ctx := context.Background()
	ft.setSession(t, "A")
	if err := ft.tokens.SetAntiCSRF(ctx, "A", "csrf-a"); err != nil {
		t.Fatalf("set token: %v", err)
	}

	req, _ := http.NewRequest(http.MethodGet, testAPIBase+testEndpoint, nil)
	out, pre, credentials, err := ft.svc.Augment(ctx, req, nil)
	if err != nil {
		t.Fatalf("augment: %v", err)
	}
	if pre != "A" || out.Header.Get(HeaderAntiCSRF) != "csrf-a" || !credentials {
		t.Fatalf("expected token for A with credentials, got pre=%q header=%q creds=%v", pre, out.Header.Get(HeaderAntiCSRF), credentials)
	}
	if req.Header.Get(HeaderAntiCSRF) != "" {
		t.Fatalf("augment must not modify the caller's request")
	}

	ft.setSession(t, "B")
	off := false
	out, _, credentials, err = ft.svc.Augment(ctx, req, &off)
	if err != nil {
		t.Fatalf("augment: %v", err)
	}
	if out.Header.Get(HeaderAntiCSRF) != "" {
		t.Fatalf("token for A attached under session B")
	}
	if credentials {
		t.Fatalf("explicit credentials flag must win over the default")
	}

	ft.setSession(t, "A")
	out, _, _, _ = ft.svc.Augment(ctx, req, nil)
	if out.Header.Get(HeaderAntiCSRF) != "" {
		t.Fatalf("token discarded on mismatch must not come back")
	}
}

func TestFirstAttemptShortcutSkipsInitialCall(t *testing.T) {
	ft := newFlowTest(t)
	ft.setSession(t, "A")
	ft.api = ft.expiredWhile("A")
	ft.refresh = func(*http.Request) (*http.Response, error) {
		return respond(http.StatusOK, map[string]string{HeaderIDRefreshToken: sessionHeader("B")}, ""), nil
	}

	req, _ := http.NewRequest(http.MethodGet, testAPIBase+testEndpoint, nil)
	resp, err := ft.svc.Request(context.Background(), RequestInput{
		Request: req,
		First: &FirstAttempt{
			PreSessionID: "A",
			Response:     respond(testExpired, nil, ""),
		},
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := ft.apiCalls.Load(); got != 1 {
		t.Fatalf("expected only the retry to hit the api, got %d calls", got)
	}
}

func TestRemoveHeaderOnSuccessCleansTokens(t *testing.T) {
	ft := newFlowTest(t)
	ctx := context.Background()
	ft.setSession(t, "A")
	_ = ft.tokens.SetAntiCSRF(ctx, "A", "csrf-a")
	_ = ft.tokens.SetFrontToken(ctx, "ft-a")
	ft.api = func(*http.Request) (*http.Response, error) {
		return respond(http.StatusOK, map[string]string{HeaderIDRefreshToken: "remove"}, ""), nil
	}

	if _, err := ft.do(t); err != nil {
		t.Fatalf("request: %v", err)
	}
	if sid := ft.sessionID(t); sid != "" {
		t.Fatalf("expected session removed, got %q", sid)
	}
	if front, _ := ft.tokens.FrontToken(ctx); front != "" {
		t.Fatalf("expected front token cleared, got %q", front)
	}
	if ft.metric(6) != 1 {
		t.Fatalf("expected one token cleanup, got %d", ft.metric(6))
	}
	if !ft.hasEvent("SIGN_OUT") {
		t.Fatalf("expected SIGN_OUT event")
	}
}

func TestSuccessPersistsTokensForCurrentSession(t *testing.T) {
	ft := newFlowTest(t)
	ctx := context.Background()
	ft.api = func(*http.Request) (*http.Response, error) {
		return respond(http.StatusOK, map[string]string{
			HeaderIDRefreshToken: sessionHeader("S1"),
			HeaderAntiCSRF:       "csrf-s1",
			HeaderFrontToken:     "ft-s1",
		}, ""), nil
	}

	if _, err := ft.do(t); err != nil {
		t.Fatalf("request: %v", err)
	}
	if tok, _ := ft.tokens.AntiCSRF(ctx, "S1"); tok != "csrf-s1" {
		t.Fatalf("expected anti-csrf keyed to S1, got %q", tok)
	}
	if !ft.hasEvent("SESSION_CREATED") || !ft.hasEvent("ACCESS_TOKEN_PAYLOAD_UPDATED") {
		t.Fatalf("expected SESSION_CREATED and ACCESS_TOKEN_PAYLOAD_UPDATED, got %v", ft.events)
	}
}

func TestRunRefreshRequiresEndpoint(t *testing.T) {
	ft := newFlowTest(t)
	deps := ft.svc.deps.Refresh
	deps.Endpoint = ""

	res := RunRefresh(context.Background(), "A", deps)
	if res.Outcome != RefreshAPIError || !errors.Is(res.Err, errTestConfig) {
		t.Fatalf("expected configuration failure, got %+v", res)
	}
}

func TestRunRefreshSiblingAlreadyRefreshed(t *testing.T) {
	ft := newFlowTest(t)
	ft.setSession(t, "B")

	res := ft.svc.Refresh(context.Background(), "A")
	if res.Outcome != RefreshRetry || res.Called {
		t.Fatalf("expected retry without a call, got %+v", res)
	}
	if got := ft.refreshCalls.Load(); got != 0 {
		t.Fatalf("expected no refresh call, got %d", got)
	}
}

func TestParseSessionIDHeader(t *testing.T) {
	cases := []struct {
		raw     string
		ok      bool
		remove  bool
		value   string
		expires int64
	}{
		{raw: "", ok: false},
		{raw: "remove", ok: true, remove: true},
		{raw: "abc;1700000000000", ok: true, value: "abc", expires: 1700000000000},
		{raw: "abc", ok: true, value: "abc"},
		{raw: "abc;not-a-number", ok: true, value: "abc"},
		{raw: ";123", ok: true, remove: true},
	}
	for _, tc := range cases {
		h, ok := ParseSessionIDHeader(tc.raw)
		if ok != tc.ok || h.Remove != tc.remove || h.Value != tc.value {
			t.Fatalf("%q: got %+v ok=%v", tc.raw, h, ok)
		}
		if tc.expires != 0 && h.Expires.UnixMilli() != tc.expires {
			t.Fatalf("%q: expected expiry %d, got %d", tc.raw, tc.expires, h.Expires.UnixMilli())
		}
		if tc.expires == 0 && !h.Expires.IsZero() {
			t.Fatalf("%q: expected session cookie, got expiry %v", tc.raw, h.Expires)
		}
	}
}

func TestRefreshOutcomeString(t *testing.T) {
	if RefreshRetry.String() != "RETRY" || RefreshSessionExpired.String() != "SESSION_EXPIRED" || RefreshAPIError.String() != "API_ERROR" {
		t.Fatalf("unexpected outcome names")
	}
}

func TestSessionRemovedDuringRequestIsNotReplayed(t *testing.T) {
	ft := newFlowTest(t)
	ft.setSession(t, "A")
	ft.api = func(*http.Request) (*http.Response, error) {
		// A concurrent logout lands while this call is in flight.
		_ = cookies.Clear(context.Background(), ft.cookies, "api.example.com")
		return respond(testExpired, nil, ""), nil
	}

	req, err := http.NewRequest(http.MethodPost, testAPIBase+"/pay", strings.NewReader("amount=10"))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	_, err = ft.svc.Request(context.Background(), RequestInput{Request: req})
	if !errors.Is(err, errTestExpired) {
		t.Fatalf("expected session expired, got %v", err)
	}
	if got := ft.apiCalls.Load(); got != 1 {
		t.Fatalf("request must not be replayed without a session, got %d calls", got)
	}
	if got := ft.refreshCalls.Load(); got != 0 {
		t.Fatalf("expected no refresh call, got %d", got)
	}
}

func TestRunRefreshSessionRemovedIsExpired(t *testing.T) {
	ft := newFlowTest(t)

	res := ft.svc.Refresh(context.Background(), "A")
	if res.Outcome != RefreshSessionExpired || res.Called {
		t.Fatalf("expected session expired without a call, got %+v", res)
	}
}

func TestRefreshFollowerSurvivesLeaderCancellation(t *testing.T) {
	ft := newFlowTest(t)
	ft.setSession(t, "A")
	entered := make(chan struct{})
	release := make(chan struct{})
	ft.refresh = func(req *http.Request) (*http.Response, error) {
		close(entered)
		<-release
		if err := req.Context().Err(); err != nil {
			return nil, err
		}
		return respond(http.StatusOK, map[string]string{HeaderIDRefreshToken: sessionHeader("B")}, ""), nil
	}

	leaderCtx, cancel := context.WithCancel(context.Background())
	leader := make(chan RefreshResult, 1)
	go func() { leader <- ft.svc.Refresh(leaderCtx, "A") }()
	<-entered

	follower := make(chan RefreshResult, 1)
	go func() { follower <- ft.svc.Refresh(context.Background(), "A") }()
	// Give the follower time to join the in-flight call.
	time.Sleep(20 * time.Millisecond)

	cancel()
	if res := <-leader; res.Outcome != RefreshAPIError || !errors.Is(res.Err, context.Canceled) {
		t.Fatalf("expected the cancelled leader to stop waiting, got %+v", res)
	}
	close(release)

	res := <-follower
	if res.Outcome != RefreshRetry {
		t.Fatalf("follower with a live context must see the refresh result, got %+v", res)
	}
	if got := ft.refreshCalls.Load(); got != 1 {
		t.Fatalf("expected one shared refresh call, got %d", got)
	}
	if sid := ft.sessionID(t); sid != "B" {
		t.Fatalf("expected refreshed session B, got %q", sid)
	}
}
