package goSession

import (
	"net/http"
	"runtime"
	"weak"

	"github.com/MrEthical07/goSession/cookies"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/internal/logattr"
)

// AddInterceptors wraps hc's transport so requests it sends to the API get the same
// anti-CSRF augmentation and refresh-and-retry handling as [Client.Do]. Requests to
// other hosts pass through untouched.
//
// Installing on the same *http.Client twice is a no-op. When hc has no cookie jar and
// the client keeps its session in a [cookies.JarStore], hc is given that jar so cookies
// written by the refresh call reach its requests.
func (c *Client) AddInterceptors(hc *http.Client) error {
	if c == nil {
		return ErrNotInitialized
	}
	if hc == nil {
		return configErrorf("AddInterceptors requires a non-nil *http.Client")
	}
	if it, ok := hc.Transport.(*interceptor); ok && it.client == c {
		return nil
	}
	key := weak.Make(hc)
	if _, loaded := c.installed.LoadOrStore(key, struct{}{}); loaded {
		return nil
	}
	runtime.AddCleanup(hc, func(k weak.Pointer[http.Client]) {
		c.installed.Delete(k)
	}, key)

	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	if hc.Jar == nil && c.credentialJar != nil {
		hc.Jar = c.credentialJar.Jar()
	}
	hc.Transport = &interceptor{client: c, base: base, jar: hc.Jar}

	c.metrics.Inc(MetricInterceptorInstalled)
	c.logger.Debug("interceptor installed")
	return nil
}

// interceptor is the RoundTripper installed by AddInterceptors.
type interceptor struct {
	client *Client
	base   http.RoundTripper
	jar    http.CookieJar
}

func (it *interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	c := it.client
	intercept, err := c.decider.ShouldIntercept(req.URL.String())
	if err != nil || !intercept {
		c.metrics.Inc(MetricPassThrough)
		return it.base.RoundTrip(req)
	}

	ctx := c.requestContext(req.Context())
	out := req.Clone(ctx)
	if req.GetBody != nil && req.Body != nil {
		defer req.Body.Close()
	}
	if err := ensureReplayable(out); err != nil {
		return nil, err
	}

	svc := c.flows.WithCall(it.call)
	credentials := credentialsFlag(ctx)

	var first flows.FirstAttempt
	aug, pre, include, err := svc.Augment(ctx, out, credentials)
	if err != nil {
		first.Err = err
	} else {
		first.PreSessionID = pre
		first.Response, first.Err = it.call(aug, include)
	}

	resp, err := svc.Request(ctx, flows.RequestInput{
		Request:     out,
		Credentials: credentials,
		First:       &first,
	})
	if err != nil {
		c.logger.DebugContext(ctx, "intercepted request failed",
			logattr.Method(out.Method),
			logattr.URL(out.URL),
			logattr.Error(err),
		)
	}
	return resp, err
}

// call replays one attempt through the wrapped transport. The surrounding http.Client
// only consults its jar once per request, so attempts made after a refresh read and
// write the jar here.
func (it *interceptor) call(req *http.Request, credentials bool) (*http.Response, error) {
	if credentials && it.jar != nil {
		cookies.AttachFromJar(req, it.jar)
	}
	resp, err := it.base.RoundTrip(req)
	if credentials && it.jar != nil && resp != nil {
		if cs := resp.Cookies(); len(cs) > 0 {
			it.jar.SetCookies(req.URL, cs)
		}
	}
	return resp, err
}
