// Package scope decides whether an outgoing request belongs to the protected API surface
// and therefore needs anti-CSRF headers, credentials and refresh-retry handling.
//
// Without a cookie domain the target must match the API domain's host[:port] exactly.
// With a cookie domain, a leading dot enables subdomain (suffix) matching and a trailing
// numeric ":port" on the raw cookie domain makes the port part of the comparison.
package scope

import (
	"net/url"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/MrEthical07/goSession/normalise"
)

// decisionCacheSize bounds the per-origin decision cache.
const decisionCacheSize = 256

// Decider holds a pre-normalised API domain and cookie domain so that per-request checks
// only normalise the target.
type Decider struct {
	apiHost      string
	cookieDomain string
	cookieScope  string
	cookiePort   string

	// decisions caches results by "scheme://host" of well-formed absolute targets.
	decisions *lru.Cache[string, bool]
}

// New validates apiDomain and the optional cookieDomain ("" means unset).
func New(apiDomain, cookieDomain string) (*Decider, error) {
	apiHost, err := normalise.ComparableHost(apiDomain)
	if err != nil {
		return nil, err
	}
	decisions, err := lru.New[string, bool](decisionCacheSize)
	if err != nil {
		return nil, err
	}
	d := &Decider{apiHost: apiHost, decisions: decisions}
	if cookieDomain == "" {
		return d, nil
	}

	s, err := normalise.SessionScope(cookieDomain)
	if err != nil {
		return nil, err
	}
	d.cookieDomain = cookieDomain
	d.cookieScope = s
	d.cookiePort = trailingPort(cookieDomain)
	return d, nil
}

// ShouldIntercept reports whether target is in scope. A malformed target is an error;
// callers that must not fail treat it as out of scope.
func (d *Decider) ShouldIntercept(target string) (bool, error) {
	key := originKey(target)
	if key != "" {
		if in, ok := d.decisions.Get(key); ok {
			return in, nil
		}
	}
	in, err := d.decide(target)
	if err == nil && key != "" {
		d.decisions.Add(key, in)
	}
	return in, err
}

func (d *Decider) decide(target string) (bool, error) {
	normalised, err := normalise.Domain(target)
	if err != nil {
		return false, err
	}
	u, err := url.Parse(normalised)
	if err != nil {
		return false, normalise.ErrInvalidURL
	}
	host := u.Hostname()
	hostWithPort := host
	if p := u.Port(); p != "" {
		hostWithPort = host + ":" + p
	}

	if d.cookieDomain == "" {
		return hostWithPort == d.apiHost, nil
	}

	want := d.cookieScope
	got := host
	if d.cookiePort != "" {
		want += ":" + d.cookiePort
		got = hostWithPort
	}
	if strings.HasPrefix(want, ".") {
		return strings.HasSuffix("."+got, want), nil
	}
	return got == want, nil
}

// ShouldIntercept is the one-shot form of [Decider.ShouldIntercept].
func ShouldIntercept(target, apiDomain, cookieDomain string) (bool, error) {
	d, err := New(apiDomain, cookieDomain)
	if err != nil {
		return false, err
	}
	return d.ShouldIntercept(target)
}

func originKey(target string) string {
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || u.User != nil {
		return ""
	}
	return strings.ToLower(u.Scheme + "://" + u.Host)
}

func trailingPort(raw string) string {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 {
		return ""
	}
	last := strings.TrimSpace(parts[len(parts)-1])
	if _, err := strconv.ParseFloat(last, 64); err != nil {
		return ""
	}
	return last
}
