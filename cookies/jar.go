package cookies

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/MrEthical07/goSession/normalise"
)

// JarStore stores the session identifier inside an [http.CookieJar].
//
// The same jar backs request credentials: [JarStore.AttachCredentials] copies the jar's
// cookies for a URL onto a request and [JarStore.StoreCredentials] saves a response's
// Set-Cookie headers.
type JarStore struct {
	jar     http.CookieJar
	name    string
	readURL *url.URL
}

// NewJarStore creates a public-suffix aware jar. scope is the session scope the
// identifier is written under (e.g. ".example.com" or "api.example.com").
func NewJarStore(name, scope string) (*JarStore, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	return NewJarStoreFromJar(jar, name, scope)
}

// NewJarStoreFromJar wraps an existing jar, e.g. one shared with an [http.Client].
func NewJarStoreFromJar(jar http.CookieJar, name, scope string) (*JarStore, error) {
	if jar == nil {
		return nil, fmt.Errorf("cookies: nil jar")
	}
	if name == "" {
		name = DefaultSessionIDCookieName
	}
	normalised, err := normalise.SessionScope(scope)
	if err != nil {
		return nil, err
	}
	return &JarStore{
		jar:  jar,
		name: name,
		readURL: &url.URL{
			Scheme: "http",
			Host:   strings.TrimPrefix(normalised, "."),
			Path:   "/",
		},
	}, nil
}

// Jar returns the underlying cookie jar.
func (s *JarStore) Jar() http.CookieJar {
	return s.jar
}

// SessionID implements [Store].
func (s *JarStore) SessionID(context.Context) (string, error) {
	for _, c := range s.jar.Cookies(s.readURL) {
		if c.Name == s.name && c.Value != "" {
			return c.Value, nil
		}
	}
	return "", nil
}

// SetSessionID implements [Store].
func (s *JarStore) SetSessionID(_ context.Context, value string, expires time.Time, scope string) error {
	c := &http.Cookie{
		Name:  s.name,
		Value: value,
		Path:  "/",
	}
	if scope != "" {
		normalised, err := normalise.SessionScope(scope)
		if err != nil {
			return err
		}
		if strings.HasPrefix(normalised, ".") {
			c.Domain = normalised
		}
	}
	switch {
	case value == "" || (!expires.IsZero() && !expires.After(time.Now())):
		c.Value = ""
		c.MaxAge = -1
	case !expires.IsZero():
		c.Expires = expires
	}
	s.jar.SetCookies(s.readURL, []*http.Cookie{c})
	return nil
}

// AttachCredentials adds the jar's cookies for req.URL to req. See [AttachFromJar].
func (s *JarStore) AttachCredentials(req *http.Request) {
	AttachFromJar(req, s.jar)
}

// AttachFromJar adds jar's cookies for req.URL to req. A cookie already on the request
// is replaced when the jar holds one with the same name, so a replayed request carries
// the values written since it was first sent.
func AttachFromJar(req *http.Request, jar http.CookieJar) {
	if req == nil || req.URL == nil || jar == nil {
		return
	}
	fromJar := jar.Cookies(req.URL)
	if len(fromJar) == 0 {
		return
	}
	names := make(map[string]struct{}, len(fromJar))
	for _, c := range fromJar {
		names[c.Name] = struct{}{}
	}
	existing := req.Cookies()
	req.Header.Del("Cookie")
	for _, c := range existing {
		if _, ok := names[c.Name]; !ok {
			req.AddCookie(c)
		}
	}
	for _, c := range fromJar {
		req.AddCookie(c)
	}
}

// StoreCredentials saves the Set-Cookie headers of resp into the jar.
func (s *JarStore) StoreCredentials(resp *http.Response) {
	if resp == nil || resp.Request == nil || resp.Request.URL == nil {
		return
	}
	if cs := resp.Cookies(); len(cs) > 0 {
		s.jar.SetCookies(resp.Request.URL, cs)
	}
}
