// Package normalise canonicalises API domains, URL paths and cookie session scopes into
// comparable strings.
//
// # Domains
//
// [Domain] accepts "scheme://host[:port]/..." or a bare host ("example.com",
// "localhost:3000", "10.0.0.1"). Bare hosts get "https://" unless they are localhost or
// an IPv4 literal, which get "http://". Default ports (80 for http, 443 for https) are
// dropped, so "http://Example.com:80/" and "http://example.com" normalise identically.
// [ComparableHost] reduces a normalised domain to the host[:port] tuple used for scope
// matching.
//
// # Session scopes
//
// [SessionScope] follows cookie-domain semantics: a leading dot means "this domain and all
// subdomains" and is preserved; localhost and IPv4 literals never carry a dot.
//
// # What this package must NOT do
//
//   - Perform I/O or DNS resolution.
//   - Silently default malformed input; every failure wraps [ErrInvalidURL] or
//     [ErrInvalidScope].
package normalise
