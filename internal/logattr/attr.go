// Package logattr holds the slog attribute helpers used across goSession.
//
// Helpers return an empty slog.Attr for zero inputs; handlers drop empty attributes, so
// callers never need nil checks.
package logattr

import (
	"log/slog"
	"net/url"
	"time"
)

// Error creates an attribute for a single error under the key "error".
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// RequestID creates an attribute for the per-operation request id.
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// Method creates an attribute for HTTP methods.
func Method(method string) slog.Attr {
	if method == "" {
		return slog.Attr{}
	}
	return slog.String("method", method)
}

// URL creates an attribute for a request URL without its query and user info.
func URL(u *url.URL) slog.Attr {
	if u == nil {
		return slog.Attr{}
	}
	redacted := url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path}
	return slog.String("url", redacted.String())
}

// Status creates an attribute for HTTP status codes.
func Status(code int) slog.Attr {
	if code == 0 {
		return slog.Attr{}
	}
	return slog.Int("status", code)
}

// Latency creates an attribute for an operation's duration.
func Latency(d time.Duration) slog.Attr {
	return slog.Duration("latency", d)
}

// State creates an attribute for a state-machine state.
func State(name string) slog.Attr {
	return slog.String("state", name)
}

// Outcome creates an attribute for a refresh outcome.
func Outcome(name string) slog.Attr {
	return slog.String("outcome", name)
}

// Attempt creates an attribute for a 1-based attempt counter.
func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

// HasSession records whether a session identifier is present; the identifier itself is
// never logged.
func HasSession(sessionID string) slog.Attr {
	return slog.Bool("has_session", sessionID != "")
}
