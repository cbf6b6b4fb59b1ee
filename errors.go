package goSession

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/MrEthical07/goSession/normalise"
)

// SessionExpiredMessage is the message of every [SessionExpiredError].
const SessionExpiredMessage = "Session expired"

var (
	// ErrConfiguration reports invalid or missing configuration.
	ErrConfiguration = errors.New("invalid session configuration")
	// ErrNotInitialized is returned by methods on a nil Client.
	ErrNotInitialized = errors.New("session client not initialized")
	// ErrBuilderUsed is returned by a second Build on the same Builder.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrSessionExpired matches every *SessionExpiredError.
	ErrSessionExpired = errors.New("session expired")
	// ErrNoSession is returned by front-token accessors when no session exists.
	ErrNoSession = errors.New("no session exists")
	// ErrUnsupportedBody is returned for request bodies that cannot be encoded.
	ErrUnsupportedBody = errors.New("unsupported request body")

	// ErrInvalidURL reports a URL or domain that cannot be normalised.
	ErrInvalidURL = normalise.ErrInvalidURL
	// ErrInvalidScope reports a cookie domain or session scope that cannot be normalised.
	ErrInvalidScope = normalise.ErrInvalidScope
)

// SessionExpiredError is returned when the session could not be kept alive. It is
// synthetic: it replaces the expired response rather than wrapping it.
type SessionExpiredError struct {
	StatusCode int
}

// Error returns [SessionExpiredMessage].
func (e *SessionExpiredError) Error() string {
	return SessionExpiredMessage
}

// Is makes errors.Is(err, ErrSessionExpired) hold.
func (e *SessionExpiredError) Is(target error) bool {
	return target == ErrSessionExpired
}

// APIError is returned when the refresh call failed for a reason other than session
// expiry. Err is the transport error when the call failed below HTTP.
type APIError struct {
	StatusCode int
	Body       []byte
	Err        error
}

// Error describes the failed refresh call.
func (e *APIError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("session refresh failed with status %d: %v", e.StatusCode, e.Err)
	case e.Err != nil:
		return "session refresh failed: " + e.Err.Error()
	default:
		return "session refresh failed with status " + strconv.Itoa(e.StatusCode)
	}
}

// Unwrap returns the transport error of the refresh call, if any.
func (e *APIError) Unwrap() error {
	return e.Err
}

// ResponseError lets a Transport report an HTTP-level failure as an error. Its response
// status is inspected for the session-expired code.
type ResponseError struct {
	Response *http.Response
}

// Error reports the response status.
func (e *ResponseError) Error() string {
	if e.Response == nil {
		return "unexpected response"
	}
	return "unexpected response status " + strconv.Itoa(e.Response.StatusCode)
}

func responseOf(err error) *http.Response {
	var re *ResponseError
	if errors.As(err, &re) {
		return re.Response
	}
	return nil
}

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrConfiguration}, args...)...)
}
