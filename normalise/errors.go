package normalise

import "errors"

var (
	// ErrInvalidURL is returned when a domain or path cannot be parsed as a URL-like string.
	ErrInvalidURL = errors.New("invalid url")
	// ErrInvalidScope is returned when a session scope or cookie domain cannot be parsed.
	ErrInvalidScope = errors.New("invalid session scope")
)
