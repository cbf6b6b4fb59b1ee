package normalise

import (
	"fmt"
	"net/url"
	"strings"
)

// Path normalises input to an escaped URL path without a trailing slash. The root path
// normalises to "".
//
// Full URLs contribute only their path; bare hosts ("api.example.com/auth") are treated
// as URLs; anything else is treated as a path relative to the root.
func Path(input string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(input))

	if hasHTTPScheme(trimmed) {
		if u, err := url.Parse(trimmed); err == nil && u.Hostname() != "" {
			return strings.TrimSuffix(u.EscapedPath(), "/"), nil
		}
	} else if domainGiven(trimmed) || strings.HasPrefix(trimmed, "localhost") {
		return Path("http://" + trimmed)
	}

	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	u, err := url.Parse("http://example.com" + trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a valid path: %v", ErrInvalidURL, input, err)
	}
	return strings.TrimSuffix(u.EscapedPath(), "/"), nil
}

func domainGiven(input string) bool {
	if !strings.Contains(input, ".") || strings.HasPrefix(input, "/") {
		return false
	}
	if u, err := url.Parse(input); err == nil && u.Hostname() != "" {
		return strings.Contains(u.Hostname(), ".")
	}
	if u, err := url.Parse("http://" + input); err == nil && u.Hostname() != "" {
		return strings.Contains(u.Hostname(), ".")
	}
	return false
}
